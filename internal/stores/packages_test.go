package stores

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gobag/gobag-backend/internal/events"
	"github.com/gobag/gobag-backend/internal/models"
	"github.com/gobag/gobag-backend/internal/repository"
)

func newPackageStore(t *testing.T) (*PackageStore, *repository.MemoryRepository) {
	t.Helper()
	logger := zap.NewNop().Sugar()
	repo := repository.NewMemoryRepository()
	return NewPackageStore(repo, events.NewBus(nil, logger), logger), repo
}

func validPackageInput() CreatePackageInput {
	return CreatePackageInput{
		DepartureCity:      "Accra",
		DepartureCountry:   "Ghana",
		DestinationCity:    "London",
		DestinationCountry: "UK",
		DeliveryDate:       time.Now().Add(7 * 24 * time.Hour),
		Size:               models.PackageSizeMedium,
		Weight:             3.5,
		Description:        "documents",
		Budget:             40,
	}
}

func TestCreatePackage(t *testing.T) {
	store, _ := newPackageStore(t)
	ctx := context.Background()

	pkg, err := store.CreatePackage(ctx, 1, validPackageInput())
	require.NoError(t, err)
	require.Equal(t, models.PackageStatusPending, pkg.Status)
	require.Equal(t, "USD", pkg.Currency)
	require.NotZero(t, pkg.ID)
}

func TestCreatePackageValidation(t *testing.T) {
	store, _ := newPackageStore(t)
	ctx := context.Background()

	mutations := []func(*CreatePackageInput){
		func(in *CreatePackageInput) { in.DepartureCity = "" },
		func(in *CreatePackageInput) { in.DestinationCountry = " " },
		func(in *CreatePackageInput) { in.DeliveryDate = time.Time{} },
		func(in *CreatePackageInput) { in.Size = models.PackageSize("huge") },
		func(in *CreatePackageInput) { in.Weight = 0 },
		func(in *CreatePackageInput) { in.Description = "" },
		func(in *CreatePackageInput) { in.Budget = -5 },
	}
	for i, mutate := range mutations {
		input := validPackageInput()
		mutate(&input)
		_, err := store.CreatePackage(ctx, 1, input)
		require.ErrorIs(t, err, ErrValidation, "case %d", i)
	}
}

func TestUpdatePackageStatusLifecycle(t *testing.T) {
	store, _ := newPackageStore(t)
	ctx := context.Background()
	traveller := Actor{ID: 2, Role: models.UserRoleTraveller}

	pkg, err := store.CreatePackage(ctx, 1, validPackageInput())
	require.NoError(t, err)

	for _, status := range []models.PackageStatus{
		models.PackageStatusAccepted,
		models.PackageStatusInTransit,
		models.PackageStatusDelivered,
	} {
		pkg, err = store.UpdatePackageStatus(ctx, pkg.ID, traveller, status)
		require.NoError(t, err)
		require.Equal(t, status, pkg.Status)
	}

	// Delivered is terminal.
	_, err = store.UpdatePackageStatus(ctx, pkg.ID, traveller, models.PackageStatusInTransit)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdatePackageStatusSkippingStages(t *testing.T) {
	store, _ := newPackageStore(t)
	ctx := context.Background()
	traveller := Actor{ID: 2, Role: models.UserRoleTraveller}

	pkg, err := store.CreatePackage(ctx, 1, validPackageInput())
	require.NoError(t, err)

	// pending may not jump straight to in_transit or delivered.
	_, err = store.UpdatePackageStatus(ctx, pkg.ID, traveller, models.PackageStatusInTransit)
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = store.UpdatePackageStatus(ctx, pkg.ID, traveller, models.PackageStatusDelivered)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = store.UpdatePackageStatus(ctx, pkg.ID, traveller, models.PackageStatus("lost"))
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = store.UpdatePackageStatus(ctx, 9999, traveller, models.PackageStatusAccepted)
	require.ErrorIs(t, err, repository.ErrPackageNotFound)
}

func TestUpdatePackageStatusAuthorization(t *testing.T) {
	store, _ := newPackageStore(t)
	ctx := context.Background()
	sender := Actor{ID: 1, Role: models.UserRoleSender}
	traveller := Actor{ID: 2, Role: models.UserRoleTraveller}

	pkg, err := store.CreatePackage(ctx, sender.ID, validPackageInput())
	require.NoError(t, err)

	// The owning sender may only cancel.
	_, err = store.UpdatePackageStatus(ctx, pkg.ID, sender, models.PackageStatusAccepted)
	require.ErrorIs(t, err, ErrNotAllowed)

	// Travellers may not cancel someone else's request.
	_, err = store.UpdatePackageStatus(ctx, pkg.ID, traveller, models.PackageStatusCancelled)
	require.ErrorIs(t, err, ErrNotAllowed)

	// A sender who does not own the package gets nothing.
	_, err = store.UpdatePackageStatus(ctx, pkg.ID, Actor{ID: 7, Role: models.UserRoleSender}, models.PackageStatusCancelled)
	require.ErrorIs(t, err, ErrNotAllowed)

	cancelled, err := store.UpdatePackageStatus(ctx, pkg.ID, sender, models.PackageStatusCancelled)
	require.NoError(t, err)
	require.Equal(t, models.PackageStatusCancelled, cancelled.Status)

	// Admins may drive any allowed transition.
	other, err := store.CreatePackage(ctx, sender.ID, validPackageInput())
	require.NoError(t, err)
	_, err = store.UpdatePackageStatus(ctx, other.ID, Actor{ID: 99, Role: models.UserRoleAdmin}, models.PackageStatusAccepted)
	require.NoError(t, err)
}

func TestListPackages(t *testing.T) {
	store, _ := newPackageStore(t)
	ctx := context.Background()

	first, err := store.CreatePackage(ctx, 1, validPackageInput())
	require.NoError(t, err)
	_, err = store.CreatePackage(ctx, 2, validPackageInput())
	require.NoError(t, err)

	_, err = store.UpdatePackageStatus(ctx, first.ID, Actor{ID: 5, Role: models.UserRoleTraveller}, models.PackageStatusAccepted)
	require.NoError(t, err)

	all, err := store.ListPackages(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	pending, err := store.ListPackages(ctx, models.PackageStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = store.ListPackages(ctx, models.PackageStatus("bogus"))
	require.ErrorIs(t, err, ErrInvalidStatus)

	mine, err := store.ListSenderPackages(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, first.ID, mine[0].ID)
}
