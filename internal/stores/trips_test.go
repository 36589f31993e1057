package stores

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gobag/gobag-backend/internal/events"
	"github.com/gobag/gobag-backend/internal/models"
	"github.com/gobag/gobag-backend/internal/repository"
)

type tripFixture struct {
	store     *TripStore
	repo      *repository.MemoryRepository
	traveller *models.User
	sender    *models.User
}

func newTripFixture(t *testing.T) *tripFixture {
	t.Helper()
	logger := zap.NewNop().Sugar()
	repo := repository.NewMemoryRepository()

	traveller := &models.User{Email: "trav@x.com", Name: "Traveller", Role: models.UserRoleTraveller, Active: true}
	require.NoError(t, repo.CreateUser(context.Background(), traveller))
	sender := &models.User{Email: "send@x.com", Name: "Sender", Role: models.UserRoleSender, Active: true}
	require.NoError(t, repo.CreateUser(context.Background(), sender))

	return &tripFixture{
		store:     NewTripStore(repo, events.NewBus(nil, logger), logger),
		repo:      repo,
		traveller: traveller,
		sender:    sender,
	}
}

func (f *tripFixture) createTrip(t *testing.T, space float64) *models.Trip {
	t.Helper()
	trip, err := f.store.CreateTrip(context.Background(), f.traveller.ID, CreateTripInput{
		DepartureLocation: "Accra",
		Destination:       "London",
		DepartureDate:     time.Now().Add(48 * time.Hour),
		ArrivalDate:       time.Now().Add(72 * time.Hour),
		AvailableSpace:    space,
		PricePerKg:        10,
	})
	require.NoError(t, err)
	return trip
}

func TestCreateTripValidation(t *testing.T) {
	f := newTripFixture(t)
	ctx := context.Background()

	base := CreateTripInput{
		DepartureLocation: "Accra",
		Destination:       "London",
		DepartureDate:     time.Now().Add(48 * time.Hour),
		ArrivalDate:       time.Now().Add(72 * time.Hour),
		AvailableSpace:    10,
		PricePerKg:        10,
	}

	mutations := []func(*CreateTripInput){
		func(in *CreateTripInput) { in.DepartureLocation = " " },
		func(in *CreateTripInput) { in.Destination = "" },
		func(in *CreateTripInput) { in.DepartureDate = time.Time{} },
		func(in *CreateTripInput) { in.ArrivalDate = in.DepartureDate.Add(-time.Hour) },
		func(in *CreateTripInput) { in.AvailableSpace = 0 },
		func(in *CreateTripInput) { in.PricePerKg = -1 },
	}
	for i, mutate := range mutations {
		input := base
		mutate(&input)
		_, err := f.store.CreateTrip(ctx, f.traveller.ID, input)
		require.ErrorIs(t, err, ErrValidation, "case %d", i)
	}

	trip, err := f.store.CreateTrip(ctx, f.traveller.ID, base)
	require.NoError(t, err)
	require.Equal(t, models.TripStatusActive, trip.Status)
	require.Equal(t, "USD", trip.Currency)
}

func TestBookTripReservesSpace(t *testing.T) {
	f := newTripFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, 10)

	first, err := f.store.BookTrip(ctx, BookTripInput{
		TripID: trip.ID, SenderID: f.sender.ID, LuggageSize: 4, LuggageDescription: "books",
	})
	require.NoError(t, err)
	require.Equal(t, models.BookingStatusPending, first.Status)
	require.Equal(t, models.PaymentStatusPending, first.PaymentStatus)
	require.NotEmpty(t, first.Reference)

	second, err := f.store.BookTrip(ctx, BookTripInput{
		TripID: trip.ID, SenderID: f.sender.ID, LuggageSize: 5, LuggageDescription: "clothes",
	})
	require.NoError(t, err)
	require.InDelta(t, 50.0, second.TotalPrice, 1e-9)
	require.InDelta(t, 5.0, second.PlatformFee, 1e-9)

	got, err := f.store.GetTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.InDelta(t, 1.0, got.AvailableSpace, 1e-9)

	// 2kg no longer fits and the failure must not eat the last kilogram.
	_, err = f.store.BookTrip(ctx, BookTripInput{
		TripID: trip.ID, SenderID: f.sender.ID, LuggageSize: 2, LuggageDescription: "shoes",
	})
	require.ErrorIs(t, err, repository.ErrInsufficientSpace)

	got, err = f.store.GetTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.InDelta(t, 1.0, got.AvailableSpace, 1e-9)
}

func TestBookTripGuards(t *testing.T) {
	f := newTripFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, 10)

	_, err := f.store.BookTrip(ctx, BookTripInput{
		TripID: 9999, SenderID: f.sender.ID, LuggageSize: 1, LuggageDescription: "x",
	})
	require.ErrorIs(t, err, repository.ErrTripNotFound)

	_, err = f.store.BookTrip(ctx, BookTripInput{
		TripID: trip.ID, SenderID: f.traveller.ID, LuggageSize: 1, LuggageDescription: "x",
	})
	require.ErrorIs(t, err, ErrNotAllowed)

	_, err = f.store.BookTrip(ctx, BookTripInput{
		TripID: trip.ID, SenderID: f.sender.ID, LuggageSize: 0, LuggageDescription: "x",
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.store.UpdateTripStatus(ctx, trip.ID, Actor{ID: f.traveller.ID, Role: models.UserRoleTraveller}, models.TripStatusCancelled)
	require.NoError(t, err)

	_, err = f.store.BookTrip(ctx, BookTripInput{
		TripID: trip.ID, SenderID: f.sender.ID, LuggageSize: 1, LuggageDescription: "x",
	})
	require.ErrorIs(t, err, ErrTripNotActive)
}

func TestBookTripConcurrent(t *testing.T) {
	f := newTripFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, 10)

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.store.BookTrip(ctx, BookTripInput{
				TripID: trip.ID, SenderID: f.sender.ID, LuggageSize: 1, LuggageDescription: "parcel",
			})
		}(i)
	}
	wg.Wait()

	var booked int
	for _, err := range errs {
		if err == nil {
			booked++
		} else {
			require.ErrorIs(t, err, repository.ErrInsufficientSpace)
		}
	}
	require.Equal(t, 10, booked)

	got, err := f.store.GetTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.InDelta(t, 0.0, got.AvailableSpace, 1e-9)
}

func TestUpdateTripStatus(t *testing.T) {
	f := newTripFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, 10)
	owner := Actor{ID: f.traveller.ID, Role: models.UserRoleTraveller}

	_, err := f.store.UpdateTripStatus(ctx, trip.ID, owner, models.TripStatus("parked"))
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.store.UpdateTripStatus(ctx, trip.ID, Actor{ID: f.sender.ID, Role: models.UserRoleSender}, models.TripStatusCompleted)
	require.ErrorIs(t, err, ErrNotAllowed)

	updated, err := f.store.UpdateTripStatus(ctx, trip.ID, owner, models.TripStatusCompleted)
	require.NoError(t, err)
	require.Equal(t, models.TripStatusCompleted, updated.Status)

	// Completed is terminal.
	_, err = f.store.UpdateTripStatus(ctx, trip.ID, owner, models.TripStatusActive)
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.store.UpdateTripStatus(ctx, trip.ID, owner, models.TripStatusCancelled)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.store.UpdateTripStatus(ctx, 9999, owner, models.TripStatusCompleted)
	require.ErrorIs(t, err, repository.ErrTripNotFound)

	// Admins may transition trips they do not own.
	other := f.createTrip(t, 5)
	_, err = f.store.UpdateTripStatus(ctx, other.ID, Actor{ID: 9000, Role: models.UserRoleAdmin}, models.TripStatusCancelled)
	require.NoError(t, err)
}

func TestTripLockReleasedOnTerminalStatus(t *testing.T) {
	f := newTripFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, 10)
	owner := Actor{ID: f.traveller.ID, Role: models.UserRoleTraveller}

	_, err := f.store.BookTrip(ctx, BookTripInput{
		TripID: trip.ID, SenderID: f.sender.ID, LuggageSize: 1, LuggageDescription: "parcel",
	})
	require.NoError(t, err)

	f.store.locksMu.Lock()
	held := len(f.store.tripLocks)
	f.store.locksMu.Unlock()
	require.Equal(t, 1, held)

	_, err = f.store.UpdateTripStatus(ctx, trip.ID, owner, models.TripStatusCompleted)
	require.NoError(t, err)

	f.store.locksMu.Lock()
	held = len(f.store.tripLocks)
	f.store.locksMu.Unlock()
	require.Zero(t, held, "completed trip keeps its booking lock")
}

func TestUpdateBookingStatusLifecycle(t *testing.T) {
	f := newTripFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, 10)
	owner := Actor{ID: f.traveller.ID, Role: models.UserRoleTraveller}
	sender := Actor{ID: f.sender.ID, Role: models.UserRoleSender}

	booking, err := f.store.BookTrip(ctx, BookTripInput{
		TripID: trip.ID, SenderID: f.sender.ID, LuggageSize: 4, LuggageDescription: "books",
	})
	require.NoError(t, err)

	// The sender cannot confirm, only cancel.
	_, err = f.store.UpdateBookingStatus(ctx, booking.ID, sender, models.BookingStatusConfirmed)
	require.ErrorIs(t, err, ErrNotAllowed)

	confirmed, err := f.store.UpdateBookingStatus(ctx, booking.ID, owner, models.BookingStatusConfirmed)
	require.NoError(t, err)
	require.Equal(t, models.BookingStatusConfirmed, confirmed.Status)

	// Pending is behind us now.
	_, err = f.store.UpdateBookingStatus(ctx, booking.ID, owner, models.BookingStatusPending)
	require.ErrorIs(t, err, ErrInvalidTransition)

	done, err := f.store.UpdateBookingStatus(ctx, booking.ID, owner, models.BookingStatusCompleted)
	require.NoError(t, err)
	require.Equal(t, models.BookingStatusCompleted, done.Status)

	_, err = f.store.UpdateBookingStatus(ctx, booking.ID, owner, models.BookingStatusCancelled)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.store.UpdateBookingStatus(ctx, 9999, owner, models.BookingStatusConfirmed)
	require.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestCancelBookingRestoresSpaceAndRefunds(t *testing.T) {
	f := newTripFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, 10)
	sender := Actor{ID: f.sender.ID, Role: models.UserRoleSender}

	booking, err := f.store.BookTrip(ctx, BookTripInput{
		TripID: trip.ID, SenderID: f.sender.ID, LuggageSize: 4, LuggageDescription: "books",
	})
	require.NoError(t, err)

	paid, err := f.store.MarkBookingPaid(ctx, booking.ID, sender)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)

	cancelled, err := f.store.UpdateBookingStatus(ctx, booking.ID, sender, models.BookingStatusCancelled)
	require.NoError(t, err)
	require.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	require.Equal(t, models.PaymentStatusRefunded, cancelled.PaymentStatus)

	got, err := f.store.GetTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.InDelta(t, 10.0, got.AvailableSpace, 1e-9)
}

func TestMarkBookingPaidGuards(t *testing.T) {
	f := newTripFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, 10)
	sender := Actor{ID: f.sender.ID, Role: models.UserRoleSender}

	booking, err := f.store.BookTrip(ctx, BookTripInput{
		TripID: trip.ID, SenderID: f.sender.ID, LuggageSize: 2, LuggageDescription: "books",
	})
	require.NoError(t, err)

	_, err = f.store.MarkBookingPaid(ctx, booking.ID, Actor{ID: f.traveller.ID, Role: models.UserRoleTraveller})
	require.ErrorIs(t, err, ErrNotAllowed)

	_, err = f.store.MarkBookingPaid(ctx, booking.ID, sender)
	require.NoError(t, err)

	// Paying twice is rejected.
	_, err = f.store.MarkBookingPaid(ctx, booking.ID, sender)
	require.ErrorIs(t, err, ErrInvalidTransition)

	other, err := f.store.BookTrip(ctx, BookTripInput{
		TripID: trip.ID, SenderID: f.sender.ID, LuggageSize: 1, LuggageDescription: "shoes",
	})
	require.NoError(t, err)
	_, err = f.store.UpdateBookingStatus(ctx, other.ID, sender, models.BookingStatusCancelled)
	require.NoError(t, err)
	_, err = f.store.MarkBookingPaid(ctx, other.ID, sender)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGetBookingStatusFallsBackToRepository(t *testing.T) {
	f := newTripFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, 10)

	booking, err := f.store.BookTrip(ctx, BookTripInput{
		TripID: trip.ID, SenderID: f.sender.ID, LuggageSize: 2, LuggageDescription: "books",
	})
	require.NoError(t, err)

	status, payment, err := f.store.GetBookingStatus(ctx, booking.ID)
	require.NoError(t, err)
	require.Equal(t, models.BookingStatusPending, status)
	require.Equal(t, models.PaymentStatusPending, payment)

	_, _, err = f.store.GetBookingStatus(ctx, 9999)
	require.True(t, errors.Is(err, repository.ErrBookingNotFound))
}

func TestListBookings(t *testing.T) {
	f := newTripFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, 10)

	for i := 0; i < 3; i++ {
		_, err := f.store.BookTrip(ctx, BookTripInput{
			TripID: trip.ID, SenderID: f.sender.ID, LuggageSize: 1, LuggageDescription: "parcel",
		})
		require.NoError(t, err)
	}

	bySender, err := f.store.ListSenderBookings(ctx, f.sender.ID)
	require.NoError(t, err)
	require.Len(t, bySender, 3)

	byTraveller, err := f.store.ListTravellerBookings(ctx, f.traveller.ID)
	require.NoError(t, err)
	require.Len(t, byTraveller, 3)
	for _, b := range byTraveller {
		require.Equal(t, trip.ID, b.TripID)
	}

	none, err := f.store.ListSenderBookings(ctx, 9999)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestListTripsFilters(t *testing.T) {
	f := newTripFixture(t)
	ctx := context.Background()

	early, err := f.store.CreateTrip(ctx, f.traveller.ID, CreateTripInput{
		DepartureLocation: "Accra",
		Destination:       "London",
		DepartureDate:     time.Now().Add(24 * time.Hour),
		ArrivalDate:       time.Now().Add(48 * time.Hour),
		AvailableSpace:    5,
		PricePerKg:        8,
	})
	require.NoError(t, err)

	late, err := f.store.CreateTrip(ctx, f.traveller.ID, CreateTripInput{
		DepartureLocation: "Lagos",
		Destination:       "Paris",
		DepartureDate:     time.Now().Add(96 * time.Hour),
		ArrivalDate:       time.Now().Add(120 * time.Hour),
		AvailableSpace:    5,
		PricePerKg:        12,
	})
	require.NoError(t, err)

	all, err := f.store.ListTrips(ctx, repository.TripFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, early.ID, all[0].ID, "listing is ordered by departure date")

	paris, err := f.store.ListTrips(ctx, repository.TripFilter{Destination: "paris"})
	require.NoError(t, err)
	require.Len(t, paris, 1)
	require.Equal(t, late.ID, paris[0].ID)

	future, err := f.store.ListTrips(ctx, repository.TripFilter{DepartureAfter: time.Now().Add(72 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, future, 1)

	_, err = f.store.UpdateTripStatus(ctx, early.ID, Actor{ID: f.traveller.ID, Role: models.UserRoleTraveller}, models.TripStatusCancelled)
	require.NoError(t, err)

	active, err := f.store.ListTrips(ctx, repository.TripFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, late.ID, active[0].ID)
}
