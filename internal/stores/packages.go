package stores

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gobag/gobag-backend/internal/events"
	"github.com/gobag/gobag-backend/internal/models"
	"github.com/gobag/gobag-backend/internal/repository"
)

// PackageStore manages standalone shipping requests. Matching a
// package to a traveller happens between the parties; the store only
// tracks the request and its delivery status.
type PackageStore struct {
	packages repository.PackageRepository
	bus      *events.Bus
	logger   *zap.SugaredLogger
}

func NewPackageStore(packages repository.PackageRepository, bus *events.Bus, logger *zap.SugaredLogger) *PackageStore {
	return &PackageStore{packages: packages, bus: bus, logger: logger}
}

type CreatePackageInput struct {
	DepartureCity       string
	DepartureCountry    string
	DestinationCity     string
	DestinationCountry  string
	DeliveryDate        time.Time
	Size                models.PackageSize
	Weight              float64
	Description         string
	Budget              float64
	Currency            string
	SpecialInstructions string
	PhotoURL            string
}

// CreatePackage records a shipping request for the authenticated
// sender, starting in the pending status.
func (s *PackageStore) CreatePackage(ctx context.Context, senderID uint, input CreatePackageInput) (*models.Package, error) {
	if err := validateCreatePackageInput(input); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}

	pkg := &models.Package{
		SenderID:            senderID,
		DepartureCity:       strings.TrimSpace(input.DepartureCity),
		DepartureCountry:    strings.TrimSpace(input.DepartureCountry),
		DestinationCity:     strings.TrimSpace(input.DestinationCity),
		DestinationCountry:  strings.TrimSpace(input.DestinationCountry),
		DeliveryDate:        input.DeliveryDate,
		Size:                input.Size,
		Weight:              input.Weight,
		Description:         strings.TrimSpace(input.Description),
		Budget:              input.Budget,
		Currency:            currency,
		SpecialInstructions: strings.TrimSpace(input.SpecialInstructions),
		PhotoURL:            input.PhotoURL,
		Status:              models.PackageStatusPending,
	}

	if err := s.packages.CreatePackage(ctx, pkg); err != nil {
		return nil, err
	}

	s.bus.Publish(events.TopicPackageCreated, events.PackageCreated{
		PackageID:       pkg.ID,
		SenderID:        pkg.SenderID,
		DepartureCity:   pkg.DepartureCity,
		DestinationCity: pkg.DestinationCity,
		Size:            pkg.Size,
		Weight:          pkg.Weight,
		Budget:          pkg.Budget,
		Currency:        pkg.Currency,
	})

	s.logger.Infow("package created", "packageId", pkg.ID, "senderId", senderID)
	return pkg, nil
}

func (s *PackageStore) GetPackage(ctx context.Context, id uint) (*models.Package, error) {
	return s.packages.GetPackageByID(ctx, id)
}

// ListPackages returns open requests for travellers to browse,
// optionally narrowed to one status.
func (s *PackageStore) ListPackages(ctx context.Context, status models.PackageStatus) ([]models.Package, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.packages.ListPackages(ctx, status)
}

func (s *PackageStore) ListSenderPackages(ctx context.Context, senderID uint) ([]models.Package, error) {
	return s.packages.ListPackagesBySender(ctx, senderID)
}

// UpdatePackageStatus moves a package along its delivery lifecycle.
// The owning sender may cancel; travellers and admins drive
// accepted -> in_transit -> delivered.
func (s *PackageStore) UpdatePackageStatus(ctx context.Context, packageID uint, actor Actor, status models.PackageStatus) (*models.Package, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	pkg, err := s.packages.GetPackageByID(ctx, packageID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.IsAdmin():
	case actor.ID == pkg.SenderID:
		if status != models.PackageStatusCancelled {
			return nil, ErrNotAllowed
		}
	case actor.Role == models.UserRoleTraveller:
		if status == models.PackageStatusCancelled {
			return nil, ErrNotAllowed
		}
	default:
		return nil, ErrNotAllowed
	}

	if !pkg.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, pkg.Status, status)
	}

	if err := s.packages.UpdatePackageStatus(ctx, packageID, status); err != nil {
		return nil, err
	}
	pkg.Status = status

	s.bus.Publish(events.TopicPackageStatusChanged, events.PackageStatusChanged{
		PackageID: packageID,
		SenderID:  pkg.SenderID,
		Status:    status,
	})

	s.logger.Infow("package status updated", "packageId", packageID, "status", status)
	return pkg, nil
}

func validateCreatePackageInput(input CreatePackageInput) error {
	if strings.TrimSpace(input.DepartureCity) == "" || strings.TrimSpace(input.DepartureCountry) == "" {
		return fmt.Errorf("%w: departure city and country are required", ErrValidation)
	}
	if strings.TrimSpace(input.DestinationCity) == "" || strings.TrimSpace(input.DestinationCountry) == "" {
		return fmt.Errorf("%w: destination city and country are required", ErrValidation)
	}
	if input.DeliveryDate.IsZero() {
		return fmt.Errorf("%w: delivery date is required", ErrValidation)
	}
	if !input.Size.Valid() {
		return fmt.Errorf("%w: size must be small, medium or large", ErrValidation)
	}
	if input.Weight <= 0 {
		return fmt.Errorf("%w: weight must be positive", ErrValidation)
	}
	if strings.TrimSpace(input.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if input.Budget <= 0 {
		return fmt.Errorf("%w: budget must be positive", ErrValidation)
	}
	return nil
}
