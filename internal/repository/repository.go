// Package repository defines the data-access contracts used by the
// stores, together with the sentinel errors both implementations
// return.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gobag/gobag-backend/internal/models"
)

var (
	ErrUserExists        = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrTripNotFound      = errors.New("trip not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrPackageNotFound   = errors.New("package not found")
	ErrInsufficientSpace = errors.New("insufficient space")
)

// TripFilter narrows trip listings. Zero values mean "any".
type TripFilter struct {
	DepartureLocation string
	Destination       string
	DepartureAfter    time.Time
	ActiveOnly        bool
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// TripRepository owns both trips and their bookings; the two
// collections change together on booking creation and cancellation.
type TripRepository interface {
	CreateTrip(ctx context.Context, trip *models.Trip) error
	GetTripByID(ctx context.Context, id uint) (*models.Trip, error)
	ListTrips(ctx context.Context, filter TripFilter) ([]models.Trip, error)
	ListTripsByTraveller(ctx context.Context, travellerID uint) ([]models.Trip, error)
	UpdateTripStatus(ctx context.Context, id uint, status models.TripStatus) error

	// ReserveSpace conditionally decrements a trip's available space,
	// failing with ErrInsufficientSpace when the trip cannot hold size
	// more kilograms. RestoreSpace is the inverse, used when a booking
	// is cancelled or its creation fails after the reserve.
	ReserveSpace(ctx context.Context, tripID uint, size float64) error
	RestoreSpace(ctx context.Context, tripID uint, size float64) error

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingByID(ctx context.Context, id uint) (*models.Booking, error)
	ListBookingsBySender(ctx context.Context, senderID uint) ([]models.Booking, error)
	ListBookingsByTrip(ctx context.Context, tripID uint) ([]models.Booking, error)
	ListBookingsByTraveller(ctx context.Context, travellerID uint) ([]models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id uint, status models.BookingStatus) error
	UpdateBookingPayment(ctx context.Context, id uint, status models.PaymentStatus) error
}

type PackageRepository interface {
	CreatePackage(ctx context.Context, pkg *models.Package) error
	GetPackageByID(ctx context.Context, id uint) (*models.Package, error)
	ListPackages(ctx context.Context, status models.PackageStatus) ([]models.Package, error)
	ListPackagesBySender(ctx context.Context, senderID uint) ([]models.Package, error)
	UpdatePackageStatus(ctx context.Context, id uint, status models.PackageStatus) error
}
