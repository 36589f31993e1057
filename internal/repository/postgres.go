package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/gobag/gobag-backend/internal/models"
)

// PostgresRepository implements the repository contracts on top of
// gorm. A single instance serves all three stores.
type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("lower(email) = lower(?)", user.Email).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUserExists
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		// Unique index still wins when two registrations race.
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrUserExists
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("lower(email) = lower(?)", email).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Save(user)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *PostgresRepository) CreateTrip(ctx context.Context, trip *models.Trip) error {
	if err := r.db.WithContext(ctx).Create(trip).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("Traveller").First(trip, trip.ID).Error
}

func (r *PostgresRepository) GetTripByID(ctx context.Context, id uint) (*models.Trip, error) {
	var trip models.Trip
	if err := r.db.WithContext(ctx).Preload("Traveller").First(&trip, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return &trip, nil
}

func (r *PostgresRepository) ListTrips(ctx context.Context, filter TripFilter) ([]models.Trip, error) {
	q := r.db.WithContext(ctx).Preload("Traveller")
	if filter.ActiveOnly {
		q = q.Where("status = ?", models.TripStatusActive)
	}
	if filter.DepartureLocation != "" {
		q = q.Where("lower(departure_location) = lower(?)", filter.DepartureLocation)
	}
	if filter.Destination != "" {
		q = q.Where("lower(destination) = lower(?)", filter.Destination)
	}
	if !filter.DepartureAfter.IsZero() {
		q = q.Where("departure_date >= ?", filter.DepartureAfter)
	}

	var trips []models.Trip
	if err := q.Order("departure_date asc").Find(&trips).Error; err != nil {
		return nil, err
	}
	return trips, nil
}

func (r *PostgresRepository) ListTripsByTraveller(ctx context.Context, travellerID uint) ([]models.Trip, error) {
	var trips []models.Trip
	if err := r.db.WithContext(ctx).
		Where("traveller_id = ?", travellerID).
		Order("departure_date asc").
		Find(&trips).Error; err != nil {
		return nil, err
	}
	return trips, nil
}

func (r *PostgresRepository) UpdateTripStatus(ctx context.Context, id uint, status models.TripStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Trip{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTripNotFound
	}
	return nil
}

// ReserveSpace decrements available space with a guarded UPDATE so the
// no-overbooking invariant holds even across processes sharing the
// database.
func (r *PostgresRepository) ReserveSpace(ctx context.Context, tripID uint, size float64) error {
	result := r.db.WithContext(ctx).Model(&models.Trip{}).
		Where("id = ? AND available_space >= ?", tripID, size).
		Update("available_space", gorm.Expr("available_space - ?", size))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Trip{}).
			Where("id = ?", tripID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrTripNotFound
		}
		return ErrInsufficientSpace
	}
	return nil
}

func (r *PostgresRepository) RestoreSpace(ctx context.Context, tripID uint, size float64) error {
	result := r.db.WithContext(ctx).Model(&models.Trip{}).
		Where("id = ?", tripID).
		Update("available_space", gorm.Expr("available_space + ?", size))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTripNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Preload("Trip").
		Preload("Trip.Traveller").
		Preload("Sender").
		First(booking, booking.ID).Error
}

func (r *PostgresRepository) GetBookingByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Trip").
		Preload("Trip.Traveller").
		Preload("Sender").
		First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *PostgresRepository) ListBookingsBySender(ctx context.Context, senderID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := r.db.WithContext(ctx).
		Where("sender_id = ?", senderID).
		Preload("Trip").
		Preload("Trip.Traveller").
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *PostgresRepository) ListBookingsByTrip(ctx context.Context, tripID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := r.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Preload("Sender").
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *PostgresRepository) ListBookingsByTraveller(ctx context.Context, travellerID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := r.db.WithContext(ctx).
		Joins("Trip").
		Where("\"Trip\".traveller_id = ?", travellerID).
		Preload("Sender").
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *PostgresRepository) UpdateBookingStatus(ctx context.Context, id uint, status models.BookingStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateBookingPayment(ctx context.Context, id uint, status models.PaymentStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Update("payment_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *PostgresRepository) CreatePackage(ctx context.Context, pkg *models.Package) error {
	if err := r.db.WithContext(ctx).Create(pkg).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("Sender").First(pkg, pkg.ID).Error
}

func (r *PostgresRepository) GetPackageByID(ctx context.Context, id uint) (*models.Package, error) {
	var pkg models.Package
	if err := r.db.WithContext(ctx).Preload("Sender").First(&pkg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *PostgresRepository) ListPackages(ctx context.Context, status models.PackageStatus) ([]models.Package, error) {
	q := r.db.WithContext(ctx).Preload("Sender")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var packages []models.Package
	if err := q.Order("created_at desc").Find(&packages).Error; err != nil {
		return nil, err
	}
	return packages, nil
}

func (r *PostgresRepository) ListPackagesBySender(ctx context.Context, senderID uint) ([]models.Package, error) {
	var packages []models.Package
	if err := r.db.WithContext(ctx).
		Where("sender_id = ?", senderID).
		Order("created_at desc").
		Find(&packages).Error; err != nil {
		return nil, err
	}
	return packages, nil
}

func (r *PostgresRepository) UpdatePackageStatus(ctx context.Context, id uint, status models.PackageStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Package{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPackageNotFound
	}
	return nil
}
