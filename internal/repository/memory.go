package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobag/gobag-backend/internal/models"
)

// MemoryRepository is a map-backed implementation of all three
// repository contracts. It backs the store tests and local development
// without Postgres.
type MemoryRepository struct {
	mu       sync.RWMutex
	users    map[uint]*models.User
	trips    map[uint]*models.Trip
	bookings map[uint]*models.Booking
	packages map[uint]*models.Package
	nextID   uint
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:    make(map[uint]*models.User),
		trips:    make(map[uint]*models.Trip),
		bookings: make(map[uint]*models.Booking),
		packages: make(map[uint]*models.Package),
		nextID:   1,
	}
}

func (r *MemoryRepository) allocID() uint {
	id := r.nextID
	r.nextID++
	return id
}

func (r *MemoryRepository) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrUserExists
		}
	}

	user.ID = r.allocID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *MemoryRepository) UpdateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	user.UpdatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *MemoryRepository) CreateTrip(_ context.Context, trip *models.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	trip.ID = r.allocID()
	trip.CreatedAt = time.Now()
	trip.UpdatedAt = trip.CreatedAt
	if u, ok := r.users[trip.TravellerID]; ok {
		trip.Traveller = *u
	}
	cp := *trip
	r.trips[trip.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetTripByID(_ context.Context, id uint) (*models.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trips[id]
	if !ok {
		return nil, ErrTripNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *MemoryRepository) ListTrips(_ context.Context, filter TripFilter) ([]models.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var trips []models.Trip
	for _, t := range r.trips {
		if filter.ActiveOnly && t.Status != models.TripStatusActive {
			continue
		}
		if filter.DepartureLocation != "" && !strings.EqualFold(t.DepartureLocation, filter.DepartureLocation) {
			continue
		}
		if filter.Destination != "" && !strings.EqualFold(t.Destination, filter.Destination) {
			continue
		}
		if !filter.DepartureAfter.IsZero() && t.DepartureDate.Before(filter.DepartureAfter) {
			continue
		}
		trips = append(trips, *t)
	}
	sortTripsByDeparture(trips)
	return trips, nil
}

func (r *MemoryRepository) ListTripsByTraveller(_ context.Context, travellerID uint) ([]models.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var trips []models.Trip
	for _, t := range r.trips {
		if t.TravellerID == travellerID {
			trips = append(trips, *t)
		}
	}
	sortTripsByDeparture(trips)
	return trips, nil
}

func (r *MemoryRepository) UpdateTripStatus(_ context.Context, id uint, status models.TripStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trips[id]
	if !ok {
		return ErrTripNotFound
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) ReserveSpace(_ context.Context, tripID uint, size float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trips[tripID]
	if !ok {
		return ErrTripNotFound
	}
	if t.AvailableSpace < size {
		return ErrInsufficientSpace
	}
	t.AvailableSpace -= size
	t.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) RestoreSpace(_ context.Context, tripID uint, size float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trips[tripID]
	if !ok {
		return ErrTripNotFound
	}
	t.AvailableSpace += size
	t.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) CreateBooking(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.trips[booking.TripID]; !ok {
		return ErrTripNotFound
	}

	booking.ID = r.allocID()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	booking.Trip = *r.trips[booking.TripID]
	if u, ok := r.users[booking.SenderID]; ok {
		booking.Sender = *u
	}
	cp := *booking
	r.bookings[booking.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetBookingByID(_ context.Context, id uint) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := *b
	if t, ok := r.trips[b.TripID]; ok {
		cp.Trip = *t
	}
	return &cp, nil
}

func (r *MemoryRepository) ListBookingsBySender(_ context.Context, senderID uint) ([]models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var bookings []models.Booking
	for _, b := range r.bookings {
		if b.SenderID == senderID {
			cp := *b
			if t, ok := r.trips[b.TripID]; ok {
				cp.Trip = *t
			}
			bookings = append(bookings, cp)
		}
	}
	sortBookingsByID(bookings)
	return bookings, nil
}

func (r *MemoryRepository) ListBookingsByTrip(_ context.Context, tripID uint) ([]models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var bookings []models.Booking
	for _, b := range r.bookings {
		if b.TripID == tripID {
			cp := *b
			if t, ok := r.trips[b.TripID]; ok {
				cp.Trip = *t
			}
			bookings = append(bookings, cp)
		}
	}
	sortBookingsByID(bookings)
	return bookings, nil
}

func (r *MemoryRepository) ListBookingsByTraveller(_ context.Context, travellerID uint) ([]models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var bookings []models.Booking
	for _, b := range r.bookings {
		t, ok := r.trips[b.TripID]
		if !ok || t.TravellerID != travellerID {
			continue
		}
		cp := *b
		cp.Trip = *t
		bookings = append(bookings, cp)
	}
	sortBookingsByID(bookings)
	return bookings, nil
}

func (r *MemoryRepository) UpdateBookingStatus(_ context.Context, id uint, status models.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) UpdateBookingPayment(_ context.Context, id uint, status models.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	b.PaymentStatus = status
	b.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) CreatePackage(_ context.Context, pkg *models.Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pkg.ID = r.allocID()
	pkg.CreatedAt = time.Now()
	pkg.UpdatedAt = pkg.CreatedAt
	if u, ok := r.users[pkg.SenderID]; ok {
		pkg.Sender = *u
	}
	cp := *pkg
	r.packages[pkg.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetPackageByID(_ context.Context, id uint) (*models.Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.packages[id]
	if !ok {
		return nil, ErrPackageNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) ListPackages(_ context.Context, status models.PackageStatus) ([]models.Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var packages []models.Package
	for _, p := range r.packages {
		if status != "" && p.Status != status {
			continue
		}
		packages = append(packages, *p)
	}
	sortPackagesByID(packages)
	return packages, nil
}

func (r *MemoryRepository) ListPackagesBySender(_ context.Context, senderID uint) ([]models.Package, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var packages []models.Package
	for _, p := range r.packages {
		if p.SenderID == senderID {
			packages = append(packages, *p)
		}
	}
	sortPackagesByID(packages)
	return packages, nil
}

func (r *MemoryRepository) UpdatePackageStatus(_ context.Context, id uint, status models.PackageStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.packages[id]
	if !ok {
		return ErrPackageNotFound
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}

func sortTripsByDeparture(trips []models.Trip) {
	sort.Slice(trips, func(i, j int) bool {
		if trips[i].DepartureDate.Equal(trips[j].DepartureDate) {
			return trips[i].ID < trips[j].ID
		}
		return trips[i].DepartureDate.Before(trips[j].DepartureDate)
	})
}

func sortBookingsByID(bookings []models.Booking) {
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID < bookings[j].ID })
}

func sortPackagesByID(packages []models.Package) {
	sort.Slice(packages, func(i, j int) bool { return packages[i].ID < packages[j].ID })
}
