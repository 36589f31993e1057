package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gobag/gobag-backend/internal/events"
	"github.com/gobag/gobag-backend/internal/models"
	"github.com/gobag/gobag-backend/internal/repository"
	"github.com/gobag/gobag-backend/internal/services"
	"github.com/gobag/gobag-backend/pkg/utils"
)

// TripStore manages trips and the bookings made against them.
type TripStore struct {
	trips  repository.TripRepository
	bus    *events.Bus
	logger *zap.SugaredLogger

	// Booking serializes per trip: two concurrent bookings for the
	// same trip must not both read the pre-decrement space.
	locksMu   sync.Mutex
	tripLocks map[uint]*sync.Mutex
}

func NewTripStore(trips repository.TripRepository, bus *events.Bus, logger *zap.SugaredLogger) *TripStore {
	return &TripStore{
		trips:     trips,
		bus:       bus,
		logger:    logger,
		tripLocks: make(map[uint]*sync.Mutex),
	}
}

func (s *TripStore) lockTrip(tripID uint) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.tripLocks[tripID]
	if !ok {
		lock = &sync.Mutex{}
		s.tripLocks[tripID] = lock
	}
	return lock
}

// releaseTripLock drops the per-trip booking lock once the trip can no
// longer be booked, so the map does not grow with every trip ever
// booked. A booking still holding the old lock fails on the status
// check, and the repository re-validates the decrement at write time.
func (s *TripStore) releaseTripLock(tripID uint) {
	s.locksMu.Lock()
	delete(s.tripLocks, tripID)
	s.locksMu.Unlock()
}

type CreateTripInput struct {
	DepartureLocation string
	Destination       string
	DepartureDate     time.Time
	ArrivalDate       time.Time
	AvailableSpace    float64
	PricePerKg        float64
	Currency          string
	Description       string
}

func (s *TripStore) CreateTrip(ctx context.Context, travellerID uint, input CreateTripInput) (*models.Trip, error) {
	if err := validateCreateTripInput(input); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}

	trip := &models.Trip{
		TravellerID:       travellerID,
		DepartureLocation: strings.TrimSpace(input.DepartureLocation),
		Destination:       strings.TrimSpace(input.Destination),
		DepartureDate:     input.DepartureDate,
		ArrivalDate:       input.ArrivalDate,
		AvailableSpace:    input.AvailableSpace,
		PricePerKg:        input.PricePerKg,
		Currency:          currency,
		Status:            models.TripStatusActive,
		Description:       strings.TrimSpace(input.Description),
	}

	if err := s.trips.CreateTrip(ctx, trip); err != nil {
		return nil, err
	}

	s.invalidateListingCache(ctx)
	s.logger.Infow("trip created", "tripId", trip.ID, "travellerId", travellerID)
	return trip, nil
}

// ListTrips serves the public listing, read through the Redis cache
// for the default "all active trips" query. Cache failures are logged
// and ignored so a stale or slow cache never empties the listing.
func (s *TripStore) ListTrips(ctx context.Context, filter repository.TripFilter) ([]models.Trip, error) {
	defaultQuery := filter.ActiveOnly && filter.DepartureLocation == "" &&
		filter.Destination == "" && filter.DepartureAfter.IsZero()

	if defaultQuery {
		if trips, err := services.GetCachedActiveTrips(ctx); err == nil {
			return trips, nil
		} else if !errors.Is(err, services.ErrCacheUnavailable) {
			s.logger.Warnw("trip cache read failed", "error", err)
		}
	}

	trips, err := s.trips.ListTrips(ctx, filter)
	if err != nil {
		return nil, err
	}

	if defaultQuery {
		if err := services.CacheActiveTrips(ctx, trips); err != nil && !errors.Is(err, services.ErrCacheUnavailable) {
			s.logger.Warnw("trip cache write failed", "error", err)
		}
	}
	return trips, nil
}

func (s *TripStore) GetTrip(ctx context.Context, id uint) (*models.Trip, error) {
	return s.trips.GetTripByID(ctx, id)
}

func (s *TripStore) ListTravellerTrips(ctx context.Context, travellerID uint) ([]models.Trip, error) {
	return s.trips.ListTripsByTraveller(ctx, travellerID)
}

type BookTripInput struct {
	TripID             uint
	SenderID           uint
	LuggageSize        float64
	LuggageDescription string
}

// BookTrip reserves space on a trip. The price is frozen at booking
// time from the trip's current per-kg rate. The whole
// read-check-reserve window runs under the trip's lock, and the
// repository re-validates the decrement at write time, so two
// concurrent bookings can never both claim the last kilograms.
func (s *TripStore) BookTrip(ctx context.Context, input BookTripInput) (*models.Booking, error) {
	if input.LuggageSize <= 0 {
		return nil, fmt.Errorf("%w: luggage size must be positive", ErrValidation)
	}
	if strings.TrimSpace(input.LuggageDescription) == "" {
		return nil, fmt.Errorf("%w: luggage description is required", ErrValidation)
	}

	lock := s.lockTrip(input.TripID)
	lock.Lock()
	defer lock.Unlock()

	trip, err := s.trips.GetTripByID(ctx, input.TripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != models.TripStatusActive {
		return nil, ErrTripNotActive
	}
	if trip.TravellerID == input.SenderID {
		return nil, fmt.Errorf("%w: cannot book your own trip", ErrNotAllowed)
	}
	if input.LuggageSize > trip.AvailableSpace {
		return nil, repository.ErrInsufficientSpace
	}

	if err := s.trips.ReserveSpace(ctx, input.TripID, input.LuggageSize); err != nil {
		return nil, err
	}

	quote := utils.CalculateBookingPrice(trip.PricePerKg, input.LuggageSize)
	booking := &models.Booking{
		Reference:          uuid.NewString(),
		TripID:             trip.ID,
		SenderID:           input.SenderID,
		LuggageSize:        input.LuggageSize,
		LuggageDescription: strings.TrimSpace(input.LuggageDescription),
		TotalPrice:         quote.TotalPrice,
		PlatformFee:        quote.PlatformFee,
		Status:             models.BookingStatusPending,
		PaymentStatus:      models.PaymentStatusPending,
	}

	if err := s.trips.CreateBooking(ctx, booking); err != nil {
		if restoreErr := s.trips.RestoreSpace(ctx, input.TripID, input.LuggageSize); restoreErr != nil {
			s.logger.Errorw("space restore failed after booking error",
				"tripId", input.TripID, "size", input.LuggageSize, "error", restoreErr)
		}
		return nil, err
	}

	s.invalidateListingCache(ctx)
	s.cacheBookingStatus(ctx, booking)

	s.bus.Publish(events.TopicBookingCreated, events.BookingCreated{
		BookingID:   booking.ID,
		Reference:   booking.Reference,
		TripID:      trip.ID,
		TravellerID: trip.TravellerID,
		SenderID:    booking.SenderID,
		SenderName:  booking.Sender.Name,
		LuggageSize: booking.LuggageSize,
		TotalPrice:  booking.TotalPrice,
	})

	s.logger.Infow("trip booked",
		"tripId", trip.ID, "bookingId", booking.ID,
		"size", booking.LuggageSize, "total", booking.TotalPrice)
	return booking, nil
}

// UpdateTripStatus moves a trip along active -> completed|cancelled.
// Only the owning traveller or an admin may transition it.
func (s *TripStore) UpdateTripStatus(ctx context.Context, tripID uint, actor Actor, status models.TripStatus) (*models.Trip, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	trip, err := s.trips.GetTripByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.TravellerID != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotAllowed
	}
	if !trip.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, trip.Status, status)
	}

	if err := s.trips.UpdateTripStatus(ctx, tripID, status); err != nil {
		return nil, err
	}
	trip.Status = status

	// Completed and cancelled are terminal, no further bookings.
	if status != models.TripStatusActive {
		s.releaseTripLock(tripID)
	}

	s.invalidateListingCache(ctx)

	bookings, err := s.trips.ListBookingsByTrip(ctx, tripID)
	if err != nil {
		s.logger.Warnw("listing bookings for trip notification failed", "tripId", tripID, "error", err)
	}
	senderIDs := make([]uint, 0, len(bookings))
	for _, b := range bookings {
		if b.Status != models.BookingStatusCancelled {
			senderIDs = append(senderIDs, b.SenderID)
		}
	}

	s.bus.Publish(events.TopicTripStatusChanged, events.TripStatusChanged{
		TripID:      tripID,
		TravellerID: trip.TravellerID,
		SenderIDs:   senderIDs,
		Status:      status,
	})

	s.logger.Infow("trip status updated", "tripId", tripID, "status", status)
	return trip, nil
}

func (s *TripStore) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	return s.trips.GetBookingByID(ctx, id)
}

// GetBookingStatus answers the cheap polling question from the cache
// when possible, falling back to the repository.
func (s *TripStore) GetBookingStatus(ctx context.Context, id uint) (models.BookingStatus, models.PaymentStatus, error) {
	status, payment, err := services.GetCachedBookingStatus(ctx, id)
	if err == nil {
		return status, payment, nil
	}
	if !errors.Is(err, services.ErrCacheUnavailable) {
		s.logger.Warnw("booking status cache read failed", "bookingId", id, "error", err)
	}

	booking, err := s.trips.GetBookingByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	return booking.Status, booking.PaymentStatus, nil
}

func (s *TripStore) ListSenderBookings(ctx context.Context, senderID uint) ([]models.Booking, error) {
	return s.trips.ListBookingsBySender(ctx, senderID)
}

func (s *TripStore) ListTravellerBookings(ctx context.Context, travellerID uint) ([]models.Booking, error) {
	return s.trips.ListBookingsByTraveller(ctx, travellerID)
}

// UpdateBookingStatus applies pending -> confirmed|cancelled and
// confirmed -> completed|cancelled. The trip's traveller confirms,
// completes or cancels; the sender may only cancel their own booking.
// Cancellation restores the trip's available space and refunds a paid
// booking.
func (s *TripStore) UpdateBookingStatus(ctx context.Context, bookingID uint, actor Actor, status models.BookingStatus) (*models.Booking, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	booking, err := s.trips.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.IsAdmin():
	case actor.ID == booking.Trip.TravellerID:
	case actor.ID == booking.SenderID:
		if status != models.BookingStatusCancelled {
			return nil, ErrNotAllowed
		}
	default:
		return nil, ErrNotAllowed
	}

	if !booking.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, status)
	}

	if err := s.trips.UpdateBookingStatus(ctx, bookingID, status); err != nil {
		return nil, err
	}
	booking.Status = status

	if status == models.BookingStatusCancelled {
		// A cancelled booking gives its kilograms back to the trip.
		if err := s.trips.RestoreSpace(ctx, booking.TripID, booking.LuggageSize); err != nil {
			s.logger.Errorw("space restore on cancellation failed",
				"bookingId", bookingID, "tripId", booking.TripID, "error", err)
		}
		if booking.PaymentStatus == models.PaymentStatusPaid {
			if err := s.trips.UpdateBookingPayment(ctx, bookingID, models.PaymentStatusRefunded); err != nil {
				s.logger.Errorw("refund on cancellation failed", "bookingId", bookingID, "error", err)
			} else {
				booking.PaymentStatus = models.PaymentStatusRefunded
			}
		}
		s.invalidateListingCache(ctx)
	}

	s.cacheBookingStatus(ctx, booking)

	s.bus.Publish(events.TopicBookingStatusChanged, events.BookingStatusChanged{
		BookingID:     booking.ID,
		Reference:     booking.Reference,
		TripID:        booking.TripID,
		TravellerID:   booking.Trip.TravellerID,
		SenderID:      booking.SenderID,
		Status:        booking.Status,
		PaymentStatus: booking.PaymentStatus,
	})

	s.logger.Infow("booking status updated", "bookingId", bookingID, "status", status)
	return booking, nil
}

// MarkBookingPaid records the sender's payment on a pending-payment
// booking.
func (s *TripStore) MarkBookingPaid(ctx context.Context, bookingID uint, actor Actor) (*models.Booking, error) {
	booking, err := s.trips.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.SenderID != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotAllowed
	}
	if booking.Status == models.BookingStatusCancelled {
		return nil, fmt.Errorf("%w: booking is cancelled", ErrInvalidTransition)
	}
	if booking.PaymentStatus != models.PaymentStatusPending {
		return nil, fmt.Errorf("%w: payment is %s", ErrInvalidTransition, booking.PaymentStatus)
	}

	if err := s.trips.UpdateBookingPayment(ctx, bookingID, models.PaymentStatusPaid); err != nil {
		return nil, err
	}
	booking.PaymentStatus = models.PaymentStatusPaid

	s.cacheBookingStatus(ctx, booking)

	s.bus.Publish(events.TopicBookingStatusChanged, events.BookingStatusChanged{
		BookingID:     booking.ID,
		Reference:     booking.Reference,
		TripID:        booking.TripID,
		TravellerID:   booking.Trip.TravellerID,
		SenderID:      booking.SenderID,
		Status:        booking.Status,
		PaymentStatus: booking.PaymentStatus,
	})

	return booking, nil
}

func (s *TripStore) invalidateListingCache(ctx context.Context) {
	if err := services.InvalidateTripCache(ctx); err != nil && !errors.Is(err, services.ErrCacheUnavailable) {
		s.logger.Warnw("trip cache invalidation failed", "error", err)
	}
}

func (s *TripStore) cacheBookingStatus(ctx context.Context, booking *models.Booking) {
	err := services.CacheBookingStatus(ctx, booking.ID, booking.Status, booking.PaymentStatus)
	if err != nil && !errors.Is(err, services.ErrCacheUnavailable) {
		s.logger.Warnw("booking status cache write failed", "bookingId", booking.ID, "error", err)
	}
}

func validateCreateTripInput(input CreateTripInput) error {
	if strings.TrimSpace(input.DepartureLocation) == "" {
		return fmt.Errorf("%w: departure location is required", ErrValidation)
	}
	if strings.TrimSpace(input.Destination) == "" {
		return fmt.Errorf("%w: destination is required", ErrValidation)
	}
	if input.DepartureDate.IsZero() || input.ArrivalDate.IsZero() {
		return fmt.Errorf("%w: departure and arrival dates are required", ErrValidation)
	}
	if !input.DepartureDate.Before(input.ArrivalDate) {
		return fmt.Errorf("%w: departure must be before arrival", ErrValidation)
	}
	if input.AvailableSpace <= 0 {
		return fmt.Errorf("%w: available space must be positive", ErrValidation)
	}
	if input.PricePerKg <= 0 {
		return fmt.Errorf("%w: price per kg must be positive", ErrValidation)
	}
	return nil
}
