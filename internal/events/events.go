// Package events carries domain events from the stores to interested
// consumers over an in-process watermill pub/sub. The websocket
// notifier is currently the only subscriber.
package events

import "github.com/gobag/gobag-backend/internal/models"

const (
	TopicBookingCreated       = "booking.created"
	TopicBookingStatusChanged = "booking.status_changed"
	TopicTripStatusChanged    = "trip.status_changed"
	TopicPackageCreated       = "package.created"
	TopicPackageStatusChanged = "package.status_changed"
)

// BookingCreated notifies the traveller that space on their trip was
// reserved.
type BookingCreated struct {
	BookingID   uint    `json:"bookingId"`
	Reference   string  `json:"reference"`
	TripID      uint    `json:"tripId"`
	TravellerID uint    `json:"travellerId"`
	SenderID    uint    `json:"senderId"`
	SenderName  string  `json:"senderName"`
	LuggageSize float64 `json:"luggageSize"`
	TotalPrice  float64 `json:"totalPrice"`
}

// BookingStatusChanged notifies both parties of a booking transition.
type BookingStatusChanged struct {
	BookingID     uint                 `json:"bookingId"`
	Reference     string               `json:"reference"`
	TripID        uint                 `json:"tripId"`
	TravellerID   uint                 `json:"travellerId"`
	SenderID      uint                 `json:"senderId"`
	Status        models.BookingStatus `json:"status"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
}

// TripStatusChanged notifies senders holding bookings on the trip.
type TripStatusChanged struct {
	TripID      uint              `json:"tripId"`
	TravellerID uint              `json:"travellerId"`
	SenderIDs   []uint            `json:"senderIds"`
	Status      models.TripStatus `json:"status"`
}

// PackageCreated announces a new shipping request to connected
// travellers looking for cargo.
type PackageCreated struct {
	PackageID       uint               `json:"packageId"`
	SenderID        uint               `json:"senderId"`
	DepartureCity   string             `json:"departureCity"`
	DestinationCity string             `json:"destinationCity"`
	Size            models.PackageSize `json:"size"`
	Weight          float64            `json:"weight"`
	Budget          float64            `json:"budget"`
	Currency        string             `json:"currency"`
}

// PackageStatusChanged notifies the sender of a package transition.
type PackageStatusChanged struct {
	PackageID uint                 `json:"packageId"`
	SenderID  uint                 `json:"senderId"`
	Status    models.PackageStatus `json:"status"`
}
