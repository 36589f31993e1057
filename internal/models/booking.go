package models

import (
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type Booking struct {
	gorm.Model
	Reference          string        `json:"reference" gorm:"unique;not null"`
	TripID             uint          `json:"tripId" gorm:"not null;index"`
	Trip               Trip          `json:"trip"`
	SenderID           uint          `json:"senderId" gorm:"not null;index"`
	Sender             User          `json:"sender"`
	LuggageSize        float64       `json:"luggageSize" gorm:"not null"`
	LuggageDescription string        `json:"luggageDescription" gorm:"not null"`
	TotalPrice         float64       `json:"totalPrice" gorm:"not null"`
	PlatformFee        float64       `json:"platformFee" gorm:"not null"`
	Status             BookingStatus `json:"status" gorm:"not null;default:'pending'"`
	PaymentStatus      PaymentStatus `json:"paymentStatus" gorm:"not null;default:'pending'"`
}
