package models

import (
	"time"

	"gorm.io/gorm"
)

type TripStatus string

const (
	TripStatusActive    TripStatus = "active"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// tripTransitions lists the allowed status changes. Completed and
// cancelled are terminal.
var tripTransitions = map[TripStatus][]TripStatus{
	TripStatusActive: {TripStatusCompleted, TripStatusCancelled},
}

// CanTransitionTo reports whether a trip may move from its current
// status to the target status.
func (s TripStatus) CanTransitionTo(target TripStatus) bool {
	for _, allowed := range tripTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s TripStatus) Valid() bool {
	switch s {
	case TripStatusActive, TripStatusCompleted, TripStatusCancelled:
		return true
	}
	return false
}

type Trip struct {
	gorm.Model
	TravellerID       uint       `json:"travellerId" gorm:"not null;index"`
	Traveller         User       `json:"traveller"`
	DepartureLocation string     `json:"departureLocation" gorm:"not null"`
	Destination       string     `json:"destination" gorm:"not null"`
	DepartureDate     time.Time  `json:"departureDate" gorm:"not null"`
	ArrivalDate       time.Time  `json:"arrivalDate" gorm:"not null"`
	AvailableSpace    float64    `json:"availableSpace" gorm:"not null"`
	PricePerKg        float64    `json:"pricePerKg" gorm:"not null"`
	Currency          string     `json:"currency" gorm:"not null;default:'USD'"`
	Status            TripStatus `json:"status" gorm:"not null;default:'active';index"`
	Description       string     `json:"description"`
}
