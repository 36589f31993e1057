package models

import (
	"time"

	"gorm.io/gorm"
)

type PackageStatus string

const (
	PackageStatusPending   PackageStatus = "pending"
	PackageStatusAccepted  PackageStatus = "accepted"
	PackageStatusInTransit PackageStatus = "in_transit"
	PackageStatusDelivered PackageStatus = "delivered"
	PackageStatusCancelled PackageStatus = "cancelled"
)

var packageTransitions = map[PackageStatus][]PackageStatus{
	PackageStatusPending:   {PackageStatusAccepted, PackageStatusCancelled},
	PackageStatusAccepted:  {PackageStatusInTransit, PackageStatusCancelled},
	PackageStatusInTransit: {PackageStatusDelivered},
}

func (s PackageStatus) CanTransitionTo(target PackageStatus) bool {
	for _, allowed := range packageTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s PackageStatus) Valid() bool {
	switch s {
	case PackageStatusPending, PackageStatusAccepted, PackageStatusInTransit,
		PackageStatusDelivered, PackageStatusCancelled:
		return true
	}
	return false
}

type PackageSize string

const (
	PackageSizeSmall  PackageSize = "small"
	PackageSizeMedium PackageSize = "medium"
	PackageSizeLarge  PackageSize = "large"
)

func (s PackageSize) Valid() bool {
	switch s {
	case PackageSizeSmall, PackageSizeMedium, PackageSizeLarge:
		return true
	}
	return false
}

type Package struct {
	gorm.Model
	SenderID            uint          `json:"senderId" gorm:"not null;index"`
	Sender              User          `json:"sender"`
	DepartureCity       string        `json:"departureCity" gorm:"not null"`
	DepartureCountry    string        `json:"departureCountry" gorm:"not null"`
	DestinationCity     string        `json:"destinationCity" gorm:"not null"`
	DestinationCountry  string        `json:"destinationCountry" gorm:"not null"`
	DeliveryDate        time.Time     `json:"deliveryDate" gorm:"not null"`
	Size                PackageSize   `json:"size" gorm:"not null"`
	Weight              float64       `json:"weight" gorm:"not null"`
	Description         string        `json:"description" gorm:"not null"`
	Budget              float64       `json:"budget" gorm:"not null"`
	Currency            string        `json:"currency" gorm:"not null;default:'USD'"`
	SpecialInstructions string        `json:"specialInstructions"`
	PhotoURL            string        `json:"photoUrl"`
	Status              PackageStatus `json:"status" gorm:"not null;default:'pending';index"`
}
