package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/gobag/gobag-backend/internal/models"
	"github.com/gobag/gobag-backend/internal/stores"
)

// GetSenderBookings retrieves all bookings made by the caller
func GetSenderBookings(trips *stores.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := trips.ListSenderBookings(c.Request.Context(), c.GetUint("userId"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, bookings)
	}
}

// GetTravellerBookings retrieves all bookings against the caller's trips
func GetTravellerBookings(trips *stores.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := trips.ListTravellerBookings(c.Request.Context(), c.GetUint("userId"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, bookings)
	}
}

// GetBooking retrieves one booking; only the two parties may see it
func GetBooking(trips *stores.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid booking ID"})
			return
		}

		booking, err := trips.GetBooking(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		actor := actorFromContext(c)
		if booking.SenderID != actor.ID && booking.Trip.TravellerID != actor.ID && !actor.IsAdmin() {
			c.JSON(403, gin.H{"error": "Unauthorized"})
			return
		}

		c.JSON(200, booking)
	}
}

// GetBookingStatus answers status polls, served from cache when warm
func GetBookingStatus(trips *stores.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid booking ID"})
			return
		}

		status, payment, err := trips.GetBookingStatus(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"id":            id,
			"status":        status,
			"paymentStatus": payment,
		})
	}
}

type UpdateBookingStatusInput struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed cancelled completed"`
}

func UpdateBookingStatus(trips *stores.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid booking ID"})
			return
		}

		var input UpdateBookingStatusInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		booking, err := trips.UpdateBookingStatus(c.Request.Context(), id,
			actorFromContext(c), models.BookingStatus(input.Status))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, booking)
	}
}

// PayBooking records the sender's payment
func PayBooking(trips *stores.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid booking ID"})
			return
		}

		booking, err := trips.MarkBookingPaid(c.Request.Context(), id, actorFromContext(c))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, booking)
	}
}
