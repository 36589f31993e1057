package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gobag/gobag-backend/internal/models"
	"github.com/gobag/gobag-backend/internal/repository"
	"github.com/gobag/gobag-backend/internal/stores"
)

type CreateTripInput struct {
	DepartureLocation string    `json:"departureLocation" binding:"required"`
	Destination       string    `json:"destination" binding:"required"`
	DepartureDate     time.Time `json:"departureDate" binding:"required"`
	ArrivalDate       time.Time `json:"arrivalDate" binding:"required"`
	AvailableSpace    float64   `json:"availableSpace" binding:"required,gt=0"`
	PricePerKg        float64   `json:"pricePerKg" binding:"required,gt=0"`
	Currency          string    `json:"currency"`
	Description       string    `json:"description"`
}

func CreateTrip(trips *stores.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateTripInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		trip, err := trips.CreateTrip(c.Request.Context(), c.GetUint("userId"), stores.CreateTripInput{
			DepartureLocation: input.DepartureLocation,
			Destination:       input.Destination,
			DepartureDate:     input.DepartureDate,
			ArrivalDate:       input.ArrivalDate,
			AvailableSpace:    input.AvailableSpace,
			PricePerKg:        input.PricePerKg,
			Currency:          input.Currency,
			Description:       input.Description,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(201, trip)
	}
}

// GetTrips lists bookable trips. Query parameters narrow the listing:
// from, to, after (RFC 3339 date), all=true to include closed trips.
func GetTrips(trips *stores.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := repository.TripFilter{
			DepartureLocation: c.Query("from"),
			Destination:       c.Query("to"),
			ActiveOnly:        c.Query("all") != "true",
		}
		if after := c.Query("after"); after != "" {
			t, err := time.Parse("2006-01-02", after)
			if err != nil {
				c.JSON(400, gin.H{"error": "after must be a YYYY-MM-DD date"})
				return
			}
			filter.DepartureAfter = t
		}

		result, err := trips.ListTrips(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, result)
	}
}

func GetTrip(trips *stores.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid trip ID"})
			return
		}

		trip, err := trips.GetTrip(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, trip)
	}
}

// GetTravellerTrips lists the authenticated traveller's own trips.
func GetTravellerTrips(trips *stores.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := trips.ListTravellerTrips(c.Request.Context(), c.GetUint("userId"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, result)
	}
}

type BookTripInput struct {
	LuggageSize        float64 `json:"luggageSize" binding:"required,gt=0"`
	LuggageDescription string  `json:"luggageDescription" binding:"required"`
}

func BookTrip(trips *stores.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripID, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid trip ID"})
			return
		}

		var input BookTripInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		booking, err := trips.BookTrip(c.Request.Context(), stores.BookTripInput{
			TripID:             tripID,
			SenderID:           c.GetUint("userId"),
			LuggageSize:        input.LuggageSize,
			LuggageDescription: input.LuggageDescription,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(201, booking)
	}
}

type UpdateTripStatusInput struct {
	Status string `json:"status" binding:"required,oneof=active completed cancelled"`
}

func UpdateTripStatus(trips *stores.TripStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripID, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid trip ID"})
			return
		}

		var input UpdateTripStatusInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		trip, err := trips.UpdateTripStatus(c.Request.Context(), tripID,
			actorFromContext(c), models.TripStatus(input.Status))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, trip)
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
