package utils

import "math"

// PlatformFeeRate is the marketplace's cut of every booking.
const PlatformFeeRate = 0.10

// PriceQuote contains the price of a booking and its breakdown.
type PriceQuote struct {
	TotalPrice      float64 `json:"totalPrice"`
	PlatformFee     float64 `json:"platformFee"`
	TravellerPayout float64 `json:"travellerPayout"`
	PricePerKg      float64 `json:"pricePerKg"`
	LuggageSize     float64 `json:"luggageSize"`
}

// CalculateBookingPrice prices a reservation of luggageSize kilograms
// at the trip's per-kg rate. The total and fee are frozen onto the
// booking at creation time.
func CalculateBookingPrice(pricePerKg, luggageSize float64) PriceQuote {
	total := round2(pricePerKg * luggageSize)
	fee := round2(total * PlatformFeeRate)

	return PriceQuote{
		TotalPrice:      total,
		PlatformFee:     fee,
		TravellerPayout: round2(total - fee),
		PricePerKg:      pricePerKg,
		LuggageSize:     luggageSize,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
