package api

import (
	"time"

	"carrental/internal/entities"
)

// Quote
type CreateQuoteRequest struct {
	Company   string    `json:"company"`
	Renter    string    `json:"renter"`
	CarType   string    `json:"car_type"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Availability
type AvailabilityRequest struct {
	Company   string    `json:"company"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}
type CarTypeResponse struct {
	Name           string  `json:"name"`
	Seats          int     `json:"seats"`
	PricePerDay    float64 `json:"price_per_day"`
	SmokingAllowed bool    `json:"smoking_allowed"`
	TrunkSpace     float64 `json:"trunk_space"`
}

// Confirmation
type ConfirmQuotesRequest struct {
	NotifyAddress string           `json:"notify_address"`
	NotifyPhone   string           `json:"notify_phone,omitempty"`
	Quotes        []entities.Quote `json:"quotes"`
}
type ConfirmQuotesResponse struct {
	BatchID string `json:"batch_id"`
	Message string `json:"message"`
}

// Reservations
type ReservationResponse struct {
	ID        int64     `json:"id"`
	Company   string    `json:"company"`
	CarID     int64     `json:"car_id"`
	CarType   string    `json:"car_type"`
	Renter    string    `json:"renter"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Price     float64   `json:"price"`
}
type CancelReservationRequest struct {
	Company string `json:"company"`
	CarID   int64  `json:"car_id"`
}
