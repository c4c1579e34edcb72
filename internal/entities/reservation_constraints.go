package entities

import "time"

// ReservationConstraints is the renter's input for a quote request.
// StartDate must be strictly before EndDate.
type ReservationConstraints struct {
	CarType   string    `json:"car_type"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}
