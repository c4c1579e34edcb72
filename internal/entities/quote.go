package entities

import "time"

// Quote is a priced, non-binding offer. It is fully self-describing so it
// can cross the queue boundary as JSON without any live reference to a car
// or company record.
type Quote struct {
	RentalCompany string    `json:"rental_company"`
	CarType       string    `json:"car_type"`
	Renter        string    `json:"renter"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	RentalPrice   float64   `json:"rental_price"`
}
