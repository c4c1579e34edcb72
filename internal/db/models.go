package db

import "time"

// CarType is immutable reference data, unique by name within a company.
type CarType struct {
	CompanyName    string
	Name           string
	Seats          int
	PricePerDay    float64
	SmokingAllowed bool
	TrunkSpace     float64
}

// Car is a single rentable unit. Ids are unique within a company; the pair
// (CompanyName, ID) addresses the row. BookingCount is the version field
// bumped on every confirmed reservation so that two confirmations racing
// over the same car collide on the update instead of both committing.
type Car struct {
	CompanyName  string
	ID           int64
	Type         CarType
	BookingCount int64
	Reservations []Reservation
}

// Reservation is a durable booking of one car. Immutable once persisted;
// the only mutation is deletion on cancellation.
type Reservation struct {
	ID          int64
	CompanyName string
	CarID       int64
	CarType     string
	Renter      string
	StartDate   time.Time
	EndDate     time.Time
	Price       float64
}

// ConfirmationAttempt tracks the terminal state of one confirmation batch:
// pending while the transaction runs, then committed or rolled_back.
type ConfirmationAttempt struct {
	BatchID   string
	Status    string
	ClaimedAt time.Time
}

const (
	AttemptPending    = "pending"
	AttemptCommitted  = "committed"
	AttemptRolledBack = "rolled_back"
)
