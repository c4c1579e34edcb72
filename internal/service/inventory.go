package service

import (
	"context"
	"math"
	"math/rand"
	"time"

	"carrental/internal/db"
	"carrental/internal/entities"
	rentalerrors "carrental/internal/errors"
	"carrental/internal/repository"
)

// FleetStore is the slice of the repository the inventory logic depends
// on. The SQL implementation is repository.FleetRepository; tests use an
// in-memory fake.
type FleetStore interface {
	LoadFleet(ctx context.Context, q repository.Querier, company string) ([]db.Car, error)
	InsertReservation(ctx context.Context, q repository.Querier, res *db.Reservation) error
	IncrementBookingCount(ctx context.Context, q repository.Querier, company string, carID, expected int64) error
	DeleteReservation(ctx context.Context, id int64) (bool, error)
}

// reservationEntry is one occupied interval on a car: either a persisted
// reservation or a pending one confirmed earlier in the current batch and
// not yet committed. Keeping the pending variant in the view is what makes
// later quotes of the same batch see it.
type reservationEntry struct {
	persisted *db.Reservation
	pending   *entities.Quote
}

func (e reservationEntry) interval() (time.Time, time.Time) {
	if e.pending != nil {
		return e.pending.StartDate, e.pending.EndDate
	}
	return e.persisted.StartDate, e.persisted.EndDate
}

type inventoryCar struct {
	car     db.Car
	entries []reservationEntry
}

// Inventory is one company's fleet view, reconstructed from the store on
// every operation. There is no cross-request cache: every caller pays a
// full reload and in exchange never sees a stale fleet.
type Inventory struct {
	name  string
	cars  []*inventoryCar
	types map[string]db.CarType
	store FleetStore
}

// NewInventory builds the view for a company from whatever Querier the
// caller is operating in. On the confirm path q is the batch transaction,
// which makes the reload transaction-scoped.
func NewInventory(ctx context.Context, store FleetStore, q repository.Querier, name string) (*Inventory, error) {
	fleet, err := store.LoadFleet(ctx, q, name)
	if err != nil {
		return nil, err
	}
	inv := &Inventory{
		name:  name,
		types: make(map[string]db.CarType),
		store: store,
	}
	for _, car := range fleet {
		ic := &inventoryCar{car: car}
		for i := range car.Reservations {
			ic.entries = append(ic.entries, reservationEntry{persisted: &car.Reservations[i]})
		}
		inv.cars = append(inv.cars, ic)
		inv.types[car.Type.Name] = car.Type
	}
	return inv, nil
}

func (inv *Inventory) Name() string {
	return inv.name
}

// CarTypes returns the types present in the fleet.
func (inv *Inventory) CarTypes() []db.CarType {
	out := make([]db.CarType, 0, len(inv.types))
	for _, ct := range inv.types {
		out = append(out, ct)
	}
	return out
}

// intervalsConflict applies the strict overlap rule: two intervals
// conflict unless one ends strictly before the other starts. A reservation
// ending exactly when another begins still conflicts; that boundary is a
// fixed contract, covered by a regression test.
func intervalsConflict(s1, e1, s2, e2 time.Time) bool {
	return !(e1.Before(s2) || s1.After(e2))
}

// rentalPrice bills whole days, rounding the duration up: a 25-hour rental
// is charged as 2 days.
func rentalPrice(pricePerDay float64, start, end time.Time) float64 {
	return pricePerDay * math.Ceil(end.Sub(start).Hours()/24)
}

func (ic *inventoryCar) isFree(start, end time.Time) bool {
	for _, e := range ic.entries {
		s, en := e.interval()
		if intervalsConflict(s, en, start, end) {
			return false
		}
	}
	return true
}

func (inv *Inventory) availableCars(carType string, start, end time.Time) []*inventoryCar {
	var out []*inventoryCar
	for _, ic := range inv.cars {
		if ic.car.Type.Name == carType && ic.isFree(start, end) {
			out = append(out, ic)
		}
	}
	return out
}

// IsAvailable reports whether at least one car of the type is free for the
// whole interval.
func (inv *Inventory) IsAvailable(carType string, start, end time.Time) (bool, error) {
	if !start.Before(end) {
		return false, rentalerrors.ErrInvalidInterval
	}
	return len(inv.availableCars(carType, start, end)) > 0, nil
}

// AvailableCarTypes returns the types that still have at least one free
// car in the interval.
func (inv *Inventory) AvailableCarTypes(start, end time.Time) ([]db.CarType, error) {
	if !start.Before(end) {
		return nil, rentalerrors.ErrInvalidInterval
	}
	seen := make(map[string]bool)
	var out []db.CarType
	for _, ic := range inv.cars {
		if !seen[ic.car.Type.Name] && ic.isFree(start, end) {
			seen[ic.car.Type.Name] = true
			out = append(out, ic.car.Type)
		}
	}
	return out, nil
}

// CreateQuote prices the constraints without binding a car.
func (inv *Inventory) CreateQuote(constraints entities.ReservationConstraints, renter string) (entities.Quote, error) {
	if !constraints.StartDate.Before(constraints.EndDate) {
		return entities.Quote{}, rentalerrors.ErrInvalidInterval
	}
	carType, ok := inv.types[constraints.CarType]
	if !ok || len(inv.availableCars(constraints.CarType, constraints.StartDate, constraints.EndDate)) == 0 {
		return entities.Quote{}, &rentalerrors.NoAvailabilityError{
			Company: inv.name,
			CarType: constraints.CarType,
			Start:   constraints.StartDate,
			End:     constraints.EndDate,
		}
	}
	return entities.Quote{
		RentalCompany: inv.name,
		CarType:       constraints.CarType,
		Renter:        renter,
		StartDate:     constraints.StartDate,
		EndDate:       constraints.EndDate,
		RentalPrice:   rentalPrice(carType.PricePerDay, constraints.StartDate, constraints.EndDate),
	}, nil
}

// ConfirmQuote turns a quote into a reservation inside the caller's
// transaction. It recomputes the candidate cars against the
// transaction-scoped view, picks one at random to spread load across
// equivalent cars, persists the reservation and bumps the chosen car's
// booking counter so a concurrent confirm on the same car aborts.
func (inv *Inventory) ConfirmQuote(ctx context.Context, q repository.Querier, quote entities.Quote) (db.Reservation, error) {
	candidates := inv.availableCars(quote.CarType, quote.StartDate, quote.EndDate)
	if len(candidates) == 0 {
		return db.Reservation{}, &rentalerrors.NoAvailabilityError{
			Company: inv.name,
			CarType: quote.CarType,
			Start:   quote.StartDate,
			End:     quote.EndDate,
		}
	}
	pick := candidates[rand.Intn(len(candidates))]

	res := db.Reservation{
		CompanyName: inv.name,
		CarID:       pick.car.ID,
		CarType:     quote.CarType,
		Renter:      quote.Renter,
		StartDate:   quote.StartDate,
		EndDate:     quote.EndDate,
		Price:       quote.RentalPrice,
	}
	if err := inv.store.InsertReservation(ctx, q, &res); err != nil {
		return db.Reservation{}, err
	}
	if err := inv.store.IncrementBookingCount(ctx, q, inv.name, pick.car.ID, pick.car.BookingCount); err != nil {
		return db.Reservation{}, err
	}
	pick.car.BookingCount++

	pending := quote
	pick.entries = append(pick.entries, reservationEntry{pending: &pending})
	return res, nil
}

// CancelReservation deletes the reservation if it belongs to one of this
// company's cars. Anything else, including a reservation already
// cancelled or owned by another company, is a no-op returning false.
func (inv *Inventory) CancelReservation(ctx context.Context, res db.Reservation) (bool, error) {
	if res.CompanyName != inv.name {
		return false, nil
	}
	for _, ic := range inv.cars {
		if ic.car.ID != res.CarID {
			continue
		}
		for _, e := range ic.entries {
			if e.persisted != nil && e.persisted.ID == res.ID {
				return inv.store.DeleteReservation(ctx, res.ID)
			}
		}
	}
	return false, nil
}
