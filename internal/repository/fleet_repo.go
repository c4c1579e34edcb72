package repository

import (
	"context"
	"database/sql"
	"fmt"

	"carrental/internal/db"
	rentalerrors "carrental/internal/errors"
)

// Querier is the minimal interface satisfied by both *sql.DB and *sql.Tx.
// Fleet reads and writes take a Querier so the confirm path can run the
// same queries inside its transaction that the quote path runs outside one.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is the transaction handle handed to the confirm path: the usual
// query methods plus commit/rollback. *sql.Tx satisfies it.
type Tx interface {
	Querier
	Commit() error
	Rollback() error
}

// FleetRepository is the SQL access layer for companies, car types, cars
// and reservations. Entities are addressed by composite keys
// (company_name, car_id, reservation_id); no object graph is persisted.
type FleetRepository struct {
	DB *sql.DB
}

func NewFleetRepository(db *sql.DB) *FleetRepository {
	return &FleetRepository{DB: db}
}

// Begin opens the transaction a confirmation batch runs in.
func (r *FleetRepository) Begin(ctx context.Context) (Tx, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	return tx, nil
}

func (r *FleetRepository) ListCompanies(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT name FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error querying companies: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("error scanning company name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *FleetRepository) CompanyExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM companies WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking company %q: %w", name, err)
	}
	return exists, nil
}

func (r *FleetRepository) CarTypesForCompany(ctx context.Context, company string) ([]db.CarType, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT company_name, name, seats, price_per_day, smoking_allowed, trunk_space
		FROM car_types
		WHERE company_name = $1
		ORDER BY name`, company)
	if err != nil {
		return nil, fmt.Errorf("error querying car types for %q: %w", company, err)
	}
	defer rows.Close()

	var types []db.CarType
	for rows.Next() {
		var ct db.CarType
		if err := rows.Scan(&ct.CompanyName, &ct.Name, &ct.Seats, &ct.PricePerDay,
			&ct.SmokingAllowed, &ct.TrunkSpace); err != nil {
			return nil, fmt.Errorf("error scanning car type: %w", err)
		}
		types = append(types, ct)
	}
	return types, rows.Err()
}

// LoadFleet reconstructs a company's cars, each with its car type and its
// current reservations. It runs against the supplied Querier so the view
// is transaction-scoped when called from the confirm path.
func (r *FleetRepository) LoadFleet(ctx context.Context, q Querier, company string) ([]db.Car, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT c.company_name, c.id, c.booking_count,
		       t.name, t.seats, t.price_per_day, t.smoking_allowed, t.trunk_space
		FROM cars c
		JOIN car_types t ON t.company_name = c.company_name AND t.name = c.car_type
		WHERE c.company_name = $1
		ORDER BY c.id`, company)
	if err != nil {
		return nil, fmt.Errorf("error querying cars for %q: %w", company, err)
	}
	defer rows.Close()

	var cars []db.Car
	byID := make(map[int64]int)
	for rows.Next() {
		var car db.Car
		if err := rows.Scan(&car.CompanyName, &car.ID, &car.BookingCount,
			&car.Type.Name, &car.Type.Seats, &car.Type.PricePerDay,
			&car.Type.SmokingAllowed, &car.Type.TrunkSpace); err != nil {
			return nil, fmt.Errorf("error scanning car: %w", err)
		}
		car.Type.CompanyName = car.CompanyName
		byID[car.ID] = len(cars)
		cars = append(cars, car)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cars: %w", err)
	}

	resRows, err := q.QueryContext(ctx, `
		SELECT id, company_name, car_id, car_type, renter, start_date, end_date, price
		FROM reservations
		WHERE company_name = $1`, company)
	if err != nil {
		return nil, fmt.Errorf("error querying reservations for %q: %w", company, err)
	}
	defer resRows.Close()

	for resRows.Next() {
		var res db.Reservation
		if err := resRows.Scan(&res.ID, &res.CompanyName, &res.CarID, &res.CarType,
			&res.Renter, &res.StartDate, &res.EndDate, &res.Price); err != nil {
			return nil, fmt.Errorf("error scanning reservation: %w", err)
		}
		if i, ok := byID[res.CarID]; ok {
			cars[i].Reservations = append(cars[i].Reservations, res)
		}
	}
	return cars, resRows.Err()
}

// InsertReservation persists a reservation and fills in its allocated id.
func (r *FleetRepository) InsertReservation(ctx context.Context, q Querier, res *db.Reservation) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO reservations (company_name, car_id, car_type, renter, start_date, end_date, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		res.CompanyName, res.CarID, res.CarType, res.Renter,
		res.StartDate, res.EndDate, res.Price,
	).Scan(&res.ID)
	if err != nil {
		return fmt.Errorf("error inserting reservation: %w", err)
	}
	return nil
}

// IncrementBookingCount performs the check-and-increment on the car's
// version column. Zero rows affected means another committed transaction
// got there first; the caller must abort.
func (r *FleetRepository) IncrementBookingCount(ctx context.Context, q Querier, company string, carID, expected int64) error {
	result, err := q.ExecContext(ctx, `
		UPDATE cars SET booking_count = booking_count + 1
		WHERE company_name = $1 AND id = $2 AND booking_count = $3`,
		company, carID, expected)
	if err != nil {
		return fmt.Errorf("error bumping booking count: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if n == 0 {
		return &rentalerrors.TransactionConflictError{Company: company, CarID: carID}
	}
	return nil
}

// DeleteReservation removes a reservation by id. Returns false when the
// row was already gone, which makes cancellation idempotent.
func (r *FleetRepository) DeleteReservation(ctx context.Context, id int64) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("error deleting reservation %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading rows affected: %w", err)
	}
	return n > 0, nil
}

// ReservationsByRenter scans reservations across all companies.
func (r *FleetRepository) ReservationsByRenter(ctx context.Context, renter string) ([]db.Reservation, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, company_name, car_id, car_type, renter, start_date, end_date, price
		FROM reservations
		WHERE renter = $1
		ORDER BY start_date, id`, renter)
	if err != nil {
		return nil, fmt.Errorf("error querying reservations for renter %q: %w", renter, err)
	}
	defer rows.Close()

	var out []db.Reservation
	for rows.Next() {
		var res db.Reservation
		if err := rows.Scan(&res.ID, &res.CompanyName, &res.CarID, &res.CarType,
			&res.Renter, &res.StartDate, &res.EndDate, &res.Price); err != nil {
			return nil, fmt.Errorf("error scanning reservation: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// CreateCompany, CreateCarType and CreateCars back the bulk loader.

func (r *FleetRepository) CreateCompany(ctx context.Context, name string) error {
	if _, err := r.DB.ExecContext(ctx,
		`INSERT INTO companies (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return fmt.Errorf("error creating company %q: %w", name, err)
	}
	return nil
}

func (r *FleetRepository) CreateCarType(ctx context.Context, ct db.CarType) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO car_types (company_name, name, seats, price_per_day, smoking_allowed, trunk_space)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ct.CompanyName, ct.Name, ct.Seats, ct.PricePerDay, ct.SmokingAllowed, ct.TrunkSpace)
	if err != nil {
		return fmt.Errorf("error creating car type %q for %q: %w", ct.Name, ct.CompanyName, err)
	}
	return nil
}

// CreateCars materializes count cars of the given type, allocating ids
// scoped to the company.
func (r *FleetRepository) CreateCars(ctx context.Context, company, carType string, count int) error {
	var next int64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) + 1 FROM cars WHERE company_name = $1`, company).Scan(&next)
	if err != nil {
		return fmt.Errorf("error allocating car ids for %q: %w", company, err)
	}
	for i := 0; i < count; i++ {
		if _, err := r.DB.ExecContext(ctx,
			`INSERT INTO cars (company_name, id, car_type) VALUES ($1, $2, $3)`,
			company, next+int64(i), carType); err != nil {
			return fmt.Errorf("error creating car %d for %q: %w", next+int64(i), company, err)
		}
	}
	return nil
}
