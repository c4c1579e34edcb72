package repository

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{DB: db}
}

// DeleteAttemptsOlderThan removes terminal confirmation attempt rows whose
// claim is older than the cutoff. Pending rows are kept so an in-flight
// batch can never be executed twice.
func (r *JobRepository) DeleteAttemptsOlderThan(before time.Time) (int64, error) {
	result, err := r.DB.Exec(`
		DELETE FROM confirmation_attempts
		WHERE claimed_at < $1 AND status IN ('committed', 'rolled_back')`, before)
	if err != nil {
		return 0, fmt.Errorf("error purging confirmation attempts: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Printf("Could not get rows affected: %v", err)
		return 0, nil
	}
	return rowsAffected, nil
}

// CountExpiredReservations reports how many reservations ended in the past,
// for the nightly fleet report.
func (r *JobRepository) CountExpiredReservations() (int64, error) {
	var n int64
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM reservations WHERE end_date < NOW()`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting expired reservations: %w", err)
	}
	return n, nil
}
