package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// TaskRepository records confirmation batch attempts. The queue delivers
// at least once; the claim row is what turns that into at-most-once
// execution per batch.
type TaskRepository struct {
	DB *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{DB: db}
}

// ClaimBatch inserts the attempt row for a batch. It returns false when the
// batch was already claimed by an earlier delivery, in which case the
// caller must not execute it again.
func (r *TaskRepository) ClaimBatch(ctx context.Context, batchID string) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `
		INSERT INTO confirmation_attempts (batch_id, status, claimed_at)
		VALUES ($1, 'pending', NOW())
		ON CONFLICT (batch_id) DO NOTHING`, batchID)
	if err != nil {
		return false, fmt.Errorf("error claiming batch %s: %w", batchID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading rows affected: %w", err)
	}
	return n > 0, nil
}

// MarkOutcome moves the batch to its terminal state.
func (r *TaskRepository) MarkOutcome(ctx context.Context, batchID, status string) error {
	if _, err := r.DB.ExecContext(ctx,
		`UPDATE confirmation_attempts SET status = $1 WHERE batch_id = $2`,
		status, batchID); err != nil {
		return fmt.Errorf("error marking batch %s as %s: %w", batchID, status, err)
	}
	return nil
}
