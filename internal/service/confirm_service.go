package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"carrental/internal/db"
	"carrental/internal/entities"
	rentalerrors "carrental/internal/errors"
	"carrental/internal/repository"
)

// TxBeginner opens the single transaction a batch runs in.
// repository.FleetRepository satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (repository.Tx, error)
}

// AttemptStore is the claim ledger that caps every batch at one execution.
type AttemptStore interface {
	ClaimBatch(ctx context.Context, batchID string) (bool, error)
	MarkOutcome(ctx context.Context, batchID, status string) error
}

// Notifier reports a batch outcome to the renter. Implementations must
// never fail the booking flow; delivery problems are theirs to log.
type Notifier interface {
	SendBatchOutcome(task entities.ConfirmationTask, reservations []db.Reservation, failure error)
}

// ConfirmService executes confirmation tasks: one transaction per batch,
// every quote confirmed in order, commit only when all of them succeed.
// No partial batch is ever persisted.
type ConfirmService struct {
	Store    FleetStore
	Txs      TxBeginner
	Attempts AttemptStore
	Notifier Notifier
}

func NewConfirmService(store FleetStore, txs TxBeginner, attempts AttemptStore, notifier Notifier) *ConfirmService {
	return &ConfirmService{Store: store, Txs: txs, Attempts: attempts, Notifier: notifier}
}

// Execute runs one delivered batch. A batch that has been claimed before
// is skipped: the queue may redeliver, but policy allows exactly one
// execution, and the renter learns the outcome only through the
// notification.
func (s *ConfirmService) Execute(ctx context.Context, task entities.ConfirmationTask) error {
	claimed, err := s.Attempts.ClaimBatch(ctx, task.BatchID)
	if err != nil {
		return fmt.Errorf("batch %s: %w", task.BatchID, err)
	}
	if !claimed {
		log.Printf("Batch %s already attempted, skipping redelivery", task.BatchID)
		return nil
	}

	reservations, err := s.runBatch(ctx, task)
	if err != nil {
		var conflict *rentalerrors.TransactionConflictError
		if errors.As(err, &conflict) {
			log.Printf("Batch %s rolled back on write conflict: %v", task.BatchID, conflict)
		} else {
			log.Printf("Batch %s rolled back: %v", task.BatchID, err)
		}
		if markErr := s.Attempts.MarkOutcome(ctx, task.BatchID, db.AttemptRolledBack); markErr != nil {
			log.Printf("Error recording outcome of batch %s: %v", task.BatchID, markErr)
		}
		s.Notifier.SendBatchOutcome(task, nil, err)
		if rentalerrors.IsBatchAbort(err) {
			// Business outcome, already reported to the renter.
			return nil
		}
		return err
	}

	if markErr := s.Attempts.MarkOutcome(ctx, task.BatchID, db.AttemptCommitted); markErr != nil {
		log.Printf("Error recording outcome of batch %s: %v", task.BatchID, markErr)
	}
	log.Printf("Batch %s committed: %d reservations", task.BatchID, len(reservations))
	s.Notifier.SendBatchOutcome(task, reservations, nil)
	return nil
}

// runBatch confirms every quote inside one transaction. Inventories are
// resolved once per company per batch; pending reservations keep the
// reused views honest for later quotes.
func (s *ConfirmService) runBatch(ctx context.Context, task entities.ConfirmationTask) ([]db.Reservation, error) {
	tx, err := s.Txs.Begin(ctx)
	if err != nil {
		return nil, err
	}

	inventories := make(map[string]*Inventory)
	var reservations []db.Reservation
	for _, quote := range task.Quotes {
		inv, ok := inventories[quote.RentalCompany]
		if !ok {
			inv, err = NewInventory(ctx, s.Store, tx, quote.RentalCompany)
			if err != nil {
				tx.Rollback()
				return nil, err
			}
			inventories[quote.RentalCompany] = inv
		}
		res, err := inv.ConfirmQuote(ctx, tx, quote)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		reservations = append(reservations, res)
	}

	if err := tx.Commit(); err != nil {
		if isWriteConflict(err) {
			return nil, &rentalerrors.TransactionConflictError{}
		}
		return nil, fmt.Errorf("error committing batch: %w", err)
	}
	return reservations, nil
}

// isWriteConflict recognizes Postgres serialization failures and
// deadlocks, which the store raises when concurrent confirmations touched
// the same car records.
func isWriteConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
