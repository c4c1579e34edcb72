package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval is returned when a caller supplies start >= end.
// It is rejected before any store access.
var ErrInvalidInterval = errors.New("start date must be strictly before end date")

// NoAvailabilityError means no car of the requested type is free for the
// interval, either at quote time or at confirm time after contention has
// consumed the capacity since the quote was issued.
type NoAvailabilityError struct {
	Company string
	CarType string
	Start   time.Time
	End     time.Time
}

func (e *NoAvailabilityError) Error() string {
	return fmt.Sprintf("<%s> no cars of type %q available from %s to %s",
		e.Company, e.CarType, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// TransactionConflictError means the store detected a concurrent write on a
// car record this transaction depended on. For batch-abort purposes it is
// treated like NoAvailabilityError, but logged distinctly.
type TransactionConflictError struct {
	Company string
	CarID   int64
}

func (e *TransactionConflictError) Error() string {
	if e.Company == "" {
		return "transaction aborted by a concurrent booking"
	}
	return fmt.Sprintf("<%s> concurrent booking detected on car %d", e.Company, e.CarID)
}

// IsBatchAbort reports whether err is one of the failures that roll back a
// whole confirmation batch without being a programming error.
func IsBatchAbort(err error) bool {
	var na *NoAvailabilityError
	var tc *TransactionConflictError
	return errors.As(err, &na) || errors.As(err, &tc)
}
