package service

import (
	"context"
	"database/sql"
	"fmt"

	"carrental/internal/db"
	"carrental/internal/entities"
	rentalerrors "carrental/internal/errors"
	"carrental/internal/repository"
)

// fakeStore is an in-memory FleetStore/LoaderStore. Reservation inserts
// are staged until the fake transaction commits, which is what lets the
// tests observe batch atomicity.
type fakeStore struct {
	fleets    map[string][]db.Car
	companies map[string]bool

	nextResID int64
	staged    []db.Reservation
	persisted []db.Reservation

	bumps     map[string]int64
	conflicts map[string]bool

	deletedIDs []int64
	deleted    map[int64]bool

	loadErr   error
	loadCalls int

	createdTypes []db.CarType
	createdCars  map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		fleets:      make(map[string][]db.Car),
		companies:   make(map[string]bool),
		bumps:       make(map[string]int64),
		conflicts:   make(map[string]bool),
		deleted:     make(map[int64]bool),
		createdCars: make(map[string]int),
	}
}

func carKey(company string, carID int64) string {
	return fmt.Sprintf("%s/%d", company, carID)
}

func (s *fakeStore) addCar(company string, id int64, ct db.CarType, reservations ...db.Reservation) {
	s.fleets[company] = append(s.fleets[company], db.Car{
		CompanyName:  company,
		ID:           id,
		Type:         ct,
		Reservations: reservations,
	})
}

func (s *fakeStore) LoadFleet(ctx context.Context, q repository.Querier, company string) ([]db.Car, error) {
	s.loadCalls++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	cars := s.fleets[company]
	out := make([]db.Car, len(cars))
	for i, car := range cars {
		out[i] = car
		out[i].Reservations = append([]db.Reservation(nil), car.Reservations...)
	}
	return out, nil
}

func (s *fakeStore) InsertReservation(ctx context.Context, q repository.Querier, res *db.Reservation) error {
	s.nextResID++
	res.ID = s.nextResID
	s.staged = append(s.staged, *res)
	return nil
}

func (s *fakeStore) IncrementBookingCount(ctx context.Context, q repository.Querier, company string, carID, expected int64) error {
	key := carKey(company, carID)
	if s.conflicts[key] {
		return &rentalerrors.TransactionConflictError{Company: company, CarID: carID}
	}
	s.bumps[key]++
	return nil
}

func (s *fakeStore) DeleteReservation(ctx context.Context, id int64) (bool, error) {
	s.deletedIDs = append(s.deletedIDs, id)
	if s.deleted[id] {
		return false, nil
	}
	s.deleted[id] = true
	return true, nil
}

func (s *fakeStore) CompanyExists(ctx context.Context, name string) (bool, error) {
	return s.companies[name], nil
}

func (s *fakeStore) CreateCompany(ctx context.Context, name string) error {
	s.companies[name] = true
	return nil
}

func (s *fakeStore) CreateCarType(ctx context.Context, ct db.CarType) error {
	s.createdTypes = append(s.createdTypes, ct)
	return nil
}

func (s *fakeStore) CreateCars(ctx context.Context, company, carType string, count int) error {
	s.createdCars[company+"/"+carType] += count
	return nil
}

// fakeTx satisfies repository.Tx. Commit promotes the store's staged
// reservations; rollback discards them.
type fakeTx struct {
	store      *fakeStore
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func (t *fakeTx) Commit() error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	t.store.persisted = append(t.store.persisted, t.store.staged...)
	t.store.staged = nil
	return nil
}

func (t *fakeTx) Rollback() error {
	t.rolledBack = true
	t.store.staged = nil
	return nil
}

type fakeTxBeginner struct {
	store     *fakeStore
	commitErr error
	begun     []*fakeTx
}

func (b *fakeTxBeginner) Begin(ctx context.Context) (repository.Tx, error) {
	tx := &fakeTx{store: b.store, commitErr: b.commitErr}
	b.begun = append(b.begun, tx)
	return tx, nil
}

type fakeAttempts struct {
	claimed  map[string]bool
	statuses map[string]string
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{claimed: make(map[string]bool), statuses: make(map[string]string)}
}

func (a *fakeAttempts) ClaimBatch(ctx context.Context, batchID string) (bool, error) {
	if a.claimed[batchID] {
		return false, nil
	}
	a.claimed[batchID] = true
	a.statuses[batchID] = db.AttemptPending
	return true, nil
}

func (a *fakeAttempts) MarkOutcome(ctx context.Context, batchID, status string) error {
	a.statuses[batchID] = status
	return nil
}

type notifyCall struct {
	task         entities.ConfirmationTask
	reservations []db.Reservation
	failure      error
}

type fakeNotifier struct {
	calls []notifyCall
}

func (n *fakeNotifier) SendBatchOutcome(task entities.ConfirmationTask, reservations []db.Reservation, failure error) {
	n.calls = append(n.calls, notifyCall{task: task, reservations: reservations, failure: failure})
}

type fakePublisher struct {
	tasks      []entities.ConfirmationTask
	publishErr error
}

func (p *fakePublisher) PublishTask(ctx context.Context, task entities.ConfirmationTask) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	p.tasks = append(p.tasks, task)
	return nil
}
