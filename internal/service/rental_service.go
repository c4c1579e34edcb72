package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"carrental/internal/db"
	"carrental/internal/entities"
	rentalerrors "carrental/internal/errors"
	"carrental/internal/repository"
)

// DirectoryStore covers the cross-company lookups the facade offers.
type DirectoryStore interface {
	ListCompanies(ctx context.Context) ([]string, error)
	CarTypesForCompany(ctx context.Context, company string) ([]db.CarType, error)
	ReservationsByRenter(ctx context.Context, renter string) ([]db.Reservation, error)
}

// TaskPublisher hands a confirmation task to the work queue.
type TaskPublisher interface {
	PublishTask(ctx context.Context, task entities.ConfirmationTask) error
}

// RentalService is the model facade: it builds inventories on demand for
// the synchronous quote path and enqueues confirmation tasks for the
// asynchronous confirm path. It is constructed once in main and passed
// around explicitly; there is no process-wide instance.
type RentalService struct {
	Store     FleetStore
	Directory DirectoryStore
	Runner    repository.Querier
	Publisher TaskPublisher
}

func NewRentalService(repo *repository.FleetRepository, publisher TaskPublisher) *RentalService {
	return &RentalService{
		Store:     repo,
		Directory: repo,
		Runner:    repo.DB,
		Publisher: publisher,
	}
}

// CreateQuote prices the constraints against a fresh view of the
// company's fleet. Interval errors are rejected before the store is
// touched.
func (s *RentalService) CreateQuote(ctx context.Context, company, renter string, constraints entities.ReservationConstraints) (entities.Quote, error) {
	if !constraints.StartDate.Before(constraints.EndDate) {
		return entities.Quote{}, rentalerrors.ErrInvalidInterval
	}
	inv, err := NewInventory(ctx, s.Store, s.Runner, company)
	if err != nil {
		return entities.Quote{}, fmt.Errorf("error loading inventory for %q: %w", company, err)
	}
	return inv.CreateQuote(constraints, renter)
}

// ConfirmQuote enqueues a single-quote batch and returns its batch id
// immediately; the outcome arrives by notification.
func (s *RentalService) ConfirmQuote(ctx context.Context, quote entities.Quote, notifyAddress, notifyPhone string) (string, error) {
	return s.ConfirmQuotes(ctx, []entities.Quote{quote}, notifyAddress, notifyPhone)
}

// ConfirmQuotes enqueues one all-or-nothing batch of quotes.
func (s *RentalService) ConfirmQuotes(ctx context.Context, quotes []entities.Quote, notifyAddress, notifyPhone string) (string, error) {
	if len(quotes) == 0 {
		return "", fmt.Errorf("cannot confirm an empty batch")
	}
	task := entities.ConfirmationTask{
		BatchID:       uuid.NewString(),
		NotifyAddress: notifyAddress,
		NotifyPhone:   notifyPhone,
		Quotes:        quotes,
	}
	if err := s.Publisher.PublishTask(ctx, task); err != nil {
		return "", fmt.Errorf("error enqueuing batch: %w", err)
	}
	log.Printf("Enqueued confirmation batch %s with %d quotes", task.BatchID, len(quotes))
	return task.BatchID, nil
}

// GetReservations is a linear scan of the renter's reservations across
// all companies.
func (s *RentalService) GetReservations(ctx context.Context, renter string) ([]db.Reservation, error) {
	return s.Directory.ReservationsByRenter(ctx, renter)
}

func (s *RentalService) ListCompanies(ctx context.Context) ([]string, error) {
	return s.Directory.ListCompanies(ctx)
}

func (s *RentalService) ListCarTypes(ctx context.Context, company string) ([]db.CarType, error) {
	return s.Directory.CarTypesForCompany(ctx, company)
}

// CheckAvailability returns the car types still free for the interval at
// the given company.
func (s *RentalService) CheckAvailability(ctx context.Context, company string, constraints entities.ReservationConstraints) ([]db.CarType, error) {
	if !constraints.StartDate.Before(constraints.EndDate) {
		return nil, rentalerrors.ErrInvalidInterval
	}
	inv, err := NewInventory(ctx, s.Store, s.Runner, company)
	if err != nil {
		return nil, fmt.Errorf("error loading inventory for %q: %w", company, err)
	}
	return inv.AvailableCarTypes(constraints.StartDate, constraints.EndDate)
}

// CancelReservation deletes the reservation through its owning company's
// inventory. Cancelling twice, or against the wrong company, returns
// false without mutating anything.
func (s *RentalService) CancelReservation(ctx context.Context, res db.Reservation) (bool, error) {
	inv, err := NewInventory(ctx, s.Store, s.Runner, res.CompanyName)
	if err != nil {
		return false, fmt.Errorf("error loading inventory for %q: %w", res.CompanyName, err)
	}
	return inv.CancelReservation(ctx, res)
}
