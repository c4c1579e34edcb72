package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/db"
	"carrental/internal/entities"
	"carrental/internal/repository"
	"carrental/internal/service"
)

type stubStore struct {
	fleet []db.Car
}

func (s *stubStore) LoadFleet(ctx context.Context, q repository.Querier, company string) ([]db.Car, error) {
	return s.fleet, nil
}

func (s *stubStore) InsertReservation(ctx context.Context, q repository.Querier, res *db.Reservation) error {
	return nil
}

func (s *stubStore) IncrementBookingCount(ctx context.Context, q repository.Querier, company string, carID, expected int64) error {
	return nil
}

func (s *stubStore) DeleteReservation(ctx context.Context, id int64) (bool, error) {
	return true, nil
}

type stubPublisher struct {
	tasks []entities.ConfirmationTask
}

func (p *stubPublisher) PublishTask(ctx context.Context, task entities.ConfirmationTask) error {
	p.tasks = append(p.tasks, task)
	return nil
}

type stubDirectory struct {
	reservations []db.Reservation
}

func (d *stubDirectory) ListCompanies(ctx context.Context) ([]string, error) {
	return []string{"Hertz"}, nil
}

func (d *stubDirectory) CarTypesForCompany(ctx context.Context, company string) ([]db.CarType, error) {
	return nil, nil
}

func (d *stubDirectory) ReservationsByRenter(ctx context.Context, renter string) ([]db.Reservation, error) {
	return d.reservations, nil
}

var testStart = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func newTestHandler(store *stubStore, pub *stubPublisher) *RentalHandler {
	return NewRentalHandler(&service.RentalService{
		Store:     store,
		Directory: &stubDirectory{},
		Publisher: pub,
	})
}

func economyFleet() []db.Car {
	return []db.Car{{
		CompanyName: "Hertz",
		ID:          1,
		Type: db.CarType{
			CompanyName: "Hertz",
			Name:        "economy",
			Seats:       4,
			PricePerDay: 20,
		},
	}}
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestCreateQuoteHandler(t *testing.T) {
	h := newTestHandler(&stubStore{fleet: economyFleet()}, &stubPublisher{})

	t.Run("returns a priced quote", func(t *testing.T) {
		rec := postJSON(t, h.CreateQuote, "/api/quotes", CreateQuoteRequest{
			Company:   "Hertz",
			Renter:    "bob",
			CarType:   "economy",
			StartDate: testStart,
			EndDate:   testStart.AddDate(0, 0, 2),
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var quote entities.Quote
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&quote))
		assert.Equal(t, "Hertz", quote.RentalCompany)
		assert.InDelta(t, 40, quote.RentalPrice, 1e-9)
	})

	t.Run("invalid interval is a 400", func(t *testing.T) {
		rec := postJSON(t, h.CreateQuote, "/api/quotes", CreateQuoteRequest{
			Company:   "Hertz",
			Renter:    "bob",
			CarType:   "economy",
			StartDate: testStart.AddDate(0, 0, 2),
			EndDate:   testStart,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no availability is a 409", func(t *testing.T) {
		rec := postJSON(t, h.CreateQuote, "/api/quotes", CreateQuoteRequest{
			Company:   "Hertz",
			Renter:    "bob",
			CarType:   "limousine",
			StartDate: testStart,
			EndDate:   testStart.AddDate(0, 0, 2),
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/quotes", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		h.CreateQuote(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestConfirmQuotesHandler(t *testing.T) {
	quote := entities.Quote{
		RentalCompany: "Hertz",
		CarType:       "economy",
		Renter:        "bob",
		StartDate:     testStart,
		EndDate:       testStart.AddDate(0, 0, 2),
		RentalPrice:   40,
	}

	t.Run("accepted with a batch id", func(t *testing.T) {
		pub := &stubPublisher{}
		h := newTestHandler(&stubStore{}, pub)

		rec := postJSON(t, h.ConfirmQuotes, "/api/confirmations", ConfirmQuotesRequest{
			NotifyAddress: "bob@example.com",
			Quotes:        []entities.Quote{quote},
		})
		require.Equal(t, http.StatusAccepted, rec.Code)

		var resp ConfirmQuotesResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotEmpty(t, resp.BatchID)

		require.Len(t, pub.tasks, 1)
		assert.Equal(t, resp.BatchID, pub.tasks[0].BatchID)
	})

	t.Run("missing notify address is a 400", func(t *testing.T) {
		pub := &stubPublisher{}
		h := newTestHandler(&stubStore{}, pub)

		rec := postJSON(t, h.ConfirmQuotes, "/api/confirmations", ConfirmQuotesRequest{
			Quotes: []entities.Quote{quote},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, pub.tasks)
	})

	t.Run("empty batch is a 400", func(t *testing.T) {
		pub := &stubPublisher{}
		h := newTestHandler(&stubStore{}, pub)

		rec := postJSON(t, h.ConfirmQuotes, "/api/confirmations", ConfirmQuotesRequest{
			NotifyAddress: "bob@example.com",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, pub.tasks)
	})
}

func TestGetReservationsHandler(t *testing.T) {
	h := NewRentalHandler(&service.RentalService{
		Directory: &stubDirectory{reservations: []db.Reservation{{
			ID:          10,
			CompanyName: "Hertz",
			CarID:       1,
			CarType:     "economy",
			Renter:      "alice",
			StartDate:   testStart,
			EndDate:     testStart.AddDate(0, 0, 2),
			Price:       40,
		}}},
	})

	t.Run("lists the renter's reservations", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/reservations?renter=alice", nil)
		rec := httptest.NewRecorder()
		h.GetReservations(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var out []ReservationResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
		require.Len(t, out, 1)
		assert.Equal(t, "Hertz", out[0].Company)
		assert.Equal(t, int64(10), out[0].ID)
	})

	t.Run("missing renter parameter is a 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/reservations", nil)
		rec := httptest.NewRecorder()
		h.GetReservations(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCancelReservationHandler(t *testing.T) {
	newRouter := func(h *RentalHandler) *mux.Router {
		r := mux.NewRouter()
		r.HandleFunc("/api/reservations/{id}", h.CancelReservation).Methods(http.MethodDelete)
		return r
	}

	t.Run("cancels an owned reservation", func(t *testing.T) {
		fleet := economyFleet()
		fleet[0].Reservations = []db.Reservation{{
			ID:          10,
			CompanyName: "Hertz",
			CarID:       1,
			CarType:     "economy",
			Renter:      "alice",
			StartDate:   testStart,
			EndDate:     testStart.AddDate(0, 0, 2),
		}}
		h := newTestHandler(&stubStore{fleet: fleet}, &stubPublisher{})

		body, _ := json.Marshal(CancelReservationRequest{Company: "Hertz", CarID: 1})
		req := httptest.NewRequest(http.MethodDelete, "/api/reservations/10", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newRouter(h).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown reservation is a 404", func(t *testing.T) {
		h := newTestHandler(&stubStore{fleet: economyFleet()}, &stubPublisher{})

		body, _ := json.Marshal(CancelReservationRequest{Company: "Hertz", CarID: 1})
		req := httptest.NewRequest(http.MethodDelete, "/api/reservations/99", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		newRouter(h).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-numeric id is a 400", func(t *testing.T) {
		h := newTestHandler(&stubStore{}, &stubPublisher{})

		req := httptest.NewRequest(http.MethodDelete, "/api/reservations/abc", nil)
		rec := httptest.NewRecorder()
		newRouter(h).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
