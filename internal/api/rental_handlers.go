package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"carrental/internal/db"
	"carrental/internal/entities"
	rentalerrors "carrental/internal/errors"
	"carrental/internal/service"
)

type RentalHandler struct {
	Service *service.RentalService
}

func NewRentalHandler(svc *service.RentalService) *RentalHandler {
	return &RentalHandler{Service: svc}
}

func (h *RentalHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	types, err := h.Service.CheckAvailability(r.Context(), req.Company, entities.ReservationConstraints{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		writeRentalError(w, err)
		return
	}
	json.NewEncoder(w).Encode(toCarTypeResponses(types))
}

func (h *RentalHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req CreateQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	quote, err := h.Service.CreateQuote(r.Context(), req.Company, req.Renter, entities.ReservationConstraints{
		CarType:   req.CarType,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		writeRentalError(w, err)
		return
	}
	json.NewEncoder(w).Encode(quote)
}

func (h *RentalHandler) ConfirmQuotes(w http.ResponseWriter, r *http.Request) {
	var req ConfirmQuotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.NotifyAddress == "" || len(req.Quotes) == 0 {
		http.Error(w, "notify_address and at least one quote are required", http.StatusBadRequest)
		return
	}
	batchID, err := h.Service.ConfirmQuotes(r.Context(), req.Quotes, req.NotifyAddress, req.NotifyPhone)
	if err != nil {
		http.Error(w, "Could not enqueue confirmation", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(ConfirmQuotesResponse{
		BatchID: batchID,
		Message: "Confirmation enqueued. The outcome will be sent to " + req.NotifyAddress + ".",
	})
}

func (h *RentalHandler) GetReservations(w http.ResponseWriter, r *http.Request) {
	renter := r.URL.Query().Get("renter")
	if renter == "" {
		http.Error(w, "renter query parameter is required", http.StatusBadRequest)
		return
	}
	reservations, err := h.Service.GetReservations(r.Context(), renter)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	out := make([]ReservationResponse, 0, len(reservations))
	for _, res := range reservations {
		out = append(out, ReservationResponse{
			ID:        res.ID,
			Company:   res.CompanyName,
			CarID:     res.CarID,
			CarType:   res.CarType,
			Renter:    res.Renter,
			StartDate: res.StartDate,
			EndDate:   res.EndDate,
			Price:     res.Price,
		})
	}
	json.NewEncoder(w).Encode(out)
}

func (h *RentalHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid reservation id", http.StatusBadRequest)
		return
	}
	var req CancelReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	cancelled, err := h.Service.CancelReservation(r.Context(), db.Reservation{
		ID:          id,
		CompanyName: req.Company,
		CarID:       req.CarID,
	})
	if err != nil {
		http.Error(w, "Could not cancel reservation", http.StatusInternalServerError)
		return
	}
	if !cancelled {
		http.Error(w, "Reservation not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"message": "Reservation cancelled"})
}

func (h *RentalHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Service.ListCompanies(r.Context())
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(companies)
}

func (h *RentalHandler) ListCarTypes(w http.ResponseWriter, r *http.Request) {
	company := mux.Vars(r)["company"]
	types, err := h.Service.ListCarTypes(r.Context(), company)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(toCarTypeResponses(types))
}

func toCarTypeResponses(types []db.CarType) []CarTypeResponse {
	out := make([]CarTypeResponse, 0, len(types))
	for _, ct := range types {
		out = append(out, CarTypeResponse{
			Name:           ct.Name,
			Seats:          ct.Seats,
			PricePerDay:    ct.PricePerDay,
			SmokingAllowed: ct.SmokingAllowed,
			TrunkSpace:     ct.TrunkSpace,
		})
	}
	return out
}

func writeRentalError(w http.ResponseWriter, err error) {
	var noAvail *rentalerrors.NoAvailabilityError
	switch {
	case errors.Is(err, rentalerrors.ErrInvalidInterval):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &noAvail):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
