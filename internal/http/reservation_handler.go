package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/application"
)

type reservationService interface {
	CheckAvailability(ctx context.Context, query application.AvailabilityQuery) (application.Availability, error)
	CreateReservation(ctx context.Context, input application.ReservationInput) (application.Reservation, error)
	GetReservation(ctx context.Context, id string) (application.Reservation, error)
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
}

// ReservationHandler serves availability checks and the booking ledger.
type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	q := newQueryParser(r)
	query := application.AvailabilityQuery{
		When:        q.Time("when"),
		PartySize:   q.Int("party_size"),
		DurationMin: q.Int("duration_min"),
		LocationID:  q.OptionalID("location_id"),
	}
	logger := h.log(r.Context(), "Availability", "party_size", query.PartySize)
	if err := q.Err(); err != nil {
		logger.ErrorContext(r.Context(), "invalid availability query", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	result, err := h.service.CheckAvailability(r.Context(), query)
	if err != nil {
		logger.ErrorContext(r.Context(), "availability check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "availability checked", "available", result.Available)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{Available: result.Available, TableID: result.TableID})
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req reservationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "party_size", req.PartySize)

	reservation, err := h.service.CreateReservation(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", reservation.ID, "status", reservation.Status).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toReservationDTO(reservation))
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing reservation id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	logger := h.log(r.Context(), "Get", "reservation_id", id)
	reservation, err := h.service.GetReservation(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	q := newQueryParser(r)
	params := application.ListReservationsParams{
		Date:       q.String("date"),
		LocationID: q.OptionalID("location_id"),
		Status:     q.String("status"),
	}
	logger := h.log(r.Context(), "List", "date", params.Date)
	if err := q.Err(); err != nil {
		logger.ErrorContext(r.Context(), "invalid reservation filter", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	reservations, err := h.service.ListReservations(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(reservations)).InfoContext(r.Context(), "reservations listed")
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

type availabilityResponse struct {
	Available bool   `json:"available"`
	TableID   *int64 `json:"table_id"`
}

type reservationRequest struct {
	When         time.Time `json:"when"`
	PartySize    int       `json:"party_size"`
	DurationMin  int       `json:"duration_min"`
	LocationID   *int64    `json:"location_id"`
	CustomerName string    `json:"customer_name"`
	Phone        *string   `json:"phone"`
	Notes        *string   `json:"notes"`
}

func (r reservationRequest) toInput() application.ReservationInput {
	return application.ReservationInput{
		When:         r.When,
		PartySize:    r.PartySize,
		DurationMin:  r.DurationMin,
		LocationID:   r.LocationID,
		CustomerName: r.CustomerName,
		Phone:        r.Phone,
		Notes:        r.Notes,
	}
}

type reservationDTO struct {
	ID           string  `json:"id"`
	LocationID   *int64  `json:"location_id"`
	TableID      *int64  `json:"table_id"`
	When         string  `json:"when"`
	PartySize    int     `json:"party_size"`
	DurationMin  int     `json:"duration_min"`
	Status       string  `json:"status"`
	CustomerName string  `json:"customer_name"`
	Phone        *string `json:"phone"`
	Notes        *string `json:"notes"`
	CreatedAt    string  `json:"created_at"`
}

func toReservationDTO(reservation application.Reservation) reservationDTO {
	return reservationDTO{
		ID:           reservation.ID,
		LocationID:   reservation.LocationID,
		TableID:      reservation.TableID,
		When:         formatTime(reservation.When),
		PartySize:    reservation.PartySize,
		DurationMin:  reservation.DurationMin,
		Status:       string(reservation.Status),
		CustomerName: reservation.CustomerName,
		Phone:        reservation.Phone,
		Notes:        reservation.Notes,
		CreatedAt:    formatTime(reservation.CreatedAt),
	}
}
