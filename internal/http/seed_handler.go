package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/AntonioRamos11/RestaurantIA/internal/application"
)

type seedService interface {
	Seed(ctx context.Context, input application.SeedInput) (application.SeedResult, error)
}

// SeedHandler generates demo data. The router guards it with RequireOperator.
type SeedHandler struct {
	service   seedService
	responder responder
	logger    *slog.Logger
}

func NewSeedHandler(service seedService, logger *slog.Logger) *SeedHandler {
	base := defaultLogger(logger)
	return &SeedHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SeedHandler) Seed(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	// An empty body seeds with defaults.
	var req seedRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		handlerLogger(r.Context(), h.logger, "SeedHandler", "Seed", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode seed request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := handlerLogger(r.Context(), h.logger, "SeedHandler", "Seed", "days", req.Days)
	result, err := h.service.Seed(r.Context(), application.SeedInput{Days: req.Days, Locations: req.Locations})
	if err != nil {
		logger.ErrorContext(r.Context(), "seed failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "demo data seeded", "orders_created", result.OrdersCreated)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, seedResponse{
		Locations:     result.Locations,
		MenuItems:     result.MenuItems,
		Ingredients:   result.Ingredients,
		TablesCreated: result.TablesCreated,
		OrdersCreated: result.OrdersCreated,
		Days:          result.Days,
	})
}

type seedRequest struct {
	Days      int      `json:"days"`
	Locations []string `json:"locations"`
}

type seedResponse struct {
	Locations     []string `json:"locations"`
	MenuItems     int      `json:"menu_items"`
	Ingredients   int      `json:"ingredients"`
	TablesCreated int      `json:"tables_created"`
	OrdersCreated int      `json:"orders_created"`
	Days          int      `json:"days"`
}
