package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/AntonioRamos11/RestaurantIA/internal/application"
	"github.com/AntonioRamos11/RestaurantIA/internal/insights"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

type inventoryService interface {
	ListIngredients(ctx context.Context) ([]persistence.Ingredient, error)
	OnHand(ctx context.Context, location string) ([]persistence.InventoryLevel, error)
	Adjust(ctx context.Context, input application.AdjustInventoryInput) (persistence.InventoryLevel, error)
	Usage(ctx context.Context, input application.DateRangeInput) ([]insights.IngredientUsage, error)
}

type InventoryHandler struct {
	service   inventoryService
	responder responder
	logger    *slog.Logger
}

func NewInventoryHandler(service inventoryService, logger *slog.Logger) *InventoryHandler {
	base := defaultLogger(logger)
	return &InventoryHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *InventoryHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "InventoryHandler", operation, attrs...)
}

func (h *InventoryHandler) Ingredients(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ingredients, err := h.service.ListIngredients(r.Context())
	if err != nil {
		h.log(r.Context(), "Ingredients").ErrorContext(r.Context(), "ingredient list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]ingredientDTO, 0, len(ingredients))
	for _, ingredient := range ingredients {
		out = append(out, ingredientDTO{ID: ingredient.ID, Name: ingredient.Name, Unit: ingredient.Unit})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

func (h *InventoryHandler) OnHand(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	location := newQueryParser(r).String("location")
	levels, err := h.service.OnHand(r.Context(), location)
	if err != nil {
		h.log(r.Context(), "OnHand", "location", location).ErrorContext(r.Context(), "on-hand query failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]levelDTO, 0, len(levels))
	for _, level := range levels {
		out = append(out, toLevelDTO(level))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Adjust", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode adjustment", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Adjust", "ingredient", req.Ingredient, "location", req.Location, "delta", req.Delta)
	level, err := h.service.Adjust(r.Context(), application.AdjustInventoryInput{
		Ingredient: req.Ingredient,
		Location:   req.Location,
		Delta:      req.Delta,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "inventory adjustment failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "inventory adjusted", "on_hand", level.OnHand)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toLevelDTO(level))
}

func (h *InventoryHandler) Usage(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	input := newQueryParser(r).DateRange()
	usage, err := h.service.Usage(r.Context(), input)
	if err != nil {
		h.log(r.Context(), "Usage", "start", input.Start, "end", input.End).ErrorContext(r.Context(), "usage query failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]usageDTO, 0, len(usage))
	for _, u := range usage {
		out = append(out, usageDTO{Ingredient: u.Ingredient, Unit: u.Unit, Used: u.Used})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

type ingredientDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type adjustRequest struct {
	Ingredient string  `json:"ingredient"`
	Location   string  `json:"location"`
	Delta      float64 `json:"delta"`
}

type levelDTO struct {
	Ingredient string  `json:"ingredient"`
	Unit       string  `json:"unit"`
	Location   string  `json:"location"`
	OnHand     float64 `json:"on_hand"`
}

func toLevelDTO(level persistence.InventoryLevel) levelDTO {
	return levelDTO{
		Ingredient: level.IngredientName,
		Unit:       level.Unit,
		Location:   level.LocationName,
		OnHand:     level.OnHand,
	}
}

type usageDTO struct {
	Ingredient string  `json:"ingredient"`
	Unit       string  `json:"unit"`
	Used       float64 `json:"used"`
}
