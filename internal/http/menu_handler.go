package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/AntonioRamos11/RestaurantIA/internal/application"
	"github.com/AntonioRamos11/RestaurantIA/internal/insights"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

type menuService interface {
	ListItems(ctx context.Context) ([]persistence.MenuItem, error)
	Popular(ctx context.Context, query application.RecsQuery) ([]insights.PopularItem, error)
	Cooccurrence(ctx context.Context, query application.RecsQuery) ([]insights.Pairing, error)
}

// MenuHandler serves the menu and item recommendations.
type MenuHandler struct {
	service   menuService
	responder responder
	logger    *slog.Logger
}

func NewMenuHandler(service menuService, logger *slog.Logger) *MenuHandler {
	base := defaultLogger(logger)
	return &MenuHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MenuHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MenuHandler", operation, attrs...)
}

func (h *MenuHandler) Items(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	items, err := h.service.ListItems(r.Context())
	if err != nil {
		h.log(r.Context(), "Items").ErrorContext(r.Context(), "menu list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]menuItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, menuItemDTO{ID: item.ID, Name: item.Name, Category: item.Category, Price: item.Price})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

func (h *MenuHandler) Popular(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	q := newQueryParser(r)
	query := application.RecsQuery{Range: q.DateRange(), TopK: q.Int("top_k")}
	logger := h.log(r.Context(), "Popular", "top_k", query.TopK)
	if err := q.Err(); err != nil {
		logger.ErrorContext(r.Context(), "invalid recommendation query", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	items, err := h.service.Popular(r.Context(), query)
	if err != nil {
		logger.ErrorContext(r.Context(), "popular items failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]popularDTO, 0, len(items))
	for _, item := range items {
		out = append(out, popularDTO{ItemID: item.ItemID, Name: item.Name, TotalQty: item.TotalQty})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

func (h *MenuHandler) Cooccurrence(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	q := newQueryParser(r)
	query := application.RecsQuery{Range: q.DateRange(), TopK: q.Int("top_k")}
	if id := q.OptionalID("anchor_item_id"); id != nil {
		query.AnchorItemID = *id
	}
	logger := h.log(r.Context(), "Cooccurrence", "anchor_item_id", query.AnchorItemID)
	if err := q.Err(); err != nil {
		logger.ErrorContext(r.Context(), "invalid recommendation query", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	pairings, err := h.service.Cooccurrence(r.Context(), query)
	if err != nil {
		logger.ErrorContext(r.Context(), "cooccurrence failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]pairingDTO, 0, len(pairings))
	for _, p := range pairings {
		out = append(out, pairingDTO{
			ItemID:     p.ItemID,
			Name:       p.Name,
			CoOrders:   p.CoOrders,
			AttachRate: p.AttachRate,
			BaseOrders: p.BaseOrders,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

type menuItemDTO struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Category *string  `json:"category"`
	Price    *float64 `json:"price"`
}

type popularDTO struct {
	ItemID   int64  `json:"item_id"`
	Name     string `json:"name"`
	TotalQty int    `json:"total_qty"`
}

type pairingDTO struct {
	ItemID     int64   `json:"item_id"`
	Name       string  `json:"name"`
	CoOrders   int     `json:"co_orders"`
	AttachRate float64 `json:"attach_rate"`
	BaseOrders int     `json:"base_orders"`
}
