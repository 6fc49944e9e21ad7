package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	stores    []Pinger
	timeout   time.Duration
	responder responder
	logger    *slog.Logger
}

// NewHealthHandler reports ok while every store answers a ping within two seconds.
func NewHealthHandler(logger *slog.Logger, stores ...Pinger) *HealthHandler {
	base := defaultLogger(logger)
	return &HealthHandler{stores: stores, timeout: 2 * time.Second, responder: newResponder(base), logger: base}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	for _, store := range h.stores {
		if store == nil {
			continue
		}
		if err := store.Ping(ctx); err != nil {
			handlerLogger(r.Context(), h.logger, "HealthHandler", "Health").WarnContext(r.Context(), "store ping failed", "error", err)
			h.responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
			return
		}
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
}

type healthResponse struct {
	Status string `json:"status"`
}
