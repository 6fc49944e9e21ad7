package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/AntonioRamos11/RestaurantIA/internal/application"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

type governanceService interface {
	PIIInventory() map[string]application.PIIEntry
	ListPolicies(ctx context.Context) ([]persistence.RetentionPolicy, error)
	UpsertPolicy(ctx context.Context, input application.RetentionPolicyInput) (persistence.RetentionPolicy, error)
	ApplyRetention(ctx context.Context) (map[string]int64, error)
}

// GovernanceHandler exposes retention policies and the PII inventory.
// Mutating routes are wrapped with RequireOperator by the router.
type GovernanceHandler struct {
	service   governanceService
	responder responder
	logger    *slog.Logger
}

func NewGovernanceHandler(service governanceService, logger *slog.Logger) *GovernanceHandler {
	base := defaultLogger(logger)
	return &GovernanceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *GovernanceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "GovernanceHandler", operation, attrs...)
}

func (h *GovernanceHandler) PIIInventory(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.service.PIIInventory())
}

func (h *GovernanceHandler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	policies, err := h.service.ListPolicies(r.Context())
	if err != nil {
		h.log(r.Context(), "ListPolicies").ErrorContext(r.Context(), "policy list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]policyDTO, 0, len(policies))
	for _, policy := range policies {
		out = append(out, policyDTO{Entity: policy.Entity, Days: policy.Days})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

func (h *GovernanceHandler) UpsertPolicy(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req policyDTO
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "UpsertPolicy", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode policy request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpsertPolicy", "entity", req.Entity)
	policy, err := h.service.UpsertPolicy(r.Context(), application.RetentionPolicyInput{Entity: req.Entity, Days: req.Days})
	if err != nil {
		logger.ErrorContext(r.Context(), "policy upsert failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "retention policy saved", "days", policy.Days)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, policyDTO{Entity: policy.Entity, Days: policy.Days})
}

func (h *GovernanceHandler) ApplyRetention(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "ApplyRetention")
	deleted, err := h.service.ApplyRetention(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "retention run failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "retention applied", "entities", len(deleted))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, retentionResponse{Deleted: deleted})
}

type policyDTO struct {
	Entity string `json:"entity"`
	Days   int    `json:"days"`
}

type retentionResponse struct {
	Deleted map[string]int64 `json:"deleted"`
}
