package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/AntonioRamos11/RestaurantIA/internal/application"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

type customerService interface {
	CreateCustomer(ctx context.Context, input application.CustomerInput) (persistence.Customer, error)
	GetCustomer(ctx context.Context, id int64) (persistence.Customer, error)
	UpdateConsent(ctx context.Context, id int64, input application.ConsentInput) (persistence.Customer, error)
}

type CustomerHandler struct {
	service   customerService
	responder responder
	logger    *slog.Logger
}

func NewCustomerHandler(service customerService, logger *slog.Logger) *CustomerHandler {
	base := defaultLogger(logger)
	return &CustomerHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CustomerHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CustomerHandler", operation, attrs...)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode customer request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")
	customer, err := h.service.CreateCustomer(r.Context(), application.CustomerInput{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		MarketingConsent: req.MarketingConsent,
		AnalyticsConsent: req.AnalyticsConsent,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "customer creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("customer_id", customer.ID).InfoContext(r.Context(), "customer created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toCustomerDTO(customer))
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "invalid customer id", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	customer, err := h.service.GetCustomer(r.Context(), id)
	if err != nil {
		h.log(r.Context(), "Get", "customer_id", id).ErrorContext(r.Context(), "customer lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toCustomerDTO(customer))
}

func (h *CustomerHandler) UpdateConsent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		h.log(r.Context(), "UpdateConsent", "error_kind", "bad_request").ErrorContext(r.Context(), "invalid customer id", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	var req consentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "UpdateConsent", "customer_id", id, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode consent request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateConsent", "customer_id", id)
	customer, err := h.service.UpdateConsent(r.Context(), id, application.ConsentInput{
		MarketingConsent: req.MarketingConsent,
		AnalyticsConsent: req.AnalyticsConsent,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "consent update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "consent updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toCustomerDTO(customer))
}

type customerRequest struct {
	Name             *string `json:"name"`
	Email            *string `json:"email"`
	Phone            *string `json:"phone"`
	MarketingConsent *bool   `json:"marketing_consent"`
	AnalyticsConsent *bool   `json:"analytics_consent"`
}

type consentRequest struct {
	MarketingConsent *bool `json:"marketing_consent"`
	AnalyticsConsent *bool `json:"analytics_consent"`
}

type customerDTO struct {
	ID               int64   `json:"id"`
	Name             *string `json:"name"`
	Email            *string `json:"email"`
	Phone            *string `json:"phone"`
	MarketingConsent bool    `json:"marketing_consent"`
	AnalyticsConsent bool    `json:"analytics_consent"`
	CreatedAt        string  `json:"created_at"`
}

func toCustomerDTO(customer persistence.Customer) customerDTO {
	return customerDTO{
		ID:               customer.ID,
		Name:             customer.Name,
		Email:            customer.Email,
		Phone:            customer.Phone,
		MarketingConsent: customer.MarketingConsent,
		AnalyticsConsent: customer.AnalyticsConsent,
		CreatedAt:        formatTime(customer.CreatedAt),
	}
}
