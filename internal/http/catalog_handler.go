package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/AntonioRamos11/RestaurantIA/internal/application"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

type catalogService interface {
	CreateTenant(ctx context.Context, input application.TenantInput) (persistence.Tenant, bool, error)
	GetTenant(ctx context.Context, id int64) (persistence.Tenant, error)
	AddLocation(ctx context.Context, tenantID int64, input application.LocationInput) (application.LocationResult, error)
	ListTables(ctx context.Context, locationID int64) ([]persistence.DiningTable, error)
}

// CatalogHandler onboards tenants, their locations and dining tables.
type CatalogHandler struct {
	service   catalogService
	responder responder
	logger    *slog.Logger
}

func NewCatalogHandler(service catalogService, logger *slog.Logger) *CatalogHandler {
	base := defaultLogger(logger)
	return &CatalogHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CatalogHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CatalogHandler", operation, attrs...)
}

// CreateTenant answers 201 for a new tenant and 200 when the name already exists.
func (h *CatalogHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req tenantRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "CreateTenant", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode tenant request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CreateTenant")
	tenant, created, err := h.service.CreateTenant(r.Context(), application.TenantInput{
		Name:     req.Name,
		Timezone: req.Timezone,
		Currency: req.Currency,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "tenant creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	logger.With("tenant_id", tenant.ID, "created", created).InfoContext(r.Context(), "tenant onboarded")
	h.responder.writeJSON(r.Context(), w, status, toTenantDTO(tenant))
}

func (h *CatalogHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		h.log(r.Context(), "GetTenant", "error_kind", "bad_request").ErrorContext(r.Context(), "invalid tenant id", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	tenant, err := h.service.GetTenant(r.Context(), id)
	if err != nil {
		h.log(r.Context(), "GetTenant", "tenant_id", id).ErrorContext(r.Context(), "tenant lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTenantDTO(tenant))
}

func (h *CatalogHandler) AddLocation(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	tenantID, err := pathID(r, "id")
	if err != nil {
		h.log(r.Context(), "AddLocation", "error_kind", "bad_request").ErrorContext(r.Context(), "invalid tenant id", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "AddLocation", "tenant_id", tenantID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode location request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "AddLocation", "tenant_id", tenantID)
	result, err := h.service.AddLocation(r.Context(), tenantID, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "location creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("location_id", result.LocationID, "tables_created", result.TablesCreated).InfoContext(r.Context(), "location added")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, locationResponse{
		LocationID:    result.LocationID,
		TablesCreated: result.TablesCreated,
	})
}

func (h *CatalogHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	locationID, err := pathID(r, "id")
	if err != nil {
		h.log(r.Context(), "ListTables", "error_kind", "bad_request").ErrorContext(r.Context(), "invalid location id", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "ListTables", "location_id", locationID)
	tables, err := h.service.ListTables(r.Context(), locationID)
	if err != nil {
		logger.ErrorContext(r.Context(), "table list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]tableDTO, 0, len(tables))
	for _, table := range tables {
		out = append(out, tableDTO{
			ID:         table.ID,
			TenantID:   table.TenantID,
			LocationID: table.LocationID,
			Name:       table.Name,
			Capacity:   table.Capacity,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

type tenantRequest struct {
	Name     string  `json:"name"`
	Timezone *string `json:"timezone"`
	Currency *string `json:"currency"`
}

type tenantDTO struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Timezone  *string `json:"timezone"`
	Currency  *string `json:"currency"`
	CreatedAt string  `json:"created_at"`
}

func toTenantDTO(tenant persistence.Tenant) tenantDTO {
	return tenantDTO{
		ID:        tenant.ID,
		Name:      tenant.Name,
		Timezone:  tenant.Timezone,
		Currency:  tenant.Currency,
		CreatedAt: formatTime(tenant.CreatedAt),
	}
}

type tableRequest struct {
	Name     *string `json:"name"`
	Capacity *int    `json:"capacity"`
}

type locationRequest struct {
	Name     string         `json:"name"`
	Timezone *string        `json:"timezone"`
	Tables   []tableRequest `json:"tables"`
}

func (r locationRequest) toInput() application.LocationInput {
	input := application.LocationInput{Name: r.Name, Timezone: r.Timezone}
	for _, table := range r.Tables {
		input.Tables = append(input.Tables, application.TableInput{Name: table.Name, Capacity: table.Capacity})
	}
	return input
}

type locationResponse struct {
	LocationID    int64 `json:"location_id"`
	TablesCreated int   `json:"tables_created"`
}

type tableDTO struct {
	ID         int64   `json:"id"`
	TenantID   *int64  `json:"tenant_id"`
	LocationID int64   `json:"location_id"`
	Name       *string `json:"name"`
	Capacity   int     `json:"capacity"`
}
