package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/application"
	"github.com/AntonioRamos11/RestaurantIA/internal/insights"
)

type analyticsService interface {
	DailyCovers(ctx context.Context, input application.DateRangeInput) ([]insights.CoverBucket, error)
	HourlyCovers(ctx context.Context, input application.DateRangeInput) ([]insights.CoverBucket, error)
	CoreMetrics(ctx context.Context, input application.DateRangeInput) (insights.Metrics, error)
	Freshness(ctx context.Context) (application.FreshnessReport, error)
}

// AnalyticsHandler serves covers, trading metrics and data freshness.
type AnalyticsHandler struct {
	service   analyticsService
	responder responder
	logger    *slog.Logger
}

func NewAnalyticsHandler(service analyticsService, logger *slog.Logger) *AnalyticsHandler {
	base := defaultLogger(logger)
	return &AnalyticsHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AnalyticsHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AnalyticsHandler", operation, attrs...)
}

func (h *AnalyticsHandler) DailyCovers(w http.ResponseWriter, r *http.Request) {
	h.rangeQuery(w, r, "DailyCovers", func(ctx context.Context, input application.DateRangeInput) (any, error) {
		buckets, err := h.service.DailyCovers(ctx, input)
		if err != nil {
			return nil, err
		}
		out := make([]dailyCoversDTO, 0, len(buckets))
		for _, b := range buckets {
			out = append(out, dailyCoversDTO{Day: b.Bucket, Location: b.Location, Covers: b.Covers})
		}
		return out, nil
	})
}

func (h *AnalyticsHandler) HourlyCovers(w http.ResponseWriter, r *http.Request) {
	h.rangeQuery(w, r, "HourlyCovers", func(ctx context.Context, input application.DateRangeInput) (any, error) {
		buckets, err := h.service.HourlyCovers(ctx, input)
		if err != nil {
			return nil, err
		}
		out := make([]hourlyCoversDTO, 0, len(buckets))
		for _, b := range buckets {
			out = append(out, hourlyCoversDTO{Hour: b.Bucket, Location: b.Location, Covers: b.Covers})
		}
		return out, nil
	})
}

func (h *AnalyticsHandler) CoreMetrics(w http.ResponseWriter, r *http.Request) {
	h.rangeQuery(w, r, "CoreMetrics", func(ctx context.Context, input application.DateRangeInput) (any, error) {
		m, err := h.service.CoreMetrics(ctx, input)
		if err != nil {
			return nil, err
		}
		return metricsDTO{
			TotalOrders:      m.TotalOrders,
			Covers:           m.Covers,
			Hours:            m.Hours,
			AvgCoversPerHour: m.AvgCoversPerHour,
			ItemsSold:        m.ItemsSold,
			Revenue:          m.Revenue,
			AvgCheckPerCover: m.AvgCheckPerCover,
		}, nil
	})
}

func (h *AnalyticsHandler) rangeQuery(w http.ResponseWriter, r *http.Request, operation string, compute func(context.Context, application.DateRangeInput) (any, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	input := newQueryParser(r).DateRange()
	logger := h.log(r.Context(), operation, "start", input.Start, "end", input.End, "location", input.Location)

	payload, err := compute(r.Context(), input)
	if err != nil {
		logger.ErrorContext(r.Context(), "analytics query failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

func (h *AnalyticsHandler) Freshness(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	report, err := h.service.Freshness(r.Context())
	if err != nil {
		h.log(r.Context(), "Freshness").ErrorContext(r.Context(), "freshness check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, freshnessResponse{
		Orders:  toFreshnessDTO(report.Orders),
		Reviews: toFreshnessDTO(report.Reviews),
	})
}

type dailyCoversDTO struct {
	Day      string `json:"day"`
	Location string `json:"location"`
	Covers   int    `json:"covers"`
}

type hourlyCoversDTO struct {
	Hour     string `json:"hour"`
	Location string `json:"location"`
	Covers   int    `json:"covers"`
}

type metricsDTO struct {
	TotalOrders      int      `json:"total_orders"`
	Covers           int      `json:"covers"`
	Hours            int      `json:"hours"`
	AvgCoversPerHour *float64 `json:"avg_covers_per_hour"`
	ItemsSold        int      `json:"items_sold"`
	Revenue          float64  `json:"revenue"`
	AvgCheckPerCover *float64 `json:"avg_check_per_cover"`
}

type freshnessDTO struct {
	MaxTS      *string  `json:"max_ts"`
	AgeMinutes *float64 `json:"age_minutes"`
	Status     string   `json:"status"`
}

type freshnessResponse struct {
	Orders  freshnessDTO `json:"orders"`
	Reviews freshnessDTO `json:"reviews"`
}

func toFreshnessDTO(f insights.Freshness) freshnessDTO {
	dto := freshnessDTO{AgeMinutes: f.AgeMinutes, Status: f.Status}
	if f.MaxTS != nil {
		ts := f.MaxTS.UTC().Format(time.RFC3339)
		dto.MaxTS = &ts
	}
	return dto
}
