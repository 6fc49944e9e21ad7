package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/application"
	"github.com/AntonioRamos11/RestaurantIA/internal/insights"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

type reviewService interface {
	CreateReview(ctx context.Context, input application.ReviewInput) (persistence.Review, error)
	Summary(ctx context.Context, input application.DateRangeInput) (insights.ReviewSummary, error)
}

type ReviewHandler struct {
	service   reviewService
	responder responder
	logger    *slog.Logger
}

func NewReviewHandler(service reviewService, logger *slog.Logger) *ReviewHandler {
	base := defaultLogger(logger)
	return &ReviewHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReviewHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReviewHandler", operation, attrs...)
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode review", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "location", req.Location)
	review, err := h.service.CreateReview(r.Context(), application.ReviewInput{
		Location: req.Location,
		At:       req.TS,
		Rating:   req.Rating,
		Text:     req.Text,
		Source:   req.Source,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "review creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("review_id", review.ID).InfoContext(r.Context(), "review recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reviewDTO{
		ID:        review.ID,
		Location:  review.LocationName,
		TS:        formatTime(review.At),
		Rating:    review.Rating,
		Text:      review.Text,
		Source:    review.Source,
		Sentiment: review.Sentiment,
	})
}

func (h *ReviewHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	input := newQueryParser(r).DateRange()
	summary, err := h.service.Summary(r.Context(), input)
	if err != nil {
		h.log(r.Context(), "Summary", "start", input.Start, "end", input.End).ErrorContext(r.Context(), "review summary failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	keywords := summary.TopKeywords
	if keywords == nil {
		keywords = []string{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reviewSummaryDTO{
		Count:        summary.Count,
		AvgRating:    summary.AvgRating,
		AvgSentiment: summary.AvgSentiment,
		TopKeywords:  keywords,
	})
}

type reviewRequest struct {
	Location string    `json:"location"`
	TS       time.Time `json:"ts"`
	Rating   *int      `json:"rating"`
	Text     string    `json:"text"`
	Source   *string   `json:"source"`
}

type reviewDTO struct {
	ID        int64    `json:"id"`
	Location  string   `json:"location"`
	TS        string   `json:"ts"`
	Rating    *int     `json:"rating"`
	Text      string   `json:"text"`
	Source    *string  `json:"source"`
	Sentiment *float64 `json:"sentiment"`
}

type reviewSummaryDTO struct {
	Count        int      `json:"count"`
	AvgRating    *float64 `json:"avg_rating"`
	AvgSentiment *float64 `json:"avg_sentiment"`
	TopKeywords  []string `json:"top_keywords"`
}
