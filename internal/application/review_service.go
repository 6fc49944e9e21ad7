package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AntonioRamos11/RestaurantIA/internal/insights"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// ReviewService records guest reviews and summarizes them.
type ReviewService struct {
	reviews persistence.ReviewRepository
	engine  *insights.Engine
	logger  *slog.Logger
}

// NewReviewService constructs a review service with the provided dependencies.
func NewReviewService(reviews persistence.ReviewRepository, engine *insights.Engine) *ReviewService {
	return NewReviewServiceWithLogger(reviews, engine, nil)
}

// NewReviewServiceWithLogger constructs a review service with a specified logger.
func NewReviewServiceWithLogger(reviews persistence.ReviewRepository, engine *insights.Engine, logger *slog.Logger) *ReviewService {
	if engine == nil {
		engine = insights.NewEngine(nil)
	}
	return &ReviewService{reviews: reviews, engine: engine, logger: defaultLogger(logger)}
}

func (s *ReviewService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReviewService", operation, attrs...)
}

// CreateReview stores a review, creating its location when unknown. Sentiment
// is left empty.
func (s *ReviewService) CreateReview(ctx context.Context, input ReviewInput) (review persistence.Review, err error) {
	if s == nil || s.reviews == nil {
		err = fmt.Errorf("review repository not configured")
		return
	}

	location := strings.TrimSpace(input.Location)
	logger := s.loggerWith(ctx, "CreateReview", "location", location)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create review", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("review_id", review.ID).InfoContext(ctx, "review created")
	}()

	vErr := &ValidationError{}
	if location == "" {
		vErr.add("location", "location is required")
	}
	if input.At.IsZero() {
		vErr.add("ts", "timestamp is required")
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		vErr.add("rating", "rating must be between 1 and 5")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	review, err = s.reviews.CreateReview(ctx, persistence.Review{
		LocationName: location,
		At:           input.At.UTC(),
		Rating:       input.Rating,
		Text:         input.Text,
		Source:       normalizeOptionalString(input.Source),
	})
	if err != nil {
		err = mapRepoError(err, "rating", "rating must be between 1 and 5")
	}
	return
}

// Summary aggregates the reviews of an inclusive day range.
func (s *ReviewService) Summary(ctx context.Context, input DateRangeInput) (summary insights.ReviewSummary, err error) {
	if s == nil || s.reviews == nil {
		err = fmt.Errorf("review repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Summary", "start", input.Start, "end", input.End, "location", input.Location)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to summarize reviews", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("count", summary.Count).DebugContext(ctx, "reviews summarized")
	}()

	rng, vErr := resolveRange(s.engine, input, true)
	if vErr != nil {
		err = vErr
		return
	}

	var reviews []persistence.Review
	reviews, err = s.reviews.ListReviews(ctx, persistence.ReviewFilter{
		From:     *rng.from,
		To:       *rng.to,
		Location: rng.location,
	})
	if err != nil {
		err = fmt.Errorf("list reviews: %w", err)
		return
	}

	summary = insights.SummarizeReviews(reviews)
	return
}
