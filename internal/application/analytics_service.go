package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/insights"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// DefaultFreshnessSLO is the age after which a dataset is reported stale.
const DefaultFreshnessSLO = 24 * time.Hour

// LatestReviewSource reports the newest review timestamp.
type LatestReviewSource interface {
	LatestReviewTime(ctx context.Context) (*time.Time, error)
}

// AnalyticsService reports covers, trading metrics and data freshness.
type AnalyticsService struct {
	sales   persistence.SalesRepository
	reviews LatestReviewSource
	engine  *insights.Engine
	cache   ResultCache
	now     func() time.Time
	slo     time.Duration
	logger  *slog.Logger
}

// AnalyticsServiceDeps captures the dependencies of an analytics service.
type AnalyticsServiceDeps struct {
	Sales        persistence.SalesRepository
	Reviews      LatestReviewSource
	Engine       *insights.Engine
	Cache        ResultCache
	Now          func() time.Time
	FreshnessSLO time.Duration
	Logger       *slog.Logger
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(deps AnalyticsServiceDeps) *AnalyticsService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	engine := deps.Engine
	if engine == nil {
		engine = insights.NewEngine(nil)
	}
	slo := deps.FreshnessSLO
	if slo <= 0 {
		slo = DefaultFreshnessSLO
	}
	return &AnalyticsService{
		sales:   deps.Sales,
		reviews: deps.Reviews,
		engine:  engine,
		cache:   deps.Cache,
		now:     now,
		slo:     slo,
		logger:  defaultLogger(deps.Logger),
	}
}

func (s *AnalyticsService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AnalyticsService", operation, attrs...)
}

// DailyCovers sums covers per day and location over an inclusive day range.
func (s *AnalyticsService) DailyCovers(ctx context.Context, input DateRangeInput) ([]insights.CoverBucket, error) {
	return s.covers(ctx, "DailyCovers", "covers.daily", input, s.engine.DailyCovers)
}

// HourlyCovers sums covers per hour and location over an inclusive day range.
func (s *AnalyticsService) HourlyCovers(ctx context.Context, input DateRangeInput) ([]insights.CoverBucket, error) {
	return s.covers(ctx, "HourlyCovers", "covers.hourly", input, s.engine.HourlyCovers)
}

func (s *AnalyticsService) covers(ctx context.Context, operation, kind string, input DateRangeInput, bucket func([]persistence.Order) []insights.CoverBucket) (buckets []insights.CoverBucket, err error) {
	if s == nil || s.sales == nil {
		err = fmt.Errorf("sales repository not configured")
		return
	}

	logger := s.loggerWith(ctx, operation, "start", input.Start, "end", input.End, "location", input.Location)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute covers", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(buckets)).DebugContext(ctx, "covers computed")
	}()

	rng, vErr := resolveRange(s.engine, input, true)
	if vErr != nil {
		err = vErr
		return
	}

	key := buildResultCacheKey(kind, input.Start, input.End, rng.location, s.engine.Location().String())
	buckets, err = cachedResult(ctx, s.cache, logger, key, func() ([]insights.CoverBucket, error) {
		orders, err := s.sales.ListOrders(ctx, rng.orderFilter())
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		return bucket(orders), nil
	})
	return
}

// CoreMetrics returns order, cover and revenue totals for an inclusive day range.
func (s *AnalyticsService) CoreMetrics(ctx context.Context, input DateRangeInput) (metrics insights.Metrics, err error) {
	if s == nil || s.sales == nil {
		err = fmt.Errorf("sales repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CoreMetrics", "start", input.Start, "end", input.End, "location", input.Location)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute metrics", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("total_orders", metrics.TotalOrders).DebugContext(ctx, "metrics computed")
	}()

	rng, vErr := resolveRange(s.engine, input, true)
	if vErr != nil {
		err = vErr
		return
	}

	key := buildResultCacheKey("metrics.core", input.Start, input.End, rng.location, s.engine.Location().String())
	metrics, err = cachedResult(ctx, s.cache, logger, key, func() (insights.Metrics, error) {
		orders, err := s.sales.ListOrders(ctx, rng.orderFilter())
		if err != nil {
			return insights.Metrics{}, fmt.Errorf("list orders: %w", err)
		}
		return s.engine.CoreMetrics(orders), nil
	})
	return
}

// Freshness reports how old the newest order and review are. It is never cached.
func (s *AnalyticsService) Freshness(ctx context.Context) (report FreshnessReport, err error) {
	if s == nil || s.sales == nil {
		err = fmt.Errorf("sales repository not configured")
		return
	}

	now := s.now().UTC()

	var latestOrder *time.Time
	latestOrder, err = s.sales.LatestOrderTime(ctx)
	if err != nil {
		err = fmt.Errorf("latest order: %w", err)
		return
	}
	report.Orders = insights.CheckFreshness(latestOrder, now, s.slo)

	var latestReview *time.Time
	if s.reviews != nil {
		latestReview, err = s.reviews.LatestReviewTime(ctx)
		if err != nil {
			err = fmt.Errorf("latest review: %w", err)
			return
		}
	}
	report.Reviews = insights.CheckFreshness(latestReview, now, s.slo)
	return
}
