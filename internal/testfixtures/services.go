package testfixtures

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/application"
	"github.com/AntonioRamos11/RestaurantIA/internal/insights"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers, clocks and random sources.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Engine      *insights.Engine
	Seed        uint64
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Engine:      insights.NewEngine(time.UTC),
		Seed:        42,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Engine == nil {
		factory.Engine = insights.NewEngine(time.UTC)
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLocation sets the timezone analytics and listings bucket days in.
func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Engine = insights.NewEngine(loc)
	}
}

// WithRandSeed fixes the seed of the demo data generator.
func WithRandSeed(seed uint64) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Seed = seed
	}
}

// ReservationServiceDeps captures dependencies for constructing a reservation service.
type ReservationServiceDeps struct {
	Tables      application.TableCatalog
	Ledger      persistence.BookingLedger
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewReservationService builds a reservation service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewReservationService(deps ReservationServiceDeps) *application.ReservationService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewReservationServiceWithLogger(
		deps.Tables,
		deps.Ledger,
		f.Engine,
		idGen,
		now,
		deps.Logger,
	)
}

// Services bundles every application service wired to one SQLite harness.
type Services struct {
	Cache        *application.MemoryResultCache
	Reservations *application.ReservationService
	Catalog      *application.CatalogService
	Customers    *application.CustomerService
	Governance   *application.GovernanceService
	Analytics    *application.AnalyticsService
	Inventory    *application.InventoryService
	Reviews      *application.ReviewService
	Menu         *application.MenuService
	Seeds        *application.SeedService
}

// NewServices wires every application service to the harness repositories and
// a shared in-memory result cache.
func (f *ServiceFactory) NewServices(h *SQLiteHarness, logger *slog.Logger) Services {
	now := f.Clock.NowFunc()
	cache := application.NewMemoryResultCache(time.Minute, 64, now)
	return Services{
		Cache: cache,
		Reservations: f.NewReservationService(ReservationServiceDeps{
			Tables: h.Catalog,
			Ledger: h.Ledger,
			Logger: logger,
		}),
		Catalog:    application.NewCatalogServiceWithLogger(h.Catalog, now, logger),
		Customers:  application.NewCustomerServiceWithLogger(h.Customers, now, logger),
		Governance: application.NewGovernanceServiceWithLogger(h.Governance, h.Ledger, cache, now, logger),
		Analytics: application.NewAnalyticsService(application.AnalyticsServiceDeps{
			Sales:   h.Sales,
			Reviews: h.Reviews,
			Engine:  f.Engine,
			Cache:   cache,
			Now:     now,
			Logger:  logger,
		}),
		Inventory: application.NewInventoryServiceWithLogger(h.Inventory, h.Sales, f.Engine, logger),
		Reviews:   application.NewReviewServiceWithLogger(h.Reviews, f.Engine, logger),
		Menu:      application.NewMenuServiceWithLogger(h.Sales, f.Engine, logger),
		Seeds: application.NewSeedService(
			h.Seeds,
			cache,
			f.Engine,
			rand.New(rand.NewPCG(f.Seed, f.Seed)),
			now,
			logger,
		),
	}
}
