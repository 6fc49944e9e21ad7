package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/AntonioRamos11/RestaurantIA/internal/application"
	"github.com/AntonioRamos11/RestaurantIA/internal/cache"
	"github.com/AntonioRamos11/RestaurantIA/internal/config"
	httptransport "github.com/AntonioRamos11/RestaurantIA/internal/http"
	"github.com/AntonioRamos11/RestaurantIA/internal/insights"
	"github.com/AntonioRamos11/RestaurantIA/internal/logging"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence/postgres"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence/sqlite"
)

const memoryCacheEntries = 256

// app holds the stores and services shared by every command.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	storage  *sqlite.Storage
	pgLedger *postgres.Ledger
	redis    *cache.RedisResultCache

	ledger persistence.BookingLedger
	cache  application.ResultCache
	engine *insights.Engine
	now    func() time.Time

	closers []func() error
}

// loadApp reads configuration and builds the logger. Stores are opened by open.
func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, sync, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	a := &app{
		cfg:    cfg,
		logger: logger.With("service", "restaurantia"),
		engine: insights.NewEngine(cfg.Location()),
		now:    time.Now,
	}
	// zap reports EINVAL when syncing a terminal or pipe.
	a.closers = append(a.closers, func() error { _ = sync(); return nil })
	return a, nil
}

// open connects the SQLite store and the optional Postgres ledger. With
// migrate set the schemas are brought up to date.
func (a *app) open(ctx context.Context, migrate bool) error {
	storage, err := sqlite.Open(a.cfg.SQLiteDSN)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.storage = storage
	a.ledger = storage
	a.closers = append(a.closers, storage.Close)

	if migrate {
		runner, err := storage.Migrator(a.logger)
		if err != nil {
			return err
		}
		if _, err := runner.Up(ctx); err != nil {
			return fmt.Errorf("migrate storage: %w", err)
		}
	}

	if a.cfg.LedgerDatabaseURL != "" {
		ledger, err := postgres.Open(ctx, a.cfg.LedgerDatabaseURL)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		a.pgLedger = ledger
		a.ledger = ledger
		a.closers = append(a.closers, func() error { ledger.Close(); return nil })

		if migrate {
			if err := ledger.Migrate(ctx, a.logger); err != nil {
				return fmt.Errorf("migrate ledger: %w", err)
			}
		}
		a.logger.InfoContext(ctx, "booking ledger on postgres")
	}
	return nil
}

// openCache selects Redis when an address is configured and the in-process
// cache otherwise.
func (a *app) openCache(ctx context.Context) error {
	if a.cfg.RedisAddr != "" {
		redisCache, err := cache.Open(ctx, cache.Options{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
			TTL:      a.cfg.CacheTTL,
		})
		if err != nil {
			return fmt.Errorf("open redis: %w", err)
		}
		a.redis = redisCache
		a.cache = redisCache
		a.closers = append(a.closers, redisCache.Close)
		a.logger.InfoContext(ctx, "result cache on redis", "addr", a.cfg.RedisAddr)
	} else {
		a.cache = application.NewMemoryResultCache(a.cfg.CacheTTL, memoryCacheEntries, a.now)
	}

	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// services is the full set of application services over the opened stores.
type services struct {
	reservations *application.ReservationService
	catalog      *application.CatalogService
	customers    *application.CustomerService
	governance   *application.GovernanceService
	analytics    *application.AnalyticsService
	inventory    *application.InventoryService
	reviews      *application.ReviewService
	menu         *application.MenuService
	seeds        *application.SeedService
}

func (a *app) services() services {
	seed := uint64(a.now().UnixNano())
	return services{
		reservations: application.NewReservationServiceWithLogger(a.storage, a.ledger, a.engine, uuid.NewString, a.now, a.logger),
		catalog:      application.NewCatalogServiceWithLogger(a.storage, a.now, a.logger),
		customers:    application.NewCustomerServiceWithLogger(a.storage, a.now, a.logger),
		governance:   application.NewGovernanceServiceWithLogger(a.storage, a.ledger, a.cache, a.now, a.logger),
		analytics: application.NewAnalyticsService(application.AnalyticsServiceDeps{
			Sales:        a.storage,
			Reviews:      a.storage,
			Engine:       a.engine,
			Cache:        a.cache,
			Now:          a.now,
			FreshnessSLO: a.cfg.FreshnessSLO,
			Logger:       a.logger,
		}),
		inventory: application.NewInventoryServiceWithLogger(a.storage, a.storage, a.engine, a.logger),
		reviews:   application.NewReviewServiceWithLogger(a.storage, a.engine, a.logger),
		menu:      application.NewMenuServiceWithLogger(a.storage, a.engine, a.logger),
		seeds:     application.NewSeedService(a.storage, a.cache, a.engine, rand.New(rand.NewPCG(seed, seed>>1)), a.now, a.logger),
	}
}

// pingers lists the stores the health check probes.
func (a *app) pingers() []httptransport.Pinger {
	out := []httptransport.Pinger{a.storage}
	if a.pgLedger != nil {
		out = append(out, a.pgLedger)
	}
	if a.redis != nil {
		out = append(out, a.redis)
	}
	return out
}
