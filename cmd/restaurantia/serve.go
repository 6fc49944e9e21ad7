package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonioRamos11/RestaurantIA/internal/application"
	httptransport "github.com/AntonioRamos11/RestaurantIA/internal/http"
	"github.com/AntonioRamos11/RestaurantIA/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending schema migrations before serving")
	return cmd
}

func runServe(ctx context.Context, migrate bool) (err error) {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	logger := a.logger

	shutdownTracing, err := telemetry.Setup(ctx, "restaurantia", a.cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if terr := shutdownTracing(shutdownCtx); terr != nil {
			logger.Error("failed to flush traces", "error", terr)
		}
	}()

	if err := a.open(ctx, migrate); err != nil {
		return err
	}
	if err := a.openCache(ctx); err != nil {
		return err
	}

	operator, err := application.NewOperatorAuthenticator(a.cfg.OperatorKeyHash)
	if err != nil {
		return fmt.Errorf("operator key: %w", err)
	}
	if !operator.Enabled() {
		logger.Warn("operator key not configured, governance and seed endpoints are open")
	}

	svc := a.services()

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Health:       httptransport.NewHealthHandler(logger, a.pingers()...),
		Reservations: httptransport.NewReservationHandler(svc.reservations, logger),
		Catalog:      httptransport.NewCatalogHandler(svc.catalog, logger),
		Customers:    httptransport.NewCustomerHandler(svc.customers, logger),
		Governance:   httptransport.NewGovernanceHandler(svc.governance, logger),
		Analytics:    httptransport.NewAnalyticsHandler(svc.analytics, logger),
		Inventory:    httptransport.NewInventoryHandler(svc.inventory, logger),
		Reviews:      httptransport.NewReviewHandler(svc.reviews, logger),
		Menu:         httptransport.NewMenuHandler(svc.menu, logger),
		Seed:         httptransport.NewSeedHandler(svc.seeds, logger),
		Operator:     operator,
		Limiter:      httptransport.NewClientRateLimiter(a.cfg.RateLimitRPS, a.cfg.RateLimitBurst, nil),
		Logger:       logger,
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	if a.cfg.RetentionInterval > 0 {
		sweeper := application.NewRetentionSweeper(svc.governance, a.cfg.RetentionInterval, logger)
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("restaurantia API listening", "addr", server.Addr, "env", a.cfg.Env)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
