package http

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"
)

type RouterConfig struct {
	Health       *HealthHandler
	Reservations *ReservationHandler
	Catalog      *CatalogHandler
	Customers    *CustomerHandler
	Governance   *GovernanceHandler
	Analytics    *AnalyticsHandler
	Inventory    *InventoryHandler
	Reviews      *ReviewHandler
	Menu         *MenuHandler
	Seed         *SeedHandler

	// Operator guards governance mutations and seeding.
	Operator OperatorAuthenticator
	// Limiter throttles reservation writes per client IP.
	Limiter    *ClientRateLimiter
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

type methods map[string]http.HandlerFunc

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	operator := RequireOperator(cfg.Operator, cfg.Logger)
	limited := RateLimit(cfg.Limiter, cfg.Logger)

	guard := func(mw func(http.Handler) http.Handler, fn http.HandlerFunc) http.HandlerFunc {
		return mw(fn).ServeHTTP
	}

	if cfg.Health != nil {
		route(mux, "/health", methods{http.MethodGet: cfg.Health.Health})
	}

	if h := cfg.Reservations; h != nil {
		route(mux, "/availability", methods{http.MethodGet: h.Availability})
		route(mux, "/reservations", methods{
			http.MethodGet:  h.List,
			http.MethodPost: guard(limited, h.Create),
		})
		route(mux, "/reservations/{id}", methods{http.MethodGet: h.Get})
	}

	if h := cfg.Catalog; h != nil {
		route(mux, "/tenants", methods{http.MethodPost: h.CreateTenant})
		route(mux, "/tenants/{id}", methods{http.MethodGet: h.GetTenant})
		route(mux, "/tenants/{id}/locations", methods{http.MethodPost: h.AddLocation})
		route(mux, "/locations/{id}/tables", methods{http.MethodGet: h.ListTables})
	}

	if h := cfg.Customers; h != nil {
		route(mux, "/customers", methods{http.MethodPost: h.Create})
		route(mux, "/customers/{id}", methods{http.MethodGet: h.Get})
		route(mux, "/customers/{id}/consent", methods{http.MethodPatch: h.UpdateConsent})
	}

	if h := cfg.Governance; h != nil {
		route(mux, "/governance/pii_inventory", methods{http.MethodGet: h.PIIInventory})
		route(mux, "/governance/retention/policies", methods{
			http.MethodGet:  h.ListPolicies,
			http.MethodPost: guard(operator, h.UpsertPolicy),
		})
		route(mux, "/governance/retention/apply", methods{http.MethodPost: guard(operator, h.ApplyRetention)})
	}

	if h := cfg.Analytics; h != nil {
		route(mux, "/analytics/covers/daily", methods{http.MethodGet: h.DailyCovers})
		route(mux, "/analytics/covers/hourly", methods{http.MethodGet: h.HourlyCovers})
		route(mux, "/analytics/core/metrics", methods{http.MethodGet: h.CoreMetrics})
		route(mux, "/analytics/core/freshness", methods{http.MethodGet: h.Freshness})
	}

	if h := cfg.Inventory; h != nil {
		route(mux, "/inventory/ingredients", methods{http.MethodGet: h.Ingredients})
		route(mux, "/inventory/onhand", methods{http.MethodGet: h.OnHand})
		route(mux, "/inventory/adjust", methods{http.MethodPost: h.Adjust})
		route(mux, "/inventory/usage", methods{http.MethodGet: h.Usage})
	}

	if h := cfg.Reviews; h != nil {
		route(mux, "/reviews", methods{http.MethodPost: h.Create})
		route(mux, "/reviews/summary", methods{http.MethodGet: h.Summary})
	}

	if h := cfg.Menu; h != nil {
		route(mux, "/menu/items", methods{http.MethodGet: h.Items})
		route(mux, "/recs/popular", methods{http.MethodGet: h.Popular})
		route(mux, "/recs/cooccurrence", methods{http.MethodGet: h.Cooccurrence})
	}

	if cfg.Seed != nil {
		route(mux, "/seed", methods{http.MethodPost: guard(operator, cfg.Seed.Seed)})
	}

	return Chain(mux, cfg.Middleware...)
}

func route(mux *http.ServeMux, pattern string, handlers methods) {
	allowed := make([]string, 0, len(handlers))
	for method := range handlers {
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)

	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		handler, ok := handlers[r.Method]
		if !ok && r.Method == http.MethodHead {
			handler, ok = handlers[http.MethodGet]
		}
		if !ok {
			methodNotAllowed(w, allowed...)
			return
		}
		handler(w, r)
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
