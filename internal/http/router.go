package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/example/worktime/internal/application"
	"github.com/example/worktime/internal/metrics"
)

// RouterConfig wires handlers and cross-cutting concerns into the router.
// Nil handlers leave their routes unregistered.
type RouterConfig struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Shifts       *ShiftHandler
	Availability *AvailabilityHandler
	Swaps        *SwapHandler
	Timesheets   *TimesheetHandler
	Dashboard    *DashboardHandler
	Company      *CompanyHandler
	Health       *HealthHandler

	// Authenticator resolves bearer tokens. Without it tokens are ignored.
	Authenticator TokenAuthenticator
	AuthRequired  bool
	CORSOrigins   []string
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	Middleware    []func(http.Handler) http.Handler
}

// NewRouterConfig builds every handler over services.
func NewRouterConfig(services *application.Services, logger *slog.Logger) RouterConfig {
	cfg := RouterConfig{Logger: logger}
	if services == nil {
		return cfg
	}
	cfg.Auth = NewAuthHandler(services.Auth, logger)
	cfg.Users = NewUserHandler(services.Users, logger)
	cfg.Shifts = NewShiftHandler(services.Shifts, logger)
	cfg.Availability = NewAvailabilityHandler(services.Availability, logger)
	cfg.Swaps = NewSwapHandler(services.Swaps, logger)
	cfg.Timesheets = NewTimesheetHandler(services.Timesheets, logger)
	cfg.Dashboard = NewDashboardHandler(services.Dashboard, logger)
	cfg.Company = NewCompanyHandler(services.Company, logger)
	cfg.Health = NewHealthHandler(func(ctx context.Context) error {
		_, err := services.Company.Get(ctx)
		return err
	}, logger)
	cfg.Authenticator = services.Auth
	return cfg
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	responder := newResponder(logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(chimw.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(CORS(cfg.CORSOrigins))
	if cfg.Authenticator != nil {
		r.Use(Authenticate(cfg.Authenticator, cfg.AuthRequired, logger))
	}
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusNotFound, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusMethodNotAllowed, nil)
	})

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Health)
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
		r.Get("/metrics/summary", cfg.Metrics.SummaryHandler())
	}

	if cfg.Company != nil {
		r.Route("/company", func(r chi.Router) {
			r.Get("/", cfg.Company.Get)
			r.Get("/location", cfg.Company.Location)
			r.Post("/check-location", cfg.Company.CheckLocation)
		})
	}

	if cfg.Auth != nil {
		r.Post("/login", cfg.Auth.Login)
		r.Post("/register", cfg.Auth.Register)
	}

	if cfg.Users != nil {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", cfg.Users.List)
			r.Get("/filter", cfg.Users.Filter)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.Users.Get)
				r.Patch("/", cfg.Users.Update)
				r.Delete("/", cfg.Users.Delete)
				if cfg.Dashboard != nil {
					r.Get("/hours", cfg.Dashboard.Hours)
				}
			})
		})
	}

	if cfg.Dashboard != nil {
		r.Get("/dashboard/{userId}", cfg.Dashboard.Dashboard)
	}

	if cfg.Shifts != nil {
		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", cfg.Shifts.List)
			r.Post("/", cfg.Shifts.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.Shifts.Get)
				r.Patch("/", cfg.Shifts.Update)
				r.Delete("/", cfg.Shifts.Delete)
				r.Post("/assign", cfg.Shifts.Assign)
			})
		})
	}

	if cfg.Timesheets != nil {
		r.Route("/timesheets", func(r chi.Router) {
			r.Get("/", cfg.Timesheets.List)
			r.Post("/clock-in", cfg.Timesheets.ClockIn)
			r.Post("/clock-out", cfg.Timesheets.ClockOut)
			r.Get("/active/{userId}", cfg.Timesheets.Active)
		})
	}

	if cfg.Availability != nil {
		r.Route("/availabilities", func(r chi.Router) {
			r.Get("/", cfg.Availability.List)
			r.Post("/", cfg.Availability.Create)
			r.Patch("/{id}", cfg.Availability.Update)
			r.Delete("/{id}", cfg.Availability.Delete)
		})
	}

	if cfg.Swaps != nil {
		r.Route("/swaps", func(r chi.Router) {
			r.Get("/", cfg.Swaps.List)
			r.Post("/", cfg.Swaps.Create)
			r.Post("/{id}/accept", cfg.Swaps.Accept)
			r.Post("/{id}/reject", cfg.Swaps.Reject)
			r.Post("/{id}/cancel", cfg.Swaps.Cancel)
		})
	}

	return r
}
