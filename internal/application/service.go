package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/worktime/internal/persistence"
)

var errNoStore = errors.New("store not configured")

// base carries the dependencies shared by every service.
type base struct {
	name     string
	store    persistence.Store
	newID    func() string
	now      func() time.Time
	settings Settings
	logger   *slog.Logger
	recorder EventRecorder
}

func newBase(name string, deps ServiceDeps) base {
	deps = deps.withDefaults()
	return base{
		name:     name,
		store:    deps.Store,
		newID:    deps.IDGenerator,
		now:      deps.Now,
		settings: deps.Settings,
		logger:   deps.Logger,
		recorder: deps.Recorder,
	}
}

func (b base) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, b.logger, b.name, operation, attrs...)
}

func (b base) load(ctx context.Context) (*persistence.Snapshot, error) {
	if b.store == nil {
		return nil, errNoStore
	}
	snap, err := b.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return snap, nil
}

func (b base) update(ctx context.Context, fn func(*persistence.Snapshot) error) error {
	if b.store == nil {
		return errNoStore
	}
	return b.store.Update(ctx, fn)
}

func (b base) location() *time.Location { return b.settings.location() }

// timestamp returns at when given, otherwise the service clock.
func (b base) timestamp(at *time.Time) time.Time {
	if at != nil && !at.IsZero() {
		return at.UTC()
	}
	return b.now().UTC()
}

// Services bundles every service built from one set of dependencies.
type Services struct {
	Auth         *AuthService
	Users        *UserService
	Shifts       *ShiftService
	Availability *AvailabilityService
	Swaps        *SwapService
	Timesheets   *TimesheetService
	Dashboard    *DashboardService
	Company      *CompanyService
}

// NewServices constructs all services sharing deps.
func NewServices(deps ServiceDeps, tokens *TokenManager, authOpts ...AuthOption) *Services {
	return &Services{
		Auth:         NewAuthService(deps, tokens, authOpts...),
		Users:        NewUserService(deps),
		Shifts:       NewShiftService(deps),
		Availability: NewAvailabilityService(deps),
		Swaps:        NewSwapService(deps),
		Timesheets:   NewTimesheetService(deps),
		Dashboard:    NewDashboardService(deps),
		Company:      NewCompanyService(deps),
	}
}
