package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/worktime/internal/application"
	"github.com/example/worktime/internal/persistence"
)

// TokenSecret signs tokens issued by factory-built services.
const TokenSecret = "test-secret"

// TokenTTL matches the server default so tests can move the clock by hours
// without losing their tokens.
const TokenTTL = 12 * time.Hour

// fastArgon2id keeps password hashing cheap in tests.
var fastArgon2id = application.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

// ServiceFactory builds application services with a controllable clock and
// predictable identifiers.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Settings    application.Settings
	Logger      *slog.Logger
	Recorder    application.EventRecorder
}

// ServiceFactoryOption configures a ServiceFactory.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory returns a factory using ReferenceTime, "id" prefixed
// identifiers and a discarding logger.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Settings:    Settings(),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(factory)
	}
	return factory
}

// WithClock overrides the clock.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(f *ServiceFactory) {
		if clock != nil {
			f.Clock = clock
		}
	}
}

// WithIDGenerator overrides the identifier sequence.
func WithIDGenerator(ids *IDGenerator) ServiceFactoryOption {
	return func(f *ServiceFactory) {
		if ids != nil {
			f.IDGenerator = ids
		}
	}
}

// WithSettings overrides the scheduling settings.
func WithSettings(settings application.Settings) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Settings = settings }
}

// WithRecorder sets the event recorder.
func WithRecorder(recorder application.EventRecorder) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Recorder = recorder }
}

// Deps returns service dependencies over store.
func (f *ServiceFactory) Deps(store persistence.Store) application.ServiceDeps {
	return application.ServiceDeps{
		Store:       store,
		IDGenerator: f.IDGenerator.NextFunc(),
		Now:         f.Clock.NowFunc(),
		Settings:    f.Settings,
		Logger:      f.Logger,
		Recorder:    f.Recorder,
	}
}

// Tokens returns a token manager following the factory clock.
func (f *ServiceFactory) Tokens() *application.TokenManager {
	return application.NewTokenManager(TokenSecret, "worktime", TokenTTL, f.Clock.NowFunc())
}

// Services builds every service over store.
func (f *ServiceFactory) Services(store persistence.Store) *application.Services {
	hasher := func(password string) (string, error) {
		return application.CreatePasswordHash(password, fastArgon2id)
	}
	return application.NewServices(f.Deps(store), f.Tokens(), application.WithPasswordHasher(hasher))
}
