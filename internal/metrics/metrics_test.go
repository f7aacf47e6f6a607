package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/example/worktime/internal/persistence"
)

type stubStore struct {
	loadErr error
}

func (s *stubStore) Load(context.Context) (*persistence.Snapshot, error) {
	return persistence.NewSnapshot(), s.loadErr
}

func (s *stubStore) Save(context.Context, *persistence.Snapshot) error { return nil }

func (s *stubStore) Update(_ context.Context, fn func(*persistence.Snapshot) error) error {
	return fn(persistence.NewSnapshot())
}

func (s *stubStore) Close() error { return nil }

func TestDomainCounters(t *testing.T) {
	m := New()
	m.ClockIn()
	m.ClockIn()
	m.ClockOut()
	m.SwapTransition("accepted")
	m.Login("success")
	m.Login("provisioned")

	if got := testutil.ToFloat64(m.ClockEventsTotal.WithLabelValues("clock_in")); got != 2 {
		t.Fatalf("clock_in = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SwapTransitionsTotal.WithLabelValues("accepted")); got != 1 {
		t.Fatalf("accepted = %v, want 1", got)
	}

	summary, err := m.Summarize()
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.Activity.ClockIns != 2 || summary.Activity.ClockOuts != 1 {
		t.Fatalf("unexpected activity %+v", summary.Activity)
	}
	if summary.Activity.Logins["provisioned"] != 1 {
		t.Fatalf("unexpected logins %+v", summary.Activity.Logins)
	}
}

func TestInstrumentedStoreSeparatesDomainErrors(t *testing.T) {
	m := New()
	ioErr := errors.New("disk full")
	store := InstrumentStore(&stubStore{loadErr: ioErr}, "json", m)
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, ioErr) {
		t.Fatalf("expected disk error, got %v", err)
	}
	rejected := errors.New("rejected")
	if err := store.Update(ctx, func(*persistence.Snapshot) error { return rejected }); !errors.Is(err, rejected) {
		t.Fatalf("expected rejection, got %v", err)
	}

	if got := testutil.ToFloat64(m.StoreErrorsTotal.WithLabelValues("json", "load")); got != 1 {
		t.Fatalf("load errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StoreErrorsTotal.WithLabelValues("json", "update")); got != 0 {
		t.Fatalf("update errors = %v, want 0", got)
	}
	if got := testutil.CollectAndCount(m.StoreOperationDuration); got != 2 {
		t.Fatalf("duration series = %d, want 2", got)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/shifts/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shifts/"+id, nil))
	}

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/shifts/{id}", "404")); got != 2 {
		t.Fatalf("requests = %v, want 2", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "/health", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "worktime_http_requests_total") {
		t.Fatalf("exposition missing http counter")
	}
}

func TestDBPoolCollector(t *testing.T) {
	m := New()
	m.RegisterDBPoolCollector(func() (int32, int32, int32) { return 4, 3, 1 })
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(`
# HELP worktime_db_pool_acquired_conns Number of acquired connections in the DB pool.
# TYPE worktime_db_pool_acquired_conns gauge
worktime_db_pool_acquired_conns 1
`), "worktime_db_pool_acquired_conns"); err != nil {
		t.Fatalf("unexpected gauge: %v", err)
	}
}
