package health_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rentloop/auth-service/internal/health"
)

func newTestChecker() (*health.Checker, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return health.NewChecker(slog.Default(), reg), reg
}

func TestLiveness_AlwaysUp(t *testing.T) {
	c, _ := newTestChecker()
	c.Register("records", health.PingerFunc(func(_ context.Context) error {
		return errors.New("down")
	}))

	result := c.Liveness(context.Background())
	if result.Status != "up" {
		t.Fatalf("expected status up, got %s", result.Status)
	}
	if result.Checks != nil {
		t.Fatalf("expected no checks, got %v", result.Checks)
	}
}

func TestReadiness_AllUp(t *testing.T) {
	c, reg := newTestChecker()
	c.Register("records", health.PingerFunc(func(_ context.Context) error { return nil }))
	c.Register("redis", health.PingerFunc(func(_ context.Context) error { return nil }))

	result := c.Readiness(context.Background())
	if result.Status != "up" {
		t.Fatalf("expected status up, got %s", result.Status)
	}
	for _, name := range []string{"records", "redis"} {
		check, ok := result.Checks[name]
		if !ok {
			t.Fatalf("missing %s check", name)
		}
		if check.Status != "up" {
			t.Fatalf("expected %s up, got %s", name, check.Status)
		}
		if g := testGauge(t, reg, "auth_health_check_up", name); g != 1 {
			t.Fatalf("expected gauge 1 for %s, got %f", name, g)
		}
	}
}

func TestReadiness_OneDependencyDown(t *testing.T) {
	c, reg := newTestChecker()
	c.Register("records", health.PingerFunc(func(_ context.Context) error { return nil }))
	c.Register("redis", health.PingerFunc(func(_ context.Context) error {
		return errors.New("connection refused")
	}))

	result := c.Readiness(context.Background())
	if result.Status != "down" {
		t.Fatalf("expected status down, got %s", result.Status)
	}
	if result.Checks["records"].Status != "up" {
		t.Fatal("healthy dependency should still report up")
	}
	failed := result.Checks["redis"]
	if failed.Status != "down" {
		t.Fatalf("expected redis down, got %s", failed.Status)
	}
	if failed.Error == "" {
		t.Fatal("expected error message")
	}
	if g := testGauge(t, reg, "auth_health_check_up", "redis"); g != 0 {
		t.Fatalf("expected gauge 0, got %f", g)
	}
}

func TestReadinessHandler_StatusCodes(t *testing.T) {
	c, _ := newTestChecker()
	failing := errors.New("down")
	var pingErr error
	c.Register("records", health.PingerFunc(func(_ context.Context) error { return pingErr }))

	handler := c.ReadinessHandler()

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != 200 {
		t.Fatalf("healthy readiness = %d, want 200", rec.Code)
	}

	pingErr = failing
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/readyz", nil))
	if rec.Code != 503 {
		t.Fatalf("failing readiness = %d, want 503", rec.Code)
	}
}

func testGauge(t *testing.T, reg *prometheus.Registry, name, depLabel string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "dependency" && lp.GetValue() == depLabel {
					return m.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s{dependency=%q} not found", name, depLabel)
	return 0
}
