package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	return nil
}

func TestAPIMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAPIMetrics(reg)

	m.ObserveRequest("GET", "200", 150*time.Millisecond)
	m.IncAuthFailure("invalid token")
	m.IncAuthFailure("invalid token")
	m.IncDocumentProcessed("ok")

	failures := gather(t, reg, "auth_failures_total")
	if failures == nil || len(failures.Metric) != 1 {
		t.Fatal("expected one auth failure series")
	}
	if got := failures.Metric[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected 2 auth failures, got %v", got)
	}
	if got := failures.Metric[0].GetLabel()[0].GetValue(); got != "invalid_token" {
		t.Fatalf("expected normalized label, got %q", got)
	}

	if gather(t, reg, "http_request_duration_seconds") == nil {
		t.Fatal("expected request duration family")
	}
	if gather(t, reg, "documents_processed_total") == nil {
		t.Fatal("expected documents processed family")
	}
}

func TestNilMetricsAreInert(t *testing.T) {
	var m *APIMetrics
	m.ObserveRequest("GET", "200", time.Second)
	m.IncAuthFailure("x")
	m.IncDocumentProcessed("ok")

	empty := NewAPIMetrics(nil)
	empty.IncAuthFailure("x")
}
