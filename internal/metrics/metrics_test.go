package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.Documents.WithLabelValues(PathFallback).Inc()
	m.Documents.WithLabelValues(PathFallback).Inc()
	m.Documents.WithLabelValues(PathModel).Inc()
	m.Flashcards.Add(7)

	if got := testutil.ToFloat64(m.Documents.WithLabelValues(PathFallback)); got != 2 {
		t.Errorf("fallback documents = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Flashcards); got != 7 {
		t.Errorf("flashcards = %v, want 7", got)
	}
}

func TestMetrics_BreakerGauge(t *testing.T) {
	m := New()
	tests := []struct {
		state string
		want  float64
	}{
		{"open", 1},
		{"half-open", 0},
		{"open", 1},
		{"closed", 0},
	}
	for _, tt := range tests {
		m.SetBreakerState(tt.state)
		if got := testutil.ToFloat64(m.BreakerOpen); got != tt.want {
			t.Errorf("after %q gauge = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ModelFailures.WithLabelValues("timeout").Inc()
	m.ObserveStage("extract", 0.2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`flashcards_model_failures_total{reason="timeout"} 1`,
		`flashcards_process_duration_seconds_count{stage="extract"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNew_Independent(t *testing.T) {
	a, b := New(), New()
	a.Flashcards.Inc()
	if got := testutil.ToFloat64(b.Flashcards); got != 0 {
		t.Errorf("second instance saw %v", got)
	}
}
