package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/stellarlinkco/planit/internal/react"
	"github.com/stellarlinkco/planit/internal/tools"
)

var (
	_ tools.Observer = (*Metrics)(nil)
	_ react.Observer = (*Metrics)(nil)
)

func TestMetrics_Counts(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRun(react.OutcomeDone, 2)
	m.ObserveRun(react.OutcomeDone, 1)
	m.ObserveRun(react.OutcomeForcedFinish, 8)
	m.ObserveToolCall("get_weather", false)
	m.ObserveToolCall("get_weather", true)
	m.ObserveToolCall("get_weather", false)

	if got := testutil.ToFloat64(m.runs.WithLabelValues(react.OutcomeDone)); got != 2 {
		t.Errorf("done runs = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues(react.OutcomeForcedFinish)); got != 1 {
		t.Errorf("forced runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.toolCalls.WithLabelValues("get_weather", StatusOK)); got != 2 {
		t.Errorf("ok calls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.toolCalls.WithLabelValues("get_weather", StatusError)); got != 1 {
		t.Errorf("error calls = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.iterations); got != 1 {
		t.Errorf("histogram series = %d, want 1", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRun(react.OutcomeError, 1)
	m.ObserveToolCall("x", true)

	if New(nil) != nil {
		t.Error("New(nil) should return nil")
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil handler status = %d, want 404", rec.Code)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveToolCall("search_web", false)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `planit_tool_calls_total{status="ok",tool="search_web"} 1`) {
		t.Errorf("metrics output missing tool counter:\n%s", body)
	}
}
