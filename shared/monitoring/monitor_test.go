package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"station-relay/shared/logging"
)

func TestMonitorHealth(t *testing.T) {
	m := NewMonitor(logging.Discard())

	if !m.IsHealthy() {
		t.Error("Expected healthy before any run")
	}
	if m.GetStatusSummary() != "No runs yet" {
		t.Errorf("Expected 'No runs yet', got %q", m.GetStatusSummary())
	}

	m.RecordCriticalFailure(errors.New("gateway down"), time.Second)
	if m.IsHealthy() {
		t.Error("Expected unhealthy after critical failure")
	}
	if !strings.Contains(m.GetStatusSummary(), "gateway down") {
		t.Errorf("Expected failure reason in summary, got %q", m.GetStatusSummary())
	}

	m.RecordPartialFailure(errors.New("clouds down"), time.Second)
	if m.IsHealthy() {
		t.Error("Partial failure must not change health")
	}

	m.RecordSuccess("uploaded", time.Second)
	if !m.IsHealthy() {
		t.Error("Expected healthy after success")
	}

	successes, partial, critical := m.Counts()
	if successes != 1 || partial != 1 || critical != 1 {
		t.Errorf("Expected counts 1/1/1, got %d/%d/%d", successes, partial, critical)
	}
}

func TestMonitorConsecutiveFailures(t *testing.T) {
	m := NewMonitor(logging.Discard())

	m.RecordCriticalFailure(errors.New("a"), 0)
	m.RecordCriticalFailure(errors.New("b"), 0)
	if !strings.Contains(m.GetStatusSummary(), "2 consecutive failure(s)") {
		t.Errorf("Expected 2 consecutive failures, got %q", m.GetStatusSummary())
	}

	m.RecordSuccess("ok", 0)
	m.RecordCriticalFailure(errors.New("c"), 0)
	if !strings.Contains(m.GetStatusSummary(), "1 consecutive failure(s)") {
		t.Errorf("Expected counter reset after success, got %q", m.GetStatusSummary())
	}
}

func TestHealthHandlers(t *testing.T) {
	m := NewMonitor(logging.Discard())
	h := NewHealthServer(m, 0, logging.Discard())

	tests := []struct {
		name       string
		record     func()
		path       string
		wantStatus int
		wantPrefix string
	}{
		{"Health before runs", func() {}, "/health", http.StatusOK, "OK - "},
		{"Health after failure", func() { m.RecordCriticalFailure(errors.New("upload rejected"), 0) }, "/health", http.StatusServiceUnavailable, "Service unhealthy - "},
		{"Status after failure", func() {}, "/status", http.StatusOK, "Last run failed"},
		{"Health after success", func() { m.RecordSuccess("uploaded", 0) }, "/health", http.StatusOK, "OK - Last run"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.record()

			rec := httptest.NewRecorder()
			h.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if !strings.HasPrefix(rec.Body.String(), tt.wantPrefix) {
				t.Errorf("Expected body prefix %q, got %q", tt.wantPrefix, rec.Body.String())
			}
		})
	}
}
