package monitoring

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Monitor struct {
	logger *slog.Logger

	mu                  sync.RWMutex
	lastRunSuccess      bool
	lastRunTime         time.Time
	lastSummary         string
	consecutiveFailures int
	successes           int
	partialFailures     int
	criticalFailures    int
}

func NewMonitor(logger *slog.Logger) *Monitor {
	return &Monitor{logger: logger}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	m.consecutiveFailures = 0
	m.successes++
	m.mu.Unlock()

	m.logger.Info("run completed", "summary", summary, "duration", duration)
}

// RecordPartialFailure logs a non-blocking failure. Health is unchanged.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.partialFailures++
	m.mu.Unlock()

	m.logger.Warn("partial failure", "error", err, "duration", duration)
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastSummary = err.Error()
	m.consecutiveFailures++
	failures := m.consecutiveFailures
	m.criticalFailures++
	m.mu.Unlock()

	m.logger.Error("run failed", "error", err, "duration", duration, "consecutive_failures", failures)
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet
	}
	return m.lastRunSuccess
}

// Counts returns successes, partial failures and critical failures since start.
func (m *Monitor) Counts() (successes, partial, critical int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.successes, m.partialFailures, m.criticalFailures
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}

	if m.lastRunSuccess {
		return fmt.Sprintf("Last run: %s (%s); uploads=%d partial=%d failed=%d",
			m.lastRunTime.UTC().Format("Jan 2 15:04"), m.lastSummary,
			m.successes, m.partialFailures, m.criticalFailures)
	}
	return fmt.Sprintf("Last run failed: %s (%s); %d consecutive failure(s)",
		m.lastRunTime.UTC().Format("Jan 2 15:04"), m.lastSummary, m.consecutiveFailures)
}
