package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks the state of long-running backtest jobs and serves it
// as JSON for liveness checks.
type HealthChecker struct {
	mu            sync.RWMutex
	lastGridRun   time.Time
	storeReady    bool
	recentErrors  []string
	maxErrorsKept int
}

type HealthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	LastGridRun time.Time `json:"last_grid_run,omitempty"`
	StoreReady  bool      `json:"store_ready"`
	Uptime      string    `json:"uptime"`
	Errors      []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{maxErrorsKept: 10}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	if !h.storeReady {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	if len(h.recentErrors) > 0 {
		status = "unhealthy"
		code = http.StatusInternalServerError
	}

	health := HealthStatus{
		Status:      status,
		Timestamp:   time.Now(),
		LastGridRun: h.lastGridRun,
		StoreReady:  h.storeReady,
		Uptime:      time.Since(startTime).String(),
		Errors:      h.recentErrors,
	}

	// Headers must be set before the status code is written
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(health)
}

// SetStoreReady marks whether the storage collaborator is reachable.
func (h *HealthChecker) SetStoreReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.storeReady = ready
}

// RecordGridRun marks the completion time of the latest grid search.
func (h *HealthChecker) RecordGridRun() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastGridRun = time.Now()
}

// RecordError keeps a bounded list of recent errors for the health payload.
func (h *HealthChecker) RecordError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recentErrors = append(h.recentErrors, msg)
	if len(h.recentErrors) > h.maxErrorsKept {
		h.recentErrors = h.recentErrors[1:]
	}
}
