package handler

import (
	"encoding/json"
	"net/http"
	"time"
)

// PoolStats exposes the worker pool figures reported by the readiness probe.
type PoolStats interface {
	QueueDepth() int
	QueueCapacity() int
	Workers() int
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	pool PoolStats
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(pool PoolStats) *HealthHandler {
	return &HealthHandler{pool: pool}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status    string      `json:"status"`
	Timestamp string      `json:"timestamp"`
	Queue     *QueueStats `json:"queue,omitempty"`
}

// QueueStats contains download queue statistics.
type QueueStats struct {
	Depth    int `json:"depth"`
	Capacity int `json:"capacity"`
	Workers  int `json:"workers"`
}

// Root handles GET / - the plain probe hosting platforms hit.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Bot is running!"))
}

// Live handles GET /health - liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready - readiness probe. A saturated download queue
// reports unavailable so a balancer can back off.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	queue := &QueueStats{
		Depth:    h.pool.QueueDepth(),
		Capacity: h.pool.QueueCapacity(),
		Workers:  h.pool.Workers(),
	}

	status := "ok"
	code := http.StatusOK
	if queue.Depth >= queue.Capacity {
		status = "busy"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Queue:     queue,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
