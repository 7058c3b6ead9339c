// Package healthprobe provides liveness and readiness handlers.
package healthprobe

import (
	"net/http"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

type Probe struct {
	startTime time.Time
	ready     atomic.Bool
}

func New() *Probe {
	return &Probe{startTime: time.Now()}
}

// SetReady flips the readiness gate once startup has finished.
func (p *Probe) SetReady(ready bool) {
	p.ready.Store(ready)
}

type statusResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Message string `json:"message,omitempty"`
}

// Health always reports 200 while the process is running.
func (p *Probe) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, statusResponse{
			Status: "healthy",
			Uptime: time.Since(p.startTime).String(),
		})
	}
}

// Ready reports 503 until SetReady(true) has been called.
func (p *Probe) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !p.ready.Load() {
			writeStatus(w, http.StatusServiceUnavailable, statusResponse{
				Status:  "not_ready",
				Message: "application is starting",
			})
			return
		}
		writeStatus(w, http.StatusOK, statusResponse{
			Status: "ready",
			Uptime: time.Since(p.startTime).String(),
		})
	}
}

func writeStatus(w http.ResponseWriter, code int, resp statusResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
