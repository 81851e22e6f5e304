package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ravipanchani-tomtom/data-processing-demo/internal/metrics"
)

const pingTimeout = 2 * time.Second

// Checker is a backend that can report whether it is reachable.
type Checker interface {
	Ping(ctx context.Context) error
}

type backendStatus struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type healthResponse struct {
	Status   string                   `json:"status"`
	Backends map[string]backendStatus `json:"backends"`
}

// Health pings every backend concurrently. The endpoint always answers 200;
// status is "degraded" when any backend fails.
func Health(backends map[string]Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		var (
			mu       sync.Mutex
			wg       sync.WaitGroup
			statuses = make(map[string]backendStatus, len(backends))
		)
		for name, b := range backends {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s := backendStatus{Available: true}
				if err := b.Ping(ctx); err != nil {
					s = backendStatus{Reason: err.Error()}
				}
				mu.Lock()
				statuses[name] = s
				mu.Unlock()
			}()
		}
		wg.Wait()

		status := "ok"
		for name, s := range statuses {
			if s.Available {
				metrics.BackendAvailable.WithLabelValues(name).Set(1)
			} else {
				metrics.BackendAvailable.WithLabelValues(name).Set(0)
				status = "degraded"
			}
		}

		writeJSON(w, healthResponse{Status: status, Backends: statuses})
	}
}
