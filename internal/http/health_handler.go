package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// DependencyCheck checks one backing dependency.
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type CheckResult struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

type HealthHandler struct {
	Checks []DependencyCheck
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "storefront",
	})
}

// Ready runs every check concurrently and reports 503 if any fails.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	results := make([]CheckResult, len(h.Checks))
	var wg sync.WaitGroup
	wg.Add(len(h.Checks))
	for i := range h.Checks {
		go func() {
			defer wg.Done()
			results[i] = runCheck(ctx, h.Checks[i])
		}()
	}
	wg.Wait()

	status, code := "ok", http.StatusOK
	for _, res := range results {
		if res.Status != "ok" {
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}
	writeJSON(w, code, map[string]any{
		"status":       status,
		"service":      "storefront",
		"dependencies": results,
	})
}

func runCheck(ctx context.Context, p DependencyCheck) CheckResult {
	start := time.Now()
	err := p.Check(ctx)
	res := CheckResult{Name: p.Name, Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		res.Status = "down"
		res.Error = err.Error()
	}
	return res
}
