package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// ReadinessCheck pings one dependency.
type ReadinessCheck func(ctx context.Context) error

type HealthHandler struct {
	checks   map[string]ReadinessCheck
	critical map[string]bool
	env      string
	version  string
}

// NewHealthHandler builds the probes. A failing critical dependency makes
// the service unready; any other failure only degrades it.
func NewHealthHandler(checks map[string]ReadinessCheck, critical []string, env, version string) *HealthHandler {
	crit := make(map[string]bool, len(critical))
	for _, name := range critical {
		crit[name] = true
	}
	return &HealthHandler{
		checks:   checks,
		critical: crit,
		env:      env,
		version:  version,
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	resp := LivenessResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make(map[string]string, len(names))
	status := "ok"

	for _, name := range names {
		checkCtx, checkCancel := context.WithTimeout(ctx, 1*time.Second)
		err := h.checks[name](checkCtx)
		checkCancel()

		if err == nil {
			deps[name] = "ok"
			continue
		}
		deps[name] = "down"
		if h.critical[name] {
			status = "error"
		} else if status == "ok" {
			status = "degraded"
		}
	}

	resp := ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, resp)
}
