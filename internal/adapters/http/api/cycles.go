package api

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"

	service "github.com/okian/touchdown/internal/app"
)

// CycleDependencies is what the cycle endpoints need from the service.
type CycleDependencies interface {
	RunCycle(ctx context.Context) (*service.CycleReport, error)
	LastCycle() *service.CycleReport
}

// CyclesHandler triggers and reports poll cycles.
type CyclesHandler struct {
	deps CycleDependencies
}

// NewCyclesHandler creates a new cycles handler.
func NewCyclesHandler(deps CycleDependencies) *CyclesHandler {
	return &CyclesHandler{deps: deps}
}

// HandleRunCycle handles POST /cycles requests. The response is sent once
// every game in the cycle has finished.
func (h *CyclesHandler) HandleRunCycle(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.RunCycle(r.Context())
	if err != nil {
		status, code := statusFor(err)
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleLastCycle handles GET /cycles/last requests.
func (h *CyclesHandler) HandleLastCycle(w http.ResponseWriter, _ *http.Request) {
	report := h.deps.LastCycle()
	if report == nil {
		writeError(w, http.StatusNotFound, "not_found", errors.Wrap(ErrUnavailable, "no cycle has run"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
