package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/fundgrube-watcher/internal/engine"
)

// Runner defines the interface for triggering a watch cycle.
type Runner interface {
	Run(ctx context.Context) (*engine.RunResult, error)
	LastRun() *engine.RunResult
}

// RunHandler handles manual run requests and run status.
type RunHandler struct {
	runner Runner
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(r Runner) *RunHandler {
	return &RunHandler{runner: r}
}

// RunOutput is the response body for the run endpoints.
type RunOutput struct {
	Body *engine.RunResult
}

// Run triggers one watch cycle. A run that fails partially still returns
// its result; the failures are listed in the errors field.
func (h *RunHandler) Run(ctx context.Context, _ *struct{}) (*RunOutput, error) {
	res, err := h.runner.Run(ctx)
	if res == nil {
		msg := "run failed"
		if err != nil {
			msg += ": " + err.Error()
		}
		return nil, huma.Error500InternalServerError(msg)
	}
	return &RunOutput{Body: res}, nil
}

// LastRun returns the result of the most recent run.
func (h *RunHandler) LastRun(_ context.Context, _ *struct{}) (*RunOutput, error) {
	res := h.runner.LastRun()
	if res == nil {
		return nil, huma.Error404NotFound("no run has completed yet")
	}
	return &RunOutput{Body: res}, nil
}

// RegisterRunRoutes registers the run endpoints with the Huma API.
func RegisterRunRoutes(api huma.API, h *RunHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "trigger-run",
		Method:      http.MethodPost,
		Path:        "/api/v1/run",
		Summary:     "Trigger a watch run",
		Description: "Fetches every store, matches the rules, and notifies about new items.",
		Tags:        []string{"run"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.Run)

	huma.Register(api, huma.Operation{
		OperationID: "get-last-run",
		Method:      http.MethodGet,
		Path:        "/api/v1/run/last",
		Summary:     "Get the last run",
		Description: "Returns the summary of the most recent completed run.",
		Tags:        []string{"run"},
		Errors:      []int{http.StatusNotFound},
	}, h.LastRun)
}
