package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

// SeenStore is the part of the notification history the API exposes.
type SeenStore interface {
	Entries(ctx context.Context) ([]domain.SeenEntry, error)
	Reset(ctx context.Context) error
}

// SeenHandler handles notification history endpoints.
type SeenHandler struct {
	store SeenStore
}

// NewSeenHandler creates a new SeenHandler.
func NewSeenHandler(s SeenStore) *SeenHandler {
	return &SeenHandler{store: s}
}

// ListSeenInput is the input for listing the history.
type ListSeenInput struct {
	Limit  int `query:"limit"  doc:"Number of results (default 100)" minimum:"0" maximum:"1000"`
	Offset int `query:"offset" doc:"Pagination offset"              minimum:"0"`
}

// ListSeenOutput is the response for listing the history.
type ListSeenOutput struct {
	Body struct {
		Items  []domain.SeenEntry `json:"items"`
		Total  int                `json:"total"`
		Limit  int                `json:"limit"`
		Offset int                `json:"offset"`
	}
}

// ResetSeenOutput is the response for clearing the history.
type ResetSeenOutput struct {
	Body StatusResponse
}

// List returns the recorded items, oldest first.
func (h *SeenHandler) List(ctx context.Context, input *ListSeenInput) (*ListSeenOutput, error) {
	entries, err := h.store.Entries(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing seen items: " + err.Error())
	}

	limit := input.Limit
	if limit == 0 {
		limit = 100
	}

	resp := &ListSeenOutput{}
	resp.Body.Total = len(entries)
	resp.Body.Limit = limit
	resp.Body.Offset = input.Offset

	start := min(input.Offset, len(entries))
	end := min(start+limit, len(entries))
	resp.Body.Items = entries[start:end]
	if resp.Body.Items == nil {
		resp.Body.Items = []domain.SeenEntry{}
	}
	return resp, nil
}

// Reset forgets every recorded item. The next run reports all current
// matches again.
func (h *SeenHandler) Reset(ctx context.Context, _ *struct{}) (*ResetSeenOutput, error) {
	if err := h.store.Reset(ctx); err != nil {
		return nil, huma.Error500InternalServerError("resetting seen items: " + err.Error())
	}
	return &ResetSeenOutput{Body: StatusResponse{Status: "reset"}}, nil
}

// RegisterSeenRoutes registers the history endpoints with the Huma API.
func RegisterSeenRoutes(api huma.API, h *SeenHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-seen",
		Method:      http.MethodGet,
		Path:        "/api/v1/seen",
		Summary:     "List notified items",
		Description: "Returns the items that were already reported, oldest first.",
		Tags:        []string{"seen"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "reset-seen",
		Method:      http.MethodDelete,
		Path:        "/api/v1/seen",
		Summary:     "Reset the notification history",
		Tags:        []string{"seen"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.Reset)
}
