package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

// RulesHandler exposes the configured search rules.
type RulesHandler struct {
	rules  []domain.Rule
	stores []string
}

// NewRulesHandler creates a new RulesHandler.
func NewRulesHandler(rules []domain.Rule, stores []string) *RulesHandler {
	return &RulesHandler{rules: rules, stores: stores}
}

// ListRulesOutput is the response for listing the rules.
type ListRulesOutput struct {
	Body struct {
		Rules  []domain.Rule `json:"rules"`
		Stores []string      `json:"stores"`
	}
}

// List returns the rules and the stores they are searched in.
func (h *RulesHandler) List(_ context.Context, _ *struct{}) (*ListRulesOutput, error) {
	resp := &ListRulesOutput{}
	resp.Body.Rules = h.rules
	resp.Body.Stores = h.stores
	if resp.Body.Rules == nil {
		resp.Body.Rules = []domain.Rule{}
	}
	if resp.Body.Stores == nil {
		resp.Body.Stores = []string{}
	}
	return resp, nil
}

// RegisterRulesRoutes registers the rules endpoint with the Huma API.
func RegisterRulesRoutes(api huma.API, h *RulesHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-rules",
		Method:      http.MethodGet,
		Path:        "/api/v1/rules",
		Summary:     "List search rules",
		Tags:        []string{"rules"},
	}, h.List)
}
