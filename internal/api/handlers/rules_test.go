package handlers_test

import (
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/fundgrube-watcher/internal/api/handlers"
	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

func TestRulesHandler_List(t *testing.T) {
	t.Parallel()

	h := handlers.NewRulesHandler(
		[]domain.Rule{{Term: "Laptop", MaxPrice: 500}},
		[]string{"mediamarkt", "saturn"},
	)

	_, api := humatest.New(t)
	handlers.RegisterRulesRoutes(api, h)

	resp := api.Get("/api/v1/rules")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"rules":[{"term":"Laptop","max_price":500}]`)
	assert.Contains(t, resp.Body.String(), `"stores":["mediamarkt","saturn"]`)
}

func TestRulesHandler_ListEmpty(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	handlers.RegisterRulesRoutes(api, handlers.NewRulesHandler(nil, nil))

	resp := api.Get("/api/v1/rules")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"rules":[]`)
	assert.Contains(t, resp.Body.String(), `"stores":[]`)
}
