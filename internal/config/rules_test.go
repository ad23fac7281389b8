package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

func TestParseRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    []domain.Rule
		wantErr string
	}{
		{
			name: "yaml list",
			input: `
- term: Laptop
  max_price: 500
- term: Switch
  max_price: 249.99
`,
			want: []domain.Rule{
				{Term: "Laptop", MaxPrice: 500},
				{Term: "Switch", MaxPrice: 249.99},
			},
		},
		{
			name:  "json list with legacy keys",
			input: "[\n\t{\"include\": \"Zelda\", \"price\": 30},\n\t{\"include\": \"Mario Kart\", \"price\": 25}\n]",
			want: []domain.Rule{
				{Term: "Zelda", MaxPrice: 30},
				{Term: "Mario Kart", MaxPrice: 25},
			},
		},
		{
			name:  "json object with rules key",
			input: `{"rules": [{"term": "OLED", "max_price": 900}]}`,
			want:  []domain.Rule{{Term: "OLED", MaxPrice: 900}},
		},
		{
			name: "yaml mapping with rules key",
			input: `
rules:
  - term: " Kopfhörer "
    max_price: 0
`,
			want: []domain.Rule{{Term: "Kopfhörer", MaxPrice: 0}},
		},
		{
			name:  "term key wins over include alias",
			input: `[{"term": "a", "include": "b", "max_price": 1}]`,
			want:  []domain.Rule{{Term: "a", MaxPrice: 1}},
		},
		{
			name:    "missing price",
			input:   `[{"include": "Zelda"}]`,
			wantErr: "rules[0].max_price is required",
		},
		{
			name:    "missing term",
			input:   "- max_price: 10\n",
			wantErr: "rules[0].term is required",
		},
		{
			name:    "blank term",
			input:   `[{"term": "   ", "max_price": 10}]`,
			wantErr: "rules[0].term is required",
		},
		{
			name:    "negative price",
			input:   `[{"term": "x", "max_price": -1}]`,
			wantErr: "rules[0].max_price must be a non-negative number",
		},
		{
			name:    "empty list",
			input:   `[]`,
			wantErr: "at least one rule is required",
		},
		{
			name:    "empty document",
			input:   "",
			wantErr: "rules file is empty",
		},
		{
			name:    "scalar document",
			input:   "just a string",
			wantErr: "expected a list of rules",
		},
		{
			name:    "price is not a number",
			input:   "- term: x\n  max_price: cheap\n",
			wantErr: "parsing rules",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseRules([]byte(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRules_ReportsEveryProblem(t *testing.T) {
	t.Parallel()

	_, err := ParseRules([]byte(`[{"term": ""}, {"max_price": -5}]`))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "rules[0].term is required")
	assert.Contains(t, msg, "rules[0].max_price is required")
	assert.Contains(t, msg, "rules[1].term is required")
	assert.Contains(t, msg, "rules[1].max_price must be a non-negative number")
}

func TestLoadRules(t *testing.T) {
	t.Setenv("TEST_RULE_TERM", "Steam Deck")

	path := writeFile(t, "rules.yaml", "- term: ${TEST_RULE_TERM}\n  max_price: 350\n")

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.Rule{{Term: "Steam Deck", MaxPrice: 350}}, rules)
}

func TestLoadRules_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadRules(filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)

		var cfgErr *Error
		require.True(t, errors.As(err, &cfgErr))
		assert.Contains(t, err.Error(), "reading rules file")
	})

	t.Run("malformed file", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "rules.json", `[{"include": "x", "price": 1},`)
		_, err := LoadRules(path)
		require.Error(t, err)

		var cfgErr *Error
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, path, cfgErr.Path)
	})
}
