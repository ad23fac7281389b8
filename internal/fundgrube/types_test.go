package fundgrube

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexFloat_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "number", input: `29.99`, want: 29.99},
		{name: "integer", input: `30`, want: 30},
		{name: "string", input: `"29.99"`, want: 29.99},
		{name: "decimal comma", input: `"29,99"`, want: 29.99},
		{name: "padded string", input: `" 5.00 "`, want: 5},
		{name: "empty string", input: `""`, want: 0},
		{name: "null", input: `null`, want: 0},
		{name: "garbage string", input: `"n/a"`, wantErr: true},
		{name: "object", input: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var f FlexFloat
			err := json.Unmarshal([]byte(tt.input), &f)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, float64(f), 0.0001)
		})
	}
}

func TestFlexString_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    FlexString
		wantErr bool
	}{
		{input: `"abc"`, want: "abc"},
		{input: `2794633`, want: "2794633"},
		{input: `null`, want: ""},
		{input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			var s FlexString
			err := json.Unmarshal([]byte(tt.input), &s)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestFlexURL_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var u FlexURL
	require.NoError(t, json.Unmarshal([]byte(`["https://a", "https://b"]`), &u))
	assert.Equal(t, FlexURL("https://a"), u)

	require.NoError(t, json.Unmarshal([]byte(`[]`), &u))
	assert.Empty(t, u)

	require.NoError(t, json.Unmarshal([]byte(`"https://c"`), &u))
	assert.Equal(t, FlexURL("https://c"), u)
}
