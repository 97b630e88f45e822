package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointUnmarshalValueVariants(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want *float64
	}{
		{"number", `{"ts":1,"value":23.5}`, fp(23.5)},
		{"numeric string", `{"ts":1,"value":"42.1"}`, fp(42.1)},
		{"bool true", `{"ts":1,"value":true}`, fp(1)},
		{"bool false", `{"ts":1,"value":false}`, fp(0)},
		{"null", `{"ts":1,"value":null}`, nil},
		{"text", `{"ts":1,"value":"offline"}`, nil},
		{"object", `{"ts":1,"value":{"a":1}}`, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p Point
			require.NoError(t, json.Unmarshal([]byte(tc.in), &p))
			assert.Equal(t, int64(1), p.TS)
			if tc.want == nil {
				assert.Nil(t, p.Value)
			} else {
				require.NotNil(t, p.Value)
				assert.Equal(t, *tc.want, *p.Value)
			}
		})
	}
}

func TestPointUnmarshalMissingTimestamp(t *testing.T) {
	var p Point
	require.NoError(t, json.Unmarshal([]byte(`{"value":7}`), &p))
	assert.Equal(t, int64(-1), p.TS)
}

func TestKeyedSeriesDecode(t *testing.T) {
	var series KeyedSeries
	require.NoError(t, json.Unmarshal([]byte(`{
		"temp": [{"ts":1000,"value":20},{"ts":2000,"value":"21"}],
		"state": [{"ts":1000,"value":true}]
	}`), &series))

	require.Len(t, series["temp"], 2)
	assert.Equal(t, 21.0, *series["temp"][1].Value)
	assert.Equal(t, 1.0, *series["state"][0].Value)
}

func fp(v float64) *float64 { return &v }
