package numeric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Table(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"currency with M suffix", "$275M", 275000000.0},
		{"billions", "1.2B", 1200000000.0},
		{"share count with unit word", "5M shares", 5000000.0},
		{"plain currency", "$10.00", 10.0},
		{"thousands separators", "1,234,567", 1234567.0},
		{"int passthrough", 100, 100.0},
		{"float passthrough", 10.25, 10.25},
		{"decimal millions", "1.1M", 1100000.0},
		{"trillions", "2T", 2e12},
		{"lowercase suffix", "500k", 500000.0},
		{"million word", "275 million", 275.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 0.001)
		})
	}
}

func TestParse_Sentinels(t *testing.T) {
	for _, in := range []any{"N/A", "na", "TBD", "tba", "-", "NONE", "null", "", nil} {
		assert.Nil(t, Parse(in), "input %v", in)
	}
}

func TestParse_Garbage(t *testing.T) {
	assert.Nil(t, Parse("approximately ten"))
	assert.Nil(t, Parse([]string{"not", "a", "number"}))
	assert.Nil(t, Parse("10-K"))
}

func TestSanitizeFields(t *testing.T) {
	result := map[string]any{
		"trust_value":     "$345.6M",
		"trust_per_share": "10.15",
		"target":          "Oxley Bridge Inc",
		"shares":          "bogus",
	}

	out := SanitizeFields(result, []string{"trust_value", "trust_per_share", "shares", "absent"})

	assert.InDelta(t, 345600000.0, out["trust_value"].(float64), 0.001)
	assert.InDelta(t, 10.15, out["trust_per_share"].(float64), 0.001)
	assert.Equal(t, "Oxley Bridge Inc", out["target"], "untouched key")
	assert.Nil(t, out["shares"], "unparseable becomes nil")
	_, present := out["absent"]
	assert.False(t, present)
}
