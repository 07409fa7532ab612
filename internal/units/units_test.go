package units

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"kilo", 10000, "10k"},
		{"kilo fraction", 4700, "4.7k"},
		{"e96 value", 10200, "10.2k"},
		{"nano", 100e-9, "100n"},
		{"micro uses u", 4.7e-6, "4.7u"},
		{"pico", 22e-12, "22p"},
		{"unity", 1, "1"},
		{"unity fraction", 2.5, "2.5"},
		{"milli", 0.1, "100m"},
		{"mega", 1e6, "1M"},
		{"zero", 0, "0"},
		{"negative", -4700, "-4.7k"},
		{"power of ten", 1e-3, "1m"},
		{"rounds into next prefix", 999.999, "1k"},
		{"positive infinity", math.Inf(1), "∞"},
		{"negative infinity", math.Inf(-1), "-∞"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.value))
		})
	}
}

func TestFormatIn(t *testing.T) {
	assert.Equal(t, "0.01u", FormatIn(10e-9, "u"))
	assert.Equal(t, "0.047u", FormatIn(47e-9, "u"))
	assert.Equal(t, "0.22u", FormatIn(220e-9, "u"))
	assert.Equal(t, "0.22u", FormatIn(220e-9, "µ"))
	assert.Equal(t, "4700", FormatIn(4700, ""))
	assert.Equal(t, "10k", FormatIn(1e4, "bogus"))
}

func TestParse(t *testing.T) {
	tests := []struct {
		token string
		want  float64
	}{
		{"10k", 1e4},
		{"10kΩ", 1e4},
		{"4.7K", 4.7e3},
		{"100nF", 100e-9},
		{"0.01uF", 1e-8},
		{"2.2µH", 2.2e-6},
		{"2.2μH", 2.2e-6},
		{"100mA", 0.1},
		{"30V", 30},
		{"250mW", 0.25},
		{"100MHz", 100e6},
		{" 12 mΩ ", 12e-3},
		{"1", 1},
		{"∞", math.Inf(1)},
		{"-∞", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := Parse(tt.token)
			require.NoError(t, err)
			if math.IsInf(tt.want, 0) {
				assert.Equal(t, tt.want, got)
				return
			}
			assert.InEpsilon(t, tt.want, got, 1e-12)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, token := range []string{"", "-", "abc", "k", "1.2.3V"} {
		_, err := Parse(token)
		require.Error(t, err, token)

		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr)
	}
}

func TestRoundTripWithinPrecision(t *testing.T) {
	for exp := -15; exp <= 9; exp++ {
		for _, m := range []float64{1, 1.02, 1.5, 2.2, 3.33, 4.7, 6.8, 9.09, 9.99, 47, 330, 999} {
			v := m * math.Pow(10, float64(exp))
			token := Format(v)
			assert.False(t, strings.Contains(token, "µ"), token)

			got, err := Parse(token)
			require.NoError(t, err, token)
			assert.LessOrEqual(t, math.Abs(got-v)/v, 0.01, "value %g formatted as %s", v, token)
		}
	}
}

func TestParseExactForFormattedTokens(t *testing.T) {
	// Catalog values parsed from text must compare equal to the same value
	// produced by scaling a mantissa.
	assert.Equal(t, Scale(10, -6), MustParse("10u"))
	assert.Equal(t, Scale(4.7, 3), MustParse("4.7k"))
}
