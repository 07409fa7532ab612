package tolerance

import (
	"testing"

	"github.com/jonathan/partpicker/internal/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(labels []Label) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.Text
	}
	return out
}

func TestBand_ExactIsCeiling(t *testing.T) {
	labels, err := Band(Resistor, 10e3, param.Exact(1.0))
	require.NoError(t, err)
	assert.Equal(t, []string{"0.01%", "0.02%", "0.05%", "0.1%", "0.2%", "0.25%", "0.5%", "1%"}, texts(labels))
	assert.Equal(t, "±1%", labels[len(labels)-1].Marker())
}

func TestBand_BoundedHasStrictLowerBound(t *testing.T) {
	labels, err := Band(Resistor, 10e3, param.Bounded(1.0, 5.0))
	require.NoError(t, err)
	assert.Equal(t, []string{"2%", "3%", "5%"}, texts(labels))
}

func TestBand_AbsoluteCapacitorLabels(t *testing.T) {
	// 20pF at 5% allows 1pF of deviation: every absolute label qualifies
	labels, err := Band(Capacitor, 20e-12, param.Exact(5.0))
	require.NoError(t, err)
	assert.Equal(t, []string{"0.1pF", "0.25pF", "0.5pF", "1%", "2%", "2.5%", "5%"}, texts(labels))

	// at 100nF the absolute labels are far tighter than any percent ceiling
	labels, err = Band(Capacitor, 100e-9, param.Exact(1.0))
	require.NoError(t, err)
	assert.Equal(t, []string{"0.1pF", "0.25pF", "0.5pF", "1%"}, texts(labels))

	// at 1pF, 20% is 0.2pF: only the tightest absolute label fits
	labels, err = Band(Capacitor, 1e-12, param.Exact(20.0))
	require.NoError(t, err)
	assert.Equal(t, []string{"0.1pF", "1%", "2%", "2.5%", "5%", "10%", "15%", "20%"}, texts(labels))
}

func TestBand_ZeroLabels(t *testing.T) {
	labels, err := Band(Inductor, 10e-6, param.Exact(0.5))
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestBand_Unresolved(t *testing.T) {
	_, err := Band(Resistor, 100, param.Unresolved[float64]())
	assert.ErrorIs(t, err, ErrUnresolved)

	_, err = Band(Resistor, 100, param.Bounded(5.0, 1.0))
	assert.Error(t, err)
}

func TestBand_Monotonic(t *testing.T) {
	for _, table := range []Table{Resistor, Capacitor, Inductor} {
		prev := 0
		for _, ceiling := range []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 20, 50} {
			labels, err := Band(table, 4.7e-6, param.Exact(ceiling))
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(labels), prev, "%s at %v%%", table.Name, ceiling)
			prev = len(labels)
		}
	}
}

func TestMarkers(t *testing.T) {
	assert.Equal(t, []string{"±0.1pF", "±20%"}, Markers([]Label{Capacitor.Labels[0], Capacitor.Labels[len(Capacitor.Labels)-1]}))
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		text    string
		nominal float64
		want    float64
	}{
		{"±1%", 100, 0.01},
		{"5%", 0, 0.05},
		{"±0.1pF", 1e-12, 0.1},
		{"-20%~+80%", 1e-6, 0.8},
		{"+/-10%", 1, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseLabel(tt.text, tt.nominal)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	for _, bad := range []string{"", "±x%", "±0.1pF"} {
		_, err := ParseLabel(bad, 0)
		assert.Error(t, err, bad)
	}
}
