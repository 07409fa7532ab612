// Package eseries enumerates the preferred component values (E-series) that fall in an interval.
package eseries

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jonathan/partpicker/internal/units"
	"gonum.org/v1/gonum/floats/scalar"
)

// dedupeTolerance is the relative distance under which two generated values are the same value.
const dedupeTolerance = 1e-9

// Exponent range that units.Scale can represent after the hundredths shift.
const (
	minExponent = -22
	maxExponent = 24
)

// Series is one fixed E-series mantissa table.
type Series struct {
	name       string
	hundredths []int
}

// Name returns the series name, e.g. "E24".
func (s Series) Name() string {
	return s.name
}

// Len returns the number of mantissas per decade.
func (s Series) Len() int {
	return len(s.hundredths)
}

// Mantissas returns a copy of the mantissas in [1.0, 10.0).
func (s Series) Mantissas() []float64 {
	out := make([]float64, len(s.hundredths))
	for i, h := range s.hundredths {
		out[i] = units.Scale(float64(h), -2)
	}
	return out
}

var all = []Series{E12, E24, E48, E96, E192}

// ByName looks a series up case-insensitively.
func ByName(name string) (Series, error) {
	for _, s := range all {
		if strings.EqualFold(s.name, name) {
			return s, nil
		}
	}
	return Series{}, fmt.Errorf("unknown E-series %q", name)
}

// InRange returns the sorted, de-duplicated values of the given series that lie in [min, max].
func InRange(min, max float64, series ...Series) ([]float64, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no E-series given")
	}
	if !(min > 0) || math.IsInf(max, 0) || math.IsNaN(max) {
		return nil, fmt.Errorf("interval [%g, %g] must be positive and finite", min, max)
	}
	if min > max {
		return nil, fmt.Errorf("interval [%g, %g] is inverted", min, max)
	}

	lo := int(math.Floor(math.Log10(min)))
	hi := int(math.Ceil(math.Log10(max)))
	if lo < minExponent || hi > maxExponent {
		return nil, fmt.Errorf("interval [%g, %g] is outside the supported magnitudes", min, max)
	}

	var values []float64
	for e := lo; e <= hi; e++ {
		for _, s := range series {
			for _, h := range s.hundredths {
				v := units.Scale(float64(h), e-2)
				if v >= min && v <= max {
					values = append(values, v)
				}
			}
		}
	}

	sort.Float64s(values)
	return dedupe(values), nil
}

func dedupe(sorted []float64) []float64 {
	if len(sorted) == 0 {
		return sorted
	}
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if !scalar.EqualWithinRel(out[len(out)-1], v, dedupeTolerance) {
			out = append(out, v)
		}
	}
	return out
}
