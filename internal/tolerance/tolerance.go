// Package tolerance maps a tolerance constraint onto the tolerance labels the catalog
// prints in part descriptions ("±1%", "±0.25pF").
package tolerance

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jonathan/partpicker/internal/param"
	"github.com/jonathan/partpicker/internal/units"
)

// Marker prefixes every tolerance label in catalog descriptions.
const Marker = "±"

// ErrUnresolved is returned by Band when the constraint carries no information.
var ErrUnresolved = errors.New("tolerance is unresolved")

// Label is one catalog tolerance marker. Percent labels scale with the nominal value,
// absolute labels are a fixed deviation in the value's base unit.
type Label struct {
	Text     string
	Percent  float64
	Absolute float64
}

// Deviation returns the label's absolute deviation at the nominal value.
func (l Label) Deviation(nominal float64) float64 {
	if l.Absolute > 0 {
		return l.Absolute
	}
	return l.Percent / 100 * math.Abs(nominal)
}

// Marker returns the text searched for in descriptions.
func (l Label) Marker() string {
	return Marker + l.Text
}

// Table is the ordered label set one family's catalog uses.
type Table struct {
	Name   string
	Labels []Label
}

func percent(values ...float64) []Label {
	labels := make([]Label, 0, len(values))
	for _, v := range values {
		labels = append(labels, Label{Text: strconv.FormatFloat(v, 'f', -1, 64) + "%", Percent: v})
	}
	return labels
}

var (
	Resistor = Table{
		Name:   "resistor",
		Labels: percent(0.01, 0.02, 0.05, 0.1, 0.2, 0.25, 0.5, 1, 2, 3, 5, 7.5, 10, 15, 20, 30),
	}

	Capacitor = Table{
		Name: "capacitor",
		Labels: append([]Label{
			{Text: "0.1pF", Absolute: 0.1e-12},
			{Text: "0.25pF", Absolute: 0.25e-12},
			{Text: "0.5pF", Absolute: 0.5e-12},
		}, percent(1, 2, 2.5, 5, 10, 15, 20)...),
	}

	Inductor = Table{
		Name:   "inductor",
		Labels: percent(1, 2, 3, 5, 7, 10, 12, 15, 18, 20, 22, 23, 25, 30, 35),
	}
)

// Band returns the labels acceptable for tol at nominal, in table order.
//
// Exact(p) is a ceiling: a label qualifies when its deviation is at most p% of nominal.
// Bounded(lo, hi) additionally requires the deviation to exceed lo% of nominal.
// An empty result is not an error; the caller turns it into a clause that matches nothing.
func Band(table Table, nominal float64, tol param.Parameter[float64]) ([]Label, error) {
	if err := tol.Validate(); err != nil {
		return nil, err
	}

	accept := param.Match(tol,
		func(p float64) func(float64) bool {
			ceiling := p / 100 * math.Abs(nominal)
			return func(d float64) bool { return d <= ceiling }
		},
		func(lo, hi float64) func(float64) bool {
			floor := lo / 100 * math.Abs(nominal)
			ceiling := hi / 100 * math.Abs(nominal)
			return func(d float64) bool { return d > floor && d <= ceiling }
		},
		func() func(float64) bool { return nil },
	)
	if accept == nil {
		return nil, ErrUnresolved
	}

	var out []Label
	for _, l := range table.Labels {
		if accept(l.Deviation(nominal)) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Markers returns the description markers for labels.
func Markers(labels []Label) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.Marker()
	}
	return out
}

// ParseLabel converts catalog tolerance text to a fractional deviation at nominal.
// It accepts "±1%", "1%", "±0.1pF" and asymmetric "-20%~+80%" (the larger side wins).
func ParseLabel(text string, nominal float64) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, fmt.Errorf("empty tolerance label")
	}

	if lo, hi, ok := strings.Cut(s, "~"); ok {
		a, err := ParseLabel(strings.TrimLeft(lo, "+-"), nominal)
		if err != nil {
			return 0, err
		}
		b, err := ParseLabel(strings.TrimLeft(hi, "+-"), nominal)
		if err != nil {
			return 0, err
		}
		return math.Max(a, b), nil
	}

	s = strings.TrimPrefix(s, Marker)
	s = strings.TrimPrefix(s, "+/-")
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid tolerance label %q", text)
		}
		return v / 100, nil
	}

	if nominal == 0 {
		return 0, fmt.Errorf("absolute tolerance %q needs a non-zero nominal value", text)
	}
	abs, err := units.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("invalid tolerance label %q: %w", text, err)
	}
	return math.Abs(abs / nominal), nil
}
