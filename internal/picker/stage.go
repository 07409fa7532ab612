package picker

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jonathan/partpicker/internal/catalog"
	"github.com/jonathan/partpicker/internal/param"
	"github.com/jonathan/partpicker/internal/units"
	"gonum.org/v1/gonum/floats/scalar"
)

// Direction is how a catalog attribute is compared against an Exact requirement.
// Bounded requirements are always an inclusive interval.
type Direction int

const (
	// Equal accepts values equal to the requirement within a small relative tolerance.
	Equal Direction = iota
	// AtLeast accepts values at or above the requirement (ratings).
	AtLeast
	// AtMost accepts values at or below the requirement (losses, thresholds).
	AtMost
)

func (d Direction) String() string {
	switch d {
	case Equal:
		return "="
	case AtLeast:
		return ">="
	case AtMost:
		return "<="
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// equalRelTol is the relative tolerance of an Equal comparison.
const equalRelTol = 1e-6

// Stage is one attribute filter over the candidates that survived the text query.
type Stage struct {
	Attribute string
	Field     string
	Rule      string
	accept    func(value string) (bool, error)
}

// Accept tests one record. The error explains a rejection caused by missing or
// unparsable data rather than by the comparison.
func (s Stage) Accept(attrs map[string]string, partID string) (bool, error) {
	v, err := catalog.Lookup(partID, attrs, s.Attribute)
	if err != nil {
		return false, err
	}
	ok, err := s.accept(v)
	if err != nil {
		return false, &catalog.AttributeError{PartID: partID, Key: s.Attribute, Message: "unparsable value", Cause: err}
	}
	return ok, nil
}

// NumericStage compares a measured attribute with p. The attribute text before any "@"
// is parsed with the unit codec ("1.2A", "45mΩ@10V,5A"). An unresolved p yields no stage.
func NumericStage(attribute, field string, dir Direction, p param.Parameter[float64]) (Stage, bool) {
	var (
		rule string
		test func(float64) bool
	)
	switch p.Kind() {
	case param.KindUnresolved:
		return Stage{}, false
	case param.KindExact:
		want, _ := p.Lower()
		rule = dir.String() + " " + units.Format(want)
		switch dir {
		case AtLeast:
			test = func(got float64) bool { return got >= want }
		case AtMost:
			test = func(got float64) bool { return got <= want }
		default:
			test = func(got float64) bool { return scalar.EqualWithinRel(got, want, equalRelTol) }
		}
	case param.KindBounded:
		lo, _ := p.Lower()
		hi, _ := p.Upper()
		rule = "in [" + units.Format(lo) + ", " + units.Format(hi) + "]"
		test = func(got float64) bool { return got >= lo && got <= hi }
	}

	return Stage{
		Attribute: attribute,
		Field:     field,
		Rule:      rule,
		accept: func(value string) (bool, error) {
			got, err := ParseMeasurement(value)
			if err != nil {
				return false, err
			}
			return test(got), nil
		},
	}, true
}

// TextStage accepts records whose attribute equals one of accepted, ignoring case.
func TextStage(attribute, field string, accepted []string) Stage {
	return Stage{
		Attribute: attribute,
		Field:     field,
		Rule:      "one of " + strings.Join(accepted, ", "),
		accept: func(value string) (bool, error) {
			return slices.ContainsFunc(accepted, func(a string) bool { return strings.EqualFold(a, value) }), nil
		},
	}
}

// ParseMeasurement parses an attribute reading. Only the part before "@" (the test
// condition) is used; simple fractions such as "1/16W" are accepted.
func ParseMeasurement(value string) (float64, error) {
	reading, _, _ := strings.Cut(value, "@")
	reading = strings.TrimSpace(reading)

	if num, den, ok := strings.Cut(reading, "/"); ok {
		n, err := units.Parse(num)
		if err != nil {
			return 0, err
		}
		d, err := units.Parse(den)
		if err != nil {
			return 0, err
		}
		if d == 0 {
			return 0, fmt.Errorf("zero denominator in %q", value)
		}
		return n / d, nil
	}
	return units.Parse(reading)
}

// candidate is a record with its attributes decoded once for every stage.
type candidate struct {
	record catalog.Record
	attrs  map[string]string
	err    error
}

func newCandidates(records []catalog.Record) []candidate {
	out := make([]candidate, len(records))
	for i, r := range records {
		attrs, err := r.Attributes()
		out[i] = candidate{record: r, attrs: attrs, err: err}
	}
	return out
}

func records(cs []candidate) []catalog.Record {
	out := make([]catalog.Record, len(cs))
	for i, c := range cs {
		out[i] = c.record
	}
	return out
}
