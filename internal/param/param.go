// Package param models a constraint on an ordered quantity: an exact value, a closed
// interval, or not yet resolved.
package param

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind discriminates the three constraint shapes.
type Kind int

const (
	// KindUnresolved is the zero value: no constraint has been decided yet.
	KindUnresolved Kind = iota
	// KindExact requires the value to equal one point.
	KindExact
	// KindBounded requires the value to lie in a closed interval.
	KindBounded
)

func (k Kind) String() string {
	switch k {
	case KindUnresolved:
		return "unresolved"
	case KindExact:
		return "exact"
	case KindBounded:
		return "bounded"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ErrUnresolved is returned by operations that need a concrete value.
var ErrUnresolved = errors.New("parameter is unresolved")

// Parameter is a constraint on a value of ordered type T. The zero value is Unresolved.
type Parameter[T cmp.Ordered] struct {
	kind Kind
	min  T
	max  T
}

// Exact returns a parameter that must equal v.
func Exact[T cmp.Ordered](v T) Parameter[T] {
	return Parameter[T]{kind: KindExact, min: v, max: v}
}

// Bounded returns a parameter that must lie in [min, max]. Inverted bounds are
// reported by Validate, not here.
func Bounded[T cmp.Ordered](min, max T) Parameter[T] {
	return Parameter[T]{kind: KindBounded, min: min, max: max}
}

// Unresolved returns a parameter with no constraint.
func Unresolved[T cmp.Ordered]() Parameter[T] {
	return Parameter[T]{}
}

// Kind reports which variant p holds.
func (p Parameter[T]) Kind() Kind {
	return p.kind
}

// IsUnresolved reports whether p carries no constraint.
func (p Parameter[T]) IsUnresolved() bool {
	return p.kind == KindUnresolved
}

// Validate checks the Bounded invariant min <= max.
func (p Parameter[T]) Validate() error {
	if p.kind == KindBounded && cmp.Compare(p.min, p.max) > 0 {
		return fmt.Errorf("bounded parameter has min %v greater than max %v", p.min, p.max)
	}
	return nil
}

// Match calls exactly one of the three functions depending on the variant of p.
// Every combinator over parameters goes through Match so that no variant is forgotten.
func Match[T cmp.Ordered, R any](p Parameter[T], exact func(v T) R, bounded func(min, max T) R, unresolved func() R) R {
	switch p.kind {
	case KindExact:
		return exact(p.min)
	case KindBounded:
		return bounded(p.min, p.max)
	case KindUnresolved:
		return unresolved()
	}
	panic(fmt.Sprintf("param: unknown kind %d", p.kind))
}

// Lower returns the smallest admissible value: the exact value, or the lower bound.
func (p Parameter[T]) Lower() (T, error) {
	return Match(p,
		func(v T) result[T] { return result[T]{v: v} },
		func(min, _ T) result[T] { return result[T]{v: min} },
		func() result[T] { return result[T]{err: ErrUnresolved} },
	).unpack()
}

// Upper returns the largest admissible value: the exact value, or the upper bound.
func (p Parameter[T]) Upper() (T, error) {
	return Match(p,
		func(v T) result[T] { return result[T]{v: v} },
		func(_, max T) result[T] { return result[T]{v: max} },
		func() result[T] { return result[T]{err: ErrUnresolved} },
	).unpack()
}

// Contains reports whether v satisfies p. An unresolved parameter admits every value.
func (p Parameter[T]) Contains(v T) bool {
	return Match(p,
		func(x T) bool { return v == x },
		func(min, max T) bool { return v >= min && v <= max },
		func() bool { return true },
	)
}

// Span returns every value of domain that p admits, in domain order.
// domain must be sorted ascending.
func Span[T cmp.Ordered](p Parameter[T], domain []T) []T {
	var out []T
	for _, v := range domain {
		if p.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}

// Format renders p using f for individual values.
func Format[T cmp.Ordered](p Parameter[T], f func(T) string) string {
	return Match(p,
		func(v T) string { return f(v) },
		func(min, max T) string { return f(min) + " - " + f(max) },
		func() string { return "<unresolved>" },
	)
}

func (p Parameter[T]) String() string {
	return Format(p, func(v T) string { return fmt.Sprint(v) })
}

// wire is the JSON form: {"exact": v} or {"min": a, "max": b}; null means unresolved.
type wire[T cmp.Ordered] struct {
	Exact *T `json:"exact,omitempty"`
	Min   *T `json:"min,omitempty"`
	Max   *T `json:"max,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (p Parameter[T]) MarshalJSON() ([]byte, error) {
	return Match(p,
		func(v T) result[[]byte] { return wrap(json.Marshal(wire[T]{Exact: &v})) },
		func(min, max T) result[[]byte] { return wrap(json.Marshal(wire[T]{Min: &min, Max: &max})) },
		func() result[[]byte] { return result[[]byte]{v: []byte("null")} },
	).unpack()
}

// UnmarshalJSON implements json.Unmarshaler. It checks the shape only; an inverted interval
// decodes and is reported by Validate, where the owner can name the field.
func (p *Parameter[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Unresolved[T]()
		return nil
	}

	var w wire[T]
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to parse parameter: %w", err)
	}

	switch {
	case w.Exact != nil && w.Min == nil && w.Max == nil:
		*p = Exact(*w.Exact)
	case w.Exact == nil && w.Min != nil && w.Max != nil:
		*p = Bounded(*w.Min, *w.Max)
	case w.Exact == nil && w.Min == nil && w.Max == nil:
		*p = Unresolved[T]()
	default:
		return fmt.Errorf("parameter must have either \"exact\" or both \"min\" and \"max\": %s", data)
	}
	return nil
}

type result[T any] struct {
	v   T
	err error
}

func (r result[T]) unpack() (T, error) {
	return r.v, r.err
}

func wrap[T any](v T, err error) result[T] {
	return result[T]{v: v, err: err}
}
