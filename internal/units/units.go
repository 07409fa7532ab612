// Package units converts between magnitudes and the metric-prefixed tokens used in catalog text.
package units

import (
	"math"
	"strconv"
	"strings"
)

// Infinity tokens used when a bound is intentionally open.
const (
	PosInf = "∞"
	NegInf = "-∞"
)

// fracDigits is the number of mantissa digits kept after the decimal point.
const fracDigits = 2

// prefixes are ordered by exponent, in steps of 3, starting at 1e-24.
var prefixes = []string{"y", "z", "a", "f", "p", "n", "u", "m", "", "k", "M", "G", "T", "P", "E", "Z", "Y"}

const unityIndex = 8

var prefixExp = func() map[string]int {
	m := make(map[string]int, len(prefixes)+3)
	for i, p := range prefixes {
		if p != "" {
			m[p] = (i - unityIndex) * 3
		}
	}
	m["µ"] = -6
	m["μ"] = -6
	m["K"] = 3
	return m
}()

// unitSuffixes are checked in order; the first match is stripped.
var unitSuffixes = []string{"Hz", "Ω", "Ω", "F", "H", "A", "V", "W"}

// pow10 holds exact powers of ten so that scaling by a prefix is a single
// correctly rounded division or multiplication.
var pow10 = [...]float64{1, 1e1, 1e2, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8, 1e9, 1e10, 1e11, 1e12,
	1e13, 1e14, 1e15, 1e16, 1e17, 1e18, 1e19, 1e20, 1e21, 1e22, 1e23, 1e24}

// Scale returns m * 10^exp for |exp| <= 24.
func Scale(m float64, exp int) float64 {
	switch {
	case exp > 0:
		return m * pow10[exp]
	case exp < 0:
		return m / pow10[-exp]
	}
	return m
}

// Format renders v with an engineering prefix and two fractional mantissa digits,
// trimming trailing zeros: 4700 -> "4.7k", 1.02e4 -> "10.2k", 1e-7 -> "100n".
// Micro is always written "u".
func Format(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return PosInf
	case math.IsInf(v, -1):
		return NegInf
	case math.IsNaN(v):
		return "NaN"
	case v == 0:
		return "0"
	}

	idx := prefixIndex(v)
	text := strconv.FormatFloat(Scale(v, -(idx-unityIndex)*3), 'f', fracDigits, 64)

	// 999.999 rounds to "1000.00"; move up one prefix
	if r, _ := strconv.ParseFloat(text, 64); math.Abs(r) >= 1000 && idx < len(prefixes)-1 {
		idx++
		text = strconv.FormatFloat(Scale(v, -(idx-unityIndex)*3), 'f', fracDigits, 64)
	}

	return trimZeros(text) + prefixes[idx]
}

// FormatIn renders v in a fixed prefix rather than the nearest one, keeping the
// absolute precision Format would have used: FormatIn(10e-9, "u") = "0.01u".
func FormatIn(v float64, prefix string) string {
	exp, ok := prefixExp[prefix]
	if prefix == "" {
		exp, ok = 0, true
	}
	if !ok || v == 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return Format(v)
	}
	if prefix == "µ" || prefix == "μ" {
		prefix = "u"
	}

	nearest := (prefixIndex(v) - unityIndex) * 3
	digits := fracDigits + (exp - nearest)
	if digits < 0 {
		digits = 0
	}
	return trimZeros(strconv.FormatFloat(Scale(v, -exp), 'f', digits, 64)) + prefix
}

// Parse is the inverse of Format. It strips a trailing unit symbol and accepts
// "u", "µ" or "μ" for micro.
func Parse(token string) (float64, error) {
	s := strings.TrimSpace(token)
	switch s {
	case PosInf, "+" + PosInf:
		return math.Inf(1), nil
	case NegInf:
		return math.Inf(-1), nil
	case "":
		return 0, &ParseError{Token: token, Message: "empty value"}
	}

	for _, suffix := range unitSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}

	exp := 0
	for p, e := range prefixExp {
		if strings.HasSuffix(s, p) {
			s = strings.TrimSpace(strings.TrimSuffix(s, p))
			exp = e
			break
		}
	}

	mantissa, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ParseError{Token: token, Message: "invalid number", Cause: err}
	}
	return Scale(mantissa, exp), nil
}

// MustParse is Parse for values known to be well formed, such as table constants.
func MustParse(token string) float64 {
	v, err := Parse(token)
	if err != nil {
		panic(err)
	}
	return v
}

// prefixIndex returns the index in prefixes of the engineering prefix for v.
func prefixIndex(v float64) int {
	a := math.Abs(v)
	exp := int(math.Floor(math.Log10(a) / 3))
	// Log10 is not exact at powers of ten
	if exp > -9 && exp < 9 {
		if m := Scale(a, -exp*3); m >= 1000 {
			exp++
		} else if m < 1 {
			exp--
		}
	}
	i := exp + unityIndex
	if i < 0 {
		return 0
	}
	if i >= len(prefixes) {
		return len(prefixes) - 1
	}
	return i
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
