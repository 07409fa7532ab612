package types

import (
	"fmt"
	"strings"
)

// CaseSize is an SMD package size code, ordered by physical size.
type CaseSize int

// Case sizes in increasing physical size.
const (
	Case01005 CaseSize = iota + 1
	Case0201
	Case0402
	Case0603
	Case0805
	Case1008
	Case1206
	Case1210
	Case1806
	Case1812
	Case1825
	Case2010
	Case2512
)

var caseSizeNames = []string{"", "01005", "0201", "0402", "0603", "0805", "1008", "1206", "1210", "1806", "1812", "1825", "2010", "2512"}

// CaseSizes lists every case size in order.
func CaseSizes() []CaseSize {
	return enumValues[CaseSize](len(caseSizeNames))
}

// Code returns the bare size code as it appears in catalog package text, e.g. "0402".
func (c CaseSize) Code() string {
	return enumName(caseSizeNames, int(c))
}

func (c CaseSize) String() string { return c.Code() }

// MarshalText implements encoding.TextMarshaler.
func (c CaseSize) MarshalText() ([]byte, error) { return marshalEnum(caseSizeNames, int(c)) }

// UnmarshalText accepts "0402" as well as family-prefixed spellings such as "R0402" or "C0402".
func (c *CaseSize) UnmarshalText(text []byte) error {
	s := strings.TrimLeft(strings.ToUpper(string(text)), "RCL")
	v, err := parseEnum("case size", caseSizeNames, s)
	*c = CaseSize(v)
	return err
}

// TemperatureCoefficient is a ceramic dielectric class, ordered from least to most stable.
type TemperatureCoefficient int

// Dielectric classes in increasing stability.
const (
	Y5V TemperatureCoefficient = iota + 1
	Z5U
	X7S
	X5R
	X6R
	X7R
	X8R
	C0G
)

var temperatureCoefficientNames = []string{"", "Y5V", "Z5U", "X7S", "X5R", "X6R", "X7R", "X8R", "C0G"}

// TemperatureCoefficients lists every class in order.
func TemperatureCoefficients() []TemperatureCoefficient {
	return enumValues[TemperatureCoefficient](len(temperatureCoefficientNames))
}

func (t TemperatureCoefficient) String() string { return enumName(temperatureCoefficientNames, int(t)) }

// MarshalText implements encoding.TextMarshaler.
func (t TemperatureCoefficient) MarshalText() ([]byte, error) {
	return marshalEnum(temperatureCoefficientNames, int(t))
}

// UnmarshalText implements encoding.TextUnmarshaler. NP0 is accepted as C0G.
func (t *TemperatureCoefficient) UnmarshalText(text []byte) error {
	s := strings.ToUpper(string(text))
	if s == "NP0" || s == "NPO" || s == "COG" {
		s = "C0G"
	}
	v, err := parseEnum("temperature coefficient", temperatureCoefficientNames, s)
	*t = TemperatureCoefficient(v)
	return err
}

// ChannelType is the MOSFET channel polarity.
type ChannelType int

// Channel polarities.
const (
	NChannel ChannelType = iota + 1
	PChannel
)

var channelTypeNames = []string{"", "N_CHANNEL", "P_CHANNEL"}

// ChannelTypes lists both polarities.
func ChannelTypes() []ChannelType { return enumValues[ChannelType](len(channelTypeNames)) }

func (c ChannelType) String() string { return enumName(channelTypeNames, int(c)) }

// CatalogType returns the value of the catalog "Type" attribute for this polarity.
func (c ChannelType) CatalogType() string {
	switch c {
	case NChannel:
		return "N Channel"
	case PChannel:
		return "P Channel"
	}
	return ""
}

// MarshalText implements encoding.TextMarshaler.
func (c ChannelType) MarshalText() ([]byte, error) { return marshalEnum(channelTypeNames, int(c)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ChannelType) UnmarshalText(text []byte) error {
	s := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToUpper(string(text)))
	if s == "N" || s == "P" {
		s += "_CHANNEL"
	}
	v, err := parseEnum("channel type", channelTypeNames, s)
	*c = ChannelType(v)
	return err
}

// InductorType separates signal inductors from power inductors; the catalog files them
// under different subcategories.
type InductorType int

// Inductor kinds.
const (
	InductorNormal InductorType = iota + 1
	InductorPower
)

var inductorTypeNames = []string{"", "NORMAL", "POWER"}

func (i InductorType) String() string { return enumName(inductorTypeNames, int(i)) }

// MarshalText implements encoding.TextMarshaler.
func (i InductorType) MarshalText() ([]byte, error) { return marshalEnum(inductorTypeNames, int(i)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *InductorType) UnmarshalText(text []byte) error {
	v, err := parseEnum("inductor type", inductorTypeNames, strings.ToUpper(string(text)))
	*i = InductorType(v)
	return err
}

func enumValues[E ~int](n int) []E {
	out := make([]E, 0, n-1)
	for i := 1; i < n; i++ {
		out = append(out, E(i))
	}
	return out
}

func enumName(names []string, v int) string {
	if v <= 0 || v >= len(names) {
		return fmt.Sprintf("invalid(%d)", v)
	}
	return names[v]
}

func marshalEnum(names []string, v int) ([]byte, error) {
	if v <= 0 || v >= len(names) {
		return nil, fmt.Errorf("invalid enum value %d", v)
	}
	return []byte(names[v]), nil
}

func parseEnum(what string, names []string, s string) (int, error) {
	for i, n := range names {
		if i > 0 && n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", what, s)
}
