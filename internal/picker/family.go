package picker

import (
	"regexp"

	"github.com/jonathan/partpicker/internal/eseries"
	"github.com/jonathan/partpicker/internal/tolerance"
	"github.com/jonathan/partpicker/internal/types"
)

// Catalog attribute keys read by the attribute stages.
const (
	AttrPower            = "Power(Watts)"
	AttrInductance       = "Inductance"
	AttrRatedCurrent     = "Rated Current"
	AttrDCResistance     = "DC Resistance (DCR)"
	AttrSelfResonantFreq = "Frequency - Self Resonant"
	AttrType             = "Type"
	AttrDrainSourceVolt  = "Drain Source Voltage (Vdss)"
	AttrDrainCurrent     = "Continuous Drain Current (Id)"
	AttrOnResistance     = "Drain Source On Resistance (RDS(on)@Vgs,Id)"
	AttrGateThreshold    = "Gate Threshold Voltage (Vgs(th)@Id)"
	AttrPowerDissipation = "Power Dissipation (Pd)"
)

// Platform stock floors; a configured floor can raise but never lower them.
const (
	defaultPassiveFloor    = 50
	defaultPartNumberFloor = 1
)

// CategoryRef names one catalog (category, subcategory) pair; both match as substrings.
type CategoryRef struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// Spelling is a second way the catalog writes values in [Min, Max): in a fixed prefix,
// e.g. 47nF also listed as 0.047uF.
type Spelling struct {
	Min    float64
	Max    float64
	Prefix string
}

// Family is the search configuration of one component family. The engine is the same
// for every family; only this table differs.
type Family struct {
	Kind         types.Family
	Categories   []CategoryRef
	Unit         string
	Series       []eseries.Series
	Alternate    *Spelling
	Tolerances   *tolerance.Table
	ValuePattern *regexp.Regexp
	StockFloor   int

	build func(b *planBuilder, spec types.ComponentSpec)
}

// valuePattern matches a number, an optional prefix and one of the unit symbols. The value is
// submatch 1; the symbol must end the word so "100MHz" is not read as megahenries.
func valuePattern(unit string) *regexp.Regexp {
	return regexp.MustCompile(`([0-9]*\.?[0-9]+ ?[pnuµμmkKMG]?(?:` + unit + `))(?:[^A-Za-z]|$)`)
}

// anyValuePattern is used when the family of a part is not known.
var anyValuePattern = valuePattern("Ω|Ω|F|H")

var (
	resistorFamily = &Family{
		Kind:         types.FamilyResistor,
		Categories:   []CategoryRef{{Category: "Resistors", Subcategory: "Chip Resistor"}},
		Unit:         "Ω",
		Series:       []eseries.Series{eseries.E24, eseries.E96},
		Tolerances:   &tolerance.Resistor,
		ValuePattern: valuePattern("Ω|Ω"),
		StockFloor:   defaultPassiveFloor,
		build:        buildResistor,
	}

	capacitorFamily = &Family{
		Kind:         types.FamilyCapacitor,
		Categories:   []CategoryRef{{Category: "Capacitors", Subcategory: "Multilayer Ceramic Capacitors MLCC - SMD/SMT"}},
		Unit:         "F",
		Series:       []eseries.Series{eseries.E24},
		Alternate:    &Spelling{Min: 10e-9, Max: 1e-6, Prefix: "u"},
		Tolerances:   &tolerance.Capacitor,
		ValuePattern: valuePattern("F"),
		StockFloor:   defaultPassiveFloor,
		build:        buildCapacitor,
	}

	inductorFamily = &Family{
		Kind:         types.FamilyInductor,
		Unit:         "H",
		Series:       []eseries.Series{eseries.E24},
		Alternate:    &Spelling{Min: 10e-9, Max: 1e-6, Prefix: "u"},
		Tolerances:   &tolerance.Inductor,
		ValuePattern: valuePattern("H"),
		StockFloor:   defaultPassiveFloor,
		build:        buildInductor,
	}

	mosfetFamily = &Family{
		Kind:       types.FamilyMOSFET,
		Categories: []CategoryRef{{Category: "Transistors", Subcategory: "MOSFETs"}},
		StockFloor: defaultPassiveFloor,
		build:      buildMOSFET,
	}

	partNumberFamily = &Family{
		Kind:       types.FamilyPartNumber,
		StockFloor: defaultPartNumberFloor,
		build:      buildPartNumber,
	}
)

// inductor subcategories by type
const inductorCategory = "Inductors/Coils/Transformers"

var (
	signalInductors = CategoryRef{Category: inductorCategory, Subcategory: "Inductors (SMD)"}
	powerInductors  = CategoryRef{Category: inductorCategory, Subcategory: "Power Inductors"}
)

// capacitorVoltages are the rated voltages capacitor descriptions are searched for.
var capacitorVoltages = []float64{2.5, 4, 6.3, 10, 16, 25, 35, 50, 63, 80, 100, 150}

// DefaultFamilies returns the built-in configuration of every family.
func DefaultFamilies() map[types.Family]*Family {
	return map[types.Family]*Family{
		types.FamilyResistor:   resistorFamily,
		types.FamilyCapacitor:  capacitorFamily,
		types.FamilyInductor:   inductorFamily,
		types.FamilyMOSFET:     mosfetFamily,
		types.FamilyPartNumber: partNumberFamily,
	}
}
