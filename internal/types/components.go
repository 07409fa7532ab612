package types

import (
	"errors"

	"github.com/jonathan/partpicker/internal/param"
)

// Family names a component family with its own search configuration.
type Family string

// Supported families.
const (
	FamilyResistor   Family = "resistor"
	FamilyCapacitor  Family = "capacitor"
	FamilyInductor   Family = "inductor"
	FamilyMOSFET     Family = "mosfet"
	FamilyPartNumber Family = "partnumber"
)

// Families lists every supported family.
func Families() []Family {
	return []Family{FamilyResistor, FamilyCapacitor, FamilyInductor, FamilyMOSFET, FamilyPartNumber}
}

// ComponentSpec is the abstract description of one component that needs a part.
// Implementations are plain value types; the engine never mutates them.
type ComponentSpec interface {
	Family() Family
	Designator() string
	Validate() error
}

// Resistor constrains a fixed chip resistor. Tolerance is in percent.
type Resistor struct {
	Name       string                   `json:"name,omitempty"`
	Resistance param.Parameter[float64]  `json:"resistance"`
	Tolerance  param.Parameter[float64]  `json:"tolerance"`
	CaseSize   param.Parameter[CaseSize] `json:"case_size"`
	RatedPower param.Parameter[float64]  `json:"rated_power"`
}

// Family implements ComponentSpec.
func (r Resistor) Family() Family { return FamilyResistor }

// Designator implements ComponentSpec.
func (r Resistor) Designator() string { return r.Name }

// Validate checks every parameter's bounds.
func (r Resistor) Validate() error {
	return validateAll(
		field("resistance", r.Resistance.Validate()),
		field("tolerance", r.Tolerance.Validate()),
		field("case_size", r.CaseSize.Validate()),
		field("rated_power", r.RatedPower.Validate()),
	)
}

// Capacitor constrains a multilayer ceramic capacitor. Tolerance is in percent,
// rated voltage in volts.
type Capacitor struct {
	Name                   string                                  `json:"name,omitempty"`
	Capacitance            param.Parameter[float64]                `json:"capacitance"`
	Tolerance              param.Parameter[float64]                `json:"tolerance"`
	RatedVoltage           param.Parameter[float64]                `json:"rated_voltage"`
	TemperatureCoefficient param.Parameter[TemperatureCoefficient] `json:"temperature_coefficient"`
	CaseSize               param.Parameter[CaseSize]               `json:"case_size"`
}

// Family implements ComponentSpec.
func (c Capacitor) Family() Family { return FamilyCapacitor }

// Designator implements ComponentSpec.
func (c Capacitor) Designator() string { return c.Name }

// Validate checks every parameter's bounds.
func (c Capacitor) Validate() error {
	return validateAll(
		field("capacitance", c.Capacitance.Validate()),
		field("tolerance", c.Tolerance.Validate()),
		field("rated_voltage", c.RatedVoltage.Validate()),
		field("temperature_coefficient", c.TemperatureCoefficient.Validate()),
		field("case_size", c.CaseSize.Validate()),
	)
}

// Inductor constrains an SMD or power inductor.
type Inductor struct {
	Name                  string                        `json:"name,omitempty"`
	Inductance            param.Parameter[float64]      `json:"inductance"`
	Tolerance             param.Parameter[float64]      `json:"tolerance"`
	RatedCurrent          param.Parameter[float64]      `json:"rated_current"`
	DCResistance          param.Parameter[float64]      `json:"dc_resistance"`
	SelfResonantFrequency param.Parameter[float64]      `json:"self_resonant_frequency"`
	InductorType          param.Parameter[InductorType] `json:"inductor_type"`
	CaseSize              param.Parameter[CaseSize]     `json:"case_size"`
}

// Family implements ComponentSpec.
func (i Inductor) Family() Family { return FamilyInductor }

// Designator implements ComponentSpec.
func (i Inductor) Designator() string { return i.Name }

// Validate checks every parameter's bounds.
func (i Inductor) Validate() error {
	return validateAll(
		field("inductance", i.Inductance.Validate()),
		field("tolerance", i.Tolerance.Validate()),
		field("rated_current", i.RatedCurrent.Validate()),
		field("dc_resistance", i.DCResistance.Validate()),
		field("self_resonant_frequency", i.SelfResonantFrequency.Validate()),
		field("inductor_type", i.InductorType.Validate()),
		field("case_size", i.CaseSize.Validate()),
	)
}

// MOSFET constrains a discrete MOSFET. Package is matched verbatim against catalog package text.
type MOSFET struct {
	Name                       string                       `json:"name,omitempty"`
	ChannelType                param.Parameter[ChannelType] `json:"channel_type"`
	DrainSourceVoltage         param.Parameter[float64]     `json:"drain_source_voltage"`
	ContinuousDrainCurrent     param.Parameter[float64]     `json:"continuous_drain_current"`
	DrainSourceResistance      param.Parameter[float64]     `json:"drain_source_resistance"`
	GateSourceThresholdVoltage param.Parameter[float64]     `json:"gate_source_threshold_voltage"`
	PowerDissipation           param.Parameter[float64]     `json:"power_dissipation"`
	Package                    param.Parameter[string]      `json:"package"`
}

// Family implements ComponentSpec.
func (m MOSFET) Family() Family { return FamilyMOSFET }

// Designator implements ComponentSpec.
func (m MOSFET) Designator() string { return m.Name }

// Validate checks every parameter's bounds.
func (m MOSFET) Validate() error {
	return validateAll(
		field("channel_type", m.ChannelType.Validate()),
		field("drain_source_voltage", m.DrainSourceVoltage.Validate()),
		field("continuous_drain_current", m.ContinuousDrainCurrent.Validate()),
		field("drain_source_resistance", m.DrainSourceResistance.Validate()),
		field("gate_source_threshold_voltage", m.GateSourceThresholdVoltage.Validate()),
		field("power_dissipation", m.PowerDissipation.Validate()),
		field("package", m.Package.Validate()),
	)
}

// PartNumber pins a component to a manufacturer part number.
type PartNumber struct {
	Name                   string                  `json:"name,omitempty"`
	ManufacturerPartNumber param.Parameter[string] `json:"manufacturer_part_number"`
}

// Family implements ComponentSpec.
func (p PartNumber) Family() Family { return FamilyPartNumber }

// Designator implements ComponentSpec.
func (p PartNumber) Designator() string { return p.Name }

// Validate checks every parameter's bounds.
func (p PartNumber) Validate() error {
	return field("manufacturer_part_number", p.ManufacturerPartNumber.Validate())
}

// FieldError reports an invalid parameter on a component spec.
type FieldError struct {
	Field string
	Cause error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Cause.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Cause
}

func field(name string, err error) error {
	if err == nil {
		return nil
	}
	return &FieldError{Field: name, Cause: err}
}

func validateAll(errs ...error) error {
	return errors.Join(errs...)
}
