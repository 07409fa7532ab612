package picker

import (
	"errors"
	"math"
	"slices"

	"github.com/jonathan/partpicker/internal/eseries"
	"github.com/jonathan/partpicker/internal/param"
	"github.com/jonathan/partpicker/internal/query"
	"github.com/jonathan/partpicker/internal/tolerance"
	"github.com/jonathan/partpicker/internal/types"
	"github.com/jonathan/partpicker/internal/units"
)

// Plan is everything needed to search for one spec: the category scope, the first-stage
// text predicate and the ordered attribute stages. Building a plan does no I/O.
type Plan struct {
	Family     types.Family
	Designator string
	Categories []CategoryRef
	Predicate  query.And
	Stages     []Stage
	StockFloor int
}

type planBuilder struct {
	family *Family
	spec   types.ComponentSpec
	plan   *Plan
	err    *ConfigurationError
}

// unsupported records the first configuration error; later clauses are still built
// but the plan is discarded.
func (b *planBuilder) unsupported(field, message string, cause error) {
	if b.err != nil {
		return
	}
	b.err = &ConfigurationError{
		Family:     b.family.Kind,
		Designator: b.spec.Designator(),
		Field:      field,
		Message:    message,
		Cause:      cause,
	}
}

func (b *planBuilder) where(p query.Predicate) {
	b.plan.Predicate = append(b.plan.Predicate, p)
}

func (b *planBuilder) stage(s Stage, ok bool) {
	if ok {
		b.plan.Stages = append(b.plan.Stages, s)
	}
}

// spellings returns the description tokens for v, including the family's alternate form.
func (b *planBuilder) spellings(v float64) []string {
	tokens := []string{units.Format(v) + b.family.Unit}
	if alt := b.family.Alternate; alt != nil && v >= alt.Min && v < alt.Max {
		if s := units.FormatIn(v, alt.Prefix) + b.family.Unit; s != tokens[0] {
			tokens = append(tokens, s)
		}
	}
	return tokens
}

// value adds the primary value clause and returns the nominal value used for tolerance
// banding: the exact value, or the lower bound.
func (b *planBuilder) value(field string, p param.Parameter[float64]) float64 {
	switch p.Kind() {
	case param.KindExact:
		v, _ := p.Lower()
		if !(v > 0) || math.IsInf(v, 0) {
			b.unsupported(field, "value must be positive and finite", nil)
			return 0
		}
		b.where(query.AnyToken(b.spellings(v)...))
		return v
	case param.KindBounded:
		lo, _ := p.Lower()
		hi, _ := p.Upper()
		values, err := eseries.InRange(lo, hi, b.family.Series...)
		if err != nil {
			b.unsupported(field, "range cannot be expanded to standard values", err)
			return 0
		}
		var tokens []string
		for _, v := range values {
			tokens = append(tokens, b.spellings(v)...)
		}
		b.where(query.AnyToken(tokens...))
		return lo
	case param.KindUnresolved:
		b.unsupported(field, "value must be exact or bounded", param.ErrUnresolved)
		return 0
	}
	return 0
}

// tolerance adds the tolerance label clause. Zero accepted labels give an empty Or,
// which matches nothing.
func (b *planBuilder) tolerance(field string, nominal float64, p param.Parameter[float64]) {
	if b.family.Tolerances == nil || nominal == 0 {
		return
	}
	labels, err := tolerance.Band(*b.family.Tolerances, nominal, p)
	switch {
	case errors.Is(err, tolerance.ErrUnresolved):
		return
	case err != nil:
		b.unsupported(field, "invalid tolerance", err)
		return
	}
	b.where(query.AnyContains(tolerance.Markers(labels)...))
}

// caseSize adds one package suffix per case size the parameter admits, by physical order.
func (b *planBuilder) caseSize(field string, p param.Parameter[types.CaseSize]) {
	if p.IsUnresolved() {
		return
	}
	var codes []string
	for _, c := range param.Span(p, types.CaseSizes()) {
		codes = append(codes, c.Code())
	}
	b.where(query.AnyPackageSuffix(codes...))
}

func (b *planBuilder) stock(floor int) {
	b.plan.StockFloor = max(b.family.StockFloor, floor)
	b.where(query.StockAbove{Min: b.plan.StockFloor})
}

func buildResistor(b *planBuilder, spec types.ComponentSpec) {
	r := spec.(types.Resistor)
	nominal := b.value("resistance", r.Resistance)
	b.tolerance("tolerance", nominal, r.Tolerance)
	b.caseSize("case_size", r.CaseSize)
	b.stage(NumericStage(AttrPower, "rated_power", AtLeast, r.RatedPower))
}

func buildCapacitor(b *planBuilder, spec types.ComponentSpec) {
	c := spec.(types.Capacitor)
	nominal := b.value("capacitance", c.Capacitance)
	b.tolerance("tolerance", nominal, c.Tolerance)
	b.caseSize("case_size", c.CaseSize)

	// rated voltage: every standard rating that satisfies the requirement
	if !c.RatedVoltage.IsUnresolved() {
		var tokens []string
		for _, v := range capacitorVoltages {
			ok := param.Match(c.RatedVoltage,
				func(min float64) bool { return v >= min },
				func(lo, hi float64) bool { return v >= lo && v <= hi },
				func() bool { return true },
			)
			if ok {
				tokens = append(tokens, units.Format(v)+"V")
			}
		}
		b.where(query.AnyToken(tokens...))
	}

	// temperature coefficient: the requested class or anything more stable
	if !c.TemperatureCoefficient.IsUnresolved() {
		admitted := param.Match(c.TemperatureCoefficient,
			func(v types.TemperatureCoefficient) param.Parameter[types.TemperatureCoefficient] {
				return param.Bounded(v, types.C0G)
			},
			func(lo, hi types.TemperatureCoefficient) param.Parameter[types.TemperatureCoefficient] {
				return param.Bounded(lo, hi)
			},
			param.Unresolved[types.TemperatureCoefficient],
		)
		var names []string
		for _, tc := range param.Span(admitted, types.TemperatureCoefficients()) {
			names = append(names, tc.String())
		}
		b.where(query.AnyContains(names...))
	}
}

func buildInductor(b *planBuilder, spec types.ComponentSpec) {
	l := spec.(types.Inductor)

	power := false
	switch l.InductorType.Kind() {
	case param.KindExact:
		t, _ := l.InductorType.Lower()
		power = t == types.InductorPower
		if power {
			b.plan.Categories = []CategoryRef{powerInductors}
		} else {
			b.plan.Categories = []CategoryRef{signalInductors}
		}
	case param.KindBounded:
		b.unsupported("inductor_type", "inductor type must be exact", nil)
	case param.KindUnresolved:
		b.plan.Categories = []CategoryRef{signalInductors, powerInductors}
	}

	nominal := b.value("inductance", l.Inductance)
	b.tolerance("tolerance", nominal, l.Tolerance)
	b.caseSize("case_size", l.CaseSize)

	b.stage(NumericStage(AttrInductance, "inductance", Equal, l.Inductance))
	b.stage(NumericStage(AttrRatedCurrent, "rated_current", AtLeast, l.RatedCurrent))
	b.stage(NumericStage(AttrDCResistance, "dc_resistance", AtMost, l.DCResistance))
	// power inductor listings carry no self-resonant frequency
	if !power {
		b.stage(NumericStage(AttrSelfResonantFreq, "self_resonant_frequency", AtLeast, l.SelfResonantFrequency))
	}
}

func buildMOSFET(b *planBuilder, spec types.ComponentSpec) {
	m := spec.(types.MOSFET)

	switch m.Package.Kind() {
	case param.KindExact:
		pkg, _ := m.Package.Lower()
		b.where(query.PackageEquals{Package: pkg})
	case param.KindBounded:
		b.unsupported("package", "package must be exact", nil)
	case param.KindUnresolved:
	}

	if !m.ChannelType.IsUnresolved() {
		var accepted []string
		for _, c := range param.Span(m.ChannelType, types.ChannelTypes()) {
			accepted = append(accepted, c.CatalogType())
		}
		b.stage(TextStage(AttrType, "channel_type", accepted), true)
	}
	b.stage(NumericStage(AttrDrainSourceVolt, "drain_source_voltage", AtLeast, m.DrainSourceVoltage))
	b.stage(NumericStage(AttrDrainCurrent, "continuous_drain_current", AtLeast, m.ContinuousDrainCurrent))
	b.stage(NumericStage(AttrOnResistance, "drain_source_resistance", AtMost, m.DrainSourceResistance))
	b.stage(NumericStage(AttrGateThreshold, "gate_source_threshold_voltage", AtMost, m.GateSourceThresholdVoltage))
	b.stage(NumericStage(AttrPowerDissipation, "power_dissipation", AtLeast, m.PowerDissipation))
}

func buildPartNumber(b *planBuilder, spec types.ComponentSpec) {
	p := spec.(types.PartNumber)
	switch p.ManufacturerPartNumber.Kind() {
	case param.KindExact:
		mpn, _ := p.ManufacturerPartNumber.Lower()
		if mpn == "" {
			b.unsupported("manufacturer_part_number", "part number is empty", nil)
			return
		}
		b.where(query.ManufacturerPNContains{Text: mpn})
	case param.KindBounded:
		b.unsupported("manufacturer_part_number", "part number range lookups are not supported", nil)
	case param.KindUnresolved:
		b.unsupported("manufacturer_part_number", "part number must be exact", param.ErrUnresolved)
	}
}

// buildPlan runs the family builder. The category scope defaults to the family's own.
func buildPlan(f *Family, spec types.ComponentSpec, floor int) (*Plan, error) {
	b := &planBuilder{
		family: f,
		spec:   spec,
		plan: &Plan{
			Family:     f.Kind,
			Designator: spec.Designator(),
			Categories: slices.Clone(f.Categories),
		},
	}

	if err := spec.Validate(); err != nil {
		b.unsupported("spec", "invalid parameters", err)
		return nil, b.err
	}

	f.build(b, spec)
	b.stock(floor)
	if b.err != nil {
		return nil, b.err
	}
	return b.plan, nil
}
