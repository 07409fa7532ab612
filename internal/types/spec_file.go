package types

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/partpicker/internal/param"
)

// SpecEnvelope is the on-disk form of a component spec: a "kind" discriminator plus the
// family's fields at the same level.
type SpecEnvelope struct {
	Kind Family        `json:"kind"`
	Spec ComponentSpec `json:"-"`
}

// MarshalJSON writes the family fields with the kind discriminator.
func (e SpecEnvelope) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(e.Spec)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	kind, _ := json.Marshal(e.Spec.Family())
	fields["kind"] = kind
	return json.Marshal(fields)
}

// UnmarshalJSON implements json.Unmarshaler via DecodeSpec.
func (e *SpecEnvelope) UnmarshalJSON(data []byte) error {
	spec, err := DecodeSpec(data)
	if err != nil {
		return err
	}
	e.Kind = spec.Family()
	e.Spec = spec
	return nil
}

// DecodeSpec decodes one component spec. Fields that are absent get the family defaults
// (resistor 1% 0402, capacitor 0402..1206, normal inductor); fields given as null stay unresolved.
func DecodeSpec(data []byte) (ComponentSpec, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse component spec JSON: %w", err)
	}

	var kind Family
	if raw, ok := fields["kind"]; ok {
		if err := json.Unmarshal(raw, &kind); err != nil {
			return nil, fmt.Errorf("failed to parse component kind: %w", err)
		}
	}
	present := func(name string) bool {
		_, ok := fields[name]
		return ok
	}

	var spec ComponentSpec
	switch kind {
	case FamilyResistor:
		r := Resistor{}
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("failed to parse resistor spec: %w", err)
		}
		if !present("tolerance") {
			r.Tolerance = param.Exact(1.0)
		}
		if !present("case_size") {
			r.CaseSize = param.Exact(Case0402)
		}
		spec = r
	case FamilyCapacitor:
		c := Capacitor{}
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse capacitor spec: %w", err)
		}
		if !present("case_size") {
			c.CaseSize = param.Bounded(Case0402, Case1206)
		}
		spec = c
	case FamilyInductor:
		i := Inductor{}
		if err := json.Unmarshal(data, &i); err != nil {
			return nil, fmt.Errorf("failed to parse inductor spec: %w", err)
		}
		if !present("inductor_type") {
			i.InductorType = param.Exact(InductorNormal)
		}
		spec = i
	case FamilyMOSFET:
		m := MOSFET{}
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse mosfet spec: %w", err)
		}
		spec = m
	case FamilyPartNumber:
		p := PartNumber{}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse part number spec: %w", err)
		}
		spec = p
	case "":
		return nil, fmt.Errorf("component spec has no \"kind\"")
	default:
		return nil, fmt.Errorf("unknown component kind %q", kind)
	}

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s spec: %w", kind, err)
	}
	return spec, nil
}

// DecodeSpecs decodes a JSON array of component specs.
func DecodeSpecs(data []byte) ([]ComponentSpec, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("failed to parse component spec list: %w", err)
	}

	specs := make([]ComponentSpec, 0, len(raws))
	for i, raw := range raws {
		spec, err := DecodeSpec(raw)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
