// Package picker resolves abstract component specs into catalog parts.
//
// Every resolution runs the same pipeline: build a search plan from the spec (no I/O),
// query the catalog with the plan's text predicate, narrow the candidates with the
// plan's attribute stages, rank the survivors and select one. One engine serves all
// families; the differences live in the Family table.
package picker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/partpicker/internal/catalog"
	"github.com/jonathan/partpicker/internal/logging"
	"github.com/jonathan/partpicker/internal/metrics"
	"github.com/jonathan/partpicker/internal/ranking"
	"github.com/jonathan/partpicker/internal/types"
	"github.com/jonathan/partpicker/internal/units"
	"go.uber.org/zap"
)

// Selection is the part chosen for one spec.
type Selection struct {
	Designator             string       `json:"designator,omitempty"`
	Family                 types.Family `json:"family"`
	PartID                 string       `json:"part_id"`
	ManufacturerPartNumber string       `json:"manufacturer_part_number"`
	Description            string       `json:"description"`
	Package                string       `json:"package"`
	Value                  float64      `json:"value,omitempty"`
	ValueText              string       `json:"value_text,omitempty"`
	HasValue               bool         `json:"has_value"`
	UnitPrice              *float64     `json:"unit_price"`
	Quantity               int          `json:"quantity"`
	Preferred              bool         `json:"preferred"`
	Trace                  Trace        `json:"trace"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.OrNop(logger)
	}
}

// WithMetrics records resolutions on rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = rec }
}

// WithMinStock raises every family's stock floor to at least n.
func WithMinStock(n int) Option {
	return func(e *Engine) { e.minStock = n }
}

// WithFamily replaces the configuration of one family.
func WithFamily(f *Family) Option {
	return func(e *Engine) { e.families[f.Kind] = f }
}

// Engine resolves specs against a catalog. It holds no per-resolution state and is safe
// for concurrent use when its Gateway is.
type Engine struct {
	gateway  catalog.Gateway
	families map[types.Family]*Family
	logger   *zap.Logger
	metrics  *metrics.Recorder
	minStock int
}

// New creates an engine over gateway.
func New(gateway catalog.Gateway, opts ...Option) *Engine {
	e := &Engine{
		gateway:  gateway,
		families: DefaultFamilies(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Plan builds the search plan for spec without touching the catalog.
func (e *Engine) Plan(spec types.ComponentSpec) (*Plan, error) {
	if spec == nil {
		return nil, &ConfigurationError{Field: "spec", Message: "spec is nil"}
	}
	f, ok := e.families[spec.Family()]
	if !ok {
		return nil, &ConfigurationError{Family: spec.Family(), Designator: spec.Designator(), Field: "kind", Message: "unknown family"}
	}
	return buildPlan(f, spec, e.minStock)
}

// Resolve picks one part for spec at the given order quantity.
func (e *Engine) Resolve(ctx context.Context, spec types.ComponentSpec, quantity int) (*Selection, error) {
	start := time.Now()
	if quantity < 1 {
		quantity = 1
	}

	sel, err := e.resolve(ctx, spec, quantity)

	family := "unknown"
	if spec != nil {
		family = string(spec.Family())
	}
	e.metrics.RecordResolution(family, Outcome(err), time.Since(start))
	return sel, err
}

func (e *Engine) resolve(ctx context.Context, spec types.ComponentSpec, quantity int) (*Selection, error) {
	plan, err := e.Plan(spec)
	if err != nil {
		return nil, err
	}
	f := e.families[plan.Family]

	log := e.logger.With(
		zap.String("family", string(plan.Family)),
		zap.String("designator", plan.Designator),
	)

	notFound := func(stage string, trace Trace, cause error) error {
		return &NotFoundError{
			Family:     plan.Family,
			Designator: plan.Designator,
			Stage:      stage,
			Predicate:  plan.Predicate.String(),
			Quantity:   quantity,
			Trace:      trace,
			Cause:      cause,
		}
	}

	// Resolve category scope
	var categoryIDs []int
	for _, ref := range plan.Categories {
		ids, err := e.gateway.ResolveCategory(ctx, ref.Category, ref.Subcategory)
		if errors.Is(err, catalog.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve category %q: %w", ref.Category, err)
		}
		categoryIDs = append(categoryIDs, ids...)
	}
	if len(plan.Categories) > 0 && len(categoryIDs) == 0 {
		return nil, notFound(StageCategory, nil, catalog.ErrNotFound)
	}

	// First stage: text predicate
	recs, err := e.gateway.Query(ctx, categoryIDs, plan.Predicate)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	trace := Trace{{Stage: StageQuery, Remaining: len(recs)}}
	e.metrics.RecordStage(string(plan.Family), StageQuery, len(recs))
	log.Info("queried catalog", zap.Int("candidates", len(recs)), zap.String("predicate", plan.Predicate.String()))
	if len(recs) == 0 {
		return nil, notFound(StageQuery, trace, nil)
	}

	// Second stage: attribute filters
	cands := newCandidates(recs)
	for _, st := range plan.Stages {
		kept := cands[:0:0]
		for _, c := range cands {
			if c.err != nil {
				log.Debug("rejected candidate", zap.String("part_id", c.record.PartID()), zap.String("stage", st.Attribute), zap.Error(c.err))
				continue
			}
			ok, err := st.Accept(c.attrs, c.record.PartID())
			if err != nil {
				log.Debug("rejected candidate", zap.String("part_id", c.record.PartID()), zap.String("stage", st.Attribute), zap.Error(err))
				continue
			}
			if ok {
				kept = append(kept, c)
			}
		}
		cands = kept

		trace = append(trace, StageCount{Stage: st.Attribute, Remaining: len(cands)})
		e.metrics.RecordStage(string(plan.Family), st.Attribute, len(cands))
		log.Info("filtered candidates", zap.String("stage", st.Attribute), zap.String("rule", st.Rule), zap.Int("remaining", len(cands)))
		if len(cands) == 0 {
			return nil, notFound(st.Attribute, trace, nil)
		}
	}

	// Rank and select
	best, err := ranking.Select(records(cands), quantity)
	if err != nil {
		return nil, notFound(StageRank, trace, err)
	}
	trace = append(trace, StageCount{Stage: StageRank, Remaining: 1})

	sel := newSelection(best, f, quantity)
	sel.Designator = plan.Designator
	sel.Trace = trace

	fields := []zap.Field{zap.String("part_id", sel.PartID), zap.Bool("preferred", sel.Preferred)}
	if sel.UnitPrice != nil {
		fields = append(fields, zap.Float64("unit_price", *sel.UnitPrice))
	}
	if sel.HasValue {
		fields = append(fields, zap.String("value", sel.ValueText))
	}
	log.Info("picked part", fields...)
	return sel, nil
}

// Lookup describes one catalog part by id ("C25744" or "25744"), reading its value back
// from the description when it has one.
func (e *Engine) Lookup(ctx context.Context, partID string) (*Selection, error) {
	lcsc, err := catalog.ParsePartID(partID)
	if err != nil {
		return nil, err
	}
	rec, err := e.gateway.GetPart(ctx, lcsc)
	if err != nil {
		return nil, fmt.Errorf("failed to get part %s: %w", partID, err)
	}
	return newSelection(ranking.Ranked{Record: rec, UnitPrice: ranking.PriceAt(rec.Price, 1)}, nil, 1), nil
}

func newSelection(best ranking.Ranked, f *Family, quantity int) *Selection {
	sel := &Selection{
		PartID:                 best.Record.PartID(),
		ManufacturerPartNumber: best.Record.ManufacturerPN,
		Description:            best.Record.Description,
		Package:                best.Record.Package,
		Quantity:               quantity,
		Preferred:              best.Preferred(),
	}
	if !math.IsInf(best.UnitPrice, 1) {
		price := best.UnitPrice
		sel.UnitPrice = &price
	}

	pattern := anyValuePattern
	if f != nil {
		sel.Family = f.Kind
		pattern = f.ValuePattern
	}
	if pattern != nil {
		if text, v, ok := ValueFromDescription(best.Record.Description, pattern); ok {
			sel.ValueText, sel.Value, sel.HasValue = text, v, true
		}
	}
	return sel
}

// ValueFromDescription finds the first value token in a description, skipping
// tolerance text such as "±0.25pF". Micro is normalised to "u".
func ValueFromDescription(desc string, pattern *regexp.Regexp) (string, float64, bool) {
	for _, loc := range pattern.FindAllStringSubmatchIndex(desc, -1) {
		start, end := loc[2], loc[3]
		if strings.HasSuffix(desc[:start], "±") {
			continue
		}
		text := strings.NewReplacer(" ", "", "µ", "u", "μ", "u").Replace(desc[start:end])
		v, err := units.Parse(text)
		if err != nil {
			continue
		}
		return text, v, true
	}
	return "", 0, false
}

// Outcome classifies a resolution error into a metrics outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSelected
	case errors.Is(err, ErrUnsupportedConstraint):
		return metrics.OutcomeUnsupported
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	}
	return metrics.OutcomeError
}
