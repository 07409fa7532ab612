// Package pipeline resolves a whole bill of materials, one component per worker.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/partpicker/internal/logging"
	"github.com/jonathan/partpicker/internal/metrics"
	"github.com/jonathan/partpicker/internal/picker"
	"github.com/jonathan/partpicker/internal/types"
)

// DefaultWorkers bounds concurrent resolutions when RunOptions.Workers is unset.
const DefaultWorkers = 4

// Resolver picks one part for a component spec. *picker.Engine implements it.
type Resolver interface {
	Resolve(ctx context.Context, spec types.ComponentSpec, quantity int) (*picker.Selection, error)
}

// ProgressEvent represents a progress update during a BOM run
type ProgressEvent struct {
	RunID      string       `json:"run_id"`
	Index      int          `json:"index"`
	Designator string       `json:"designator,omitempty"`
	Family     types.Family `json:"family"`
	Status     string       `json:"status"`
	PartID     string       `json:"part_id,omitempty"`
	Message    string       `json:"message,omitempty"`
}

// ProgressCallback is called once per finished BOM item. Calls are serialized.
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for a BOM run
type RunOptions struct {
	Quantity   int
	Workers    int
	Logger     *zap.Logger
	Metrics    *metrics.Recorder
	OnProgress ProgressCallback
}

// Result is the outcome of one BOM item. Exactly one of Selection and Error is set.
type Result struct {
	Index      int               `json:"index"`
	Designator string            `json:"designator,omitempty"`
	Family     types.Family      `json:"family"`
	Status     string            `json:"status"`
	Selection  *picker.Selection `json:"selection,omitempty"`
	Error      string            `json:"error,omitempty"`

	err error
}

// Err returns the resolution error, if any.
func (r Result) Err() error {
	return r.err
}

// Report summarizes a BOM run. Results are in input order.
type Report struct {
	RunID       uuid.UUID     `json:"run_id"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	Quantity    int           `json:"quantity"`
	Total       int           `json:"total"`
	Selected    int           `json:"selected"`
	NotFound    int           `json:"not_found"`
	Unsupported int           `json:"unsupported"`
	Failed      int           `json:"failed"`
	Results     []Result      `json:"results"`
}

// OK reports whether every item got a part.
func (r *Report) OK() bool {
	return r.Selected == r.Total
}

// TotalCost sums unit price times quantity over selected items that have a price.
func (r *Report) TotalCost() float64 {
	var sum float64
	for _, res := range r.Results {
		if res.Selection != nil && res.Selection.UnitPrice != nil {
			sum += *res.Selection.UnitPrice * float64(res.Selection.Quantity)
		}
	}
	return sum
}

// ResolveBOM resolves every spec independently. A failing item is recorded in its Result and
// does not stop the others. The returned error is non-nil only when ctx ends the run early;
// the partial report is still returned.
func ResolveBOM(ctx context.Context, resolver Resolver, specs []types.ComponentSpec, opts RunOptions) (*Report, error) {
	logger := logging.OrNop(opts.Logger)
	workers := opts.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}
	quantity := opts.Quantity
	if quantity < 1 {
		quantity = 1
	}

	report := &Report{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		Quantity:  quantity,
		Total:     len(specs),
		Results:   make([]Result, len(specs)),
	}
	logger = logger.With(zap.String("run_id", report.RunID.String()))
	logger.Info("starting BOM run", zap.Int("items", len(specs)), zap.Int("workers", workers))

	var progressMu sync.Mutex
	emit := func(res Result) {
		if opts.OnProgress == nil {
			return
		}
		event := ProgressEvent{
			RunID:      report.RunID.String(),
			Index:      res.Index,
			Designator: res.Designator,
			Family:     res.Family,
			Status:     res.Status,
			Message:    res.Error,
		}
		if res.Selection != nil {
			event.PartID = res.Selection.PartID
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		opts.OnProgress(event)
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for i, spec := range specs {
		g.Go(func() error {
			res := resolveItem(ctx, resolver, i, spec, quantity)
			report.Results[i] = res
			opts.Metrics.RecordBOMItem(res.Status)

			if res.err != nil {
				logger.Warn("BOM item unresolved",
					zap.Int("index", i),
					zap.String("designator", res.Designator),
					zap.String("status", res.Status),
					zap.Error(res.err))
			}
			emit(res)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range report.Results {
		switch res.Status {
		case metrics.OutcomeSelected:
			report.Selected++
		case metrics.OutcomeNotFound:
			report.NotFound++
		case metrics.OutcomeUnsupported:
			report.Unsupported++
		default:
			report.Failed++
		}
	}
	report.Duration = time.Since(report.StartedAt)

	logger.Info("finished BOM run",
		zap.Int("selected", report.Selected),
		zap.Int("not_found", report.NotFound),
		zap.Int("unsupported", report.Unsupported),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration))

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("BOM run interrupted: %w", err)
	}
	return report, nil
}

func resolveItem(ctx context.Context, resolver Resolver, index int, spec types.ComponentSpec, quantity int) Result {
	res := Result{Index: index}
	if spec == nil {
		res.err = fmt.Errorf("component %d has no spec", index)
		res.Status = metrics.OutcomeError
		res.Error = res.err.Error()
		return res
	}
	res.Designator = spec.Designator()
	res.Family = spec.Family()

	if err := ctx.Err(); err != nil {
		res.err = err
	} else {
		res.Selection, res.err = resolver.Resolve(ctx, spec, quantity)
	}

	res.Status = picker.Outcome(res.err)
	if res.err != nil {
		res.Selection = nil
		res.Error = res.err.Error()
	}
	return res
}
