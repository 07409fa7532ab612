// Package metrics provides Prometheus metrics for part resolution.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for resolutions.
const (
	OutcomeSelected    = "selected"
	OutcomeNotFound    = "not_found"
	OutcomeUnsupported = "unsupported"
	OutcomeError       = "error"
)

// Recorder holds the resolver's collectors. A nil *Recorder records nothing.
type Recorder struct {
	ResolutionsTotal    *prometheus.CounterVec
	CandidatesRemaining *prometheus.HistogramVec
	ResolutionDuration  *prometheus.HistogramVec
	BOMItemsTotal       *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
}

// NewRecorder registers the collectors with reg. Use prometheus.NewRegistry() in tests.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		ResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partpicker_resolutions_total",
				Help: "Total number of component resolutions by outcome",
			},
			[]string{"family", "outcome"},
		),

		CandidatesRemaining: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "partpicker_candidates_remaining",
				Help:    "Candidates left after each filter stage",
				Buckets: []float64{0, 1, 2, 5, 10, 50, 100, 500, 1000, 5000},
			},
			[]string{"family", "stage"},
		),

		ResolutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "partpicker_resolution_duration_seconds",
				Help:    "Time taken to resolve one component",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"family"},
		),

		BOMItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partpicker_bom_items_total",
				Help: "Total number of BOM items processed by status",
			},
			[]string{"status"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partpicker_http_requests_total",
				Help: "Total number of API requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}
}

// RecordResolution counts one finished resolution and its duration.
func (r *Recorder) RecordResolution(family, outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	r.ResolutionsTotal.WithLabelValues(family, outcome).Inc()
	r.ResolutionDuration.WithLabelValues(family).Observe(duration.Seconds())
}

// RecordStage observes the candidate count after a filter stage.
func (r *Recorder) RecordStage(family, stage string, remaining int) {
	if r == nil {
		return
	}
	r.CandidatesRemaining.WithLabelValues(family, stage).Observe(float64(remaining))
}

// RecordBOMItem counts one BOM item.
func (r *Recorder) RecordBOMItem(status string) {
	if r == nil {
		return
	}
	r.BOMItemsTotal.WithLabelValues(status).Inc()
}

// RecordRequest counts one API request.
func (r *Recorder) RecordRequest(route string, code int) {
	if r == nil {
		return
	}
	r.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
