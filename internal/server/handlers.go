package server

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"

	"github.com/jonathan/partpicker/internal/catalog"
	"github.com/jonathan/partpicker/internal/pipeline"
	"github.com/jonathan/partpicker/internal/types"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies; a large BOM is a few hundred KB.
const maxBodyBytes = 4 << 20

// ResolveRequest is the body of POST /v1/resolve
type ResolveRequest struct {
	Spec     *types.SpecEnvelope `json:"spec" validate:"required"`
	Quantity int                 `json:"quantity,omitempty" validate:"gte=0"`
}

// BOMRequest is the body of POST /v1/bom and POST /v1/bom/stream
type BOMRequest struct {
	Components []types.SpecEnvelope `json:"components" validate:"required,min=1,max=2000"`
	Quantity   int                  `json:"quantity,omitempty" validate:"gte=0"`
	Workers    int                  `json:"workers,omitempty" validate:"gte=0,lte=64"`
}

func (req BOMRequest) specs() []types.ComponentSpec {
	specs := make([]types.ComponentSpec, len(req.Components))
	for i, c := range req.Components {
		specs[i] = c.Spec
	}
	return specs
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleResolve picks one part for one spec
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	sel, err := s.engine.Resolve(r.Context(), req.Spec.Spec, s.quantityOr(req.Quantity))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sel)
}

// handleBOM resolves a whole BOM and returns the report. Unresolved items are part of a
// successful response; only a malformed request or an aborted run is an error.
func (s *Server) handleBOM(w http.ResponseWriter, r *http.Request) {
	var req BOMRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	report, err := pipeline.ResolveBOM(r.Context(), s.engine, req.specs(), s.runOptions(req))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

// handleBOMStream resolves a BOM and streams one "progress" event per item, then the
// "report" and a final "complete" event.
func (s *Server) handleBOMStream(w http.ResponseWriter, r *http.Request) {
	var req BOMRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	stream, err := newBOMStream(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := s.runOptions(req)
	opts.OnProgress = func(event pipeline.ProgressEvent) {
		if err := stream.WriteProgress(event); err != nil {
			s.logger.Debug("failed to write progress event", zap.Error(err))
		}
	}

	report, err := pipeline.ResolveBOM(r.Context(), s.engine, req.specs(), opts)
	if err != nil {
		if werr := stream.WriteError(err); werr != nil {
			s.logger.Debug("failed to write error event", zap.Error(werr))
		}
		return
	}
	if err := stream.WriteReport(report); err != nil {
		s.logger.Debug("failed to write report event", zap.Error(err))
	}
}

// handlePart describes one catalog part
func (s *Server) handlePart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := catalog.ParsePartID(id); err != nil {
		s.writeError(w, &ErrValidation{Field: "id", Message: err.Error()})
		return
	}

	sel, err := s.engine.Lookup(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sel)
}

// decode reads a size-limited JSON body into v and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid request body: " + err.Error()}
	}
	if err := s.validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

func (s *Server) quantityOr(q int) int {
	if q > 0 {
		return q
	}
	return s.quantity
}

func (s *Server) runOptions(req BOMRequest) pipeline.RunOptions {
	workers := req.Workers
	if workers == 0 {
		workers = s.workers
	}
	return pipeline.RunOptions{
		Quantity: s.quantityOr(req.Quantity),
		Workers:  workers,
		Logger:   s.logger,
		Metrics:  s.metrics,
	}
}

// jsonFieldName reports validation failures by their JSON names.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}
