package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/partpicker/internal/pipeline"
)

// Events sent on /v1/bom/stream, in order: one progress per item, then report and complete,
// or a single error when the run is aborted.
const (
	eventProgress = "progress"
	eventReport   = "report"
	eventComplete = "complete"
	eventError    = "error"
)

// Completion statuses.
const (
	streamOK         = "ok"
	streamIncomplete = "incomplete"
)

var errStreamingUnsupported = errors.New("streaming not supported")

// completeEvent closes a stream
type completeEvent struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// bomStream writes one BOM run as server-sent events. Ids count up from 1 so a client can
// tell how far a dropped stream got.
type bomStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	seq     int
}

// newBOMStream sets the event-stream headers and commits the 200. It fails when w cannot flush,
// before anything is written.
func newBOMStream(w http.ResponseWriter) (*bomStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &bomStream{w: w, flusher: flusher}, nil
}

func (s *bomStream) send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}

	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.seq, event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteProgress sends one finished item.
func (s *bomStream) WriteProgress(event pipeline.ProgressEvent) error {
	return s.send(eventProgress, event)
}

// WriteReport sends the report and the closing complete event.
func (s *bomStream) WriteReport(report *pipeline.Report) error {
	if err := s.send(eventReport, report); err != nil {
		return err
	}

	status := streamOK
	if !report.OK() {
		status = streamIncomplete
	}
	return s.send(eventComplete, completeEvent{RunID: report.RunID.String(), Status: status})
}

// WriteError ends the stream with the same body a JSON error response would carry.
func (s *bomStream) WriteError(err error) error {
	return s.send(eventError, errorBody(err))
}
