package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/partpicker/internal/picker"
	"github.com/jonathan/partpicker/internal/pipeline"
	"github.com/jonathan/partpicker/internal/types"
)

// noFlush hides the recorder's Flush method.
type noFlush struct {
	http.ResponseWriter
}

func TestBOMStream_RequiresFlusher(t *testing.T) {
	w := httptest.NewRecorder()
	_, err := newBOMStream(noFlush{w})
	assert.ErrorIs(t, err, errStreamingUnsupported)
	assert.Empty(t, w.Header().Get("Content-Type"))
}

func TestBOMStream_ProgressThenReport(t *testing.T) {
	w := httptest.NewRecorder()
	stream, err := newBOMStream(w)
	require.NoError(t, err)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	runID := uuid.New()
	require.NoError(t, stream.WriteProgress(pipeline.ProgressEvent{
		RunID: runID.String(), Index: 0, Designator: "R1", Family: types.FamilyResistor, Status: "selected", PartID: "C25744",
	}))
	require.NoError(t, stream.WriteReport(&pipeline.Report{RunID: runID, Total: 1, Selected: 1}))

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "id: 1\nevent: progress\ndata: {"), body)
	assert.Contains(t, body, "id: 2\nevent: report\n")
	assert.Contains(t, body, "id: 3\nevent: complete\n")

	events := readEvents(t, body)
	require.Len(t, events, 3)

	var p pipeline.ProgressEvent
	require.NoError(t, json.Unmarshal([]byte(events[0].data), &p))
	assert.Equal(t, "C25744", p.PartID)

	var done completeEvent
	require.NoError(t, json.Unmarshal([]byte(events[2].data), &done))
	assert.Equal(t, completeEvent{RunID: runID.String(), Status: streamOK}, done)
}

func TestBOMStream_IncompleteReport(t *testing.T) {
	w := httptest.NewRecorder()
	stream, err := newBOMStream(w)
	require.NoError(t, err)

	require.NoError(t, stream.WriteReport(&pipeline.Report{RunID: uuid.New(), Total: 2, Selected: 1, NotFound: 1}))

	events := readEvents(t, w.Body.String())
	require.Len(t, events, 2)
	var done completeEvent
	require.NoError(t, json.Unmarshal([]byte(events[1].data), &done))
	assert.Equal(t, streamIncomplete, done.Status)
}

func TestBOMStream_ErrorCarriesBody(t *testing.T) {
	w := httptest.NewRecorder()
	stream, err := newBOMStream(w)
	require.NoError(t, err)

	require.NoError(t, stream.WriteError(&picker.ConfigurationError{Family: types.FamilyResistor, Field: "resistance", Message: "value must be resolved"}))
	require.NoError(t, stream.WriteError(context.Canceled))

	events := readEvents(t, w.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, eventError, events[0].name)

	var body ErrorBody
	require.NoError(t, json.Unmarshal([]byte(events[0].data), &body))
	assert.Equal(t, "resistance", body.Field)

	require.NoError(t, json.Unmarshal([]byte(events[1].data), &body))
	assert.Equal(t, context.Canceled.Error(), body.Error)
}
