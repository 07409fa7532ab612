package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/partpicker/internal/catalog"
	"github.com/jonathan/partpicker/internal/metrics"
	"github.com/jonathan/partpicker/internal/picker"
	"github.com/jonathan/partpicker/internal/pipeline"
	"github.com/jonathan/partpicker/internal/server/ratelimit"
)

type testServer struct {
	*Server
	registry *prometheus.Registry
	recorder *metrics.Recorder
	logs     *observer.ObservedLogs
}

func newTestServer(t *testing.T, rl *ratelimit.Config) *testServer {
	t.Helper()
	gw, err := catalog.LoadSnapshot("../catalog/testdata/snapshot.json")
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)
	engine := picker.New(gw, picker.WithMetrics(rec))

	if rl == nil {
		rl = &ratelimit.Config{Enabled: false}
	}
	s := New(Config{
		Addr:      "127.0.0.1:0",
		Quantity:  1,
		Workers:   2,
		RateLimit: rl,
		Logger:    zap.New(core),
		Registry:  reg,
		Metrics:   rec,
	}, engine)
	t.Cleanup(s.rateLimiter.Stop)

	return &testServer{Server: s, registry: reg, recorder: rec, logs: logs}
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, w)["status"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodOptions, "/v1/resolve", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestResolveEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodPost, "/v1/resolve", `{
		"spec": {"kind": "resistor", "name": "R1", "resistance": {"exact": 10000}},
		"quantity": 20
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	sel := decodeBody[picker.Selection](t, w)
	assert.Equal(t, "C25744", sel.PartID)
	assert.Equal(t, "R1", sel.Designator)
	assert.Equal(t, 20, sel.Quantity)
	require.NotNil(t, sel.UnitPrice)
	assert.InDelta(t, 0.001, *sel.UnitPrice, 1e-12)

	assert.Equal(t, 1.0, testutil.ToFloat64(ts.recorder.HTTPRequestsTotal.WithLabelValues("POST /v1/resolve", "200")))
	assert.Equal(t, 1, ts.logs.FilterMessage("request").Len())
}

func TestResolveEndpoint_DefaultQuantity(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodPost, "/v1/resolve", `{"spec": {"kind": "capacitor", "capacitance": {"exact": 1e-8}}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sel := decodeBody[picker.Selection](t, w)
	assert.Equal(t, "C15195", sel.PartID)
	assert.Equal(t, 1, sel.Quantity)
}

func TestResolveEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
		wantStage  string
	}{
		{
			name:       "malformed JSON",
			body:       `{"spec":`,
			wantStatus: http.StatusBadRequest,
			wantField:  "body",
		},
		{
			name:       "unknown field",
			body:       `{"spec": {"kind": "resistor"}, "qty": 3}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "body",
		},
		{
			name:       "missing spec",
			body:       `{"quantity": 3}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "spec",
		},
		{
			name:       "negative quantity",
			body:       `{"spec": {"kind": "resistor", "resistance": {"exact": 10}}, "quantity": -1}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "quantity",
		},
		{
			name:       "unknown kind",
			body:       `{"spec": {"kind": "diode"}}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "body",
		},
		{
			name:       "unresolved resistance",
			body:       `{"spec": {"kind": "resistor"}}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "resistance",
		},
		{
			name:       "nothing matches",
			body:       `{"spec": {"kind": "partnumber", "manufacturer_part_number": {"exact": "NO-SUCH-PART"}}}`,
			wantStatus: http.StatusNotFound,
			wantStage:  picker.StageQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)

			w := ts.do(http.MethodPost, "/v1/resolve", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			body := decodeBody[ErrorBody](t, w)
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, tt.wantField, body.Field)
			if tt.wantStage != "" {
				assert.Equal(t, tt.wantStage, body.Stage)
			}
		})
	}
}

func TestBOMEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodPost, "/v1/bom", `{
		"components": [
			{"kind": "resistor", "name": "R1", "resistance": {"exact": 10000}},
			{"kind": "partnumber", "name": "U1", "manufacturer_part_number": {"exact": "NO-SUCH-PART"}},
			{"kind": "capacitor", "name": "C1", "capacitance": {"exact": 1e-8}, "case_size": {"exact": "0402"}},
			{"kind": "resistor", "name": "R2"}
		],
		"quantity": 20
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	report := decodeBody[pipeline.Report](t, w)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Selected)
	assert.Equal(t, 1, report.NotFound)
	assert.Equal(t, 1, report.Unsupported)
	assert.Equal(t, 20, report.Quantity)
	require.Len(t, report.Results, 4)
	assert.Equal(t, "C25744", report.Results[0].Selection.PartID)
	assert.Equal(t, "C15195", report.Results[2].Selection.PartID)
	assert.InDelta(t, 0.046, report.TotalCost(), 1e-9)

	assert.Equal(t, 2.0, testutil.ToFloat64(ts.recorder.BOMItemsTotal.WithLabelValues(metrics.OutcomeSelected)))
}

func TestBOMEndpoint_Validation(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodPost, "/v1/bom", `{"components": []}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "components", decodeBody[ErrorBody](t, w).Field)

	w = ts.do(http.MethodPost, "/v1/bom", `{"components": [{"kind": "resistor"}], "workers": 500}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "workers", decodeBody[ErrorBody](t, w).Field)

	w = ts.do(http.MethodPost, "/v1/bom", `{"components": [{"kind": "resistor", "resistance": {"min": 10, "max": 1}}]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody[ErrorBody](t, w).Error, "resistance")
}

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var (
		events []sseEvent
		cur    sseEvent
	)
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "" && cur.name != "":
			events = append(events, cur)
			cur = sseEvent{}
		}
	}
	require.NoError(t, sc.Err())
	return events
}

func TestBOMStreamEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodPost, "/v1/bom/stream", `{"components": [
		{"kind": "resistor", "name": "R1", "resistance": {"exact": 10000}},
		{"kind": "partnumber", "name": "U1", "manufacturer_part_number": {"exact": "NO-SUCH-PART"}}
	]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := readEvents(t, w.Body.String())
	require.Len(t, events, 4)

	seen := map[string]string{}
	for _, ev := range events[:2] {
		require.Equal(t, "progress", ev.name)
		var p pipeline.ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(ev.data), &p))
		seen[p.Designator] = p.Status
	}
	assert.Equal(t, map[string]string{"R1": metrics.OutcomeSelected, "U1": metrics.OutcomeNotFound}, seen)

	assert.Equal(t, "report", events[2].name)
	var report pipeline.Report
	require.NoError(t, json.Unmarshal([]byte(events[2].data), &report))
	assert.Equal(t, 1, report.Selected)

	assert.Equal(t, "complete", events[3].name)
	var done map[string]string
	require.NoError(t, json.Unmarshal([]byte(events[3].data), &done))
	assert.Equal(t, "incomplete", done["status"])
	assert.Equal(t, report.RunID.String(), done["run_id"])
}

func TestBOMStreamEndpoint_BadRequestIsJSON(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodPost, "/v1/bom/stream", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestPartEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodGet, "/v1/parts/C15195", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sel := decodeBody[picker.Selection](t, w)
	assert.Equal(t, "CL05B103KB5NNNC", sel.ManufacturerPartNumber)
	assert.Equal(t, "10nF", sel.ValueText)

	w = ts.do(http.MethodGet, "/v1/parts/C1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodGet, "/v1/parts/resistor", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "id", decodeBody[ErrorBody](t, w).Field)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(http.MethodGet, "/health", "")

	w := ts.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `partpicker_http_requests_total{code="200",route="GET /health"} 1`)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, &ratelimit.Config{
		Enabled: true,
		Rules: []ratelimit.Rule{
			{Path: "/v1/bom", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1},
		},
	})
	body := `{"components": [{"kind": "resistor", "resistance": {"exact": 10000}}]}`

	w := ts.do(http.MethodPost, "/v1/bom", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = ts.do(http.MethodPost, "/v1/bom", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
	resp := decodeBody[map[string]any](t, w)
	assert.Equal(t, "rate_limit_exceeded", resp["error"])
	assert.Equal(t, 1, ts.logs.FilterMessage("rate limit exceeded").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.recorder.HTTPRequestsTotal.WithLabelValues("rate_limited", "429")))

	// health is never limited
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/health", "").Code)
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	ts := newTestServer(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Equal(t, 1, ts.logs.FilterMessage("server stopped").Len())
}
