package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"journeytrack/ingest/config"
	"journeytrack/ingest/database"
	"journeytrack/ingest/domain"
	"journeytrack/ingest/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSink struct{}

func (stubSink) WriteRecords(context.Context, []byte) error { return nil }

func testService(t *testing.T, queueCapacity int) domain.EventService {
	t.Helper()
	cfg := &config.Config{
		Backend: config.BackendConfig{WriteTimeoutMS: 1000},
		Writer: config.WriterConfig{
			BatchSize:          100,
			FlushIntervalMS:    3600000,
			QueueCapacity:      queueCapacity,
			MaxRetryAttempts:   1,
			BackoffBaseDelayMS: 1,
			BackpressurePolicy: config.PolicyReject,
		},
	}
	svc, err := services.NewEventService(stubSink{}, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = services.ShutdownEventService(svc) })
	return svc
}

func newTestApp(t *testing.T, svc domain.EventService) *fiber.App {
	t.Helper()
	handler := NewEventHandler(svc)
	app := fiber.New()
	app.Post("/events", handler.PostEvent)
	app.Post("/events/bulk", handler.PostEventsBulk)
	app.Get("/metrics", handler.GetMetrics)
	app.Get("/health", HealthCheck)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (int, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp.StatusCode, decoded
}

func validPayload() map[string]any {
	return map[string]any{
		"event_type":  "pageview",
		"content_id":  "content-42",
		"user_id":     "user-7",
		"device_type": "desktop",
		"timestamp":   1756202400,
		"page_url":    "https://example.com/films/42",
	}
}

func TestPostEvent_Accepted(t *testing.T) {
	app := newTestApp(t, testService(t, 100))

	status, body := postJSON(t, app, "/events", validPayload())
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["accepted"])
	assert.NotEmpty(t, body["token"])
}

func TestPostEvent_MalformedBody(t *testing.T) {
	app := newTestApp(t, testService(t, 100))

	req := httptest.NewRequest(fiber.MethodPost, "/events", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	errInfo := body["error"].(map[string]any)
	assert.Equal(t, "MalformedRequest", errInfo["code"])
}

func TestPostEvent_ValidationFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(payload map[string]any)
		code   string
	}{
		{
			name:   "missing user_id",
			mutate: func(p map[string]any) { delete(p, "user_id") },
			code:   "MissingTag",
		},
		{
			name:   "device_type outside closed set",
			mutate: func(p map[string]any) { p["device_type"] = "smartwatch" },
			code:   "InvalidTagValue",
		},
		{
			name:   "field from another variant",
			mutate: func(p map[string]any) { p["purchase_value"] = 19.99 },
			code:   "FieldNotApplicable",
		},
		{
			name:   "unknown event_type",
			mutate: func(p map[string]any) { p["event_type"] = "teleport" },
			code:   "UnknownEventType",
		},
	}

	app := newTestApp(t, testService(t, 100))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := validPayload()
			tc.mutate(payload)

			status, body := postJSON(t, app, "/events", payload)
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, false, body["accepted"])
			errInfo := body["error"].(map[string]any)
			assert.Equal(t, tc.code, errInfo["code"])
		})
	}
}

func TestPostEvent_QueueFull(t *testing.T) {
	svc := testService(t, 1)
	// Stop the flush loop so the single queue slot stays occupied.
	require.NoError(t, services.ShutdownEventService(svc))
	app := newTestApp(t, svc)

	status, _ := postJSON(t, app, "/events", validPayload())
	require.Equal(t, fiber.StatusOK, status)

	status, body := postJSON(t, app, "/events", validPayload())
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	errInfo := body["error"].(map[string]any)
	assert.Equal(t, "QueueFull", errInfo["code"])
}

func TestPostEventsBulk_PartialAcceptance(t *testing.T) {
	app := newTestApp(t, testService(t, 100))

	bad := validPayload()
	bad["device_type"] = "smartwatch"

	status, body := postJSON(t, app, "/events/bulk", []map[string]any{validPayload(), bad})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(2), body["total_count"])
	assert.Equal(t, float64(1), body["accepted_count"])
	assert.Equal(t, float64(1), body["rejected_count"])

	results := body["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, true, first["accepted"])
	second := results[1].(map[string]any)
	errInfo := second["error"].(map[string]any)
	assert.Equal(t, "InvalidTagValue", errInfo["code"])
}

func TestPostEventsBulk_EmptyArray(t *testing.T) {
	app := newTestApp(t, testService(t, 100))

	status, body := postJSON(t, app, "/events/bulk", []map[string]any{})
	assert.Equal(t, fiber.StatusBadRequest, status)
	errInfo := body["error"].(map[string]any)
	assert.Equal(t, "MalformedRequest", errInfo["code"])
}

func TestGetMetrics(t *testing.T) {
	svc := testService(t, 100)
	app := newTestApp(t, svc)

	_, _ = postJSON(t, app, "/events", validPayload())

	req := httptest.NewRequest(fiber.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	var body domain.MetricsResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.True(t, body.Success)
	assert.Equal(t, uint64(1), body.Writer.Enqueued)
}

func TestMethodNotAllowed(t *testing.T) {
	app := newTestApp(t, testService(t, 100))

	req := httptest.NewRequest(fiber.MethodGet, "/events", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthCheck_UninitializedBackend(t *testing.T) {
	app := newTestApp(t, testService(t, 100))

	req := httptest.NewRequest(fiber.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	// The backend client is not initialized, so the overall check fails.
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthCheck_RedisOptional(t *testing.T) {
	require.NoError(t, database.InitTimeSeries(&config.BackendConfig{
		URL:            newStubBackend(t),
		WriteTimeoutMS: 1000,
	}))
	app := newTestApp(t, testService(t, 100))

	req := httptest.NewRequest(fiber.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Redis was never initialized: duplicate suppression is off but the
	// service itself is healthy.
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "healthy", body["status"])
	services := body["services"].(map[string]any)
	redis := services["redis"].(map[string]any)
	assert.Equal(t, "disabled", redis["status"])
}

// newStubBackend starts a stub backend answering /ping.
func newStubBackend(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)
	return server.URL
}
