package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "luxrent/internal/app/outbox"
	"luxrent/internal/infra/config"
	ginserver "luxrent/internal/infra/http/gin"
	"luxrent/internal/infra/obs"
)

const smokeFixtures = `cars:
  - id: smoke-phantom
    brand: Rolls-Royce
    model: Phantom
    pricing:
      daily: 100
      weekly: "600"
`

func TestMemoryApplication(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cars.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smokeFixtures), 0o600))

	v := config.New()
	v.Set("storage_mode", config.StorageMemory)
	v.Set("cars_fixtures", path)
	v.Set("kafka_brokers", "")
	v.Set("booking_timezone", "UTC")
	cfg, err := config.Load(v)
	require.NoError(t, err)

	logger := obs.NewLoggerTo(io.Discard, "test", "error")
	app, err := buildApplication(ctx, cfg, logger)
	require.NoError(t, err)
	defer app.close(ctx, logger)
	assert.Nil(t, app.consumer, "no brokers configured")
	require.NotNil(t, app.worker)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Propagate: appoutbox.WithCorrelationID}, obs.HealthHandlers{Checks: app.checks}, app.handlers)
	do := func(method, target string, body any, headers map[string]string) (int, map[string]any) {
		var reader io.Reader = http.NoBody
		if body != nil {
			raw, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
		req := httptest.NewRequest(method, target, reader)
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		server.Handler.ServeHTTP(rec, req)
		var out map[string]any
		if rec.Body.Len() > 0 {
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
		}
		return rec.Code, out
	}

	code, _ := do(http.MethodGet, "/livez", nil, nil)
	assert.Equal(t, http.StatusOK, code)

	start := time.Now().UTC().AddDate(0, 0, 30)
	from, to := start.Format(time.DateOnly), start.AddDate(0, 0, 9).Format(time.DateOnly)

	code, quote := do(http.MethodGet, "/api/v1/cars/smoke-phantom/quote?start="+from+"&end="+to+"&tier=weekly", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, quote["periods"])
	assert.EqualValues(t, 1200, quote["total_price"])
	assert.Equal(t, true, quote["bookable"])

	booking := map[string]any{
		"car_id":   "smoke-phantom",
		"start":    from,
		"end":      to,
		"tier":     "weekly",
		"customer": map[string]any{"name": "Ada"},
	}
	code, first := do(http.MethodPost, "/api/v1/bookings", booking, map[string]string{"Idempotency-Key": "smoke-1"})
	require.Equal(t, http.StatusAccepted, code)
	code, again := do(http.MethodPost, "/api/v1/bookings", booking, map[string]string{"Idempotency-Key": "smoke-1"})
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, first["request_id"], again["request_id"])

	code, _ = do(http.MethodGet, "/api/v1/cars/missing/quote", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMemoryApplicationBadFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cars.yaml")
	broken := "cars:\n  - id: bad\n    unavailableDates:\n      - from: someday\n        to: 2026-01-01\n"
	require.NoError(t, os.WriteFile(path, []byte(broken), 0o600))

	v := config.New()
	v.Set("storage_mode", config.StorageMemory)
	v.Set("cars_fixtures", path)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	_, err = buildApplication(context.Background(), cfg, obs.NewLoggerTo(io.Discard, "test", "error"))
	assert.ErrorContains(t, err, "seed cars")
}
