package obs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("", "dev"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("", "prod"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING", "dev"))
	assert.Equal(t, slog.LevelError, ParseLevel("error", "prod"))
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "prod", "info")
	logger.Debug("hidden")
	logger.Info("visible", "car_id", "c1")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"car_id":"c1"`)
}

func TestRequestIDAndHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	mw := Middleware{}
	router.Use(mw.RequestID())
	router.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c.Request.Context()))
	})
	healthy := HealthHandlers{Checks: map[string]Check{"store": func(context.Context) error { return nil }}}
	broken := HealthHandlers{Checks: map[string]Check{"store": func(context.Context) error { return errors.New("down") }}}
	router.GET("/livez", healthy.Livez)
	router.GET("/readyz", healthy.Readyz)
	router.GET("/broken", broken.Readyz)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("X-Request-ID", "abc")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", rec.Body.String())
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/id", nil))
	assert.NotEmpty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/broken", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "down")
}

type propagatedKey struct{}

func TestAccessLogAndPropagation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	mw := Middleware{
		Logger: NewLoggerTo(&buf, "prod", "info"),
		Propagate: func(ctx context.Context, id string) context.Context {
			return context.WithValue(ctx, propagatedKey{}, "copy-"+id)
		},
	}
	router := gin.New()
	router.Use(mw.RequestID(), mw.LoggerMiddleware())
	router.GET("/cars/:id", func(c *gin.Context) {
		v, _ := c.Request.Context().Value(propagatedKey{}).(string)
		c.String(http.StatusNotFound, v)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cars/ghost", nil)
	req.Header.Set("X-Request-ID", "r-1")
	router.ServeHTTP(rec, req)

	assert.Equal(t, "copy-r-1", rec.Body.String())
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"route":"/cars/:id"`)
	assert.Contains(t, buf.String(), `"status":404`)
	assert.Contains(t, buf.String(), `"request_id":"r-1"`)
}
