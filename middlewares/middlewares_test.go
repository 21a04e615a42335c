package middlewares_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	guildboard "github.com/guildboard/guildboard"
	"github.com/guildboard/guildboard/middlewares"
)

func newApp(t *testing.T, mw ...guildboard.Middleware) *guildboard.App {
	t.Helper()
	app := guildboard.New(guildboard.WithMiddleware(mw...))
	app.GET("/echo", func(r *guildboard.Request) (guildboard.Response, error) {
		return guildboard.JSON(http.StatusOK, map[string]string{
			"request_id": middlewares.RequestIDFromContext(r.Context()),
		}), nil
	})
	app.GET("/boom", func(*guildboard.Request) error {
		panic("kaboom")
	})
	app.GET("/fail", func(*guildboard.Request) error {
		return guildboard.NewHTTPError(http.StatusTeapot, "not today")
	})
	require.NoError(t, app.Err())
	return app
}

func do(app *guildboard.App, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	app.Router().ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates an ID and exposes it", func(t *testing.T) {
		t.Parallel()
		app := newApp(t, middlewares.RequestID())

		w := do(app, "/echo", nil)
		require.Equal(t, http.StatusOK, w.Code)

		id := w.Header().Get(middlewares.RequestIDHeader)
		require.NoError(t, uuid.Validate(id))

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, id, body["request_id"], "context sees the same ID as the header")
	})

	t.Run("reuses the client-supplied ID", func(t *testing.T) {
		t.Parallel()
		app := newApp(t, middlewares.RequestID())

		w := do(app, "/echo", http.Header{middlewares.RequestIDHeader: {"req-abc"}})
		require.Equal(t, "req-abc", w.Header().Get(middlewares.RequestIDHeader))
	})

	t.Run("empty context yields empty ID", func(t *testing.T) {
		t.Parallel()
		require.Empty(t, middlewares.RequestIDFromContext(t.Context()))
	})
}

func TestRequestIDLogExtractor(t *testing.T) {
	t.Parallel()

	extract := middlewares.RequestIDLogExtractor()

	_, ok := extract(t.Context())
	require.False(t, ok, "no attribute without a request ID")
}

func TestRecover(t *testing.T) {
	t.Parallel()
	app := newApp(t, middlewares.Recover())

	w := do(app, "/boom", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "kaboom", "panic detail stays out of the response")
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("logs status and path on success", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, nil))
		app := newApp(t, middlewares.RequestLogger(log))

		do(app, "/echo", nil)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "request", line["msg"])
		require.Equal(t, "/echo", line["path"])
		require.EqualValues(t, http.StatusOK, line["status"])
	})

	t.Run("handler errors arrive as rendered responses", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, nil))
		app := newApp(t, middlewares.RequestLogger(log))

		do(app, "/fail", nil)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "request", line["msg"])
		require.EqualValues(t, http.StatusTeapot, line["status"])
	})

	t.Run("logs errors crossing the chain", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, nil))

		// Panics recovered outside the boundary reach the logger as
		// errors, so it reports the error instead of a status.
		app := newApp(t, middlewares.RequestLogger(log), middlewares.Recover())

		do(app, "/boom", nil)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "request failed", line["msg"])
		require.Contains(t, line["error"], "kaboom")
	})
}
