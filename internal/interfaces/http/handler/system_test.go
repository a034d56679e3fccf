package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/rms/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestSystemHandler(t *testing.T) {
	healthy := NewSystemHandler("rms-backend", "1.2.3", pingerFunc(func(context.Context) error { return nil }))

	t.Run("info", func(t *testing.T) {
		r := newTestRouter()
		r.GET("/system/info", healthy.GetSystemInfo)

		w := testutil.DoRequest(r, http.MethodGet, "/system/info", nil)

		require.Equal(t, http.StatusOK, w.Code)
		data := testutil.DecodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "rms-backend", data["name"])
		assert.Equal(t, "1.2.3", data["version"])
		assert.NotEmpty(t, data["go_version"])
	})

	t.Run("ping", func(t *testing.T) {
		r := newTestRouter()
		r.GET("/system/ping", healthy.Ping)

		w := testutil.DoRequest(r, http.MethodGet, "/system/ping", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pong", testutil.DecodeResponse(t, w).Data.(map[string]any)["message"])
	})

	t.Run("health up", func(t *testing.T) {
		r := newTestRouter()
		r.GET("/health", healthy.Health)

		w := testutil.DoRequest(r, http.MethodGet, "/health", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var body HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "up", body.Database)
	})

	t.Run("health down", func(t *testing.T) {
		down := NewSystemHandler("rms-backend", "1.2.3", pingerFunc(func(context.Context) error {
			return errors.New("connection refused")
		}))
		r := newTestRouter()
		r.GET("/health", down.Health)

		w := testutil.DoRequest(r, http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"down"`)
	})
}
