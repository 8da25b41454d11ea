package di

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allusionapp/allusion-server/internal/config"
	"github.com/allusionapp/allusion-server/internal/di/providers"
	"github.com/allusionapp/allusion-server/internal/service"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App:    config.AppConfig{Environment: "development"},
		Logger: config.LoggerConfig{Level: "error", Format: "json"},
		Data:   config.DataConfig{BasePath: t.TempDir()},
		Server: config.ServerConfig{
			Port:         "8080",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			IdleTimeout:  time.Second,
		},
		RateLimit: config.RateLimitConfig{Enabled: true, RPS: 10, Burst: 10},
	}
}

func TestBootstrap_WiresServer(t *testing.T) {
	injector := NewContainer()
	do.OverrideValue(injector, testConfig(t))
	t.Cleanup(func() { _ = injector.Shutdown() })

	require.NoError(t, Bootstrap(injector))

	h := do.MustInvoke[*service.HierarchyService](injector)
	assert.NoError(t, h.CheckInvariants())

	srv := do.MustInvoke[*providers.HTTPServerHandle](injector)
	assert.Equal(t, ":8080", srv.Addr)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestBootstrap_RateLimitDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.Enabled = false

	injector := NewContainer()
	do.OverrideValue(injector, cfg)
	t.Cleanup(func() { _ = injector.Shutdown() })

	require.NoError(t, Bootstrap(injector))
	assert.Nil(t, do.MustInvoke[*providers.RateLimiterHandle](injector).Limiter)
}
