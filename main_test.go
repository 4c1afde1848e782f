package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/satriahrh/cocoa-fruit/shagen/adapters/hasher"
	"github.com/satriahrh/cocoa-fruit/shagen/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHasherSelectsBackend(t *testing.T) {
	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)

	_, remote := newHasher(cfg).(*hasher.RemoteHasher)
	assert.False(t, remote)

	cfg.Hasher.Backend = config.HasherRemote
	cfg.Hasher.Remote.URL = "http://127.0.0.1:1/digest"
	_, remote = newHasher(cfg).(*hasher.RemoteHasher)
	assert.True(t, remote)
}

func TestNewEchoSetsSecurityHeaders(t *testing.T) {
	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)

	e := newEcho(cfg)
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
}
