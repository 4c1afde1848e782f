package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRenders(t *testing.T) {
	t.Parallel()

	page, err := NewPage(PageData{
		Title:       "SHA-512 GENERATOR",
		SessionPath: "/api/v1/session",
		SocketPath:  "/ws",
	})
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, page.Handler(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, "SHA-512 GENERATOR")
	assert.Contains(t, body, "Enter text to hash...")
	assert.Contains(t, body, "GENERATE HASH")
	assert.Contains(t, body, "Input required")
	assert.Contains(t, body, `"/api/v1/session"`)
	assert.Contains(t, body, `"/ws"`)
}
