package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/satriahrh/cocoa-fruit/shagen/adapters/session"
	"github.com/satriahrh/cocoa-fruit/shagen/adapters/websocket"
	"github.com/satriahrh/cocoa-fruit/shagen/domain"
	"github.com/satriahrh/cocoa-fruit/shagen/utils/log"
	"go.uber.org/zap"
)

const (
	MaxConcurrent = 32
	ServiceName   = "sha512-generator"
)

type DigestHandler struct {
	hasher domain.Hasher
	tokens *session.Tokens
	wsHub  *websocket.Hub
}

type DigestRequest struct {
	Text string `json:"text"`
}

type SessionResponse struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

func NewDigestHandler(hasher domain.Hasher, tokens *session.Tokens, wsHub *websocket.Hub) *DigestHandler {
	return &DigestHandler{
		hasher: hasher,
		tokens: tokens,
		wsHub:  wsHub,
	}
}

// Digest hashes the submitted text and answers with the envelope that
// domain.ExtractDigest understands.
func (h *DigestHandler) Digest(c echo.Context) error {
	var req DigestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, domain.ErrEmptyInput.Error())
	}

	ctx := c.Request().Context()
	digest, err := h.hasher.ComputeDigest(ctx, req.Text)
	if err != nil {
		log.WithCtx(ctx).Error("Error processing hash", zap.Error(err), zap.String("client_ip", c.RealIP()))
		return echo.NewHTTPError(statusFor(err), "Failed to compute digest")
	}

	return c.JSON(http.StatusOK, domain.HashEnvelope{
		Data: &domain.HashPayload{
			Hash:      digest.String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		},
		Status:  http.StatusOK,
		Message: "ok",
	})
}

// CreateSession issues a token the page uses to open its presenter socket.
func (h *DigestHandler) CreateSession(c echo.Context) error {
	token, sessionID, err := h.tokens.Issue()
	if err != nil {
		log.With(zap.String("client_ip", c.RealIP())).Error("Error issuing session token", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}

	return c.JSON(http.StatusOK, SessionResponse{
		Token:     token,
		Type:      "Bearer",
		SessionID: sessionID,
	})
}

// Rate limiting middleware
func (h *DigestHandler) RateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	semaphore := make(chan struct{}, MaxConcurrent)
	return func(c echo.Context) error {
		select {
		case semaphore <- struct{}{}:
			defer func() { <-semaphore }()
			return next(c)
		default:
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many concurrent requests")
		}
	}
}

// Health check endpoint
func (h *DigestHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   ServiceName,
		"sessions":  h.wsHub.ClientCount(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrFormat):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
