package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/satriahrh/cocoa-fruit/shagen/adapters/session"
	"github.com/satriahrh/cocoa-fruit/shagen/domain"
	"github.com/satriahrh/cocoa-fruit/shagen/usecase"
	"github.com/satriahrh/cocoa-fruit/shagen/utils/log"
	"go.uber.org/zap"
)

const sessionIDKey = "session_id"

type Server struct {
	upgrader      websocket.Upgrader
	hasher        domain.Hasher
	messageBroker domain.MessageBroker
	tokens        *session.Tokens
	presenterCfg  usecase.PresenterConfig
	hub           *Hub
}

func NewServer(hasher domain.Hasher, messageBroker domain.MessageBroker, tokens *session.Tokens, presenterCfg usecase.PresenterConfig, allowedOrigins []string) *Server {
	return &Server{
		upgrader:      websocket.Upgrader{CheckOrigin: checkOrigin(allowedOrigins)},
		hasher:        hasher,
		messageBroker: messageBroker,
		tokens:        tokens,
		presenterCfg:  presenterCfg,
		hub:           NewHub(),
	}
}

func (s *Server) RunWebsocketHub() {
	s.hub.Run()
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// JWTMiddleware validates the session token. Browsers cannot set headers on a
// websocket handshake, so the token travels in the "token" query parameter.
func (s *Server) JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing session token")
		}

		claims, err := s.tokens.Parse(token)
		if err != nil {
			log.With(zap.String("client_ip", c.RealIP())).Debug("Session token rejected", zap.Error(err))
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid session token")
		}

		if s.hub.IsSessionConnected(claims.SessionID) {
			return echo.NewHTTPError(http.StatusConflict, "Session already connected")
		}

		c.Set(sessionIDKey, claims.SessionID)
		return next(c)
	}
}

// attach wires a connected client to a fresh presenter and forwards the
// presenter's events to the socket until the connection ends.
func (s *Server) attach(client *Client, presenter *usecase.Presenter) error {
	ctx := client.Context()

	events, err := s.messageBroker.Subscribe(ctx, domain.PresenterTopic, client.SessionID())
	if err != nil {
		return err
	}

	go presenter.Run(ctx)

	go func() {
		for {
			select {
			case msg, ok := <-events:
				if !ok {
					return
				}
				if err := client.SendMessage(msg.Payload); err != nil {
					log.WithCtx(ctx).Debug("Dropped presenter event", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// inbound decodes a page message and routes it to the presenter.
func inbound(ctx context.Context, presenter *usecase.Presenter) func(message []byte) {
	return func(message []byte) {
		var msg domain.InboundMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.WithCtx(ctx).Debug("Ignoring malformed message", zap.Error(err))
			return
		}

		switch msg.Type {
		case domain.InboundSubmit:
			if err := presenter.Submit(msg.Text); err != nil {
				log.WithCtx(ctx).Debug("Submission dropped", zap.Error(err))
			}
		default:
			log.WithCtx(ctx).Debug("Ignoring unknown message type", zap.String("type", msg.Type))
		}
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	for _, origin := range allowed {
		if origin == "*" {
			return func(r *http.Request) bool { return true }
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, candidate := range allowed {
			if strings.EqualFold(origin, candidate) {
				return true
			}
		}
		// Same-origin pages are always allowed.
		return strings.EqualFold(strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://"), r.Host)
	}
}
