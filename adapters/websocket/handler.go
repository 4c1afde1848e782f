package websocket

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/satriahrh/cocoa-fruit/shagen/domain"
	"github.com/satriahrh/cocoa-fruit/shagen/usecase"
	"github.com/satriahrh/cocoa-fruit/shagen/utils/log"
	"go.uber.org/zap"
)

// Handler upgrades "/ws" and binds the connection to a presenter session.
func (s *Server) Handler(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	sessionID := c.Get(sessionIDKey).(string)
	ctx := log.WithSession(context.Background(), sessionID, c.RealIP(), c.Request().UserAgent())

	presenter := usecase.NewPresenter(sessionID, s.hasher, s.messageBroker, s.presenterCfg)
	client := NewClient(ctx, conn, sessionID, inbound(ctx, presenter))
	s.hub.Register(client)

	if err := s.attach(client, presenter); err != nil {
		log.WithCtx(ctx).Error("Failed to subscribe to presenter events", zap.Error(err))
		s.hub.Unregister(client)
		return nil
	}
	client.Run()

	log.WithCtx(ctx).Info("Presenter session started")

	// Wait for the client context to be done (connection closed)
	<-client.Context().Done()

	presenter.Close()
	<-presenter.Stopped()
	s.messageBroker.Unsubscribe(domain.PresenterTopic, sessionID)
	s.hub.Unregister(client)

	log.WithCtx(ctx).Info("Presenter session ended")
	return nil
}
