package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/satriahrh/cocoa-fruit/shagen/adapters/hasher"
	httpadapter "github.com/satriahrh/cocoa-fruit/shagen/adapters/http"
	"github.com/satriahrh/cocoa-fruit/shagen/adapters/message_broker"
	"github.com/satriahrh/cocoa-fruit/shagen/adapters/session"
	"github.com/satriahrh/cocoa-fruit/shagen/adapters/web"
	"github.com/satriahrh/cocoa-fruit/shagen/adapters/websocket"
	"github.com/satriahrh/cocoa-fruit/shagen/config"
	"github.com/satriahrh/cocoa-fruit/shagen/domain"
	"github.com/satriahrh/cocoa-fruit/shagen/usecase"
	"github.com/satriahrh/cocoa-fruit/shagen/utils/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "shagen",
		Short: "SHA-512 generator web service",
		Long: `Serves a single page that hashes text with SHA-512 and reveals the digest
one character at a time.

Examples:
  shagen                        # Start with defaults on :8080
  shagen --port 9000            # Custom port
  shagen --config shagen.yaml   # Load settings from a YAML file`,
		RunE:         runServer,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringP("config", "c", "", "config file path")
	rootCmd.Flags().String("host", "", "listen host (overrides config)")
	rootCmd.Flags().Int("port", 0, "listen port (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	defer log.Sync()

	// A missing .env is fine.
	_ = gotenv.Load()

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}

	digestHasher := newHasher(cfg)
	broker := message_broker.NewChannelMessageBroker(message_broker.DefaultCapacity)
	defer broker.Close()

	tokens := session.NewTokens(cfg.Session.Secret, cfg.Session.Expiry)
	presenterCfg := usecase.PresenterConfig{
		RevealInterval: cfg.Presenter.RevealInterval,
		ErrorDuration:  cfg.Presenter.ErrorDuration,
	}

	server := websocket.NewServer(digestHasher, broker, tokens, presenterCfg, cfg.Security.Origins())
	server.RunWebsocketHub()

	digestHandler := httpadapter.NewDigestHandler(digestHasher, tokens, server.GetHub())

	page, err := web.NewPage(web.PageData{
		Title:       "SHA-512 GENERATOR",
		SessionPath: "/api/v1/session",
		SocketPath:  "/ws",
	})
	if err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}

	e := newEcho(cfg)

	e.GET("/", page.Handler)

	wsGroup := e.Group("/ws")
	wsGroup.Use(server.JWTMiddleware)
	wsGroup.GET("", server.Handler)

	api := e.Group("/api/v1")
	api.GET("/health", digestHandler.HealthCheck)
	api.POST("/session", digestHandler.CreateSession)

	digest := api.Group("/digest")
	digest.Use(digestHandler.RateLimitMiddleware)
	digest.POST("", digestHandler.Digest)

	logger := log.Logger()
	logger.Info("Starting server", zap.String("address", cfg.Address()), zap.String("hasher", cfg.Hasher.Backend))
	logger.Info("Available endpoints",
		zap.Strings("routes", []string{
			"GET  /                 - Page",
			"GET  /api/v1/health    - Health check",
			"POST /api/v1/session   - Get session token",
			"POST /api/v1/digest    - Hash text",
			"GET  /ws               - Presenter socket (token required)",
		}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newHasher(cfg *config.Config) domain.Hasher {
	if cfg.Hasher.Backend == config.HasherRemote {
		remote := cfg.Hasher.Remote
		return hasher.NewRemote(hasher.RemoteConfig{
			URL:                 remote.URL,
			Timeout:             remote.Timeout,
			MaxRequests:         remote.MaxRequests,
			Interval:            remote.Interval,
			OpenTimeout:         remote.OpenTimeout,
			ConsecutiveFailures: remote.ConsecutiveFailures,
		})
	}
	return hasher.New()
}

func newEcho(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	logger := log.Logger()
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				logger.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	if cfg.Security.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.Security.RateLimit))))
	}

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Security.Origins(),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
		MaxAge: 86400,
	}))

	e.Use(middleware.BodyLimit(cfg.Security.BodyLimit))

	return e
}
