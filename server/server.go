// Package server assembles the HTTP surface: the echo instance, the
// completion gateway, the session controller and the REST routes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gaslightgpt/gaslightgpt/ai"
	"github.com/gaslightgpt/gaslightgpt/internal/profile"
	"github.com/gaslightgpt/gaslightgpt/server/router/apiv1"
	"github.com/gaslightgpt/gaslightgpt/server/session"
	"github.com/gaslightgpt/gaslightgpt/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	gateway    *ai.Gateway
	session    *session.Controller
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.Debug = profile.IsDev()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogger())

	gateway := ai.NewGateway(ai.GatewayConfig{
		GroqAPIKey: profile.GroqAPIKey,
		GroqModel:  profile.GroqModel,
		Timeout:    profile.LLMTimeout,
	})

	controller := session.NewController(store, gateway)
	if err := controller.Resume(ctx); err != nil {
		slog.Warn("failed to resume previous session", "error", err)
	}

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: e,
		gateway:    gateway,
		session:    controller,
	}

	apiv1.NewAPIV1Service(profile, store, gateway, controller).RegisterRoutes(e)

	e.GET("/config", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]int{"port": profile.Port})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s, nil
}

// Start launches the listener without blocking the caller.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- s.echoServer.Start(address)
	}()
	select {
	case err := <-listenErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrapf(err, "failed to listen on %s", address)
		}
		return nil
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
	slog.Info("server stopped")
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				slog.Error("request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"error", v.Error,
				)
				return nil
			}
			slog.Debug("request completed",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	})
}
