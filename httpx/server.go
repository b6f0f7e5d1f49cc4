package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Server runs an App on a listening address with request logging, panic
// recovery and optional CORS.
type Server struct {
	app      *App
	http     *http.Server
	logger   *zap.Logger
	shutdown time.Duration
	cors     []string
}

// RouteRegistrar mounts a set of routes on the server's App.
type RouteRegistrar func(*App)

func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		app:      New(),
		http:     &http.Server{Addr: ":8080", ReadHeaderTimeout: 10 * time.Second},
		logger:   zap.NewNop(),
		shutdown: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := s.app.e
	e.Use(requestLogger(s.logger))
	e.Use(middleware.Recover())
	if s.cors != nil {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.cors,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		}))
	}
	s.http.Handler = e
	return s
}

func (s *Server) RegisterRoutes(reg RouteRegistrar) {
	if reg != nil {
		reg(s.app)
	}
}

// Handler exposes the middleware-wrapped router, for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func (s *Server) Address() string { return s.http.Addr }

// Start serves until ctx is done, then drains in-flight requests for up to
// the shutdown timeout. It returns ctx.Err() after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("address", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server forced to shutdown", zap.Error(err))
	}
	return ctx.Err()
}

func requestLogger(logger *zap.Logger) MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Debug("request", fields...)
			return nil
		},
	})
}
