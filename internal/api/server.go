// Package api assembles the HTTP server: middleware, error handling, the
// generator's own PWA files, health and metrics, and the v2 REST API.
package api

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	apiv2 "github.com/pwaspark/pwagen/internal/api/v2"
	"github.com/pwaspark/pwagen/internal/auth"
	"github.com/pwaspark/pwagen/internal/conf"
	"github.com/pwaspark/pwagen/internal/logger"
	"github.com/pwaspark/pwagen/internal/monitoring"
	"github.com/pwaspark/pwagen/internal/records"
)

// HealthFunc reports whether a dependency is usable.
type HealthFunc func(ctx context.Context) error

// Options carries the Server's collaborators. Verifier, Metrics and Health
// may be nil.
type Options struct {
	Settings *conf.Settings
	Records  *records.Service
	Verifier *auth.Verifier
	Metrics  *monitoring.Metrics
	Health   HealthFunc
	Logger   logger.Logger
}

// Server is the pwagen HTTP server.
type Server struct {
	echo     *echo.Echo
	settings *conf.Settings
	health   HealthFunc
	log      logger.Logger
	ctrl     *apiv2.Controller
	self     *selfArtifacts
	httpSrv  *http.Server
}

// NewServer builds the echo instance and registers every route.
func NewServer(opts Options) (*Server, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	settings := opts.Settings
	if settings == nil {
		settings = &conf.Settings{}
	}

	self, err := renderSelfArtifacts(settings.Main.Name)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		settings: settings,
		health:   opts.Health,
		log:      log.Module("http"),
		self:     self,
	}
	s.registerMiddlewares(opts.Verifier)

	s.ctrl = apiv2.New(e, apiv2.Options{
		Records:         opts.Records,
		Metrics:         opts.Metrics,
		CacheTTL:        settings.Cache.TTL.Std(),
		CleanupInterval: settings.Cache.CleanupInterval.Std(),
		Logger:          log,
	})
	s.registerPWARoutes()

	e.GET("/health", s.handleHealth)
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()))
	}
	return s, nil
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo { return s.echo }

// Controller returns the v2 API controller.
func (s *Server) Controller() *apiv2.Controller { return s.ctrl }

func (s *Server) registerMiddlewares(verifier *auth.Verifier) {
	e := s.echo

	if len(s.settings.Server.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.settings.Server.CORSOrigins,
			AllowHeaders: slices.Concat(middleware.DefaultCORSConfig.AllowHeaders, []string{echo.HeaderAuthorization}),
			AllowMethods: middleware.DefaultCORSConfig.AllowMethods,
		}))
	}
	e.Use(s.requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(reportServerErrors())
	e.Use(auth.Middleware(verifier, s.log))

	e.HTTPErrorHandler = s.errorHandler
}

// requestLogger logs every handled request except health probes.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err == nil && c.Path() != "/health" {
				s.log.Info("handled request",
					logger.String("method", c.Request().Method),
					logger.String("path", c.Request().URL.Path),
					logger.Int("status", c.Response().Status),
					logger.Duration("duration", time.Since(start)))
			}
			return err
		}
	}
}

// reportServerErrors sends the cause of a 5xx written by a controller to
// Sentry.
func reportServerErrors() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if cause, ok := c.Get(apiv2.ErrorContextKey).(error); ok {
				monitoring.Alert(c.Request().Method+" "+c.Path(), cause)
			}
			return err
		}
	}
}

// errorHandler handles errors returned by handlers and middleware.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			message = m
		case error:
			message = m.Error()
		default:
			message = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		s.log.Error("request failed",
			logger.String("method", c.Request().Method),
			logger.String("path", c.Request().URL.Path),
			logger.Error(err))
		monitoring.Alert("unhandled request error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if werr := c.JSON(code, apiv2.ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	}); werr != nil {
		s.log.Error("could not send error response", logger.Error(werr))
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Start listens on the configured address and blocks until the server stops.
// It returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	srv := s.settings.Server
	s.httpSrv = &http.Server{
		Addr:         srv.Listen,
		Handler:      s.echo,
		ReadTimeout:  srv.ReadTimeout.Std(),
		WriteTimeout: srv.WriteTimeout.Std(),
	}
	s.log.Info("http server listening", logger.String("addr", srv.Listen))
	if err := s.echo.StartServer(s.httpSrv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
