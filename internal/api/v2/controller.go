// Package api implements the v2 REST endpoints: artifact generation, saved
// app records and the hosted app pages served from those records.
package api

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/pwaspark/pwagen/internal/errors"
	"github.com/pwaspark/pwagen/internal/logger"
	"github.com/pwaspark/pwagen/internal/monitoring"
	"github.com/pwaspark/pwagen/internal/records"
)

// Prefix is the path all v2 endpoints are registered under.
const Prefix = "/api/v2"

// Controller owns the v2 route handlers.
type Controller struct {
	Echo  *echo.Echo
	Group *echo.Group

	records  *records.Service
	metrics  *monitoring.Metrics
	hosted   *hostedCache
	validate *validator.Validate
	logger   logger.Logger
}

// Options carries the Controller's collaborators. Metrics may be nil.
type Options struct {
	Records         *records.Service
	Metrics         *monitoring.Metrics
	CacheTTL        time.Duration
	CleanupInterval time.Duration
	Logger          logger.Logger
}

// New creates a Controller and registers its routes on e.
func New(e *echo.Echo, opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	c := &Controller{
		Echo:     e,
		Group:    e.Group(Prefix),
		records:  opts.Records,
		metrics:  opts.Metrics,
		hosted:   newHostedCache(opts.CacheTTL, opts.CleanupInterval),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   log.Module("api"),
	}
	c.initGenerateRoutes()
	c.initPWARoutes()
	c.initHostedRoutes()
	return c
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error     string       `json:"error"`
	Message   string       `json:"message"`
	Code      int          `json:"code"`
	Retryable bool         `json:"retryable,omitempty"`
	Fields    []FieldError `json:"fields,omitempty"`
}

// FieldError describes one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// HandleError writes an error response. Typed record and validation errors
// override the fallback status code.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := ErrorResponse{Error: err.Error(), Message: message, Code: code}

	var verrs validator.ValidationErrors
	switch {
	case records.IsAuthentication(err):
		resp.Code = http.StatusUnauthorized
		resp.Message = "Authentication required"
	case records.IsQuota(err):
		resp.Code = http.StatusForbidden
		resp.Message = "App limit reached"
	case records.IsStorage(err):
		resp.Code = http.StatusServiceUnavailable
		resp.Retryable = true
	case errors.As(err, &verrs):
		resp.Code = http.StatusBadRequest
		resp.Error = "validation failed"
		for _, fe := range verrs {
			resp.Fields = append(resp.Fields, FieldError{
				Field: fe.Namespace(),
				Rule:  fe.Tag(),
				Param: fe.Param(),
			})
		}
	}

	if resp.Code >= http.StatusInternalServerError {
		c.logErrorIfEnabled(message,
			logger.String("path", ctx.Path()),
			logger.Int("status", resp.Code),
			logger.Error(err))
		// The server's error handler reports 5xx to Sentry.
		ctx.Set(ErrorContextKey, err)
	}
	return ctx.JSON(resp.Code, resp)
}

// ErrorContextKey holds the cause of a 5xx response for error reporting.
const ErrorContextKey = "api_error"

func (c *Controller) badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "bad request",
		Message: message,
		Code:    http.StatusBadRequest,
	})
}

func (c *Controller) notFound(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusNotFound, ErrorResponse{
		Error:   "not found",
		Message: message,
		Code:    http.StatusNotFound,
	})
}

func (c *Controller) logErrorIfEnabled(msg string, fields ...logger.Field) {
	if c.logger.Enabled(logger.LogLevelError) {
		c.logger.Error(msg, fields...)
	}
}

func (c *Controller) logInfoIfEnabled(msg string, fields ...logger.Field) {
	if c.logger.Enabled(logger.LogLevelInfo) {
		c.logger.Info(msg, fields...)
	}
}

// observe records an artifact generation started at start.
func (c *Controller) observe(kind string, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveGeneration(kind, time.Since(start).Seconds())
	}
}
