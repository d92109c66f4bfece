package api

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pwaspark/pwagen/internal/logger"
	"github.com/pwaspark/pwagen/internal/monitoring"
	"github.com/pwaspark/pwagen/internal/pwa"
)

const (
	mimeManifest   = "application/manifest+json"
	mimeJavaScript = "application/javascript; charset=utf-8"
	mimeHTML       = "text/html; charset=utf-8"
	mimeZip        = "application/zip"
)

// BundleRequest is the body of POST /generate/bundle.
type BundleRequest struct {
	Config pwa.Config        `json:"config"`
	Worker pwa.WorkerOptions `json:"worker"`
}

// DefaultsResponse is the body of GET /defaults.
type DefaultsResponse struct {
	Config     pwa.Config        `json:"config"`
	Worker     pwa.WorkerOptions `json:"worker"`
	Strategies []pwa.Strategy    `json:"strategies"`
}

// initGenerateRoutes registers the stateless generation endpoints.
func (c *Controller) initGenerateRoutes() {
	gen := c.Group.Group("/generate")
	gen.POST("/manifest", c.GenerateManifest)
	gen.POST("/sw", c.GenerateServiceWorker)
	gen.POST("/index", c.GenerateIndex)
	gen.POST("/bundle", c.GenerateBundle)
	gen.POST("/check", c.CheckConfig)

	c.Group.GET("/categories", c.ListCategories)
	c.Group.GET("/defaults", c.GetDefaults)
}

// bindConfig decodes the request body over DefaultConfig and validates it.
func (c *Controller) bindConfig(ctx echo.Context) (pwa.Config, error) {
	cfg := pwa.DefaultConfig()
	if err := ctx.Bind(&cfg); err != nil {
		return cfg, err
	}
	return cfg, c.validate.Struct(cfg)
}

func (c *Controller) bindWorkerOptions(ctx echo.Context) (pwa.WorkerOptions, error) {
	opts := pwa.DefaultWorkerOptions()
	if err := ctx.Bind(&opts); err != nil {
		return opts, err
	}
	return opts, c.validate.Struct(opts)
}

// bindError maps a bind or validation failure to a 400 response.
func (c *Controller) bindError(ctx echo.Context, err error) error {
	if he, ok := err.(*echo.HTTPError); ok {
		return c.badRequest(ctx, "Invalid request body: "+httpErrorMessage(he))
	}
	return c.HandleError(ctx, err, "Invalid configuration", http.StatusBadRequest)
}

// GenerateManifest renders manifest.json for the posted configuration.
func (c *Controller) GenerateManifest(ctx echo.Context) error {
	start := time.Now()
	cfg, err := c.bindConfig(ctx)
	if err != nil {
		return c.bindError(ctx, err)
	}

	data, err := pwa.GenerateManifest(cfg)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to generate manifest", http.StatusInternalServerError)
	}
	c.observe(monitoring.ArtifactManifest, start)
	return attachment(ctx, pwa.BundleManifest, mimeManifest, data)
}

// GenerateServiceWorker renders sw.js for the posted worker options.
func (c *Controller) GenerateServiceWorker(ctx echo.Context) error {
	start := time.Now()
	opts, err := c.bindWorkerOptions(ctx)
	if err != nil {
		return c.bindError(ctx, err)
	}

	data, err := pwa.GenerateServiceWorker(opts)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to generate service worker", http.StatusInternalServerError)
	}
	c.observe(monitoring.ArtifactWorker, start)
	c.observeStrategy(opts.Strategy)
	return attachment(ctx, pwa.BundleWorker, mimeJavaScript, data)
}

// GenerateIndex renders the bootstrap index.html for the posted configuration.
func (c *Controller) GenerateIndex(ctx echo.Context) error {
	start := time.Now()
	cfg, err := c.bindConfig(ctx)
	if err != nil {
		return c.bindError(ctx, err)
	}

	data, err := pwa.GenerateIndexHTML(cfg)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to generate index page", http.StatusInternalServerError)
	}
	c.observe(monitoring.ArtifactIndex, start)
	return attachment(ctx, pwa.BundleIndex, mimeHTML, data)
}

// GenerateBundle renders every artifact into one zip download.
func (c *Controller) GenerateBundle(ctx echo.Context) error {
	start := time.Now()
	req := BundleRequest{Config: pwa.DefaultConfig(), Worker: pwa.DefaultWorkerOptions()}
	if err := ctx.Bind(&req); err != nil {
		return c.bindError(ctx, err)
	}
	if err := c.validate.Struct(req); err != nil {
		return c.bindError(ctx, err)
	}
	if req.Worker.AppName == "" {
		req.Worker.AppName = req.Config.Name
	}

	var buf bytes.Buffer
	if err := pwa.WriteBundle(&buf, req.Config, req.Worker); err != nil {
		return c.HandleError(ctx, err, "Failed to build bundle", http.StatusInternalServerError)
	}
	c.observe(monitoring.ArtifactBundle, start)
	c.observeStrategy(req.Worker.Strategy)

	c.logInfoIfEnabled("bundle generated",
		logger.String("name", req.Config.Name),
		logger.Int("bytes", buf.Len()))
	return attachment(ctx, pwa.BundleFileName(req.Config.Name), mimeZip, buf.Bytes())
}

// CheckConfig returns advisory warnings. It never rejects a configuration
// for the problems it reports.
func (c *Controller) CheckConfig(ctx echo.Context) error {
	start := time.Now()
	cfg := pwa.DefaultConfig()
	if err := ctx.Bind(&cfg); err != nil {
		return c.bindError(ctx, err)
	}

	warnings := pwa.Check(cfg)
	if warnings == nil {
		warnings = []pwa.Warning{}
	}
	c.observe(monitoring.ArtifactCheck, start)
	return ctx.JSON(http.StatusOK, map[string]any{
		"warnings": warnings,
		"count":    len(warnings),
	})
}

// ListCategories returns the predefined manifest categories.
func (c *Controller) ListCategories(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"categories": pwa.CategoryList(),
	})
}

// GetDefaults returns the starting values for the generator forms.
func (c *Controller) GetDefaults(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, DefaultsResponse{
		Config:     pwa.DefaultConfig(),
		Worker:     pwa.DefaultWorkerOptions(),
		Strategies: pwa.Strategies,
	})
}

func (c *Controller) observeStrategy(s pwa.Strategy) {
	if c.metrics == nil {
		return
	}
	st, ok := pwa.ParseStrategy(string(s))
	if !ok {
		st = pwa.StrategyCacheFirst
	}
	c.metrics.ObserveWorkerStrategy(string(st))
}

func attachment(ctx echo.Context, name, contentType string, data []byte) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return ctx.Blob(http.StatusOK, contentType, data)
}

func httpErrorMessage(he *echo.HTTPError) string {
	if msg, ok := he.Message.(string); ok {
		return msg
	}
	return http.StatusText(he.Code)
}
