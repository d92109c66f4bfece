package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"github.com/pwaspark/pwagen/internal/datastore/entities"
	"github.com/pwaspark/pwagen/internal/events"
	"github.com/pwaspark/pwagen/internal/logger"
	"github.com/pwaspark/pwagen/internal/pwa"
)

const (
	defaultHostedTTL     = 10 * time.Minute
	defaultHostedCleanup = 30 * time.Minute
)

// hostedEntry is the rendered artifact set of one record version.
type hostedEntry struct {
	updatedAt time.Time
	artifacts *pwa.Artifacts
}

// hostedCache keeps rendered hosted apps keyed by record ID. An entry is
// only used while the record's UpdatedAt matches.
type hostedCache struct {
	c *cache.Cache
}

func newHostedCache(ttl, cleanup time.Duration) *hostedCache {
	if ttl <= 0 {
		ttl = defaultHostedTTL
	}
	if cleanup <= 0 {
		cleanup = defaultHostedCleanup
	}
	return &hostedCache{c: cache.New(ttl, cleanup)}
}

func (h *hostedCache) get(rec *entities.PWARecord) (*pwa.Artifacts, bool) {
	v, ok := h.c.Get(rec.ID)
	if !ok {
		return nil, false
	}
	entry := v.(hostedEntry)
	if !entry.updatedAt.Equal(rec.UpdatedAt) {
		return nil, false
	}
	return entry.artifacts, true
}

func (h *hostedCache) set(rec *entities.PWARecord, arts *pwa.Artifacts) {
	h.c.SetDefault(rec.ID, hostedEntry{updatedAt: rec.UpdatedAt, artifacts: arts})
}

func (h *hostedCache) invalidate(id string) {
	h.c.Delete(id)
}

func (h *hostedCache) len() int {
	return h.c.ItemCount()
}

// initHostedRoutes registers the pages that serve a saved app as an
// installable site under /pwas/:id/.
func (c *Controller) initHostedRoutes() {
	hosted := c.Echo.Group("/pwas/:id")
	hosted.GET("", func(ctx echo.Context) error {
		return ctx.Redirect(http.StatusMovedPermanently, "/pwas/"+ctx.Param("id")+"/")
	})
	hosted.GET("/", c.ServeHostedIndex)
	hosted.GET("/index.html", c.ServeHostedIndex)
	hosted.GET("/manifest.json", c.ServeHostedManifest)
	hosted.GET("/sw.js", c.ServeHostedWorker)
}

// EventHandler drops cached hosted artifacts when a record changes
// elsewhere. Subscribe it to the record event bus.
func (c *Controller) EventHandler() events.Handler {
	return func(ev *events.Event) {
		switch ev.Name {
		case events.PWAUpdated, events.PWADeleted:
			c.hosted.invalidate(ev.RecordID)
		}
	}
}

// ServeHostedIndex serves the bootstrap page of a saved app.
func (c *Controller) ServeHostedIndex(ctx echo.Context) error {
	arts, err := c.hostedArtifacts(ctx)
	if arts == nil {
		return err
	}
	return ctx.Blob(http.StatusOK, mimeHTML, arts.Index)
}

// ServeHostedManifest serves the manifest of a saved app with relative
// start URL and scope.
func (c *Controller) ServeHostedManifest(ctx echo.Context) error {
	arts, err := c.hostedArtifacts(ctx)
	if arts == nil {
		return err
	}
	return ctx.Blob(http.StatusOK, mimeManifest, arts.Manifest)
}

// ServeHostedWorker serves the service worker of a saved app.
func (c *Controller) ServeHostedWorker(ctx echo.Context) error {
	arts, err := c.hostedArtifacts(ctx)
	if arts == nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	return ctx.Blob(http.StatusOK, mimeJavaScript, arts.Worker)
}

// hostedArtifacts loads and renders the record named by the :id parameter.
// A nil result means a response has already been written; the returned
// error is the result of writing it.
func (c *Controller) hostedArtifacts(ctx echo.Context) (*pwa.Artifacts, error) {
	rec, err := c.records.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return nil, c.HandleError(ctx, err, "Failed to load app", http.StatusInternalServerError)
	}
	if rec == nil {
		return nil, c.notFound(ctx, "App not found")
	}

	if arts, ok := c.hosted.get(rec); ok {
		return arts, nil
	}

	start := time.Now()
	cfg := rec.Config().ForHosting()
	arts, err := pwa.Render(cfg, pwa.HostedWorkerOptions(cfg.Name))
	if err != nil {
		return nil, c.HandleError(ctx, err, "Failed to render app", http.StatusInternalServerError)
	}
	c.hosted.set(rec, arts)
	c.logger.Debug("hosted app rendered",
		logger.String("id", rec.ID),
		logger.Duration("elapsed", time.Since(start)))
	return arts, nil
}
