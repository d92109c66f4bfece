package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pwaspark/pwagen/internal/pwa"
)

// selfArtifacts are the generator's own landing page, manifest and service
// worker.
type selfArtifacts struct {
	index    []byte
	manifest []byte
	worker   []byte
	// cached lists the URLs the worker precaches; each has a route.
	cached []string
}

const (
	selfManifestPath = "/manifest.webmanifest"
	selfWorkerPath   = "/sw.js"
)

// renderSelfArtifacts renders the generator's PWA files once at startup.
func renderSelfArtifacts(name string) (*selfArtifacts, error) {
	if name == "" {
		name = "pwagen"
	}
	cfg := pwa.DefaultConfig()
	cfg.Name = name
	cfg.ShortName = name
	cfg.Description = "Generate web app manifests and service workers"
	cfg.Categories = []string{"productivity", "utilities"}
	cfg.Icons = pwa.PlaceholderIcons()

	manifest, err := pwa.GenerateManifest(cfg)
	if err != nil {
		return nil, err
	}
	index, err := pwa.GenerateIndexPage(cfg, pwa.PageLinks{
		ManifestURL: selfManifestPath,
		WorkerURL:   selfWorkerPath,
	})
	if err != nil {
		return nil, err
	}

	cached := []string{"/", selfManifestPath, pwa.PlaceholderIconPath}
	opts := pwa.DefaultWorkerOptions()
	opts.AppName = name
	opts.CacheName = pwa.CacheNameFor(name)
	opts.Strategy = pwa.StrategyNetworkFirst
	opts.FilesToCache = cached
	opts.OfflineSupport = false
	opts.BackgroundSync = false
	opts.PushNotifications = false
	worker, err := pwa.GenerateServiceWorker(opts)
	if err != nil {
		return nil, err
	}
	return &selfArtifacts{index: index, manifest: manifest, worker: worker, cached: cached}, nil
}

// registerPWARoutes registers routes for the generator's own PWA files.
// The manifest and service worker must be served from root paths
// so the service worker scope covers the entire application.
func (s *Server) registerPWARoutes() {
	s.echo.GET("/", func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		return c.HTMLBlob(http.StatusOK, s.self.index)
	})

	s.echo.GET(selfManifestPath, func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		return c.Blob(http.StatusOK, "application/manifest+json", s.self.manifest)
	})

	s.echo.GET(selfWorkerPath, func(c echo.Context) error {
		c.Response().Header().Set("Service-Worker-Allowed", "/")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		return c.Blob(http.StatusOK, "application/javascript; charset=utf-8", s.self.worker)
	})

	// Hosted manifests without icons point here as well.
	s.echo.GET(pwa.PlaceholderIconPath, func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=86400")
		return c.Blob(http.StatusOK, "image/svg+xml", pwa.PlaceholderSVG)
	})
}
