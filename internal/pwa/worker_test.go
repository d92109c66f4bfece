package pwa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var strategyMarkers = map[Strategy]string{
	StrategyCacheFirst:           "return response || fetch(event.request);",
	StrategyNetworkFirst:         "const responseClone = response.clone();",
	StrategyStaleWhileRevalidate: "return cachedResponse || fetchPromise;",
	StrategyNetworkOnly:          "fetch(event.request, { cache: 'no-store' })",
	StrategyCacheOnly:            "cache.match(event.request)",
}

func fetchBody(t *testing.T, script string) string {
	t.Helper()
	start := strings.Index(script, "event.respondWith(")
	require.GreaterOrEqual(t, start, 0, "fetch hook missing")
	end := strings.Index(script[start:], "\n  );\n});")
	require.Greater(t, end, 0, "fetch hook not terminated")
	return script[start : start+end]
}

func TestGenerateServiceWorker_StrategyMarkers(t *testing.T) {
	t.Parallel()

	for _, offline := range []bool{true, false} {
		for strategy, own := range strategyMarkers {
			name := string(strategy)
			if !offline {
				name += "/online"
			}
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				opts := DefaultWorkerOptions()
				opts.Strategy = strategy
				opts.OfflineSupport = offline
				out, err := GenerateServiceWorker(opts)
				require.NoError(t, err)

				body := fetchBody(t, string(out))
				assert.Contains(t, body, own)
				for other, marker := range strategyMarkers {
					if other == strategy {
						continue
					}
					assert.NotContains(t, string(out), marker, "found %s marker", other)
				}
			})
		}
	}
}

func TestGenerateServiceWorker_UnknownStrategyFallsBack(t *testing.T) {
	t.Parallel()

	opts := DefaultWorkerOptions()
	opts.Strategy = "carrier-pigeon"
	out, err := GenerateServiceWorker(opts)
	require.NoError(t, err)
	assert.Contains(t, fetchBody(t, string(out)), strategyMarkers[StrategyCacheFirst])
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Strategy
		ok   bool
	}{
		{"cache-first", StrategyCacheFirst, true},
		{"cacheFirst", StrategyCacheFirst, true},
		{"staleWhileRevalidate", StrategyStaleWhileRevalidate, true},
		{"NETWORK_ONLY", StrategyNetworkOnly, true},
		{" cache-only ", StrategyCacheOnly, true},
		{"", "", false},
		{"fastest", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseStrategy(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestGenerateServiceWorker_Lifecycle(t *testing.T) {
	t.Parallel()

	opts := DefaultWorkerOptions()
	opts.CacheName = "demo-cache-v3"
	out, err := GenerateServiceWorker(opts)
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, "const CACHE_NAME = 'demo-cache-v3';")
	assert.Contains(t, s, "self.addEventListener('install'")
	assert.Contains(t, s, "cache.addAll(urlsToCache)")
	assert.Contains(t, s, "self.addEventListener('activate'")
	assert.Contains(t, s, "if (cacheName !== CACHE_NAME)")
	assert.Contains(t, s, "self.addEventListener('fetch'")
	for _, f := range opts.FilesToCache {
		assert.Contains(t, s, `"`+f+`"`)
	}
	assert.Contains(t, s, `"/offline.html"`, "offline page is precached")
	assert.Contains(t, s, ".then(() => self.skipWaiting())")
	assert.NotContains(t, s, "SKIP_WAITING")
}

func TestGenerateServiceWorker_OptionalBlocks(t *testing.T) {
	t.Parallel()

	all := DefaultWorkerOptions()
	out, err := GenerateServiceWorker(all)
	require.NoError(t, err)
	assert.Contains(t, string(out), "event.tag === 'background-sync'")
	assert.Contains(t, string(out), "showNotification('PWA Notification', options)")
	assert.Contains(t, string(out), "self.addEventListener('notificationclick'")

	none := DefaultWorkerOptions()
	none.BackgroundSync = false
	none.PushNotifications = false
	none.OfflineSupport = false
	none.UpdateStrategy = UpdateManual
	out, err = GenerateServiceWorker(none)
	require.NoError(t, err)
	s := string(out)
	assert.NotContains(t, s, "'sync'")
	assert.NotContains(t, s, "'push'")
	assert.NotContains(t, s, "OFFLINE_URL")
	assert.NotContains(t, s, "self.skipWaiting())")
	assert.Contains(t, s, "event.data.type === 'SKIP_WAITING'")
}

func TestGenerateServiceWorker_EscapesCacheName(t *testing.T) {
	t.Parallel()

	opts := DefaultWorkerOptions()
	opts.CacheName = "it's-v1"
	out, err := GenerateServiceWorker(opts)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "'it's-v1'")
	assert.Contains(t, string(out), `const CACHE_NAME = 'it\'s-v1';`)
}

func TestGenerateServiceWorker_Deterministic(t *testing.T) {
	t.Parallel()

	a, err := GenerateServiceWorker(DefaultWorkerOptions())
	require.NoError(t, err)
	b, err := GenerateServiceWorker(DefaultWorkerOptions())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHostedWorkerOptions(t *testing.T) {
	t.Parallel()

	opts := HostedWorkerOptions("My Notes App")
	assert.Equal(t, "my-notes-app-v1", opts.CacheName)

	out, err := GenerateServiceWorker(opts)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "// Generated service worker for My Notes App")
	assert.Contains(t, s, `"./index.html"`)
	assert.NotContains(t, s, "'push'")
	assert.Contains(t, fetchBody(t, s), strategyMarkers[StrategyCacheFirst])
}

func TestCacheNameFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "weather-now-v1", CacheNameFor("Weather Now"))
	assert.Equal(t, "cafe-au-lait-v1", CacheNameFor("Café au Lait"))
	assert.Equal(t, DefaultCacheName, CacheNameFor("  "))
}
