package pwa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"text/template"

	"github.com/gosimple/slug"
)

// Strategy selects how the service worker's fetch hook answers requests.
type Strategy string

const (
	StrategyCacheFirst           Strategy = "cache-first"
	StrategyNetworkFirst         Strategy = "network-first"
	StrategyStaleWhileRevalidate Strategy = "stale-while-revalidate"
	StrategyNetworkOnly          Strategy = "network-only"
	StrategyCacheOnly            Strategy = "cache-only"
)

// Strategies lists every supported strategy in display order.
var Strategies = []Strategy{
	StrategyCacheFirst,
	StrategyNetworkFirst,
	StrategyStaleWhileRevalidate,
	StrategyNetworkOnly,
	StrategyCacheOnly,
}

var strategyAliases = map[string]Strategy{
	"cachefirst":           StrategyCacheFirst,
	"networkfirst":         StrategyNetworkFirst,
	"stalewhilerevalidate": StrategyStaleWhileRevalidate,
	"networkonly":          StrategyNetworkOnly,
	"cacheonly":            StrategyCacheOnly,
}

// ParseStrategy accepts both kebab-case ("network-first") and camelCase
// ("networkFirst") tags.
func ParseStrategy(s string) (Strategy, bool) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(strings.TrimSpace(s)))
	st, ok := strategyAliases[key]
	return st, ok
}

// UpdateStrategy controls when a new worker version takes over.
type UpdateStrategy string

const (
	// UpdateImmediate calls skipWaiting as soon as installation finishes.
	UpdateImmediate UpdateStrategy = "immediate"
	// UpdateManual waits for the page to post a SKIP_WAITING message.
	UpdateManual UpdateStrategy = "manual"
)

const (
	DefaultCacheName   = "pwa-cache-v1"
	DefaultOfflinePage = "/offline.html"
)

// WorkerOptions configures the generated service worker.
type WorkerOptions struct {
	AppName           string         `json:"app_name,omitempty" yaml:"app_name,omitempty"`
	CacheName         string         `json:"cache_name" yaml:"cache_name"`
	Strategy          Strategy       `json:"strategy" yaml:"strategy"`
	FilesToCache      []string       `json:"files_to_cache" yaml:"files_to_cache"`
	OfflineSupport    bool           `json:"offline_support" yaml:"offline_support"`
	OfflinePage       string         `json:"offline_page,omitempty" yaml:"offline_page,omitempty"`
	BackgroundSync    bool           `json:"background_sync" yaml:"background_sync"`
	PushNotifications bool           `json:"push_notifications" yaml:"push_notifications"`
	UpdateStrategy    UpdateStrategy `json:"update_strategy" yaml:"update_strategy" validate:"omitempty,oneof=immediate manual skipWaiting"`
}

// DefaultWorkerOptions returns the options a new worker form starts from.
func DefaultWorkerOptions() WorkerOptions {
	return WorkerOptions{
		CacheName:         DefaultCacheName,
		Strategy:          StrategyCacheFirst,
		FilesToCache:      []string{"/", "/index.html", "/manifest.json", "/styles.css", "/script.js"},
		OfflineSupport:    true,
		OfflinePage:       DefaultOfflinePage,
		BackgroundSync:    true,
		PushNotifications: true,
		UpdateStrategy:    UpdateImmediate,
	}
}

// HostedWorkerOptions returns the worker options for an app served under
// its own sub-path: a cache named after the app, relative URLs and no
// sync or push blocks.
func HostedWorkerOptions(appName string) WorkerOptions {
	return WorkerOptions{
		AppName:        appName,
		CacheName:      CacheNameFor(appName),
		Strategy:       StrategyCacheFirst,
		FilesToCache:   []string{"./", "./index.html", "./manifest.json"},
		OfflineSupport: true,
		OfflinePage:    "./index.html",
		UpdateStrategy: UpdateImmediate,
	}
}

// CacheNameFor derives a versioned cache name from an app name.
func CacheNameFor(appName string) string {
	s := slug.Make(appName)
	if s == "" {
		return DefaultCacheName
	}
	return s + "-v1"
}

// normalized fills empty fields with defaults and resolves aliases.
func (o WorkerOptions) normalized() WorkerOptions {
	def := DefaultWorkerOptions()
	if o.CacheName == "" {
		o.CacheName = def.CacheName
	}
	if st, ok := ParseStrategy(string(o.Strategy)); ok {
		o.Strategy = st
	} else {
		o.Strategy = StrategyCacheFirst
	}
	if o.FilesToCache == nil {
		o.FilesToCache = def.FilesToCache
	}
	if o.OfflinePage == "" {
		o.OfflinePage = def.OfflinePage
	}
	switch o.UpdateStrategy {
	case UpdateManual:
	default:
		o.UpdateStrategy = UpdateImmediate
	}
	return o
}

type workerView struct {
	AppName           string
	CacheName         string
	FilesJSON         string
	Strategy          string
	OfflineSupport    bool
	OfflinePage       string
	BackgroundSync    bool
	PushNotifications bool
	Immediate         bool
	NotificationTitle string
}

// GenerateServiceWorker renders the service worker script. Unknown strategy
// tags fall back to cache-first.
func GenerateServiceWorker(opts WorkerOptions) ([]byte, error) {
	o := opts.normalized()

	files := slices.Clone(o.FilesToCache)
	if o.OfflineSupport && !slices.Contains(files, o.OfflinePage) {
		files = append(files, o.OfflinePage)
	}
	filesJSON, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode cached file list: %w", err)
	}

	view := workerView{
		AppName:           o.AppName,
		CacheName:         o.CacheName,
		FilesJSON:         string(filesJSON),
		Strategy:          string(o.Strategy),
		OfflineSupport:    o.OfflineSupport,
		OfflinePage:       o.OfflinePage,
		BackgroundSync:    o.BackgroundSync,
		PushNotifications: o.PushNotifications,
		Immediate:         o.UpdateStrategy == UpdateImmediate,
		NotificationTitle: "PWA Notification",
	}
	if o.AppName != "" {
		view.NotificationTitle = o.AppName
	}

	var buf bytes.Buffer
	if err := workerTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render service worker: %w", err)
	}
	return buf.Bytes(), nil
}

var workerTemplate = template.Must(template.New("sw.js").Parse(workerSource))

const workerSource = `// Generated service worker
{{- if .AppName}} for {{js .AppName}}{{end}}
const CACHE_NAME = '{{js .CacheName}}';
const urlsToCache = {{.FilesJSON}};
{{- if .OfflineSupport}}
const OFFLINE_URL = '{{js .OfflinePage}}';
{{- end}}

// Install: populate the cache
self.addEventListener('install', (event) => {
  event.waitUntil(
    caches.open(CACHE_NAME)
      .then((cache) => cache.addAll(urlsToCache))
{{- if .Immediate}}
      .then(() => self.skipWaiting())
{{- end}}
  );
});

// Activate: drop caches from previous versions
self.addEventListener('activate', (event) => {
  event.waitUntil(
    caches.keys().then((cacheNames) => {
      return Promise.all(
        cacheNames.map((cacheName) => {
          if (cacheName !== CACHE_NAME) {
            return caches.delete(cacheName);
          }
        })
      );
    }).then(() => self.clients.claim())
  );
});

// Fetch: {{.Strategy}}
self.addEventListener('fetch', (event) => {
  event.respondWith(
{{- if eq .Strategy "network-first"}}
    fetch(event.request)
      .then((response) => {
        const responseClone = response.clone();
        caches.open(CACHE_NAME).then((cache) => {
          cache.put(event.request, responseClone);
        });
        return response;
      })
      .catch(() => {
{{- if .OfflineSupport}}
        return caches.match(event.request).then((cached) => {
          if (cached || event.request.mode !== 'navigate') {
            return cached;
          }
          return caches.match(OFFLINE_URL);
        });
{{- else}}
        return caches.match(event.request);
{{- end}}
      })
{{- else if eq .Strategy "stale-while-revalidate"}}
    caches.match(event.request)
      .then((cachedResponse) => {
        const fetchPromise = fetch(event.request).then((networkResponse) => {
          const networkClone = networkResponse.clone();
          caches.open(CACHE_NAME).then((cache) => {
            cache.put(event.request, networkClone);
          });
          return networkResponse;
        });
        return cachedResponse || fetchPromise;
      })
{{- else if eq .Strategy "network-only"}}
    fetch(event.request, { cache: 'no-store' })
{{- else if eq .Strategy "cache-only"}}
    caches.open(CACHE_NAME).then((cache) => cache.match(event.request))
{{- else}}
    caches.match(event.request)
      .then((response) => {
        return response || fetch(event.request);
      })
{{- if .OfflineSupport}}
      .catch(() => {
        if (event.request.mode === 'navigate') {
          return caches.match(OFFLINE_URL);
        }
      })
{{- end}}
{{- end}}
  );
});
{{- if not .Immediate}}

// Manual update: wait for the page to request activation
self.addEventListener('message', (event) => {
  if (event.data && event.data.type === 'SKIP_WAITING') {
    self.skipWaiting();
  }
});
{{- end}}
{{- if .BackgroundSync}}

// Background sync
self.addEventListener('sync', (event) => {
  if (event.tag === 'background-sync') {
    event.waitUntil(doBackgroundSync());
  }
});

function doBackgroundSync() {
  // Replay queued requests here.
  return Promise.resolve();
}
{{- end}}
{{- if .PushNotifications}}

// Push notifications
self.addEventListener('push', (event) => {
  const options = {
    body: event.data ? event.data.text() : 'Default notification body',
    icon: '/icons/icon-192x192.png',
    badge: '/icons/badge-72x72.png',
    vibrate: [100, 50, 100],
    data: {
      dateOfArrival: Date.now(),
      primaryKey: 1
    }
  };
  event.waitUntil(
    self.registration.showNotification('{{js .NotificationTitle}}', options)
  );
});

self.addEventListener('notificationclick', (event) => {
  event.notification.close();
  event.waitUntil(clients.openWindow('/'));
});
{{- end}}
`
