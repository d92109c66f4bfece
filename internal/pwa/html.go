package pwa

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"regexp"
	"strings"
)

type indexView struct {
	Config
	Favicon       Icon
	FaviconURL    template.URL
	HasFavicon    bool
	ThemeCSS      template.CSS
	BackgroundCSS template.CSS
	ManifestURL   string
	WorkerURL     string
}

// PageLinks sets where the index page finds its manifest and service worker.
type PageLinks struct {
	ManifestURL string
	WorkerURL   string
}

// DefaultPageLinks point at files next to the page.
var DefaultPageLinks = PageLinks{ManifestURL: "./manifest.json", WorkerURL: "./sw.js"}

// GenerateIndexHTML renders a bootstrap page that links the manifest,
// registers the service worker and offers an install button once the
// browser fires beforeinstallprompt. Manifest and worker are referenced
// relative to the page.
func GenerateIndexHTML(cfg Config) ([]byte, error) {
	return GenerateIndexPage(cfg, DefaultPageLinks)
}

// GenerateIndexPage renders the bootstrap page with explicit manifest and
// worker locations.
//
// Icon sources that are relative, http(s) or data:image URLs and colors
// made only of color-syntax characters are written as given. Anything else
// is dropped: an unsafe favicon is omitted and an unsafe color falls back
// to inherit.
func GenerateIndexPage(cfg Config, links PageLinks) ([]byte, error) {
	view := indexView{
		Config:        cfg,
		ThemeCSS:      cssColor(cfg.ThemeColor),
		BackgroundCSS: cssColor(cfg.BackgroundColor),
		ManifestURL:   links.ManifestURL,
		WorkerURL:     links.WorkerURL,
	}
	if icon, ok := preferredIcon(cfg.Icons); ok {
		if src, safe := iconURL(icon.Src); safe {
			view.Favicon, view.FaviconURL, view.HasFavicon = icon, src, true
		}
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render index.html: %w", err)
	}
	return buf.Bytes(), nil
}

var cssColorPattern = regexp.MustCompile(`^[#A-Za-z0-9(),.%/+\- ]+$`)

// cssColor passes a color value into the style block. Values that could
// close the declaration or start a comment or string become inherit.
func cssColor(v string) template.CSS {
	v = strings.TrimSpace(v)
	if v == "" || !cssColorPattern.MatchString(v) {
		return "inherit"
	}
	return template.CSS(v)
}

// iconURL accepts relative and http(s) URLs and inline image data.
func iconURL(src string) (template.URL, bool) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", false
	}
	if strings.HasPrefix(strings.ToLower(src), "data:image/") {
		return template.URL(src), true
	}
	u, err := url.Parse(src)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https":
		return template.URL(src), true
	}
	return "", false
}

var indexTemplate = template.Must(template.New("index.html").Parse(indexSource))

const indexSource = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Name}}</title>
  <meta name="description" content="{{.Description}}">
  <link rel="manifest" href="{{.ManifestURL}}">
  <meta name="theme-color" content="{{.ThemeColor}}">
{{- if .HasFavicon}}
  <link rel="icon" href="{{.FaviconURL}}"{{if .Favicon.Type}} type="{{.Favicon.Type}}"{{end}}>
{{- end}}
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
      margin: 0;
      padding: 20px;
      background-color: {{.BackgroundCSS}};
      color: #333;
      min-height: 100vh;
      display: flex;
      flex-direction: column;
      align-items: center;
      justify-content: center;
      text-align: center;
    }
    .container {
      max-width: 600px;
      padding: 40px;
      background: white;
      border-radius: 12px;
      box-shadow: 0 4px 20px rgba(0,0,0,0.1);
    }
    h1 { color: {{.ThemeCSS}}; margin-bottom: 20px; }
    .install-button {
      background: {{.ThemeCSS}};
      color: white;
      border: none;
      padding: 12px 24px;
      border-radius: 8px;
      font-size: 16px;
      cursor: pointer;
      margin-top: 20px;
    }
    .install-button:hover { opacity: 0.9; }
  </style>
</head>
<body>
  <div class="container">
    <h1>{{.Name}}</h1>
    <p>{{.Description}}</p>
    <button class="install-button" id="installBtn" style="display: none;">Install app</button>
  </div>
  <script>
    if ('serviceWorker' in navigator) {
      window.addEventListener('load', () => {
        navigator.serviceWorker.register({{.WorkerURL}})
          .catch((error) => console.log('Service worker registration failed:', error));
      });
    }

    let deferredPrompt;
    const installBtn = document.getElementById('installBtn');

    window.addEventListener('beforeinstallprompt', (e) => {
      e.preventDefault();
      deferredPrompt = e;
      installBtn.style.display = 'block';
    });

    installBtn.addEventListener('click', async () => {
      if (!deferredPrompt) {
        return;
      }
      deferredPrompt.prompt();
      await deferredPrompt.userChoice;
      deferredPrompt = null;
      installBtn.style.display = 'none';
    });
  </script>
</body>
</html>
`
