package pwa

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// manifestDocument fixes the key order of the rendered manifest.
type manifestDocument struct {
	Name            string       `json:"name"`
	ShortName       string       `json:"short_name"`
	Description     string       `json:"description"`
	StartURL        string       `json:"start_url"`
	Display         Display      `json:"display"`
	ThemeColor      string       `json:"theme_color"`
	BackgroundColor string       `json:"background_color"`
	Orientation     Orientation  `json:"orientation"`
	Scope           string       `json:"scope"`
	Icons           []Icon       `json:"icons"`
	Categories      []string     `json:"categories"`
	Screenshots     []Screenshot `json:"screenshots,omitempty"`
}

// GenerateManifest renders cfg as an indented manifest document. Values are
// copied verbatim and the output is byte-identical for equal inputs.
func GenerateManifest(cfg Config) ([]byte, error) {
	doc := manifestDocument{
		Name:            cfg.Name,
		ShortName:       cfg.ShortName,
		Description:     cfg.Description,
		StartURL:        cfg.StartURL,
		Display:         cfg.Display,
		ThemeColor:      cfg.ThemeColor,
		BackgroundColor: cfg.BackgroundColor,
		Orientation:     cfg.Orientation,
		Scope:           cfg.Scope,
		Icons:           cfg.Icons,
		Categories:      cfg.Categories,
		Screenshots:     cfg.Screenshots,
	}
	if doc.Icons == nil {
		doc.Icons = []Icon{}
	}
	if doc.Categories == nil {
		doc.Categories = []string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	// Encode appends a newline; downloads carry the bare document.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
