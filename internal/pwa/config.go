// Package pwa models an installable web-app configuration and renders the
// artifacts a browser needs to install it: the manifest document, the
// offline-caching service worker and a bootstrap index.html.
//
// Generation never validates its input. Colors, URLs and icon geometry are
// copied through verbatim; Check reports advisory problems separately.
package pwa

import "slices"

// Display is the manifest display mode.
type Display string

const (
	DisplayStandalone Display = "standalone"
	DisplayFullscreen Display = "fullscreen"
	DisplayMinimalUI  Display = "minimal-ui"
	DisplayBrowser    Display = "browser"
)

// Orientation is the manifest default orientation.
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
	OrientationAny       Orientation = "any"
)

// IconPurpose is the manifest icon purpose.
type IconPurpose string

const (
	PurposeAny      IconPurpose = "any"
	PurposeMaskable IconPurpose = "maskable"
)

// MaxShortNameLength is the longest short name launchers display reliably.
const MaxShortNameLength = 12

// Icon is one entry of the manifest icon list.
type Icon struct {
	Src     string      `json:"src" yaml:"src" validate:"required"`
	Sizes   string      `json:"sizes" yaml:"sizes" validate:"required"`
	Type    string      `json:"type" yaml:"type"`
	Purpose IconPurpose `json:"purpose" yaml:"purpose" validate:"omitempty,oneof=any maskable"`
}

// Screenshot is one entry of the manifest screenshot list.
type Screenshot struct {
	Src        string `json:"src" yaml:"src" validate:"required"`
	Sizes      string `json:"sizes" yaml:"sizes"`
	Type       string `json:"type" yaml:"type"`
	FormFactor string `json:"form_factor,omitempty" yaml:"form_factor,omitempty" validate:"omitempty,oneof=wide narrow"`
}

// Config describes an installable web app.
type Config struct {
	Name            string       `json:"name" yaml:"name" validate:"required,max=100"`
	ShortName       string       `json:"short_name" yaml:"short_name" validate:"max=12"`
	Description     string       `json:"description" yaml:"description"`
	StartURL        string       `json:"start_url" yaml:"start_url"`
	Scope           string       `json:"scope" yaml:"scope"`
	Display         Display      `json:"display" yaml:"display" validate:"omitempty,oneof=standalone fullscreen minimal-ui browser"`
	Orientation     Orientation  `json:"orientation" yaml:"orientation" validate:"omitempty,oneof=portrait landscape any"`
	ThemeColor      string       `json:"theme_color" yaml:"theme_color"`
	BackgroundColor string       `json:"background_color" yaml:"background_color"`
	Categories      []string     `json:"categories" yaml:"categories"`
	Icons           []Icon       `json:"icons" yaml:"icons" validate:"dive"`
	Screenshots     []Screenshot `json:"screenshots,omitempty" yaml:"screenshots,omitempty" validate:"dive"`
}

// DefaultConfig returns the configuration a new form starts from.
func DefaultConfig() Config {
	return Config{
		Name:            "My Awesome PWA",
		ShortName:       "MyPWA",
		Description:     "A Progressive Web App generated with pwagen",
		StartURL:        "/",
		Scope:           "/",
		Display:         DisplayStandalone,
		Orientation:     OrientationPortrait,
		ThemeColor:      "#6366f1",
		BackgroundColor: "#ffffff",
		Categories:      []string{"productivity"},
		Icons:           []Icon{},
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.Categories = slices.Clone(c.Categories)
	out.Icons = slices.Clone(c.Icons)
	out.Screenshots = slices.Clone(c.Screenshots)
	return out
}

// ForHosting returns a copy of c adjusted to be served from a sub-path:
// start URL and scope become "./" and an empty icon list is replaced by
// PlaceholderIcons.
func (c Config) ForHosting() Config {
	out := c.Clone()
	out.StartURL = "./"
	out.Scope = "./"
	if len(out.Icons) == 0 {
		out.Icons = PlaceholderIcons()
	}
	return out
}
