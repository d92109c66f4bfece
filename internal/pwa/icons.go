package pwa

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
)

// PlaceholderIconPath is where servers publish PlaceholderSVG.
const PlaceholderIconPath = "/placeholder.svg"

// PlaceholderSVG is the image PlaceholderIcons points at.
//
//go:embed placeholder.svg
var PlaceholderSVG []byte

var (
	standardIconSizes = []int{72, 96, 128, 144, 152, 192, 384, 512}
	maskableIconSizes = []int{192, 512}
)

// Sizes required by browsers before they offer installation.
const (
	InstallIconSmall = "192x192"
	InstallIconLarge = "512x512"
)

// StandardIcons returns the full launcher icon set pointing at a single
// source image: every standard size with purpose "any" followed by the
// maskable variants. No resizing happens; browsers scale the source.
func StandardIcons(src, mimeType string) []Icon {
	icons := make([]Icon, 0, len(standardIconSizes)+len(maskableIconSizes))
	for _, size := range standardIconSizes {
		icons = append(icons, Icon{
			Src:     src,
			Sizes:   fmt.Sprintf("%dx%d", size, size),
			Type:    mimeType,
			Purpose: PurposeAny,
		})
	}
	for _, size := range maskableIconSizes {
		icons = append(icons, Icon{
			Src:     src,
			Sizes:   fmt.Sprintf("%dx%d", size, size),
			Type:    mimeType,
			Purpose: PurposeMaskable,
		})
	}
	return icons
}

// PlaceholderIcons is the icon list served for hosted apps without icons.
// The server publishes the image at PlaceholderIconPath.
func PlaceholderIcons() []Icon {
	return []Icon{{
		Src:     PlaceholderIconPath,
		Sizes:   "any",
		Type:    "image/svg+xml",
		Purpose: PurposeAny,
	}}
}

// HasIconSize reports whether icons declares the given "WxH" size. An icon
// may list several space-separated sizes.
func HasIconSize(icons []Icon, size string) bool {
	return slices.ContainsFunc(icons, func(icon Icon) bool {
		return slices.Contains(strings.Fields(icon.Sizes), size)
	})
}

// preferredIcon picks the icon used as the page favicon.
func preferredIcon(icons []Icon) (Icon, bool) {
	for _, icon := range icons {
		if slices.Contains(strings.Fields(icon.Sizes), InstallIconSmall) {
			return icon, true
		}
	}
	if len(icons) > 0 {
		return icons[0], true
	}
	return Icon{}, false
}
