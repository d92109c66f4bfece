package pwa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fields(ws []Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Field)
	}
	return out
}

func TestCheck(t *testing.T) {
	t.Parallel()

	full := DefaultConfig()
	full.Icons = StandardIcons("/icon.png", "image/png")

	tests := []struct {
		name   string
		cfg    func() Config
		fields []string
	}{
		{
			name:   "installable",
			cfg:    func() Config { return full },
			fields: []string{},
		},
		{
			name:   "no icons",
			cfg:    DefaultConfig,
			fields: []string{"icons", "icons"},
		},
		{
			name: "long short name",
			cfg: func() Config {
				c := full.Clone()
				c.ShortName = "Thirteen char"
				return c
			},
			fields: []string{"short_name"},
		},
		{
			name: "twelve runes is fine",
			cfg: func() Config {
				c := full.Clone()
				c.ShortName = "Ünïcødé Äpp!"
				return c
			},
			fields: []string{},
		},
		{
			name: "unknown category and scope escape",
			cfg: func() Config {
				c := full.Clone()
				c.Categories = []string{"astrology"}
				c.Scope = "/app/"
				c.StartURL = "/"
				return c
			},
			fields: []string{"categories", "start_url"},
		},
		{
			name: "only any-purpose icons",
			cfg: func() Config {
				c := full.Clone()
				c.Icons = c.Icons[:8]
				return c
			},
			fields: []string{"icons"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.fields, fields(Check(tt.cfg())))
		})
	}
}

func TestHasIconSize(t *testing.T) {
	t.Parallel()

	icons := []Icon{{Src: "a.png", Sizes: "48x48 192x192"}}
	assert.True(t, HasIconSize(icons, "192x192"))
	assert.False(t, HasIconSize(icons, "512x512"))
	assert.False(t, HasIconSize(nil, "192x192"))
}

func TestStandardIcons(t *testing.T) {
	t.Parallel()

	icons := StandardIcons("/logo.png", "image/png")
	assert.Len(t, icons, 10)
	assert.Equal(t, Icon{Src: "/logo.png", Sizes: "72x72", Type: "image/png", Purpose: PurposeAny}, icons[0])
	assert.Equal(t, Icon{Src: "/logo.png", Sizes: "512x512", Type: "image/png", Purpose: PurposeMaskable}, icons[9])
	assert.True(t, HasIconSize(icons, InstallIconSmall))
	assert.True(t, HasIconSize(icons, InstallIconLarge))
}

func TestCategories(t *testing.T) {
	t.Parallel()

	assert.True(t, IsCategory("productivity"))
	assert.False(t, IsCategory("Productivity"))
	assert.Equal(t, "Personalization", CategoryLabel("personalization"))

	list := CategoryList()
	assert.Len(t, list, len(Categories))
	assert.Equal(t, Category{Value: "business", Label: "Business"}, list[0])
}
