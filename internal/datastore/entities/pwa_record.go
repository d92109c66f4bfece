// Package entities holds the GORM models persisted by the datastore.
package entities

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pwaspark/pwagen/internal/pwa"
)

// PWARecord is one generated app configuration owned by a user.
type PWARecord struct {
	ID              string                              `gorm:"primaryKey;size:36" json:"id"`
	UserID          string                              `gorm:"size:255;not null;index:idx_pwa_records_owner_created,priority:1" json:"user_id"`
	Name            string                              `gorm:"size:255;not null" json:"name"`
	ShortName       string                              `gorm:"size:64;default:''" json:"short_name"`
	Description     string                              `gorm:"type:text" json:"description"`
	StartURL        string                              `gorm:"size:2048;default:''" json:"start_url"`
	Scope           string                              `gorm:"size:2048;default:''" json:"scope"`
	ThemeColor      string                              `gorm:"size:32;default:''" json:"theme_color"`
	BackgroundColor string                              `gorm:"size:32;default:''" json:"background_color"`
	Display         string                              `gorm:"size:20;default:''" json:"display"`
	Orientation     string                              `gorm:"size:20;default:''" json:"orientation"`
	Icons           datatypes.JSONSlice[pwa.Icon]       `json:"icons"`
	Categories      datatypes.JSONSlice[string]         `json:"categories"`
	Screenshots     datatypes.JSONSlice[pwa.Screenshot] `json:"screenshots"`
	CreatedAt       time.Time                           `gorm:"autoCreateTime;precision:6;index:idx_pwa_records_owner_created,priority:2" json:"created_at"`
	UpdatedAt       time.Time                           `gorm:"autoUpdateTime;precision:6" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (PWARecord) TableName() string {
	return "pwa_records"
}

// BeforeCreate assigns a random UUID when the caller left ID empty.
func (r *PWARecord) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// NewPWARecord flattens cfg into a record owned by userID.
func NewPWARecord(userID string, cfg pwa.Config) *PWARecord {
	cfg = cfg.Clone()
	return &PWARecord{
		UserID:          userID,
		Name:            cfg.Name,
		ShortName:       cfg.ShortName,
		Description:     cfg.Description,
		StartURL:        cfg.StartURL,
		Scope:           cfg.Scope,
		ThemeColor:      cfg.ThemeColor,
		BackgroundColor: cfg.BackgroundColor,
		Display:         string(cfg.Display),
		Orientation:     string(cfg.Orientation),
		Icons:           datatypes.JSONSlice[pwa.Icon](nonNil(cfg.Icons)),
		Categories:      datatypes.JSONSlice[string](nonNil(cfg.Categories)),
		Screenshots:     datatypes.JSONSlice[pwa.Screenshot](nonNil(cfg.Screenshots)),
	}
}

// Config rebuilds the app configuration stored in r.
func (r *PWARecord) Config() pwa.Config {
	cfg := pwa.Config{
		Name:            r.Name,
		ShortName:       r.ShortName,
		Description:     r.Description,
		StartURL:        r.StartURL,
		Scope:           r.Scope,
		Display:         pwa.Display(r.Display),
		Orientation:     pwa.Orientation(r.Orientation),
		ThemeColor:      r.ThemeColor,
		BackgroundColor: r.BackgroundColor,
		Categories:      []string(r.Categories),
		Icons:           []pwa.Icon(r.Icons),
		Screenshots:     []pwa.Screenshot(r.Screenshots),
	}
	return cfg.Clone()
}

// ApplyPatch overwrites the fields of r for which patch carries a non-empty
// value. Identity, ownership and timestamps are never touched.
func (r *PWARecord) ApplyPatch(patch pwa.Config) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&r.Name, patch.Name)
	setString(&r.ShortName, patch.ShortName)
	setString(&r.Description, patch.Description)
	setString(&r.StartURL, patch.StartURL)
	setString(&r.Scope, patch.Scope)
	setString(&r.ThemeColor, patch.ThemeColor)
	setString(&r.BackgroundColor, patch.BackgroundColor)
	setString(&r.Display, string(patch.Display))
	setString(&r.Orientation, string(patch.Orientation))
	if patch.Icons != nil {
		r.Icons = append(datatypes.JSONSlice[pwa.Icon]{}, patch.Icons...)
	}
	if patch.Categories != nil {
		r.Categories = append(datatypes.JSONSlice[string]{}, patch.Categories...)
	}
	if patch.Screenshots != nil {
		r.Screenshots = append(datatypes.JSONSlice[pwa.Screenshot]{}, patch.Screenshots...)
	}
}

// Clone returns a deep copy of r.
func (r *PWARecord) Clone() *PWARecord {
	out := *r
	out.Icons = slices.Clone(r.Icons)
	out.Categories = slices.Clone(r.Categories)
	out.Screenshots = slices.Clone(r.Screenshots)
	return &out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
