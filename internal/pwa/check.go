package pwa

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Severity grades a Warning.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Warning is an advisory finding about a Config. Warnings never block
// generation.
type Warning struct {
	Field    string   `json:"field"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Check reports installability and presentation problems in cfg.
func Check(cfg Config) []Warning {
	var out []Warning
	add := func(field string, sev Severity, format string, args ...any) {
		out = append(out, Warning{Field: field, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(cfg.Name) == "" {
		add("name", SeverityWarning, "name is empty")
	}
	if n := utf8.RuneCountInString(cfg.ShortName); n > MaxShortNameLength {
		add("short_name", SeverityWarning, "short_name has %d characters; launchers truncate after %d", n, MaxShortNameLength)
	}
	if cfg.ShortName == "" {
		add("short_name", SeverityInfo, "short_name is empty; launchers will fall back to name")
	}
	if !HasIconSize(cfg.Icons, InstallIconSmall) {
		add("icons", SeverityWarning, "no %s icon; browsers require one to offer installation", InstallIconSmall)
	}
	if !HasIconSize(cfg.Icons, InstallIconLarge) {
		add("icons", SeverityWarning, "no %s icon; browsers require one for the splash screen", InstallIconLarge)
	}
	hasMaskable := false
	for _, icon := range cfg.Icons {
		if icon.Purpose == PurposeMaskable {
			hasMaskable = true
			break
		}
	}
	if len(cfg.Icons) > 0 && !hasMaskable {
		add("icons", SeverityInfo, "no maskable icon; some platforms will letterbox the launcher icon")
	}
	for _, c := range cfg.Categories {
		if !IsCategory(c) {
			add("categories", SeverityInfo, "category %q is not a predefined category", c)
		}
	}
	if cfg.Scope != "" && cfg.StartURL != "" && !strings.HasPrefix(cfg.StartURL, cfg.Scope) {
		add("start_url", SeverityWarning, "start_url %q is outside scope %q", cfg.StartURL, cfg.Scope)
	}
	return out
}
