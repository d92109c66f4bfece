package monitoring

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/pwaspark/pwagen/internal/conf"
)

// InitSentry configures the global Sentry hub. It does nothing when error
// reporting is disabled.
func InitSentry(settings conf.SentrySettings, release string) error {
	if !settings.Enabled {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.DSN,
		Environment:      settings.Environment,
		Release:          release,
		AttachStacktrace: true,
		SendDefaultPII:   false,
	})
	if err != nil {
		return fmt.Errorf("failed to init sentry: %w", err)
	}
	return nil
}

// SentryEnabled reports whether the global hub has a client.
func SentryEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// Alert reports err to Sentry. It returns nil when nothing was sent.
func Alert(message string, err error) *sentry.EventID {
	if !SentryEnabled() {
		return nil
	}
	return sentry.CurrentHub().CaptureException(fmt.Errorf("%s: %w", message, err))
}

// FlushSentry waits up to timeout for buffered events to be delivered.
func FlushSentry(timeout time.Duration) {
	if SentryEnabled() {
		sentry.Flush(timeout)
	}
}
