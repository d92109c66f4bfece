package monitoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwaspark/pwagen/internal/conf"
)

func TestInitSentry_Disabled(t *testing.T) {
	t.Parallel()

	require.NoError(t, InitSentry(conf.SentrySettings{Enabled: false, DSN: "not a dsn"}, "test"))
}

func TestInitSentry_InvalidDSN(t *testing.T) {
	t.Parallel()

	err := InitSentry(conf.SentrySettings{Enabled: true, DSN: "::not a dsn"}, "test")
	assert.Error(t, err)
}

func TestAlert_WithoutClient(t *testing.T) {
	t.Parallel()

	if SentryEnabled() {
		t.Skip("a sentry client is configured globally")
	}
	assert.Nil(t, Alert("render failed", errors.New("boom")))
}
