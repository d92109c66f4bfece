package mqtt

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwaspark/pwagen/internal/conf"
	"github.com/pwaspark/pwagen/internal/errors"
	"github.com/pwaspark/pwagen/internal/events"
)

func TestTopicFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base, event, want string
	}{
		{"pwagen", events.PWACreated, "pwagen/pwa/created"},
		{"site/a", events.PWADeleted, "site/a/pwa/deleted"},
		{"", events.PWAUpdated, "pwa/updated"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TopicFor(tt.base, tt.event))
	}
}

func TestNewPublisher_RequiresBroker(t *testing.T) {
	t.Parallel()

	_, err := NewPublisher(conf.MQTTSettings{}, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfiguration, errors.CategoryOf(err))
}

func TestNewPublisher_TrimsTopicAndDefaultsTimeouts(t *testing.T) {
	t.Parallel()

	p, err := NewPublisher(conf.MQTTSettings{Broker: "tcp://127.0.0.1:1", Topic: "pwagen/", ClientID: "t"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "pwagen", p.topic)
	assert.Equal(t, 10*time.Second, p.connectTimeout)
	assert.Equal(t, 5*time.Second, p.publishTimeout)
	assert.False(t, p.IsConnected())
}

func TestPublisher_ConnectFailsWithoutBroker(t *testing.T) {
	t.Parallel()

	// grab a port and release it so nothing is listening
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	p, err := NewPublisher(conf.MQTTSettings{
		Broker:         "tcp://" + addr,
		ClientID:       "pwagen-test",
		ConnectTimeout: conf.Duration(time.Second),
	}, nil)
	require.NoError(t, err)

	err = p.Connect(t.Context())
	require.Error(t, err)
	assert.Equal(t, errors.CategoryNetwork, errors.CategoryOf(err))
	p.Close()
}
