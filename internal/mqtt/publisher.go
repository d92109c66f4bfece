// Package mqtt forwards record lifecycle events to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/pwaspark/pwagen/internal/conf"
	"github.com/pwaspark/pwagen/internal/errors"
	"github.com/pwaspark/pwagen/internal/events"
	"github.com/pwaspark/pwagen/internal/logger"
)

// Publisher publishes events as JSON to "<topic>/<event name>".
type Publisher struct {
	client         paho.Client
	topic          string
	qos            byte
	retain         bool
	connectTimeout time.Duration
	publishTimeout time.Duration
	log            logger.Logger
}

// NewPublisher configures a publisher. It does not connect; call Connect.
func NewPublisher(settings conf.MQTTSettings, log logger.Logger) (*Publisher, error) {
	if settings.Broker == "" {
		return nil, errors.Newf("mqtt broker is not configured").
			Component("mqtt").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if log == nil {
		log = logger.Discard()
	}
	log = log.Module("mqtt")

	p := &Publisher{
		topic:          strings.TrimSuffix(settings.Topic, "/"),
		qos:            byte(settings.QoS),
		retain:         settings.Retain,
		connectTimeout: settings.ConnectTimeout.Or(10 * time.Second),
		publishTimeout: settings.PublishTimeout.Or(5 * time.Second),
		log:            log,
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(settings.Broker)
	opts.SetClientID(settings.ClientID)
	opts.SetUsername(settings.Username)
	opts.SetPassword(settings.Password)
	opts.SetConnectTimeout(p.connectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetOrderMatters(false)
	opts.SetOnConnectHandler(func(paho.Client) {
		log.Info("connected to mqtt broker", logger.String("broker", settings.Broker))
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warn("mqtt connection lost", logger.Error(err))
	})
	p.client = paho.NewClient(opts)

	return p, nil
}

// Connect establishes the broker connection.
func (p *Publisher) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.connectTimeout)
	defer cancel()

	if err := wait(ctx, p.client.Connect()); err != nil {
		return errors.New(fmt.Errorf("failed to connect to mqtt broker: %w", err)).
			Component("mqtt").
			Category(errors.CategoryNetwork).
			Build()
	}
	return nil
}

// IsConnected reports whether the client currently holds a connection.
func (p *Publisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Publish sends ev to its topic and waits for the broker acknowledgement
// required by the configured QoS.
func (p *Publisher) Publish(ctx context.Context, ev *events.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", ev.Name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()

	topic := TopicFor(p.topic, ev.Name)
	if err := wait(ctx, p.client.Publish(topic, p.qos, p.retain, payload)); err != nil {
		return errors.New(fmt.Errorf("failed to publish to %s: %w", topic, err)).
			Component("mqtt").
			Category(errors.CategoryNetwork).
			Context("topic", topic).
			Build()
	}
	return nil
}

// Handler adapts the publisher to an events.Bus subscriber. Failures are
// logged, not retried.
func (p *Publisher) Handler() events.Handler {
	return func(ev *events.Event) {
		if !p.IsConnected() {
			p.log.Debug("skipping event, broker not connected", logger.String("event", ev.Name))
			return
		}
		if err := p.Publish(context.Background(), ev); err != nil {
			p.log.Warn("failed to forward event",
				logger.String("event", ev.Name),
				logger.Error(err))
		}
	}
}

// Close disconnects, allowing in-flight work 250ms to complete.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// TopicFor joins the base topic and an event name. Dots in the event name
// become topic levels so subscribers can filter with wildcards.
func TopicFor(base, event string) string {
	suffix := strings.ReplaceAll(event, ".", "/")
	if base == "" {
		return suffix
	}
	return base + "/" + suffix
}

func wait(ctx context.Context, token paho.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
