package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/allergozyme/internal/logging"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	mqttQoS            = 1
	mqttConnectTimeout = 10 * time.Second
	mqttQuiesceMillis  = 250
)

type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// connectMQTT connects to broker and returns the client.
var connectMQTT = func(ctx context.Context, broker string) (mqttClient, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("allergozyme-" + uuid.NewString()[:8]).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttConnectTimeout)

	c := mqtt.NewClient(opts)
	if err := waitToken(ctx, c.Connect()); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return c, nil
}

func waitToken(ctx context.Context, t mqtt.Token) error {
	select {
	case <-t.Done():
		return t.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MQTTPublisher sends events to "<prefix>/<event path>", where the event
// path is the event name with dots turned into slashes.
type MQTTPublisher struct {
	client mqttClient
	prefix string
	logger logging.Logger
	now    func() time.Time
}

// NewMQTTPublisher connects to broker (for example tcp://localhost:1883).
func NewMQTTPublisher(ctx context.Context, broker, prefix string, logger logging.Logger) (*MQTTPublisher, error) {
	if strings.TrimSpace(broker) == "" {
		return nil, errors.New("mqtt broker url is required")
	}
	c, err := connectMQTT(ctx, broker)
	if err != nil {
		return nil, err
	}
	return &MQTTPublisher{
		client: c,
		prefix: strings.Trim(prefix, "/"),
		logger: logger.With("component", "events", "provider", ProviderMQTT),
		now:    time.Now,
	}, nil
}

// Topic returns the topic an event is sent to.
func (p *MQTTPublisher) Topic(name string) string {
	path := strings.ReplaceAll(name, ".", "/")
	if p.prefix == "" {
		return path
	}
	return p.prefix + "/" + path
}

func (p *MQTTPublisher) Publish(ctx context.Context, name string, payload any) error {
	body, err := encode(name, payload, p.now())
	if err != nil {
		return err
	}
	if err := waitToken(ctx, p.client.Publish(p.Topic(name), mqttQoS, false, body)); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", name, err)
	}
	p.logger.Debug(ctx, "event published", "event", name)
	return nil
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(mqttQuiesceMillis)
	return nil
}
