// Package events broadcasts application events (readiness, review changes)
// to an optional message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/allergozyme/internal/logging"
)

// Event names.
const (
	Ready         = "ready"
	ReviewAdded   = "review.added"
	ReviewUpdated = "review.updated"
	ReviewDeleted = "review.deleted"
)

const (
	ProviderAMQP = "amqp"
	ProviderMQTT = "mqtt"
)

// Publisher sends events. Publish must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, name string, payload any) error
	Close() error
}

// Config selects a broker.
type Config struct {
	Provider string
	URL      string
	// Topic is the AMQP exchange name and the MQTT topic prefix.
	Topic string
}

// envelope is the wire form of an event.
type envelope struct {
	Event   string `json:"event"`
	TS      int64  `json:"ts"`
	Payload any    `json:"payload,omitempty"`
}

func encode(name string, payload any, now time.Time) ([]byte, error) {
	b, err := json.Marshal(envelope{Event: name, TS: now.UnixMilli(), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", name, err)
	}
	return b, nil
}

// New connects the publisher named by cfg.Provider. An empty provider gives
// a NopPublisher.
func New(ctx context.Context, cfg Config, logger logging.Logger) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "":
		return NopPublisher{}, nil
	case ProviderAMQP:
		return NewAMQPPublisher(cfg.URL, cfg.Topic, logger)
	case ProviderMQTT:
		return NewMQTTPublisher(ctx, cfg.URL, cfg.Topic, logger)
	default:
		return nil, fmt.Errorf("unknown events provider %q", cfg.Provider)
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close() error                                { return nil }
