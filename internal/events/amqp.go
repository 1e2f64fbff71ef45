package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/allergozyme/internal/logging"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// dialAMQP opens a connection and a channel on it.
var dialAMQP = func(url string) (amqpChannel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return ch, conn.Close, nil
}

// AMQPPublisher sends events to a durable topic exchange. The routing key
// is the event name.
type AMQPPublisher struct {
	channel   amqpChannel
	closeConn func() error
	exchange  string
	logger    logging.Logger
	now       func() time.Time
}

// NewAMQPPublisher dials url and declares the exchange.
func NewAMQPPublisher(url, exchange string, logger logging.Logger) (*AMQPPublisher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("amqp url is required")
	}
	if strings.TrimSpace(exchange) == "" {
		return nil, errors.New("amqp exchange is required")
	}

	ch, closeConn, err := dialAMQP(url)
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = closeConn()
		return nil, err
	}
	return &AMQPPublisher{
		channel:   ch,
		closeConn: closeConn,
		exchange:  exchange,
		logger:    logger.With("component", "events", "provider", ProviderAMQP),
		now:       time.Now,
	}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, name string, payload any) error {
	now := p.now()
	body, err := encode(name, payload, now)
	if err != nil {
		return err
	}
	err = p.channel.PublishWithContext(ctx, p.exchange, name, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   uuid.NewString(),
		Timestamp:   now,
		Type:        name,
		Body:        body,
	})
	if err != nil {
		return err
	}
	p.logger.Debug(ctx, "event published", "event", name)
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.closeConn != nil {
		return p.closeConn()
	}
	return nil
}
