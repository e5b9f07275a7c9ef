package messaging

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"ticketera/config"
)

type amqpBackend struct {
	cfg  config.AMQPConfig
	conn *amqp.Connection
	ch   *amqp.Channel
}

func newAMQPBackend(cfg *config.AMQPConfig) *amqpBackend {
	return &amqpBackend{cfg: *cfg}
}

func (a *amqpBackend) connect() error {
	if a.cfg.URL == "" {
		return errors.New("no amqp url configured")
	}
	conn, err := amqp.Dial(a.cfg.URL)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	if err := ch.ExchangeDeclare(a.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return err
	}
	a.conn, a.ch = conn, ch
	return nil
}

// publish routes by topic on the configured exchange.
func (a *amqpBackend) publish(ctx context.Context, topic string, data []byte) error {
	return a.ch.PublishWithContext(ctx, a.cfg.Exchange, topic, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Body:         data,
	})
}

func (a *amqpBackend) connected() bool {
	return a.conn != nil && !a.conn.IsClosed()
}

func (a *amqpBackend) close() error {
	if a.ch != nil {
		a.ch.Close()
	}
	if a.conn != nil {
		a.conn.Close()
	}
	a.conn, a.ch = nil, nil
	return nil
}
