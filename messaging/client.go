// Package messaging exports ticket and order events to a message bus
// (Kafka, MQTT or AMQP) through a SQL outbox.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ticketera/config"
)

// ErrDisabled is returned by Publish when the backend is "none".
var ErrDisabled = errors.New("messaging disabled")

var errNotConnected = errors.New("messaging not connected")

type backend interface {
	connect() error
	publish(ctx context.Context, topic string, data []byte) error
	connected() bool
	close() error
}

// Client wraps the configured backend. It is safe for concurrent use and
// can be reconfigured live.
type Client struct {
	mu  sync.RWMutex
	cfg config.MessagingConfig
	b   backend
}

func NewClient(cfg *config.MessagingConfig) *Client {
	return &Client{cfg: *cfg}
}

func newBackend(cfg *config.MessagingConfig) (backend, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "kafka":
		return newKafkaBackend(&cfg.Kafka), nil
	case "mqtt":
		return newMQTTBackend(&cfg.MQTT), nil
	case "amqp":
		return newAMQPBackend(&cfg.AMQP), nil
	default:
		return nil, fmt.Errorf("unknown messaging backend: %s", cfg.Backend)
	}
}

// Connect dials the backend. A "none" backend connects trivially.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := newBackend(&c.cfg)
	if err != nil {
		return err
	}
	if b == nil {
		return nil
	}
	if err := b.connect(); err != nil {
		return fmt.Errorf("%s connect: %w", c.cfg.Backend, err)
	}
	c.b = b
	return nil
}

func (c *Client) Backend() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cfg.Backend == "" {
		return "none"
	}
	return c.cfg.Backend
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.b != nil && c.b.connected()
}

func (c *Client) Publish(ctx context.Context, topic string, data []byte) error {
	c.mu.RLock()
	b, name := c.b, c.cfg.Backend
	c.mu.RUnlock()
	if name == "" || name == "none" {
		return ErrDisabled
	}
	if b == nil {
		return errNotConnected
	}
	return b.publish(ctx, topic, data)
}

// Reconfigure closes the current backend and connects with cfg.
func (c *Client) Reconfigure(cfg *config.MessagingConfig) error {
	c.Close()
	c.mu.Lock()
	c.cfg = *cfg
	c.mu.Unlock()
	return c.Connect()
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.b != nil {
		c.b.close()
		c.b = nil
	}
}
