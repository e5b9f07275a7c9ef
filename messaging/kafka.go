package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"ticketera/config"
)

type kafkaBackend struct {
	brokers []string
	w       *kafka.Writer
}

func newKafkaBackend(cfg *config.KafkaConfig) *kafkaBackend {
	return &kafkaBackend{brokers: cfg.Brokers}
}

func (k *kafkaBackend) connect() error {
	if len(k.brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := kafka.DialContext(ctx, "tcp", k.brokers[0])
	if err != nil {
		return err
	}
	conn.Close()

	k.w = &kafka.Writer{
		Addr:                   kafka.TCP(k.brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return nil
}

func (k *kafkaBackend) publish(ctx context.Context, topic string, data []byte) error {
	return k.w.WriteMessages(ctx, kafka.Message{Topic: topic, Value: data})
}

func (k *kafkaBackend) connected() bool { return k.w != nil }

func (k *kafkaBackend) close() error {
	if k.w == nil {
		return nil
	}
	err := k.w.Close()
	k.w = nil
	return err
}
