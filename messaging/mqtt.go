package messaging

import (
	"context"
	"errors"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"ticketera/config"
)

type mqttBackend struct {
	cfg    config.MQTTConfig
	client mqtt.Client
}

func newMQTTBackend(cfg *config.MQTTConfig) *mqttBackend {
	return &mqttBackend{cfg: *cfg}
}

func (m *mqttBackend) connect() error {
	if m.cfg.Broker == "" {
		return errors.New("no mqtt broker configured")
	}
	opts := mqtt.NewClientOptions().
		AddBroker(m.cfg.Broker).
		SetClientID(m.cfg.ClientID).
		SetUsername(m.cfg.Username).
		SetPassword(m.cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(10 * time.Second) {
		return errors.New("mqtt connect timeout")
	}
	if err := tok.Error(); err != nil {
		return err
	}
	m.client = client
	return nil
}

func (m *mqttBackend) publish(ctx context.Context, topic string, data []byte) error {
	tok := m.client.Publish(topic, m.cfg.QoS, false, data)
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *mqttBackend) connected() bool {
	return m.client != nil && m.client.IsConnectionOpen()
}

func (m *mqttBackend) close() error {
	if m.client != nil {
		m.client.Disconnect(250)
		m.client = nil
	}
	return nil
}
