package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Web          WebConfig          `yaml:"web"`
	Log          LogConfig          `yaml:"log"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Messaging    MessagingConfig    `yaml:"messaging"`
	Printer      PrinterConfig      `yaml:"printer"`
	Tickets      TicketsConfig      `yaml:"tickets"`
	Subscription SubscriptionConfig `yaml:"subscription"`
}

type WebConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	SessionSecret string        `yaml:"session_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AllowOrigin   string        `yaml:"allow_origin"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // "sqlite" or "postgres"
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MessagingConfig struct {
	Backend             string        `yaml:"backend"` // "none", "kafka", "mqtt" or "amqp"
	TicketsTopic        string        `yaml:"tickets_topic"`
	OrdersTopic         string        `yaml:"orders_topic"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval"`
	OutboxBatch         int           `yaml:"outbox_batch"`
	OutboxMaxAttempts   int           `yaml:"outbox_max_attempts"`
	OutboxRetention     time.Duration `yaml:"outbox_retention"`
	Kafka               KafkaConfig   `yaml:"kafka"`
	MQTT                MQTTConfig    `yaml:"mqtt"`
	AMQP                AMQPConfig    `yaml:"amqp"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      byte   `yaml:"qos"`
}

type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type PrinterConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	FeedLines int           `yaml:"feed_lines"`
}

type TicketsConfig struct {
	Currency     string `yaml:"currency"`
	NameWidth    int    `yaml:"name_width"`
	HistoryLimit int    `yaml:"history_limit"` // 0 keeps every ticket
	TimeLayout   string `yaml:"time_layout"`
	Location     string `yaml:"location"`
}

type SubscriptionConfig struct {
	TrialDays  int `yaml:"trial_days"`
	PeriodDays int `yaml:"period_days"`
}

func Defaults() *Config {
	return &Config{
		Web: WebConfig{
			Host:        "0.0.0.0",
			Port:        4000,
			TokenTTL:    7 * 24 * time.Hour,
			AllowOrigin: "*",
		},
		Log: LogConfig{Level: "info"},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "ticketera.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "ticketera",
				User:     "ticketera",
				SSLMode:  "disable",
			},
		},
		Redis: RedisConfig{Address: "localhost:6379"},
		Messaging: MessagingConfig{
			Backend:             "none",
			TicketsTopic:        "ticketera.tickets",
			OrdersTopic:         "ticketera.orders",
			OutboxDrainInterval: 2 * time.Second,
			OutboxBatch:         50,
			OutboxMaxAttempts:   10,
			OutboxRetention:     24 * time.Hour,
			MQTT:                MQTTConfig{ClientID: "ticketera", QoS: 1},
			AMQP:                AMQPConfig{Exchange: "ticketera"},
		},
		Printer: PrinterConfig{
			Timeout:   5 * time.Second,
			FeedLines: 3,
		},
		Tickets: TicketsConfig{
			Currency:   "S/.",
			NameWidth:  18,
			TimeLayout: "02/01/2006 15:04",
			Location:   "Local",
		},
		Subscription: SubscriptionConfig{
			TrialDays:  30,
			PeriodDays: 30,
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error. Values from .env and the process environment win over the file.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TICKETERA_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.Driver = "postgres"
		c.Database.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Address = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.Web.SessionSecret = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Web.Port = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	switch c.Messaging.Backend {
	case "", "none", "kafka", "mqtt", "amqp":
	default:
		return fmt.Errorf("unsupported messaging backend: %s", c.Messaging.Backend)
	}
	if len(c.Web.SessionSecret) < 32 {
		return errors.New("web.session_secret (or SESSION_SECRET) must be set to at least 32 bytes")
	}
	if c.Tickets.NameWidth <= 0 {
		return errors.New("tickets.name_width must be positive")
	}
	if c.Tickets.HistoryLimit < 0 {
		return errors.New("tickets.history_limit must not be negative")
	}
	return nil
}

// Enabled reports whether a real backend is configured. With "none" nothing
// is written to the outbox.
func (m *MessagingConfig) Enabled() bool {
	return m.Backend != "" && m.Backend != "none"
}

// TicketLocation resolves the zone used for human-readable ticket times.
func (c *Config) TicketLocation() *time.Location {
	if loc, err := time.LoadLocation(c.Tickets.Location); err == nil {
		return loc
	}
	return time.Local
}
