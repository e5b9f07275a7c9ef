package messaging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ticketera/store"
)

// OutboxStore is the slice of store.DB the drainer uses.
type OutboxStore interface {
	ListPendingOutbox(ctx context.Context, limit, maxAttempts int) ([]*store.OutboxMessage, error)
	AckOutbox(ctx context.Context, id string) error
	FailOutbox(ctx context.Context, id string) error
	PurgeOutbox(ctx context.Context, cutoff time.Time, maxAttempts int) (int64, error)
}

type Publisher interface {
	IsConnected() bool
	Publish(ctx context.Context, topic string, data []byte) error
}

const purgeInterval = 10 * time.Minute

// OutboxDrainer periodically publishes unsent outbox rows. Rows that fail
// stay pending and are retried on the next tick until they reach the
// attempt limit. Sent and abandoned rows are purged after the retention.
type OutboxDrainer struct {
	db          OutboxStore
	pub         Publisher
	interval    time.Duration
	batch       int
	maxAttempts int
	retention   time.Duration
	log         zerolog.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type DrainerOption func(*OutboxDrainer)

// WithMaxAttempts sets how many failed publishes a row gets before it is
// abandoned. Default 10.
func WithMaxAttempts(n int) DrainerOption {
	return func(d *OutboxDrainer) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// WithRetention sets how long sent and abandoned rows are kept. Default 24h.
func WithRetention(r time.Duration) DrainerOption {
	return func(d *OutboxDrainer) {
		if r > 0 {
			d.retention = r
		}
	}
}

func NewOutboxDrainer(db OutboxStore, pub Publisher, interval time.Duration, batch int, log zerolog.Logger, opts ...DrainerOption) *OutboxDrainer {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	d := &OutboxDrainer{
		db:          db,
		pub:         pub,
		interval:    interval,
		batch:       batch,
		maxAttempts: 10,
		retention:   24 * time.Hour,
		log:         log,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *OutboxDrainer) Start() {
	go d.loop()
}

func (d *OutboxDrainer) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
	<-d.done
}

func (d *OutboxDrainer) loop() {
	defer close(d.done)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	purge := time.NewTicker(purgeInterval)
	defer purge.Stop()
	for {
		select {
		case <-d.stop:
			return
		case <-purge.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if _, err := d.Purge(ctx); err != nil {
				d.log.Warn().Err(err).Msg("outbox purge")
			}
			cancel()
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), d.interval*5)
			if _, err := d.Drain(ctx); err != nil {
				d.log.Warn().Err(err).Msg("outbox drain")
			}
			cancel()
		}
	}
}

// Drain publishes one batch and returns how many rows were sent.
func (d *OutboxDrainer) Drain(ctx context.Context) (int, error) {
	if !d.pub.IsConnected() {
		return 0, nil
	}
	msgs, err := d.db.ListPendingOutbox(ctx, d.batch, d.maxAttempts)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, m := range msgs {
		if err := d.pub.Publish(ctx, m.Topic, m.Payload); err != nil {
			if errors.Is(err, ErrDisabled) {
				return sent, nil
			}
			attempts := m.Attempts + 1
			if attempts >= d.maxAttempts {
				d.log.Error().Err(err).Str("id", m.ID).Str("topic", m.Topic).Str("type", m.MsgType).Int("attempts", attempts).Msg("outbox message abandoned")
			} else {
				d.log.Warn().Err(err).Str("id", m.ID).Str("topic", m.Topic).Int("attempts", attempts).Msg("outbox publish failed")
			}
			if err := d.db.FailOutbox(ctx, m.ID); err != nil {
				return sent, err
			}
			continue
		}
		if err := d.db.AckOutbox(ctx, m.ID); err != nil {
			return sent, err
		}
		sent++
	}
	if sent > 0 {
		d.log.Debug().Int("sent", sent).Msg("outbox drained")
	}
	return sent, nil
}

// Purge deletes sent and abandoned rows older than the retention.
func (d *OutboxDrainer) Purge(ctx context.Context) (int64, error) {
	n, err := d.db.PurgeOutbox(ctx, time.Now().Add(-d.retention), d.maxAttempts)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		d.log.Debug().Int64("purged", n).Msg("outbox purged")
	}
	return n, nil
}
