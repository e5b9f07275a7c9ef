// Package printer delivers ticket text to raw-socket (port 9100 style)
// receipt printers.
package printer

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ticketera/realtime"
	"ticketera/store"
)

const previewMessage = "preview mode (no printer)"

// Result reports what happened to one print attempt.
type Result struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
	Preview string `json:"preview,omitempty"`
}

// Dialer opens the raw connection; net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Dispatcher pushes tickets to the live channel and to the physical
// printer. Each Send is a single attempt; there is no retry.
type Dispatcher struct {
	link      realtime.Publisher
	dialer    Dialer
	timeout   time.Duration
	feedLines int
	log       zerolog.Logger
}

type Option func(*Dispatcher)

func WithDialer(d Dialer) Option { return func(p *Dispatcher) { p.dialer = d } }

func WithTimeout(d time.Duration) Option {
	return func(p *Dispatcher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithFeedLines(n int) Option {
	return func(p *Dispatcher) {
		if n >= 0 {
			p.feedLines = n
		}
	}
}

func NewDispatcher(link realtime.Publisher, log zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		link:      link,
		dialer:    &net.Dialer{},
		timeout:   5 * time.Second,
		feedLines: 3,
		log:       log,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

type livePayload struct {
	Text      string    `json:"text"`
	PrintedAt time.Time `json:"printedAt"`
}

// Send publishes text to the tenant's live clients, then writes it to the
// configured printer. Without a usable config it returns a preview result.
func (d *Dispatcher) Send(ctx context.Context, tenantID, text string, cfg *store.PrinterConfig) (Result, error) {
	if err := d.link.Publish(tenantID, realtime.EventTicketNew, livePayload{Text: text, PrintedAt: time.Now()}); err != nil {
		d.log.Warn().Err(err).Str("tenant", tenantID).Msg("live ticket publish skipped")
	}

	if !cfg.Configured() {
		return Result{Sent: false, Message: previewMessage, Preview: text}, nil
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	if err := d.write(ctx, addr, text); err != nil {
		return Result{}, fmt.Errorf("print to %s: %w", addr, err)
	}
	d.log.Info().Str("tenant", tenantID).Str("addr", addr).Msg("ticket printed")
	return Result{Sent: true, Message: "sent to " + addr, Preview: text}, nil
}

func (d *Dispatcher) write(ctx context.Context, addr, text string) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	conn, err := d.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if _, err := conn.Write([]byte(text + strings.Repeat("\n", d.feedLines))); err != nil {
		return err
	}
	return nil
}
