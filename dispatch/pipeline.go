// Package dispatch runs the post-response ticket pipeline for new orders:
// format, live fan-out, history queue, physical print and outbox export.
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ticketera/messaging"
	"ticketera/printer"
	"ticketera/realtime"
	"ticketera/store"
	"ticketera/ticket"
)

// Store is the slice of store.DB the pipeline reads and writes.
type Store interface {
	GetRestaurant(ctx context.Context, id string) (*store.Restaurant, error)
	GetOrder(ctx context.Context, restaurantID, id string) (*store.Order, error)
	GetPrinterConfig(ctx context.Context, restaurantID string) (*store.PrinterConfig, error)
	EnqueueOutbox(ctx context.Context, topic string, payload []byte, msgType, restaurantID string) error
}

// Printer sends rendered text; printer.Dispatcher satisfies it.
type Printer interface {
	Send(ctx context.Context, tenantID, text string, cfg *store.PrinterConfig) (printer.Result, error)
}

type Config struct {
	DB           Store
	Link         realtime.Publisher
	Queue        *ticket.Queue
	Printer      Printer
	Emitter      Emitter
	Ticket       ticket.Options
	// TicketsTopic is read per order; an empty topic (or nil func) skips
	// the outbox export.
	TicketsTopic func() string
	// Timeout bounds one order's downstream work.
	Timeout time.Duration
	Log     zerolog.Logger
}

type Pipeline struct {
	db           Store
	link         realtime.Publisher
	queue        *ticket.Queue
	printer      Printer
	emitter      Emitter
	opts         ticket.Options
	ticketsTopic func() string
	timeout      time.Duration
	log          zerolog.Logger
	wg           sync.WaitGroup
}

func New(c Config) *Pipeline {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Emitter == nil {
		c.Emitter = nopEmitter{}
	}
	return &Pipeline{
		db:           c.DB,
		link:         c.Link,
		queue:        c.Queue,
		printer:      c.Printer,
		emitter:      c.Emitter,
		opts:         c.Ticket,
		ticketsTopic: c.TicketsTopic,
		timeout:      c.Timeout,
		log:          c.Log,
	}
}

func (p *Pipeline) Queue() *ticket.Queue { return p.queue }

// Submit schedules the ticket work for a committed order and returns
// immediately. Failures are logged and never reach the caller.
func (p *Pipeline) Submit(tenantID string, order *store.Order) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.log.Error().
					Str("tenant", tenantID).
					Str("order", order.ID).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("ticket pipeline panicked")
				p.emitter.EmitTicketFailed(tenantID, order.ID, "panic", fmt.Sprint(r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		p.Process(ctx, tenantID, order)
	}()
}

// Wait blocks until every submitted order has finished its pipeline.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

type fanoutPayload struct {
	OrderID    string          `json:"orderId"`
	Restaurant string          `json:"restaurant"`
	Table      string          `json:"table"`
	Items      []ticket.Item   `json:"items"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Process runs every stage for one order in sequence: format, fan-out,
// enqueue, print, export. Stage errors are logged and do not stop later
// stages.
func (p *Pipeline) Process(ctx context.Context, tenantID string, order *store.Order) ticket.Record {
	log := p.log.With().Str("tenant", tenantID).Str("order", order.ID).Logger()

	tk := ticket.Build(p.restaurantName(ctx, tenantID), order, p.opts)

	if err := p.link.Publish(tenantID, realtime.EventTicketNew, fanoutPayload{
		OrderID:    order.ID,
		Restaurant: tk.Restaurant,
		Table:      tk.Table,
		Items:      tk.Items,
		Total:      tk.Total,
		CreatedAt:  tk.CreatedAt,
	}); err != nil {
		log.Warn().Err(err).Msg("ticket fan-out skipped")
	}

	rec := p.queue.Enqueue(tenantID, tk)
	p.emitter.EmitTicketQueued(tenantID, order.ID, rec.ID)

	sent := p.print(ctx, log, tenantID, tk)
	p.export(ctx, log, tenantID, rec, sent)
	return rec
}

func (p *Pipeline) restaurantName(ctx context.Context, tenantID string) string {
	r, err := p.db.GetRestaurant(ctx, tenantID)
	if err != nil {
		p.log.Warn().Err(err).Str("tenant", tenantID).Msg("restaurant lookup for ticket header")
		return ""
	}
	return r.Name
}

func (p *Pipeline) print(ctx context.Context, log zerolog.Logger, tenantID string, tk *ticket.Ticket) bool {
	cfg, err := p.db.GetPrinterConfig(ctx, tenantID)
	if err != nil {
		log.Warn().Err(err).Msg("printer config lookup, falling back to preview")
		cfg = nil
	}
	res, err := p.printer.Send(ctx, tenantID, tk.Text, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("ticket print failed")
		p.emitter.EmitTicketFailed(tenantID, tk.OrderID, "print", err.Error())
		return false
	}
	p.emitter.EmitTicketPrinted(tenantID, tk.OrderID, res.Sent, res.Message)
	return res.Sent
}

func (p *Pipeline) export(ctx context.Context, log zerolog.Logger, tenantID string, rec ticket.Record, printed bool) {
	if p.ticketsTopic == nil {
		return
	}
	topic := p.ticketsTopic()
	if topic == "" {
		return
	}
	env, err := messaging.NewEnvelope(messaging.TypeTicketCreated, tenantID, messaging.TicketCreated{
		OrderID:  rec.Ticket.OrderID,
		Table:    rec.Ticket.Table,
		Total:    rec.Ticket.Total.StringFixed(2),
		Items:    len(rec.Ticket.Items),
		Text:     rec.Ticket.Text,
		Printed:  printed,
		QueuedID: rec.ID,
	})
	if err != nil {
		log.Warn().Err(err).Msg("encode ticket envelope")
		return
	}
	data, err := env.Encode()
	if err != nil {
		log.Warn().Err(err).Msg("encode ticket envelope")
		return
	}
	if err := p.db.EnqueueOutbox(ctx, topic, data, messaging.TypeTicketCreated, tenantID); err != nil {
		log.Warn().Err(err).Msg("ticket outbox enqueue")
	}
}

// PrintOrder re-derives the ticket of a stored order and dispatches it.
// Unlike Submit, errors are returned to the caller.
func (p *Pipeline) PrintOrder(ctx context.Context, tenantID, orderID string) (printer.Result, error) {
	order, err := p.db.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return printer.Result{}, err
	}
	tk := ticket.Build(p.restaurantName(ctx, tenantID), order, p.opts)
	return p.send(ctx, tenantID, tk.Text)
}

// PrintTest dispatches a fixed sample ticket.
func (p *Pipeline) PrintTest(ctx context.Context, tenantID string) (printer.Result, error) {
	items := []ticket.Item{
		{Name: "Producto de prueba", Qty: 1, Price: decimal.NewFromInt(10)},
		{Name: "Bebida", Qty: 2, Price: decimal.RequireFromString("2.50")},
	}
	tk := ticket.Compose(p.restaurantName(ctx, tenantID), "TEST", time.Now(), items, p.opts)
	return p.send(ctx, tenantID, tk.Text)
}

func (p *Pipeline) send(ctx context.Context, tenantID, text string) (printer.Result, error) {
	cfg, err := p.db.GetPrinterConfig(ctx, tenantID)
	if err != nil {
		return printer.Result{}, err
	}
	return p.printer.Send(ctx, tenantID, text, cfg)
}

type nopEmitter struct{}

func (nopEmitter) EmitTicketQueued(string, string, string)         {}
func (nopEmitter) EmitTicketPrinted(string, string, bool, string)  {}
func (nopEmitter) EmitTicketFailed(string, string, string, string) {}
