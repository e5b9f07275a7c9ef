package engine

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ticketera/config"
	"ticketera/dispatch"
	"ticketera/messaging"
	"ticketera/printer"
	"ticketera/realtime"
	"ticketera/store"
	"ticketera/substate"
	"ticketera/ticket"
)

type Config struct {
	AppConfig  *config.Config
	ConfigPath string
	DB         *store.DB
	Subs       *substate.Manager
	MsgClient  *messaging.Client
	Hub        *realtime.Hub
	// Printer overrides the raw-socket dispatcher; tests use it.
	Printer dispatch.Printer
	Log     zerolog.Logger
}

type Engine struct {
	cfg        *config.Config
	configPath string
	db         *store.DB
	subs       *substate.Manager
	msgClient  *messaging.Client
	hub        *realtime.Hub
	link       *realtime.Link
	queue      *ticket.Queue
	printer    dispatch.Printer
	pipeline   *dispatch.Pipeline
	Events     *EventBus
	log        zerolog.Logger

	stopOnce     sync.Once
	stopChan     chan struct{}
	connMu       sync.Mutex
	msgConnected bool

	// cfgMu guards cfg.Messaging, which ReconfigureMessaging replaces live
	cfgMu sync.RWMutex
}

func New(c Config) *Engine {
	log := c.Log.With().Str("component", "engine").Logger()
	link := realtime.NewLink()
	prn := c.Printer
	if prn == nil {
		prn = printer.NewDispatcher(link, c.Log.With().Str("component", "printer").Logger(),
			printer.WithTimeout(c.AppConfig.Printer.Timeout),
			printer.WithFeedLines(c.AppConfig.Printer.FeedLines),
		)
	}
	return &Engine{
		cfg:        c.AppConfig,
		configPath: c.ConfigPath,
		db:         c.DB,
		subs:       c.Subs,
		msgClient:  c.MsgClient,
		hub:        c.Hub,
		link:       link,
		queue:      ticket.NewQueue(c.AppConfig.Tickets.HistoryLimit),
		printer:    prn,
		Events:     NewEventBus(),
		log:        log,
		stopChan:   make(chan struct{}),
	}
}

func (e *Engine) Start() {
	// Create emitter adapter
	de := &dispatchEmitter{bus: e.Events}

	// Create pipeline
	e.pipeline = dispatch.New(dispatch.Config{
		DB:           e.db,
		Link:         e.link,
		Queue:        e.queue,
		Printer:      e.printer,
		Emitter:      de,
		Ticket:       e.TicketOptions(),
		TicketsTopic: e.TicketsTopic,
		Log:          e.log.With().Str("component", "dispatch").Logger(),
	})

	// Wire event handlers
	e.wireEventHandlers()

	// Live transport is ready once the hub is attached
	if e.hub != nil {
		e.link.Attach(e.hub)
	}

	// Emit initial connection status
	e.checkConnectionStatus()

	// Start periodic connection health check
	go e.connectionHealthLoop()

	e.log.Info().Str("realtime", e.link.State().String()).Msg("started")
}

// Stop halts background loops and waits for in-flight tickets.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopChan) })
	if e.pipeline != nil {
		e.pipeline.Wait()
	}
	e.link.Detach()
	e.log.Info().Msg("stopped")
}

// Accessors
func (e *Engine) DB() *store.DB                    { return e.db }
func (e *Engine) AppConfig() *config.Config        { return e.cfg }
func (e *Engine) ConfigPath() string               { return e.configPath }
func (e *Engine) Pipeline() *dispatch.Pipeline     { return e.pipeline }
func (e *Engine) Queue() *ticket.Queue             { return e.queue }
func (e *Engine) Hub() *realtime.Hub               { return e.hub }
func (e *Engine) Link() *realtime.Link             { return e.link }
func (e *Engine) Subscriptions() *substate.Manager { return e.subs }
func (e *Engine) MsgClient() *messaging.Client     { return e.msgClient }

// TicketOptions maps the tickets config section onto the formatter.
func (e *Engine) TicketOptions() ticket.Options {
	return ticket.Options{
		Currency:   e.cfg.Tickets.Currency,
		NameWidth:  e.cfg.Tickets.NameWidth,
		TimeLayout: e.cfg.Tickets.TimeLayout,
		Location:   e.cfg.TicketLocation(),
	}
}

func (e *Engine) checkConnectionStatus() {
	if e.msgClient == nil {
		return
	}
	e.connMu.Lock()
	defer e.connMu.Unlock()
	if e.msgClient.IsConnected() {
		if !e.msgConnected {
			e.msgConnected = true
			e.Events.Emit(Event{Type: EventMessagingConnected, Payload: ConnectionEvent{Detail: "messaging connected"}})
		}
	} else {
		if e.msgConnected {
			e.msgConnected = false
			e.Events.Emit(Event{Type: EventMessagingDisconnected, Payload: ConnectionEvent{Detail: "messaging disconnected"}})
		}
	}
}

func (e *Engine) connectionHealthLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.checkConnectionStatus()
		}
	}
}

// TicketsTopic is the outbox topic for ticket envelopes, empty when no
// messaging backend is configured.
func (e *Engine) TicketsTopic() string {
	return e.exportTopic(func(m *config.MessagingConfig) string { return m.TicketsTopic })
}

// OrdersTopic is the outbox topic for order status envelopes, empty when no
// messaging backend is configured.
func (e *Engine) OrdersTopic() string {
	return e.exportTopic(func(m *config.MessagingConfig) string { return m.OrdersTopic })
}

func (e *Engine) exportTopic(pick func(*config.MessagingConfig) string) string {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	if !e.cfg.Messaging.Enabled() {
		return ""
	}
	return pick(&e.cfg.Messaging)
}

// ReconfigureMessaging reconnects messaging with the given config, which
// becomes current.
func (e *Engine) ReconfigureMessaging(cfg *config.MessagingConfig) {
	e.cfgMu.Lock()
	e.cfg.Messaging = *cfg
	e.cfgMu.Unlock()
	if err := e.msgClient.Reconfigure(cfg); err != nil {
		e.log.Warn().Err(err).Msg("messaging reconfigure")
	} else {
		e.log.Info().Str("backend", e.msgClient.Backend()).Msg("messaging reconfigured")
	}
	e.checkConnectionStatus()
}
