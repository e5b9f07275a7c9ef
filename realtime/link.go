package realtime

import (
	"errors"
	"sync"
)

// ErrNotReady is returned when publishing before a transport is attached.
var ErrNotReady = errors.New("realtime transport not ready")

type State int

const (
	NotReady State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "not-ready"
}

// Publisher is anything that can deliver an event to a tenant's clients.
type Publisher interface {
	Publish(tenant, event string, payload any) error
}

// Link is the handle the ticket pipeline publishes through. It starts
// NotReady and becomes Ready once a transport is attached at startup.
type Link struct {
	mu  sync.RWMutex
	pub Publisher
}

func NewLink() *Link { return &Link{} }

// Attach makes p the live transport.
func (l *Link) Attach(p Publisher) {
	l.mu.Lock()
	l.pub = p
	l.mu.Unlock()
}

func (l *Link) Detach() {
	l.mu.Lock()
	l.pub = nil
	l.mu.Unlock()
}

func (l *Link) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.pub == nil {
		return NotReady
	}
	return Ready
}

func (l *Link) Publish(tenant, event string, payload any) error {
	l.mu.RLock()
	pub := l.pub
	l.mu.RUnlock()
	if pub == nil {
		return ErrNotReady
	}
	return pub.Publish(tenant, event, payload)
}
