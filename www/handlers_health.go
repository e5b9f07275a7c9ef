package www

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ticketera/substate"
)

func (h *Handlers) apiHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	database := "ok"
	if err := h.engine.DB().PingContext(ctx); err != nil {
		database = err.Error()
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	cache := "ok"
	if subs := h.engine.Subscriptions(); subs != nil {
		if err := subs.PingCache(ctx); errors.Is(err, substate.ErrNoCache) {
			cache = "disabled"
		} else if err != nil {
			cache = err.Error()
		}
	}

	messaging := false
	backend := "none"
	if mc := h.engine.MsgClient(); mc != nil {
		messaging = mc.IsConnected()
		backend = mc.Backend()
	}

	clients := 0
	if hub := h.engine.Hub(); hub != nil {
		clients = hub.ClientCount()
	}

	h.jsonStatus(w, code, map[string]any{
		"status":    status,
		"database":  database,
		"redis":     cache,
		"messaging": map[string]any{"backend": backend, "connected": messaging},
		"realtime":  map[string]any{"state": h.engine.Link().State().String(), "clients": clients},
		"tickets":   h.engine.Queue().Len(),
	})
}
