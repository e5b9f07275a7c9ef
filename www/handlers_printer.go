package www

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ticketera/engine"
	"ticketera/store"
	"ticketera/ticket"
)

func (h *Handlers) apiGetPrinterConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.engine.DB().GetPrinterConfig(r.Context(), claimsFrom(r.Context()).TenantID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if cfg == nil {
		h.jsonOK(w, map[string]any{"configured": false})
		return
	}
	h.jsonOK(w, map[string]any{"configured": true, "host": cfg.Host, "port": cfg.Port, "updatedAt": cfg.UpdatedAt})
}

func (h *Handlers) apiSavePrinterConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	tenant := claimsFrom(r.Context()).TenantID
	cfg := &store.PrinterConfig{RestaurantID: tenant, Host: strings.TrimSpace(req.Host), Port: req.Port}
	if !cfg.Configured() {
		h.jsonError(w, "host and a port between 1 and 65535 are required", http.StatusBadRequest)
		return
	}
	if err := h.engine.DB().UpsertPrinterConfig(r.Context(), cfg); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.engine.Events.Emit(engine.Event{Type: engine.EventPrinterConfigured, Payload: engine.PrinterConfiguredEvent{
		TenantID: tenant, Host: cfg.Host, Port: cfg.Port,
	}})
	h.jsonOK(w, cfg)
}

// apiPrintTest reports dispatch failures as 502; the sample ticket carries
// no order so nothing else observes them.
func (h *Handlers) apiPrintTest(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.Pipeline().PrintTest(r.Context(), claimsFrom(r.Context()).TenantID)
	if err != nil {
		h.log.Warn().Err(err).Msg("test print")
		h.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.jsonOK(w, res)
}

func (h *Handlers) apiPrintOrder(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.Pipeline().PrintOrder(r.Context(), claimsFrom(r.Context()).TenantID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.jsonError(w, "order not found", http.StatusNotFound)
			return
		}
		h.log.Warn().Err(err).Msg("order print")
		h.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.jsonOK(w, res)
}

func (h *Handlers) apiListTickets(w http.ResponseWriter, r *http.Request) {
	records := h.engine.Queue().ListTenant(claimsFrom(r.Context()).TenantID)
	if records == nil {
		records = []ticket.Record{}
	}
	h.jsonOK(w, records)
}

func (h *Handlers) apiTicketStream(w http.ResponseWriter, r *http.Request) {
	if h.engine.Hub() == nil {
		h.jsonError(w, "live tickets unavailable", http.StatusServiceUnavailable)
		return
	}
	h.engine.Hub().ServeSSE(w, r, claimsFrom(r.Context()).TenantID)
}

func (h *Handlers) apiTicketSocket(w http.ResponseWriter, r *http.Request) {
	if h.engine.Hub() == nil {
		h.jsonError(w, "live tickets unavailable", http.StatusServiceUnavailable)
		return
	}
	h.engine.Hub().ServeWS(w, r, claimsFrom(r.Context()).TenantID)
}
