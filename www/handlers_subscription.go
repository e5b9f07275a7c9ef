package www

import (
	"errors"
	"net/http"

	"ticketera/engine"
	"ticketera/substate"
)

func (h *Handlers) apiGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.engine.Subscriptions().Get(r.Context(), claimsFrom(r.Context()).TenantID)
	if errors.Is(err, substate.ErrNoSubscription) {
		h.jsonOK(w, map[string]any{})
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.jsonOK(w, sub)
}

func (h *Handlers) apiCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlanID   string `json:"planId"`
		Provider string `json:"provider"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.PlanID == "" || req.Provider == "" {
		h.jsonError(w, "planId and provider are required", http.StatusBadRequest)
		return
	}
	tenant := claimsFrom(r.Context()).TenantID
	co, err := h.engine.Subscriptions().Activate(r.Context(), tenant, req.PlanID, req.Provider)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.emitSubscription(tenant, co.Subscription.Status)
	h.jsonOK(w, co)
}

func (h *Handlers) apiCancelSubscription(w http.ResponseWriter, r *http.Request) {
	tenant := claimsFrom(r.Context()).TenantID
	sub, err := h.engine.Subscriptions().Cancel(r.Context(), tenant)
	if errors.Is(err, substate.ErrNoSubscription) {
		h.jsonError(w, "subscription not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.emitSubscription(tenant, sub.Status)
	h.jsonOK(w, sub)
}

func (h *Handlers) emitSubscription(tenant, status string) {
	h.engine.Events.Emit(engine.Event{Type: engine.EventSubscriptionChanged, Payload: engine.SubscriptionChangedEvent{
		TenantID: tenant, Status: status,
	}})
}
