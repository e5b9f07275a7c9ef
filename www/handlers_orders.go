package www

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"ticketera/engine"
	"ticketera/report"
	"ticketera/store"
)

type orderLineRequest struct {
	MenuItemID string           `json:"menuItemId"`
	Qty        int              `json:"qty"`
	Price      *decimal.Decimal `json:"price"`
}

type createOrderRequest struct {
	TableNumber string             `json:"tableNumber"`
	Items       []orderLineRequest `json:"items"`
}

type orderJSON struct {
	*store.Order
	Total decimal.Decimal `json:"total"`
}

func withTotal(o *store.Order) orderJSON {
	return orderJSON{Order: o, Total: o.Total()}
}

func withTotals(orders []*store.Order) []orderJSON {
	out := make([]orderJSON, 0, len(orders))
	for _, o := range orders {
		out = append(out, withTotal(o))
	}
	return out
}

// apiCreateOrder persists the order and answers before any ticket work;
// formatting, fan-out and printing run off the request path.
func (h *Handlers) apiCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.TableNumber = strings.TrimSpace(req.TableNumber)
	if req.TableNumber == "" {
		h.jsonError(w, "tableNumber is required", http.StatusBadRequest)
		return
	}
	if len(req.Items) == 0 {
		h.jsonError(w, "at least one item is required", http.StatusBadRequest)
		return
	}
	lines := make([]store.NewOrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		if it.MenuItemID == "" || it.Qty <= 0 {
			h.jsonError(w, "each item needs a menuItemId and a positive qty", http.StatusBadRequest)
			return
		}
		if it.Price != nil && (it.Price.IsNegative() || !wholeCents(*it.Price)) {
			h.jsonError(w, "price must be a non-negative amount in whole cents", http.StatusBadRequest)
			return
		}
		lines = append(lines, store.NewOrderLine{MenuItemID: it.MenuItemID, Qty: it.Qty, Price: it.Price})
	}

	tenant := claimsFrom(r.Context()).TenantID
	order, err := h.engine.DB().CreateOrder(r.Context(), tenant, req.TableNumber, lines)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonStatus(w, http.StatusCreated, withTotal(order))

	h.engine.Events.Emit(engine.Event{Type: engine.EventOrderCreated, Payload: engine.OrderCreatedEvent{
		TenantID: tenant, Order: order,
	}})
}

func (h *Handlers) apiActiveOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.engine.DB().ListActiveOrders(r.Context(), claimsFrom(r.Context()).TenantID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.jsonOK(w, withTotals(orders))
}

func (h *Handlers) apiListOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !store.ValidStatus(status) {
		h.jsonError(w, store.ErrInvalidStatus.Error(), http.StatusBadRequest)
		return
	}
	orders, err := h.engine.DB().ListOrders(r.Context(), claimsFrom(r.Context()).TenantID, status, queryLimit(r, 100, 1000))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.jsonOK(w, withTotals(orders))
}

func (h *Handlers) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.engine.DB().GetOrder(r.Context(), claimsFrom(r.Context()).TenantID, chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonOK(w, withTotal(order))
}

func (h *Handlers) apiUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if !store.ValidStatus(req.Status) {
		h.jsonError(w, store.ErrInvalidStatus.Error(), http.StatusBadRequest)
		return
	}
	tenant := claimsFrom(r.Context()).TenantID
	order, err := h.engine.DB().GetOrder(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if err := h.engine.DB().UpdateOrderStatus(r.Context(), tenant, order.ID, req.Status); err != nil {
		h.storeError(w, r, err)
		return
	}
	old := order.Status
	order.Status = req.Status
	h.jsonOK(w, withTotal(order))

	if old != req.Status {
		h.engine.Events.Emit(engine.Event{Type: engine.EventOrderStatusChanged, Payload: engine.OrderStatusChangedEvent{
			TenantID:  tenant,
			OrderID:   order.ID,
			Table:     order.TableNumber,
			OldStatus: old,
			NewStatus: req.Status,
		}})
	}
}

func (h *Handlers) apiExportOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !store.ValidStatus(status) {
		h.jsonError(w, store.ErrInvalidStatus.Error(), http.StatusBadRequest)
		return
	}
	orders, err := h.engine.DB().ListOrders(r.Context(), claimsFrom(r.Context()).TenantID, status, queryLimit(r, 10000, 100000))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="pedidos.xlsx"`)
	if err := report.WriteOrders(w, orders, h.engine.AppConfig().TicketLocation()); err != nil {
		h.log.Error().Err(err).Msg("orders export")
	}
}
