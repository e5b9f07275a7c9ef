package www

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"ticketera/store"
)

func (h *Handlers) apiCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.jsonError(w, "name is required", http.StatusBadRequest)
		return
	}
	c := &store.Category{RestaurantID: claimsFrom(r.Context()).TenantID, Name: strings.TrimSpace(req.Name)}
	if err := h.engine.DB().CreateCategory(r.Context(), c); err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonStatus(w, http.StatusCreated, c)
}

func (h *Handlers) apiListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.engine.DB().ListCategories(r.Context(), claimsFrom(r.Context()).TenantID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if cats == nil {
		cats = []*store.Category{}
	}
	h.jsonOK(w, cats)
}

func (h *Handlers) apiDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DB().DeleteCategory(r.Context(), claimsFrom(r.Context()).TenantID, chi.URLParam(r, "id")); err != nil {
		h.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// menuItemRequest uses pointers so updates only touch the fields sent.
type menuItemRequest struct {
	CategoryID  *string          `json:"categoryId"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"imageUrl"`
}

func (req *menuItemRequest) apply(m *store.MenuItem) {
	if req.CategoryID != nil {
		m.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		m.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		m.Description = *req.Description
	}
	if req.Price != nil {
		m.Price = *req.Price
	}
	if req.ImageURL != nil {
		m.ImageURL = *req.ImageURL
	}
}

func validMenuItem(m *store.MenuItem) string {
	switch {
	case m.Name == "":
		return "name is required"
	case m.CategoryID == "":
		return "categoryId is required"
	case !m.Price.IsPositive():
		return "price must be positive"
	case !wholeCents(m.Price):
		return "price must be in whole cents"
	}
	return ""
}

func (h *Handlers) apiCreateItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	m := &store.MenuItem{RestaurantID: claimsFrom(r.Context()).TenantID}
	req.apply(m)
	if msg := validMenuItem(m); msg != "" {
		h.jsonError(w, msg, http.StatusBadRequest)
		return
	}
	if err := h.engine.DB().CreateMenuItem(r.Context(), m); err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonStatus(w, http.StatusCreated, m)
}

func (h *Handlers) apiListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.DB().ListMenuItems(r.Context(), claimsFrom(r.Context()).TenantID, false)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if items == nil {
		items = []*store.MenuItem{}
	}
	h.jsonOK(w, items)
}

func (h *Handlers) apiUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	tenant := claimsFrom(r.Context()).TenantID
	m, err := h.engine.DB().GetMenuItem(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	req.apply(m)
	if msg := validMenuItem(m); msg != "" {
		h.jsonError(w, msg, http.StatusBadRequest)
		return
	}
	if err := h.engine.DB().UpdateMenuItem(r.Context(), m); err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonOK(w, m)
}

func (h *Handlers) apiToggleItem(w http.ResponseWriter, r *http.Request) {
	tenant := claimsFrom(r.Context()).TenantID
	m, err := h.engine.DB().GetMenuItem(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	m.IsActive = !m.IsActive
	if err := h.engine.DB().SetMenuItemActive(r.Context(), tenant, m.ID, m.IsActive); err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonOK(w, m)
}

func (h *Handlers) apiDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DB().DeleteMenuItem(r.Context(), claimsFrom(r.Context()).TenantID, chi.URLParam(r, "id")); err != nil {
		h.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type publicCategory struct {
	*store.Category
	Items []*store.MenuItem `json:"items"`
}

// apiPublicMenu serves the customer-facing menu: active items grouped by
// category, empty categories left out.
func (h *Handlers) apiPublicMenu(w http.ResponseWriter, r *http.Request) {
	rest, err := h.engine.DB().GetRestaurantBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	cats, err := h.engine.DB().ListCategories(r.Context(), rest.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	items, err := h.engine.DB().ListMenuItems(r.Context(), rest.ID, true)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	byCat := make(map[string][]*store.MenuItem)
	for _, it := range items {
		byCat[it.CategoryID] = append(byCat[it.CategoryID], it)
	}
	out := []publicCategory{}
	for _, c := range cats {
		if len(byCat[c.ID]) == 0 {
			continue
		}
		out = append(out, publicCategory{Category: c, Items: byCat[c.ID]})
	}
	h.jsonOK(w, map[string]any{"restaurant": rest, "categories": out})
}
