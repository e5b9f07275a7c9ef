package www

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ticketera/engine"
	"ticketera/store"
)

type registerRequest struct {
	RestaurantName string `json:"restaurantName"`
	AdminName      string `json:"adminName"`
	Email          string `json:"email"`
	Password       string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) apiRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.RestaurantName = strings.TrimSpace(req.RestaurantName)
	if req.RestaurantName == "" || req.AdminName == "" || req.Email == "" || req.Password == "" {
		h.jsonError(w, "restaurantName, adminName, email and password are required", http.StatusBadRequest)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	rest := &store.Restaurant{Name: req.RestaurantName}
	admin := &store.User{Name: req.AdminName, Email: req.Email, PasswordHash: string(hash)}
	trialEnds := time.Now().AddDate(0, 0, h.engine.AppConfig().Subscription.TrialDays)
	if err := h.engine.DB().RegisterRestaurant(r.Context(), rest, admin, trialEnds); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.jsonError(w, "restaurant or email already registered", http.StatusConflict)
			return
		}
		h.serverError(w, r, err)
		return
	}

	c := claimsFor(admin)
	token, err := h.auth.issue(c)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if err := h.auth.saveSession(w, r, c); err != nil {
		h.log.Warn().Err(err).Msg("save session")
	}
	h.engine.Events.Emit(engine.Event{Type: engine.EventSubscriptionChanged, Payload: engine.SubscriptionChangedEvent{
		TenantID: rest.ID, Status: store.SubscriptionTrial,
	}})
	h.jsonStatus(w, http.StatusCreated, map[string]any{"token": token, "restaurant": rest})
}

func (h *Handlers) apiLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	u, err := h.engine.DB().GetUserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.serverError(w, r, err)
		return
	}
	if u == nil || !u.IsActive || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		h.jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	rest, err := h.engine.DB().GetRestaurant(r.Context(), u.RestaurantID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	c := claimsFor(u)
	token, err := h.auth.issue(c)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if err := h.auth.saveSession(w, r, c); err != nil {
		h.log.Warn().Err(err).Msg("save session")
	}
	h.jsonOK(w, map[string]any{"token": token, "user": u, "restaurant": rest})
}

func (h *Handlers) apiLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.clearSession(w, r); err != nil {
		h.log.Warn().Err(err).Msg("clear session")
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiMe(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r.Context())
	u, err := h.engine.DB().GetUser(r.Context(), c.TenantID, c.UserID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	rest, err := h.engine.DB().GetRestaurant(r.Context(), c.TenantID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonOK(w, map[string]any{"user": u, "restaurant": rest})
}

func (h *Handlers) apiRestaurant(w http.ResponseWriter, r *http.Request) {
	rest, err := h.engine.DB().GetRestaurant(r.Context(), claimsFrom(r.Context()).TenantID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonOK(w, rest)
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handlers) apiListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.engine.DB().ListUsers(r.Context(), claimsFrom(r.Context()).TenantID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if users == nil {
		users = []*store.User{}
	}
	h.jsonOK(w, users)
}

func (h *Handlers) apiCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		h.jsonError(w, "name, email and password are required", http.StatusBadRequest)
		return
	}
	switch req.Role {
	case "":
		req.Role = store.RoleWaiter
	case store.RoleAdmin, store.RoleWaiter:
	default:
		h.jsonError(w, "invalid role", http.StatusBadRequest)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	u := &store.User{
		RestaurantID: claimsFrom(r.Context()).TenantID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if err := h.engine.DB().CreateUser(r.Context(), u); err != nil {
		h.storeError(w, r, err)
		return
	}
	h.jsonStatus(w, http.StatusCreated, u)
}
