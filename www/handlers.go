package www

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ticketera/engine"
	"ticketera/store"
)

type Handlers struct {
	engine *engine.Engine
	auth   *authenticator
	log    zerolog.Logger
}

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	h.jsonStatus(w, http.StatusOK, data)
}

func (h *Handlers) jsonStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	h.jsonError(w, "internal error", http.StatusInternalServerError)
}

// storeError maps store sentinels onto status codes.
func (h *Handlers) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.jsonError(w, "not found", http.StatusNotFound)
	case errors.Is(err, store.ErrDuplicate):
		h.jsonError(w, "already exists", http.StatusConflict)
	case errors.Is(err, store.ErrInUse):
		h.jsonError(w, "still in use", http.StatusConflict)
	case errors.Is(err, store.ErrUnknownMenuItem):
		h.jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrInvalidStatus):
		h.jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		h.serverError(w, r, err)
	}
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func queryLimit(r *http.Request, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// wholeCents reports whether d has no digits past the cent. Tickets print
// two decimals, so finer prices would not add up to the printed total.
func wholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
