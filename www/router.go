package www

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"ticketera/engine"
	"ticketera/store"
)

// NewRouter builds the HTTP API. The returned stop func disconnects live
// ticket clients so the server can shut down.
func NewRouter(eng *engine.Engine, log zerolog.Logger) (http.Handler, func()) {
	cfg := eng.AppConfig()
	h := &Handlers{
		engine: eng,
		auth:   newAuthenticator(cfg.Web.SessionSecret, cfg.Web.TokenTTL),
		log:    log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors(cfg.Web.AllowOrigin))

	r.Get("/health", h.apiHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.apiRegister)
		r.Post("/auth/login", h.apiLogin)
		r.Post("/auth/logout", h.apiLogout)
		r.Get("/public/restaurants/{slug}/menu", h.apiPublicMenu)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Get("/auth/me", h.apiMe)
			r.Get("/restaurants/me", h.apiRestaurant)

			r.Route("/menu", func(r chi.Router) {
				r.Post("/categories", h.apiCreateCategory)
				r.Get("/categories", h.apiListCategories)
				r.Delete("/categories/{id}", h.apiDeleteCategory)
				r.Post("/items", h.apiCreateItem)
				r.Get("/items", h.apiListItems)
				r.Put("/items/{id}", h.apiUpdateItem)
				r.Delete("/items/{id}", h.apiDeleteItem)
				r.Patch("/items/{id}/toggle", h.apiToggleItem)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.apiCreateOrder)
				r.Get("/", h.apiListOrders)
				r.Get("/active", h.apiActiveOrders)
				r.Get("/export.xlsx", h.apiExportOrders)
				r.Get("/{id}", h.apiGetOrder)
				r.Put("/{id}/status", h.apiUpdateOrderStatus)
			})

			r.Route("/printer", func(r chi.Router) {
				r.Get("/config", h.apiGetPrinterConfig)
				r.Put("/config", h.apiSavePrinterConfig)
				r.Post("/test", h.apiPrintTest)
				r.Post("/orders/{id}", h.apiPrintOrder)
				r.Get("/tickets", h.apiListTickets)
				r.Get("/stream", h.apiTicketStream)
				r.Get("/ws", h.apiTicketSocket)
			})

			r.Route("/subscription", func(r chi.Router) {
				r.Get("/", h.apiGetSubscription)
				r.Post("/checkout", h.apiCheckout)
				r.Post("/cancel-test", h.apiCancelSubscription)
			})

			r.With(h.requireActiveSubscription).Get("/dashboard/admin", h.apiAdminDashboard)

			r.Route("/users", func(r chi.Router) {
				r.Use(h.requireRole(store.RoleAdmin))
				r.Get("/", h.apiListUsers)
				r.Post("/", h.apiCreateUser)
			})
		})
	})

	stop := func() {
		if hub := eng.Hub(); hub != nil {
			hub.Close()
		}
	}
	return r, stop
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("took", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http")
		})
	}
}

func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
