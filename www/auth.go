package www

import (
	"context"
	"crypto/sha256"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/hkdf"

	"ticketera/store"
	"ticketera/substate"
)

const (
	tokenName   = "ticketera-token"
	sessionName = "ticketera"
)

// Claims identify the caller; every tenant-scoped query takes TenantID from
// here and nowhere else.
type Claims struct {
	UserID   string `json:"uid"`
	TenantID string `json:"rid"`
	Role     string `json:"role"`
}

type ctxKey struct{}

func claimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(ctxKey{}).(*Claims)
	return c
}

// authenticator issues bearer tokens and session cookies carrying Claims.
type authenticator struct {
	codec    *securecookie.SecureCookie
	sessions *sessions.CookieStore
}

// Key labels for deriving the cookie keys from the one configured secret.
const (
	hashKeyLabel  = "ticketera cookie hash key"
	blockKeyLabel = "ticketera cookie block key"
)

// deriveKey expands secret into an n-byte key bound to label.
func deriveKey(secret, label string, n int) []byte {
	key := make([]byte, n)
	// hkdf only errors past 255 hash blocks
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(label)), key); err != nil {
		panic(err)
	}
	return key
}

func newAuthenticator(secret string, ttl time.Duration) *authenticator {
	hashKey := deriveKey(secret, hashKeyLabel, 64)
	blockKey := deriveKey(secret, blockKeyLabel, 32)

	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(ttl.Seconds()))

	cs := sessions.NewCookieStore(hashKey, blockKey)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	cs.MaxAge(int(ttl.Seconds()))
	return &authenticator{codec: codec, sessions: cs}
}

func (a *authenticator) issue(c *Claims) (string, error) {
	return a.codec.Encode(tokenName, c)
}

func (a *authenticator) parse(token string) (*Claims, error) {
	var c Claims
	if err := a.codec.Decode(tokenName, token, &c); err != nil {
		return nil, err
	}
	if c.UserID == "" || c.TenantID == "" {
		return nil, errors.New("incomplete claims")
	}
	return &c, nil
}

func (a *authenticator) saveSession(w http.ResponseWriter, r *http.Request, c *Claims) error {
	sess, _ := a.sessions.Get(r, sessionName)
	sess.Values["uid"] = c.UserID
	sess.Values["rid"] = c.TenantID
	sess.Values["role"] = c.Role
	return sess.Save(r, w)
}

func (a *authenticator) clearSession(w http.ResponseWriter, r *http.Request) error {
	sess, _ := a.sessions.Get(r, sessionName)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

func (a *authenticator) fromSession(r *http.Request) *Claims {
	sess, err := a.sessions.Get(r, sessionName)
	if err != nil || sess.IsNew {
		return nil
	}
	uid, _ := sess.Values["uid"].(string)
	rid, _ := sess.Values["rid"].(string)
	role, _ := sess.Values["role"].(string)
	if uid == "" || rid == "" {
		return nil
	}
	return &Claims{UserID: uid, TenantID: rid, Role: role}
}

// claims accepts, in order: Authorization: Bearer, ?token= (EventSource and
// WebSocket clients cannot set headers), then the session cookie.
func (a *authenticator) claims(r *http.Request) *Claims {
	token := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	} else if q := r.URL.Query().Get("token"); q != "" {
		token = q
	}
	if token != "" {
		c, err := a.parse(token)
		if err != nil {
			return nil
		}
		return c
	}
	return a.fromSession(r)
}

func (h *Handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := h.auth.claims(r)
		if c == nil {
			h.jsonError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, c)))
	})
}

func (h *Handlers) requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c := claimsFrom(r.Context()); c == nil || c.Role != role {
				h.jsonError(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireActiveSubscription lets TRIAL (before its end) and ACTIVE through.
func (h *Handlers) requireActiveSubscription(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := claimsFrom(r.Context())
		err := h.engine.Subscriptions().Check(r.Context(), c.TenantID)
		switch {
		case err == nil:
			next.ServeHTTP(w, r)
		case errors.Is(err, substate.ErrNoSubscription):
			h.jsonError(w, "subscription not configured", http.StatusForbidden)
		case errors.Is(err, substate.ErrTrialExpired):
			h.jsonError(w, "trial period expired, payment required", http.StatusPaymentRequired)
		case errors.Is(err, substate.ErrInactive):
			h.jsonError(w, "subscription inactive, payment required", http.StatusPaymentRequired)
		default:
			h.serverError(w, r, err)
		}
	})
}

func claimsFor(u *store.User) *Claims {
	return &Claims{UserID: u.ID, TenantID: u.RestaurantID, Role: u.Role}
}
