package auth

import (
	"crypto/sha256"
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const sessionName = "fintrack-session"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   string
	Message string
}

// Flash levels, mapped to styling in the templates.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

func init() {
	gob.Register(Flash{})
}

// Sessions manages the encrypted session cookie: who is signed in and any
// pending flash messages.
type Sessions struct {
	store  *sessions.CookieStore
	logger *log.Logger
}

// NewSessions builds a cookie store from the configured session key.
// Two 32-byte keys are derived from it: an HMAC signing key and an AES
// encryption key, so the raw secret never becomes a cookie key directly.
func NewSessions(sessionKey string, secure bool, logger *log.Logger) *Sessions {
	authKey := sha256.Sum256([]byte(sessionKey + "auth"))
	encKey := sha256.Sum256([]byte(sessionKey + "encryption"))

	store := sessions.NewCookieStore(authKey[:], encKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Sessions{
		store:  store,
		logger: logger.WithComponent(log.ComponentAuth),
	}
}

// SignIn records the user in the session cookie.
func (s *Sessions) SignIn(w http.ResponseWriter, r *http.Request, user core.User) error {
	session, _ := s.store.Get(r, sessionName)
	session.Values["user_id"] = user.ID
	session.Values["username"] = user.Username
	return session.Save(r, w)
}

// SignOut removes the user from the session. The session itself stays
// alive so a flash message queued right after still reaches the next page.
func (s *Sessions) SignOut(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, sessionName)
	delete(session.Values, "user_id")
	delete(session.Values, "username")
	return session.Save(r, w)
}

// Identify reads the signed-in user from the session cookie.
func (s *Sessions) Identify(r *http.Request) (Identity, bool) {
	session, _ := s.store.Get(r, sessionName)
	userID, ok := session.Values["user_id"].(int64)
	if !ok || userID == 0 {
		return Identity{}, false
	}
	username, _ := session.Values["username"].(string)
	return Identity{UserID: userID, Username: username}, true
}

// AddFlash queues a one-shot message for the next rendered page.
func (s *Sessions) AddFlash(w http.ResponseWriter, r *http.Request, level, message string) {
	session, _ := s.store.Get(r, sessionName)
	session.AddFlash(Flash{Level: level, Message: message})
	if err := session.Save(r, w); err != nil {
		s.logger.WarnContext(r.Context(), "failed to save flash message", log.FieldError, err.Error())
	}
}

// PopFlashes drains and returns the queued flash messages.
func (s *Sessions) PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	session, _ := s.store.Get(r, sessionName)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		s.logger.WarnContext(r.Context(), "failed to clear flash messages", log.FieldError, err.Error())
	}

	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if flash, ok := f.(Flash); ok {
			flashes = append(flashes, flash)
		}
	}
	return flashes
}

// IdentifyMiddleware resolves the session cookie once per request and
// attaches the identity, when present, to the request context.
func (s *Sessions) IdentifyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := s.Identify(r); ok {
			ctx := WithIdentity(r.Context(), id)
			logger := log.FromContext(ctx).With(log.FieldUserID, id.UserID)
			ctx = log.IntoContext(ctx, logger)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser guards a handler: anonymous requests are redirected to the
// login page with a warning flash instead of reaching the handler.
func (s *Sessions) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			s.AddFlash(w, r, FlashWarning, "Please log in to access this page.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
