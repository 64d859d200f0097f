package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/csrf"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	appweb "fintrack/web"
)

// Config holds the HTTP surface settings.
type Config struct {
	Addr       string
	SessionKey string

	// Requests per minute allowed on the credential endpoints, per client.
	LoginRequestsPerMinute int

	// SecureCookies marks the session and CSRF cookies Secure. Off for
	// local plain-HTTP development.
	SecureCookies bool

	// DisableCSRF turns off the CSRF wrapper. Only tests set this.
	DisableCSRF bool
}

// Server is the web frontend: session auth, the transaction forms and the
// dashboard.
type Server struct {
	http.Server

	mux       *http.ServeMux
	ledger    *services.LedgerService
	accounts  *services.AccountService
	sessions  *auth.Sessions
	templates *template.Template
	logger    *log.Logger

	limiter      *ratelimit.Limiter
	detector     *security.Detector
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(cfg Config, ledger *services.LedgerService, accounts *services.AccountService, sessions *auth.Sessions, logger *log.Logger) (*Server, error) {
	mux := http.NewServeMux()

	s := &Server{
		mux:      mux,
		ledger:   ledger,
		accounts: accounts,
		sessions: sessions,
		logger:   logger.WithComponent(log.ComponentHTTP),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.LoginRequestsPerMinute,
		}),
		detector:     security.NewDetector(),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(ledger.SummaryCache())
	s.cacheManager.StartCleanup(10 * time.Minute)

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	s.routes()

	handler := s.buildHandler(cfg, logger)
	s.Server = http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

func (s *Server) routes() {
	// Static assets from the embedded FS.
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		s.mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("failed to mount embedded static FS", log.FieldError, err.Error())
	}

	s.mux.HandleFunc("GET /healthz", handleHealth)
	s.mux.HandleFunc("GET /readyz", handleReady)

	s.mux.HandleFunc("GET /{$}", s.handleIndex)

	// Credential endpoints; POSTs go through the per-client rate limit.
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, nil)
	s.mux.HandleFunc("GET /register", s.handleShowRegister)
	s.mux.Handle("POST /register", limited(http.HandlerFunc(s.handleRegister)))
	s.mux.HandleFunc("GET /login", s.handleShowLogin)
	s.mux.Handle("POST /login", limited(http.HandlerFunc(s.handleLogin)))
	// Everything below requires a signed-in user.
	guard := s.sessions.RequireUser
	s.mux.Handle("GET /logout", guard(http.HandlerFunc(s.handleLogout)))
	s.mux.Handle("GET /dashboard", guard(http.HandlerFunc(s.handleDashboard)))
	s.mux.Handle("GET /add_transaction", guard(http.HandlerFunc(s.handleShowAddTransaction)))
	s.mux.Handle("POST /add_transaction", guard(http.HandlerFunc(s.handleAddTransaction)))
	s.mux.Handle("GET /transactions", guard(http.HandlerFunc(s.handleListTransactions)))
	s.mux.Handle("POST /delete_transaction/{id}", guard(http.HandlerFunc(s.handleDeleteTransaction)))
}

// buildHandler wires the middleware chain around the mux: request tracing
// outermost, then security headers, session identity, and CSRF protection
// closest to the routes.
func (s *Server) buildHandler(cfg Config, logger *log.Logger) http.Handler {
	var handler http.Handler = s.mux

	if !cfg.DisableCSRF {
		authKey := csrfKey(cfg.SessionKey)
		handler = csrf.Protect(authKey,
			csrf.Secure(cfg.SecureCookies),
			csrf.Path("/"),
		)(handler)
	}

	handler = s.sessions.IdentifyMiddleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(s.detector.ExtractClientIP).Middleware(handler)
	handler = log.Middleware(logger)(handler)

	return handler
}

// Shutdown stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
