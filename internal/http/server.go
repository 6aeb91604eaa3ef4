package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"subtrack/internal/auth"
	"subtrack/internal/cache"
	"subtrack/internal/middleware/ratelimit"
	"subtrack/internal/middleware/security"
	"subtrack/internal/middleware/trace"
	"subtrack/internal/services"
	"subtrack/internal/storage"
)

// SettingsStore persists per-user display preferences. The SQLite
// repository implements it.
type SettingsStore interface {
	GetUserSettings(ctx context.Context, userID string, defaults storage.UserSettings) (storage.UserSettings, error)
	SaveUserSettings(ctx context.Context, userID string, s storage.UserSettings) error
}

type Server struct {
	http.Server

	subs     *services.SubscriptionService
	auth     *auth.Service
	settings SettingsStore
	defaults storage.UserSettings

	limiter *ratelimit.Limiter

	// viewCache holds marshaled dashboard responses keyed by
	// "<userID>:<view>", invalidated per user on every write.
	viewCache *cache.LRUCache[[]byte]
	cacheMgr  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, subSvc *services.SubscriptionService, authSvc *auth.Service, settings SettingsStore, defaults storage.UserSettings) *Server {
	mux := http.NewServeMux()

	s := &Server{
		subs:      subSvc,
		auth:      authSvc,
		settings:  settings,
		defaults:  defaults,
		limiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		viewCache: cache.NewLRUCache[[]byte](500, 5*time.Minute),
		cacheMgr:  cache.NewManager(),
	}
	s.cacheMgr.Register(s.viewCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/v1/auth/logout", s.handleLogout)

	authed := auth.Middleware(authSvc)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authed(h))
	}

	handle("GET /api/v1/subscriptions", s.handleListSubscriptions)
	handle("POST /api/v1/subscriptions", s.handleCreateSubscription)
	handle("GET /api/v1/subscriptions/{id}", s.handleGetSubscription)
	handle("PUT /api/v1/subscriptions/{id}", s.handleUpdateSubscription)
	handle("DELETE /api/v1/subscriptions/{id}", s.handleDeleteSubscription)
	handle("PATCH /api/v1/subscriptions/{id}/active", s.handleSetSubscriptionActive)

	handle("GET /api/v1/dashboard/summary", s.handleDashboardSummary)
	handle("GET /api/v1/dashboard/top-categories", s.handleTopCategories)
	handle("GET /api/v1/dashboard/upcoming", s.handleUpcomingRenewals)

	handle("GET /api/v1/settings", s.handleGetSettings)
	handle("PUT /api/v1/settings", s.handleSaveSettings)

	traced := trace.NewMiddleware()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Server = http.Server{
		Addr:              addr,
		Handler:           headers.Middleware(traced.Middleware(s.withRateLimit(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// withRateLimit throttles mutating requests per client IP.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			if !s.limiter.Allow(trace.ClientIP(r)) {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// invalidateViews drops all cached dashboard views for a user.
func (s *Server) invalidateViews(userID string) {
	s.viewCache.DeletePrefix(userID + ":")
}

// Shutdown stops the HTTP listener and background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ready")
}
