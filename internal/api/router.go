package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/provosthq/provost/internal/audit"
	"github.com/provosthq/provost/internal/auth"
	"github.com/provosthq/provost/internal/membership"
	"github.com/provosthq/provost/internal/metrics"
	"github.com/provosthq/provost/internal/principal"
	"github.com/provosthq/provost/internal/ratelimit"
	"github.com/provosthq/provost/internal/tenant"
)

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	Verifier    *auth.Verifier
	Tokens      *auth.TokenManager
	Guard       *auth.Guard
	Principals  *principal.Store
	Memberships *membership.Store
	Tenants     *tenant.Store
	AuditStore  *audit.Store
	Collector   *audit.Collector
	Limiter     *ratelimit.Limiter
	Metrics     *metrics.Metrics
	CORSOrigins []string
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(requestIDMiddleware)
	r.Use(corsMiddleware(deps.CORSOrigins))
	r.Use(secureHeaders)
	r.Use(slogRequestLogger)
	r.Use(metricsMiddleware(deps.Metrics))
	// The edge check wraps everything, pages included, so an unauthenticated
	// page request redirects to login and a foreign tenant slug bounces before
	// routing. Its own allowlist keeps login, register, health, and metrics
	// open.
	r.Use(auth.EdgeMiddleware(deps.Tokens, deps.Metrics.IncSessionRejected))

	// Handlers.
	rec := &recorder{collector: deps.Collector, metrics: deps.Metrics}
	authH := newAuthHandler(deps.Verifier, deps.Tokens, deps.Principals, rec, deps.Metrics)
	registerH := newRegisterHandler(deps.Tenants, rec, deps.Metrics)
	membersH := newMembersHandler(deps.Memberships, deps.Guard, rec, deps.Metrics)
	dashboardH := newDashboardHandler(deps.Memberships, deps.AuditStore, deps.Guard)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Prometheus exposition.
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	// Public (unauthenticated) routes. Login is throttled per client IP.
	loginLimited := ratelimit.Middleware(deps.Limiter, func() {
		deps.Metrics.IncRateLimitRejection("login")
	})
	r.With(loginLimited).Post("/api/auth/login", authH.Login)
	r.Post("/api/auth/register", registerH.Register)

	// Session-guarded routes.
	r.Group(func(pr chi.Router) {
		pr.Post("/api/auth/logout", authH.Logout)
		pr.Get("/api/auth/me", authH.Me)
		pr.Get("/api/auth/post-login", authH.PostLogin)
		pr.Post("/api/auth/tenant", authH.SwitchTenant)

		pr.Route("/api/tenants/{tenantSlug}", func(tr chi.Router) {
			tr.Get("/admin/users", membersH.List)
			tr.Patch("/admin/users", membersH.UpdateStatus)
			tr.Get("/admin/dashboard", dashboardH.Admin)
			tr.Get("/scholar/dashboard", dashboardH.Scholar)
		})
	})

	return r
}

// slogRequestLogger is a simple structured logging middleware using slog.
func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", ww.BytesWritten(),
			"request_id", RequestIDFromContext(r.Context()),
		)
	})
}
