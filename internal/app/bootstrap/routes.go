// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/stratacms/internal/app/features/adminapi"
	"github.com/dalemusser/stratacms/internal/app/features/contentapi"
	healthfeature "github.com/dalemusser/stratacms/internal/app/features/health"
	leadsfeature "github.com/dalemusser/stratacms/internal/app/features/leads"
	loginfeature "github.com/dalemusser/stratacms/internal/app/features/login"
	"github.com/dalemusser/stratacms/internal/app/system/apicors"
	"github.com/dalemusser/stratacms/internal/app/system/auditlog"
	"github.com/dalemusser/stratacms/internal/app/system/auth"
	"github.com/dalemusser/stratacms/internal/app/system/catalog"
	"github.com/dalemusser/stratacms/internal/app/system/jsonutil"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// requestTimeout bounds every request.
const requestTimeout = 30 * time.Second

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// Route layout:
//   - /api/content, /api/courses, /api/categories: public reads (permissive CORS)
//   - /api/leads: public lead capture (permissive CORS)
//   - /api/admin/login: admin token issue
//   - /api/admin/*: bearer-token protected admin API
//   - /health, /ready, /readyz, /livez: probes
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	gate, err := auth.NewGate(auth.GateConfig{
		AdminPassword: appCfg.AdminPassword,
		TokenSecret:   appCfg.TokenSecret,
		TokenTTL:      appCfg.TokenTTL,
		AdminUser:     appCfg.AdminUser,
	}, logger)
	if err != nil {
		logger.Error("admin gate init failed", zap.Error(err))
		return nil, err
	}

	// Audit entries go to the content store's audit trail and/or zap.
	auditLogger := auditlog.New(deps.Content, logger, auditlog.Config{
		Auth:       appCfg.AuditLogAuth,
		Admin:      appCfg.AuditLogAdmin,
		TrustProxy: appCfg.TrustProxy,
	})

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	r.Use(chimw.RequestID)

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(requestTimeout))

	// CORS middleware from core config; governs the admin surface.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		jsonutil.NotFound(w, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		jsonutil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// ─────────────────────────────────────────────────────────────────────────────
	// API
	// ─────────────────────────────────────────────────────────────────────────────

	r.Mount("/api", apiRouter(appCfg, deps, gate, auditLogger, logger))

	// ─────────────────────────────────────────────────────────────────────────────
	// Health
	// ─────────────────────────────────────────────────────────────────────────────

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	logger.Info("routes mounted",
		zap.Bool("rate_limit", deps.RateLimit != nil),
		zap.Bool("trust_proxy", appCfg.TrustProxy),
		zap.String("public_cors_origins", appCfg.PublicCORSOrigins),
	)
	return r, nil
}

// apiRouter builds the /api subtree.
func apiRouter(appCfg AppConfig, deps DBDeps, gate *auth.Gate, auditLogger *auditlog.Logger, logger *zap.Logger) http.Handler {
	// The public site may be served from another origin. Wrapping the
	// mounted routers (rather than Use on a group) lets preflight OPTIONS
	// reach the CORS handler before chi's method routing.
	publicCORS := apicors.FromList(appCfg.PublicCORSOrigins)

	// A nil *ratelimit.Store must stay a nil Limiter.
	var limiter loginfeature.Limiter
	if deps.RateLimit != nil {
		limiter = deps.RateLimit
	}

	contentHandler := contentapi.NewHandler(deps.Content, logger)
	leadsHandler := leadsfeature.NewHandler(deps.Leads, deps.Content, appCfg.TrustProxy, logger)
	if deps.LeadNotifier != nil {
		leadsHandler.SetNotifier(deps.LeadNotifier)
	}
	loginHandler := loginfeature.NewHandler(gate, limiter, auditLogger, appCfg.TrustProxy, logger)
	adminHandler := adminapi.NewHandler(deps.Content, catalog.New(deps.Content, logger), auditLogger, logger)

	api := chi.NewRouter()
	api.NotFound(func(w http.ResponseWriter, req *http.Request) {
		jsonutil.NotFound(w, "not found")
	})

	api.Mount("/leads", publicCORS(leadsfeature.PublicRoutes(leadsHandler)))

	api.Mount("/admin/login", loginfeature.Routes(loginHandler))
	api.Mount("/admin/leads", leadsfeature.AdminRoutes(leadsHandler, gate.RequireAdmin))
	api.Mount("/admin", adminapi.Routes(adminHandler, gate.RequireAdmin))

	api.Mount("/", publicCORS(contentapi.Routes(contentHandler)))
	return api
}
