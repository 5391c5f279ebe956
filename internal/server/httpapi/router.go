// Package httpapi exposes the services over a JSON HTTP API.
package httpapi

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/logging"
	"github.com/dmitrijs2005/ashdiag/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// Handler is the HTTP adapter over the service layer.
type Handler struct {
	redemption     *services.RedemptionService
	keys           *services.KeyService
	sessions       *services.SessionService
	diagnostics    *services.DiagnosticService
	admin          *services.AdminService
	allowedOrigins map[string]struct{}
	trustedProxies []netip.Prefix
	log            logging.Logger
	now            func() time.Time
}

// Services groups the dependencies of Handler.
type Services struct {
	Redemption  *services.RedemptionService
	Keys        *services.KeyService
	Sessions    *services.SessionService
	Diagnostics *services.DiagnosticService
	Admin       *services.AdminService
}

// Options configures the browser and proxy facing behaviour of Handler.
type Options struct {
	AllowedOrigins []string
	// TrustedProxies are peers allowed to report the client address in
	// X-Forwarded-For. See ParseTrustedProxies.
	TrustedProxies []netip.Prefix
}

func NewHandler(s Services, opts Options, log logging.Logger) *Handler {
	origins := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		origins[o] = struct{}{}
	}
	return &Handler{
		redemption:     s.Redemption,
		keys:           s.Keys,
		sessions:       s.Sessions,
		diagnostics:    s.Diagnostics,
		admin:          s.Admin,
		allowedOrigins: origins,
		trustedProxies: opts.TrustedProxies,
		log:            log.With("module", "http"),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// NewRouter registers routes and the middleware stack.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.loggingMiddleware)
	r.Use(h.corsMiddleware)

	r.Get("/healthz", h.healthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/keys/verify", h.verifyKey)
		r.Post("/diagnostics", h.submitDiagnostic)
		r.Post("/admin/login", h.adminLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware)
			r.Get("/admin/diagnostics", h.listDiagnostics)
			r.Get("/admin/keys", h.listKeys)
			r.Post("/admin/keys", h.generateKeys)
			r.Post("/admin/sessions/sweep", h.sweepSessions)
		})
	})

	return r
}
