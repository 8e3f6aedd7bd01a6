// Package router assembles the HTTP surface: the /api routes, the admin guard and the storefront.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/spa-intake/internal/http/handlers"
	"github.com/diagnosis/spa-intake/internal/http/middleware"
	"github.com/diagnosis/spa-intake/internal/http/response"
	mw "github.com/diagnosis/spa-intake/pkg/middleware"
)

type Handlers struct {
	Bookings *handlers.BookingsHandler
	Admin    *handlers.AdminHandler
	Auth     *handlers.AuthHandler
	Health   *handlers.HealthHandler
	Site     http.Handler
}

type Options struct {
	SiteName  string
	JWTSecret string
	// ExportRequiresAdmin moves /api/export, /api/export-all and /api/stats behind the guard.
	ExportRequiresAdmin bool
	// Submit wraps POST /api/submit, e.g. rate limiting and idempotency.
	Submit []func(http.Handler) http.Handler
}

func New(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Deployment(opts.SiteName))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(mw.CORS())

	r.Route("/api", func(r chi.Router) {
		r.NotFound(handlers.NotFound)
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			response.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		})

		r.Get("/health", h.Health.Health)
		r.With(opts.Submit...).Post("/submit", h.Bookings.Submit)
		r.Post("/admin/check-password", h.Auth.CheckPassword)

		reports := func(r chi.Router) {
			r.Get("/export", h.Bookings.ExportToday)
			r.Get("/export-all", h.Bookings.ExportAll)
			r.Get("/stats", h.Bookings.Stats)
		}
		if !opts.ExportRequiresAdmin {
			reports(r)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(opts.JWTSecret))
			r.Post("/admin/submit", h.Admin.Submit)
			r.Get("/admin/export", h.Admin.Export)
			if opts.ExportRequiresAdmin {
				reports(r)
			}
		})
	})

	r.Method(http.MethodGet, "/*", h.Site)
	r.Method(http.MethodHead, "/*", h.Site)

	return r
}
