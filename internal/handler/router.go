package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/mmeshcher/sandwichshop/internal/apperr"
	custommiddleware "github.com/mmeshcher/sandwichshop/internal/middleware"
	"github.com/mmeshcher/sandwichshop/internal/model"
)

const msgTooManyRequests = "too many requests, please try again later"

// SetupRouter настраивает HTTP-маршруты и middleware сервиса сэндвич-бара.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(custommiddleware.WithRequestInfo(nil))
	r.Use(custommiddleware.Recoverer(h.logger, h.renderer))
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(custommiddleware.SecureHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Encoding"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: !allowsAnyOrigin(h.opts.CORSOrigins),
		MaxAge:           300,
	}))
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(chimiddleware.RequestSize(custommiddleware.MaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.renderer.Error(w, r, apperr.NotFound("route", "can't find "+r.URL.Path+" on this server"))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.renderer.Fail(w, http.StatusMethodNotAllowed, "method "+r.Method+" is not allowed on "+r.URL.Path)
	})

	r.Route("/api", func(r chi.Router) {
		if h.opts.RateLimit > 0 {
			r.Use(httprate.Limit(
				h.opts.RateLimit,
				h.opts.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByRealIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					h.renderer.Fail(w, http.StatusTooManyRequests, msgTooManyRequests)
				}),
			))
		}

		r.Route("/v1", h.routesV1)
	})

	return r
}

func (h *Handler) routesV1(r chi.Router) {
	authenticated := h.authMiddleware.Middleware
	adminOnly := h.authMiddleware.RequireRole(model.RoleAdmin)

	r.Route("/sandwiches", func(r chi.Router) {
		r.Get("/", h.ListSandwiches)
		r.Get("/{id}", h.GetSandwich)

		r.Group(func(r chi.Router) {
			r.Use(authenticated, adminOnly)

			r.Post("/", h.CreateSandwich)
			r.Patch("/{id}", h.UpdateSandwich)
			r.Delete("/{id}", h.DeleteSandwich)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)

		r.With(authenticated).Get("/user/{userId}", h.ListUserOrders)

		r.Group(func(r chi.Router) {
			r.Use(authenticated, adminOnly)

			r.Get("/admin", h.ListOrders)
			r.Get("/admin/stats", h.AdminStats)
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)

		r.With(authenticated).Get("/me", h.Me)
		r.With(authenticated, adminOnly).Get("/users", h.ListUsers)
	})
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
