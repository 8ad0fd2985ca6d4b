package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/seat-booking-engine/internal/idempotency"
	"github.com/robertarktes/seat-booking-engine/internal/observability"
	"github.com/robertarktes/seat-booking-engine/internal/ratelimit"
)

func SetupRouter(h *Handlers, logger observability.Logger, rl *ratelimit.RateLimiter, idemp *idempotency.Idempotency) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(RateLimitMiddleware(rl))

	r.Group(func(r chi.Router) {
		r.Use(IdempotencyMiddleware(idemp))
		r.Post("/v1/locks", h.CreateLock)
		r.Post("/v1/payments/intents", h.CreatePaymentIntent)
	})

	r.Post("/v1/bookings/confirm", h.ConfirmBooking)
	r.Post("/v1/bookings/{id}/cancel", h.CancelBooking)
	r.Post("/v1/jobs/{type}/run", h.TriggerSweep)
	r.Get("/v1/bookings/{id}", h.GetBooking)
	r.Get("/v1/locks/{id}", h.GetLock)
	r.Get("/v1/events/{id}", h.GetEvent)
	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
