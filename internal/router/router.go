// Package router собирает HTTP маршруты API.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"marketplace/internal/handlers"
)

type Options struct {
	Logger             zerolog.Logger
	CORSAllowedOrigins []string
}

func New(h *handlers.Handler, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(opts.Logger))
	r.Use(requestIDField)
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)
		r.Post("/registration/", h.RegistrationHandler)
		r.Post("/login/", h.LoginHandler)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			// профили
			r.Get("/profile/{userId}/", h.GetProfileHandler)
			r.Patch("/profile/{userId}/", h.UpdateProfileHandler)
			r.Get("/profiles/{profileType}/", h.ListProfilesHandler)
			// предложения
			r.Get("/offers/", h.GetOffersHandler)
			r.Post("/offers/", h.CreateOfferHandler)
			r.Get("/offers/{offerId}/", h.GetOfferHandler)
			r.Patch("/offers/{offerId}/", h.EditOfferHandler)
			r.Delete("/offers/{offerId}/", h.DeleteOfferHandler)
			r.Get("/offerdetails/{detailId}/", h.GetOfferDetailHandler)
			// заказы
			r.Get("/orders/", h.GetOrdersHandler)
			r.Post("/orders/", h.CreateOrderHandler)
			r.Get("/orders/{orderId}/", h.GetOrderHandler)
			r.Patch("/orders/{orderId}/", h.UpdateOrderStatusHandler)
			r.Delete("/orders/{orderId}/", h.DeleteOrderHandler)
			r.Get("/order-count/{businessUserId}/", h.OrderCountHandler)
			r.Get("/completed-order-count/{businessUserId}/", h.CompletedOrderCountHandler)
			// отзывы
			r.Get("/reviews/", h.GetReviewsHandler)
			r.Post("/reviews/", h.CreateReviewHandler)
			r.Get("/reviews/{reviewId}/", h.GetReviewHandler)
			r.Patch("/reviews/{reviewId}/", h.EditReviewHandler)
			r.Delete("/reviews/{reviewId}/", h.DeleteReviewHandler)
			// статистика
			r.Get("/base-info/", h.BaseInfoHandler)
		})
	})
	return r
}

// requestIDField добавляет id запроса chi в логгер запроса
func requestIDField(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
			w.Header().Set(middleware.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}
