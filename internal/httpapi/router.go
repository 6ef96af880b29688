package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openshop/checkout/internal/gateway"
	"github.com/openshop/checkout/internal/session"
)

// NewRouter assembles the storefront cart/checkout API.
func NewRouter(sessions *session.Manager, shops gateway.ShopDirectory, requestTimeout time.Duration) chi.Router {
	cartHandler := NewCartHandler(sessions, shops)
	shippingHandler := NewShippingHandler(sessions)
	checkoutHandler := NewCheckoutHandler(sessions)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(AuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Get("/quote", cartHandler.Quote)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{line_id}", cartHandler.SetQuantity)
			r.Delete("/items/{line_id}", cartHandler.RemoveItem)
			r.Post("/items/{line_id}/toggle", cartHandler.ToggleSelected)
			r.Put("/shops/{shop_id}/selection", cartHandler.SetShopSelection)
		})

		r.Route("/shipping-profile", func(r chi.Router) {
			r.Get("/", shippingHandler.GetProfile)
			r.Put("/", shippingHandler.UpdateProfile)
			r.Post("/save", shippingHandler.SaveProfile)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.Submit)
			r.Get("/status", checkoutHandler.Status)
		})
	})

	return r
}
