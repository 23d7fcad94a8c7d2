package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finitefield.org/elevates-web/internal/catalog"
	mw "finitefield.org/elevates-web/internal/middleware"
	"finitefield.org/elevates-web/internal/observability"
	"finitefield.org/elevates-web/internal/pricing"
	"finitefield.org/elevates-web/internal/questions"
	"finitefield.org/elevates-web/internal/shopper"
	"finitefield.org/elevates-web/internal/views"
)

type app struct {
	logger    *zap.Logger
	catalog   *catalog.Catalog
	views     *views.Renderer
	sessions  *mw.SessionManager
	shoppers  *shopper.Registry
	questions questions.Submitter
	// asked lists in-memory questions on the product page; nil with a real backend.
	asked    *questions.Recorder
	taxRate  decimal.Decimal
	shipping []pricing.ShippingOption
}

func (a *app) routes() http.Handler {
	if a.shipping == nil {
		a.shipping = pricing.DefaultShippingOptions()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP.
	r.Use(chimw.RealIP)
	r.Use(observability.InjectLoggerMiddleware(a.logger.Named("http")))
	r.Use(observability.TraceMiddleware)
	r.Use(observability.RecoveryMiddleware(a.logger.Named("http")))
	r.Use(observability.RequestLoggerMiddleware)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(mw.HTMX)
	r.Use(a.sessions.Middleware)
	r.Use(a.sessions.CSRF)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.NotFound(a.notFound)

	r.Get("/", a.homeHandler)
	r.Route("/products", func(r chi.Router) {
		r.Get("/", a.productsHandler)
		r.Route("/{product}", func(r chi.Router) {
			r.Get("/", a.productHandler)
			r.Get("/quantity", a.productQuantityFrag)
			r.Post("/cart", a.addToCartHandler)
			r.Post("/buy", a.buyNowHandler)
			r.Post("/card/{op}", a.productCardHandler)
			r.Post("/questions", a.questionSubmitHandler)
		})
	})

	r.Get("/cart", a.cartSidebarHandler)
	r.Post("/cart/items/{id}/{op}", a.cartItemHandler)
	r.Delete("/cart/items/{id}", a.cartRemoveHandler)

	r.Get("/checkout", a.checkoutHandler)
	r.Post("/checkout/address", a.checkoutAddressHandler)
	r.Post("/checkout/shipping", a.checkoutShippingHandler)
	r.Post("/checkout/billing", a.checkoutBillingHandler)
	r.Post("/checkout/pay", a.checkoutPayHandler)
	r.Post("/addresses", a.addressSubmitHandler)

	r.Post("/overlays/escape", a.overlayEscapeHandler)
	r.Get("/overlays/{name}", a.overlayOpenHandler)
	r.Post("/overlays/{name}/close", a.overlayCloseHandler)
	r.Get("/search", a.searchHandler)

	r.Get("/profile", a.profileHandler)
	r.Get("/profile/{section}", a.profileHandler)
	r.Get("/login", a.loginHandler)
	r.Post("/login", a.loginSubmitHandler)

	return r
}
