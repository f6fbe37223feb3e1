package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Kirito-012/Ancient-Health/internal/catalog"
	"github.com/Kirito-012/Ancient-Health/internal/event"
	"github.com/Kirito-012/Ancient-Health/internal/gateway/razorpay"
	"github.com/Kirito-012/Ancient-Health/internal/orders"
	"github.com/Kirito-012/Ancient-Health/internal/session"
	"github.com/Kirito-012/Ancient-Health/pkg/health"
	"github.com/Kirito-012/Ancient-Health/pkg/middleware"

	backendapi "github.com/Kirito-012/Ancient-Health/internal/backend"
)

// RouterDeps carries everything the storefront routes need.
type RouterDeps struct {
	Hub           *session.Hub
	Backend       *backendapi.Client
	Widget        *razorpay.Widget
	Viewer        *orders.Viewer
	Catalog       *catalog.Service
	Events        *event.Publisher
	HealthHandler *health.Handler
	CORS          middleware.CORSConfig
	Logger        *slog.Logger
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORS(deps.CORS))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(SessionID)
	r.Use(middleware.RequestLogger(deps.Logger))

	// Health check endpoints
	r.Get("/health/live", deps.HealthHandler.LivenessHandler())
	r.Get("/health/ready", deps.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(deps.Hub, deps.Backend, deps.Logger)
	cartHandler := NewCartHandler(deps.Hub, deps.Events, deps.Logger)
	checkoutHandler := NewCheckoutHandler(deps.Hub, deps.Widget, deps.Events, deps.Logger)
	ordersHandler := NewOrdersHandler(deps.Hub, deps.Viewer, deps.Logger)
	catalogHandler := NewCatalogHandler(deps.Catalog, deps.Logger)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/signup", authHandler.Signup)
		r.Post("/send-otp", authHandler.SendOTP)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
		r.Put("/profile", authHandler.UpdateProfile)
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", cartHandler.Get)
		r.Post("/add", cartHandler.Add)
		r.Put("/update", cartHandler.Update)
		r.Delete("/remove/{productId}", cartHandler.Remove)
		r.Delete("/clear", cartHandler.Clear)
	})

	r.Route("/api/checkout", func(r chi.Router) {
		r.Get("/", checkoutHandler.Status)
		r.Post("/address", checkoutHandler.ConfirmAddress)
		r.Post("/pay", checkoutHandler.Pay)
		r.Post("/reset", checkoutHandler.Reset)
		r.Post("/callback/success", checkoutHandler.Success)
		r.Post("/callback/failure", checkoutHandler.Failure)
		r.Post("/callback/dismiss", checkoutHandler.Dismiss)
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/", ordersHandler.List)
		r.Get("/{id}", ordersHandler.Get)
	})

	r.Get("/api/products", catalogHandler.Products)
	r.Get("/api/categories", catalogHandler.Categories)

	return r
}
