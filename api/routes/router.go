package routes

import (
	"net/http"

	"github.com/angelboost/storefront-backend/api/controllers"
	"github.com/angelboost/storefront-backend/api/middleware"
	cartsvc "github.com/angelboost/storefront-backend/internal/cart"
	checkoutsvc "github.com/angelboost/storefront-backend/internal/checkout"
	ordersvc "github.com/angelboost/storefront-backend/internal/orders"
	productsvc "github.com/angelboost/storefront-backend/internal/products"
	"github.com/angelboost/storefront-backend/pkg/config"
	"github.com/angelboost/storefront-backend/pkg/db"
	"github.com/angelboost/storefront-backend/pkg/logger"
	"github.com/angelboost/storefront-backend/pkg/redis"
	"github.com/go-chi/chi/v5"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	productService productsvc.Service,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	orderService ordersvc.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(cfg.Session, logg))

		r.Get("/products", controllers.ListProducts(productService, logg))
		r.Get("/products/{productId}", controllers.GetProduct(productService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.FetchCart(cartService, logg))
			r.Get("/summary", controllers.CartSummary(cartService, logg))
			r.Post("/items", controllers.AddCartItem(cartService, logg))
			r.Delete("/items/{productId}", controllers.RemoveCartItem(cartService, logg))
		})

		r.With(middleware.Idempotency(redisClient, logg)).
			Post("/checkout", controllers.Checkout(checkoutService, logg))

		r.Get("/orders", controllers.OrderHistory(orderService, logg))
	})

	return r
}
