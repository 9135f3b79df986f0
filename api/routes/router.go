package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ticketeira/storefront/api/controllers"
	"github.com/ticketeira/storefront/api/middleware"
	cartsvc "github.com/ticketeira/storefront/internal/cart"
	checkoutsvc "github.com/ticketeira/storefront/internal/checkout"
	eventsvc "github.com/ticketeira/storefront/internal/events"
	sessionsvc "github.com/ticketeira/storefront/internal/session"
	"github.com/ticketeira/storefront/pkg/config"
	"github.com/ticketeira/storefront/pkg/logger"
	"github.com/ticketeira/storefront/pkg/redis"
	"github.com/ticketeira/storefront/pkg/ticketingapi"
)

type issuedTicketsClient interface {
	GetUserTickets(ctx context.Context, accessToken string) ([]ticketingapi.IssuedTicket, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient redis.Pinger,
	registry *prometheus.Registry,
	eventsService eventsvc.Service,
	cartService cartsvc.Service,
	sessionService sessionsvc.Service,
	checkoutService checkoutsvc.Service,
	ticketingClient issuedTicketsClient,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(cfg.SessionToken, cfg.App.IsProd(), logg))

		r.Route("/events", func(r chi.Router) {
			r.Get("/", controllers.EventsList(eventsService, logg))
			r.Get("/{eventId}", controllers.EventDetail(eventsService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, eventsService, logg))
			r.Patch("/items/{batchId}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{batchId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", controllers.AuthLogin(sessionService, logg))
			r.Post("/logout", controllers.AuthLogout(sessionService, logg))
			r.Post("/register", controllers.AuthRegister(sessionService, logg))
			r.Get("/me", controllers.AuthMe(sessionService, logg))
			r.Put("/profile", controllers.AuthProfileUpdate(sessionService, logg))
		})

		r.Get("/tickets/mine", controllers.TicketsMine(sessionService, ticketingClient, logg))

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", controllers.CheckoutState(checkoutService, logg))
			r.Delete("/", controllers.CheckoutExit(checkoutService, logg))
			r.Post("/confirm-cart", controllers.CheckoutConfirmCart(checkoutService, logg))
			r.Post("/login", controllers.CheckoutLogin(checkoutService, logg))
			r.Get("/tickets", controllers.CheckoutRows(checkoutService, logg))
			r.Post("/tickets", controllers.CheckoutSubmitTickets(checkoutService, logg))
			r.Post("/copy-my-info", controllers.CheckoutCopyMyInfo(checkoutService, logg))
			r.Post("/payment", controllers.CheckoutPayment(checkoutService, logg))
			r.Post("/retry", controllers.CheckoutRetry(checkoutService, logg))
		})
	})

	return r
}
