package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"subscription-storefront/internal/config"
	"subscription-storefront/internal/domain/ports/adapter"
	redisinfra "subscription-storefront/internal/infra/redis"
	"subscription-storefront/internal/usecase"
)

// Server wires the storefront HTTP surface: public auth and catalog routes,
// session-guarded account and download routes, the Stripe webhook, and the
// key-guarded admin API (served from a separate listener).
type Server struct {
	userUC     usecase.UserUseCase
	subUC      usecase.SubscriptionUseCase
	planUC     usecase.PlanUseCase
	productUC  usecase.ProductUseCase
	paymentUC  usecase.PaymentUseCase
	downloadUC usecase.DownloadUseCase
	statsUC    usecase.StatsUseCase

	sessions *SessionManager
	limiter  *redisinfra.RateLimiter
	files    adapter.FileStore

	webhookSecret  string
	adminKey       string
	loginLimit     int
	loginWindow    time.Duration
	allowedOrigins []string
	log            *zerolog.Logger

	srv *http.Server
}

func NewServer(
	cfg *config.Config,
	userUC usecase.UserUseCase,
	subUC usecase.SubscriptionUseCase,
	planUC usecase.PlanUseCase,
	productUC usecase.ProductUseCase,
	paymentUC usecase.PaymentUseCase,
	downloadUC usecase.DownloadUseCase,
	statsUC usecase.StatsUseCase,
	sessions *SessionManager,
	limiter *redisinfra.RateLimiter,
	files adapter.FileStore,
	logger *zerolog.Logger,
) *Server {
	srvLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		userUC:         userUC,
		subUC:          subUC,
		planUC:         planUC,
		productUC:      productUC,
		paymentUC:      paymentUC,
		downloadUC:     downloadUC,
		statsUC:        statsUC,
		sessions:       sessions,
		limiter:        limiter,
		files:          files,
		webhookSecret:  cfg.Stripe.WebhookSecret,
		adminKey:       cfg.Admin.APIKey,
		loginLimit:     cfg.Auth.LoginLimit,
		loginWindow:    cfg.Auth.LoginWindow,
		allowedOrigins: cfg.Server.AllowedOrigins,
		log:            &srvLog,
	}
}

// Router builds the public storefront handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(traceMiddleware)
	r.Use(recoverMiddleware(s.log))
	r.Use(requestLogger(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Get("/activate", s.handleActivate)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Post("/password-reset", s.handlePasswordResetRequest)
		r.Post("/password-reset/confirm", s.handlePasswordResetConfirm)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", s.handlePlansList)
		r.Get("/products", s.handleProductsList)
		r.Get("/products/{id}", s.handleProductGet)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/me", s.handleMe)
			r.Get("/me/downloads", s.handleDownloadHistory)
			r.Get("/subscription", s.handleSubscriptionGet)
			r.Post("/subscription/switch", s.handleSubscriptionSwitch)
			r.Post("/checkout", s.handleCheckoutCreate)
			r.Get("/products/{id}/download", s.handleDownload)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/payment/success", s.handlePaymentSuccess)
	})
	r.Get("/payment/cancel", s.handlePaymentCancel)

	r.Post("/webhook/stripe", s.handleStripeWebhook)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// AdminRouter builds the key-guarded admin API, mounted on the admin
// listener next to /metrics.
func (s *Server) AdminRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(traceMiddleware)
	r.Use(recoverMiddleware(s.log))
	r.Use(requestLogger(s.log))
	r.Use(s.requireAdminKey)

	r.Get("/stats", s.handleStats)

	r.Route("/plans", func(r chi.Router) {
		r.Get("/", s.handlePlansList)
		r.Post("/", s.handlePlanCreate)
		r.Put("/{id}", s.handlePlanUpdate)
		r.Delete("/{id}", s.handlePlanDelete)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.handleProductsList)
		r.Post("/", s.handleProductCreate)
		r.Put("/{id}", s.handleProductUpdate)
		r.Delete("/{id}", s.handleProductDelete)
	})

	return r
}

// Start blocks serving the public router until Shutdown.
func (s *Server) Start(port int, readTimeout, writeTimeout time.Duration) error {
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Router(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	s.log.Info().Int("port", port).Msg("storefront listening")
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
