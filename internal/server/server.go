// Package server wires configuration, stores, services and the HTTP surface
// into a runnable application.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shashiranjanraj/brewhaus/app/controllers"
	"github.com/shashiranjanraj/brewhaus/app/repositories"
	"github.com/shashiranjanraj/brewhaus/app/routes"
	"github.com/shashiranjanraj/brewhaus/app/services"
	"github.com/shashiranjanraj/brewhaus/config"
	"github.com/shashiranjanraj/brewhaus/pkg/auth"
	"github.com/shashiranjanraj/brewhaus/pkg/cache"
	"github.com/shashiranjanraj/brewhaus/pkg/database"
	"github.com/shashiranjanraj/brewhaus/pkg/event"
	"github.com/shashiranjanraj/brewhaus/pkg/logger"
	"github.com/shashiranjanraj/brewhaus/pkg/metrics"
	"github.com/shashiranjanraj/brewhaus/pkg/middleware"
	"github.com/shashiranjanraj/brewhaus/pkg/reqid"
	"github.com/shashiranjanraj/brewhaus/pkg/router"
	"github.com/shashiranjanraj/brewhaus/pkg/schedule"
	"github.com/shashiranjanraj/brewhaus/pkg/storage"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
	sweepInterval   = time.Minute
)

// Server owns every long-lived resource of the application.
type Server struct {
	cfg       config.Config
	log       *slog.Logger
	db        *database.Mongo
	cache     *cache.Cache
	http      *http.Server
	scheduler *schedule.Scheduler
}

// New builds the full application from configuration. Everything is wired
// through constructors; no package-level state.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logger.New(cfg.Production())

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	db, err := database.Connect(dialCtx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("server: connect mongo: %w", err)
	}

	c := cache.New(cfg.RedisAddr, cfg.RedisPassword)

	disks, err := storage.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("server: storage: %w", err)
	}

	users := repositories.NewUserRepository(db.DB)
	coffee := repositories.NewCoffeeRepository(db.DB)
	carts := repositories.NewCartRepository(db.DB)
	orders := repositories.NewOrderRepository(db.DB)
	payments := repositories.NewPaymentRepository(db.DB)

	m := metrics.New()
	bus := event.NewBus()
	registerCheckoutListeners(bus, m, log)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	checkout := services.NewCheckoutService(payments, carts, orders, bus, log)
	intents := services.NewIntentService(cfg.StripeSecretKey)

	scheduler := schedule.New(log)
	scheduler.Every(sweepInterval, "settlement-sweep", checkout.Sweep)

	r := router.New()
	r.Use(
		reqid.Middleware(),
		m.Middleware(),
		middleware.Recovery,
		middleware.Logger(log),
		middleware.CORS(middleware.DefaultCORSOptions(cfg.CORSOrigins)),
		middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow).Middleware(),
	)

	routes.Register(r, routes.Controllers{
		Auth:    controllers.NewAuthController(tokens),
		Users:   controllers.NewUserController(users),
		Coffee:  controllers.NewCoffeeController(coffee, c, cfg.CatalogCacheTTL, disks.Default()),
		Carts:   controllers.NewCartController(carts),
		Orders:  controllers.NewOrderController(orders),
		Payment: controllers.NewPaymentController(payments, intents, checkout),
		Health:  controllers.NewHealthController(db),
	}, routes.NewGuards(tokens, users))
	r.Handle(http.MethodGet, "/metrics", "metrics", m.Handler())

	return &Server{
		cfg:   cfg,
		log:   log,
		db:    db,
		cache: c,
		http: &http.Server{
			Addr:              ":" + cfg.AppPort,
			Handler:           r.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		scheduler: scheduler,
	}, nil
}

// EnsureIndexes creates the unique and secondary indexes the stores rely on.
func (s *Server) EnsureIndexes(ctx context.Context) error {
	db := s.db.DB
	for _, ensure := range []func(context.Context) error{
		repositories.NewUserRepository(db).EnsureIndexes,
		repositories.NewOrderRepository(db).EnsureIndexes,
		repositories.NewPaymentRepository(db).EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.scheduler.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", s.http.Addr, "env", s.cfg.AppEnv)
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.http.Shutdown(shutdownCtx)
	if cerr := s.cache.Close(); cerr != nil {
		s.log.Warn("close redis", "error", cerr)
	}
	if derr := s.db.Close(shutdownCtx); derr != nil {
		s.log.Warn("close mongo", "error", derr)
	}
	return err
}

// registerCheckoutListeners fans checkout events out to logs and counters.
func registerCheckoutListeners(bus *event.Bus, m *metrics.Metrics, log *slog.Logger) {
	record := func(e services.SettledEvent) {
		if e.Duplicate {
			m.DuplicatePayments.Inc()
		} else {
			m.PaymentsRecorded.Inc()
		}
		m.CartsCleared.Add(float64(e.CartsDeleted))
		m.OrdersSettled.Add(float64(e.OrdersSettled))
	}

	bus.Listen(services.EventSettled, func(payload interface{}) {
		e, ok := payload.(services.SettledEvent)
		if !ok {
			return
		}
		record(e)
		log.Info("checkout settled", "payment", e.PaymentID, "email", e.Email,
			"amount", e.Amount, "duplicate", e.Duplicate,
			"carts_deleted", e.CartsDeleted, "orders_settled", e.OrdersSettled)
	})

	bus.Listen(services.EventRetried, func(payload interface{}) {
		e, ok := payload.(services.SettledEvent)
		if !ok {
			return
		}
		m.SettlementRetries.Inc()
		record(e)
		log.Info("checkout settlement retried", "payment", e.PaymentID,
			"carts_deleted", e.CartsDeleted, "orders_settled", e.OrdersSettled)
	})
}
