package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/reservation-service/internal/api/http"
	"github.com/spec-kit/reservation-service/internal/api/http/handlers"
	"github.com/spec-kit/reservation-service/internal/auth"
	"github.com/spec-kit/reservation-service/internal/config"
	"github.com/spec-kit/reservation-service/internal/events"
	"github.com/spec-kit/reservation-service/internal/notify"
	"github.com/spec-kit/reservation-service/internal/observability"
	"github.com/spec-kit/reservation-service/internal/persistence"
	"github.com/spec-kit/reservation-service/internal/quota"
	"github.com/spec-kit/reservation-service/internal/repository"
	"github.com/spec-kit/reservation-service/internal/service"
	"github.com/spec-kit/reservation-service/internal/sse"
	"github.com/spec-kit/reservation-service/internal/token"
	"github.com/spec-kit/reservation-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	restaurantRepo := repository.NewRestaurantRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	preferenceRepo := repository.NewPreferenceRepository(pool)
	pushSubRepo := repository.NewPushSubscriptionRepository(pool)

	tokens, err := token.NewService(cfg.Token.Secret,
		time.Duration(cfg.Token.PasswordResetTTLHours)*time.Hour,
		time.Duration(cfg.Token.ReservationCancelTTLHours)*time.Hour)
	if err != nil {
		logger.Fatal("failed to init token service", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	hub := sse.NewHub(cfg.Stream.SubscriberQueueSize, cfg.Stream.WriteTimeout(), logger)
	bus := events.NewInMemoryDispatcher()

	// The admission counter lives in Redis so every API replica sees the
	// same count. A replicaless dev setup without Redis still works on the
	// in-process store.
	var quotaStore quota.Store = quota.NewRedisStore(redis.Client)
	if err := redis.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, using in-process quota store", zap.Error(err))
		quotaStore = quota.NewMemoryStore()
	}
	tracker := quota.NewTracker(quotaStore, restaurantRepo, bus, logger)

	emailSender := notify.NewHTTPEmailSender(cfg.Notification)
	pushSender := notify.NewHTTPPushSender(cfg.Notification)
	notifier := notify.NewDispatcher(notify.DispatcherDeps{
		Hub:              hub,
		Staff:            staffRepo,
		Prefs:            preferenceRepo,
		PushSubs:         pushSubRepo,
		Restaurants:      restaurantRepo,
		Email:            emailSender,
		Push:             pushSender,
		Logger:           logger,
		Metrics:          metrics,
		EmailMaxAttempts: cfg.Notification.EmailMaxAttempts,
		EmailBackoff:     cfg.Notification.EmailBackoff(),
	})
	worker.StartNotificationWorker(bus, notifier)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:  userRepo,
		StaffRepo: staffRepo,
		Tokens:    tokens,
		Email:     emailSender,
		Logger:    logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, staffRepo)

	reservationService := service.NewReservationService(service.ReservationDependencies{
		ReservationRepo: reservationRepo,
		Quota:           tracker,
		Tokens:          tokens,
		Dispatcher:      bus,
		PublicBaseURL:   cfg.App.PublicBaseURL,
	})
	preferenceService := service.NewPreferenceService(preferenceRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:             handlers.NewUsersHandler(authService),
		Staff:             handlers.NewStaffHandler(authService),
		Reservations:      handlers.NewReservationsHandler(reservationService),
		Quota:             handlers.NewQuotaHandler(tracker),
		Preferences:       handlers.NewPreferencesHandler(preferenceService),
		PushSubscriptions: handlers.NewPushSubscriptionsHandler(pushSubRepo),
		Stream:            handlers.NewStreamHandler(hub, cfg.Stream.KeepAlive(), logger),
		AuthMiddleware:    authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	// Let in-flight notification fan-outs drain before the process exits.
	notifier.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
