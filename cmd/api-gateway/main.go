package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/music-school-api/api/swagger"
	"github.com/noah-isme/music-school-api/internal/handler"
	"github.com/noah-isme/music-school-api/internal/middleware"
	"github.com/noah-isme/music-school-api/internal/repository"
	"github.com/noah-isme/music-school-api/internal/service"
	"github.com/noah-isme/music-school-api/migrations"
	"github.com/noah-isme/music-school-api/pkg/cache"
	"github.com/noah-isme/music-school-api/pkg/config"
	"github.com/noah-isme/music-school-api/pkg/database"
	"github.com/noah-isme/music-school-api/pkg/jobs"
	"github.com/noah-isme/music-school-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/music-school-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/music-school-api/pkg/middleware/requestid"
	"github.com/noah-isme/music-school-api/pkg/notify"
	"github.com/noah-isme/music-school-api/pkg/payments"
)

// @title Music School Scheduling API
// @version 1.0.0
// @description Availability, trial lessons, enrollments and lesson calendars
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.MigrateOnBoot {
		migrator, err := database.NewMigrator(db.DB, migrations.FS, cfg.Database.MigrationTable, logr)
		if err != nil {
			logr.Fatal("migrator init failed", zap.Error(err))
		}
		if err := migrator.Up(ctx); err != nil {
			logr.Fatal("migrations failed", zap.Error(err))
		}
	}

	checks := map[string]handler.Pinger{"postgres": db}

	var redisClient redis.Cmdable
	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			defer client.Close()
			redisClient = client
			cacheRepo = repository.NewCacheRepository(client, "music-school", logr)
			checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
		}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.AvailabilityTTL, logr, cacheRepo != nil)

	availabilityRepo := repository.NewAvailabilityRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	trialRepo := repository.NewTrialRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	eventRepo := repository.NewCalendarEventRepository(db)

	sinks := []notify.Sink{notify.NewLogSink(logr)}
	if cfg.Notifications.SendGridAPIKey != "" {
		sinks = append(sinks, notify.NewSendGridSink(cfg.Notifications.SendGridAPIKey, cfg.Notifications.FromName, cfg.Notifications.FromEmail))
	}
	notifications := service.NewNotificationService(sinks, jobs.Options{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	}, metrics, logr)
	notifications.Start(ctx)
	defer notifications.Stop()

	availabilitySvc := service.NewAvailabilityService(availabilityRepo, db, cacheSvc, cfg.Cache.AvailabilityTTL, validate, logr)
	trialSvc := service.NewTrialLedgerService(trialRepo, courseRepo, db, validate, metrics, logr)
	enrollmentSvc := service.NewEnrollmentService(service.EnrollmentDependencies{
		Courses:      courseRepo,
		Trials:       trialSvc,
		Catalog:      service.NewSlotCatalogService(availabilitySvc, cfg.Scheduling.IntersectionMode, logr),
		Enrollments:  enrollmentRepo,
		Slots:        availabilityRepo,
		Availability: availabilitySvc,
		Intents:      repository.NewIntentStore(redisClient),
		Events:       eventRepo,
		Guard:        service.NewDuplicateEventGuard(eventRepo, logr),
		Projector:    service.NewSessionProjector(cfg.Scheduling.Location(), cfg.Scheduling.DefaultSessionStart, cfg.Scheduling.PlaceholderLeadDays),
		Notifier:     notifications,
		TX:           db,
	}, service.EnrollmentConfig{
		SessionCount: cfg.Scheduling.SessionCount,
		IntentTTL:    cfg.Scheduling.IntentTTL,
		Location:     cfg.Scheduling.Location(),
	}, validate, metrics, logr)

	issuer := payments.NewStripeIssuer(cfg.Payments.StripeSecretKey, cfg.Payments.StripePriceID)
	if issuer == nil {
		logr.Info("stripe not configured, payment links disabled")
	}
	paymentSvc := service.NewPaymentLinkService(courseRepo, trialSvc, issuer, notifications, validate, logr)
	identity := service.NewIdentityService(service.IdentityConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.RegisterRoutes(r, handler.Handlers{
		Availability: handler.NewAvailabilityHandler(availabilitySvc),
		Trials:       handler.NewTrialHandler(trialSvc),
		Enrollments:  handler.NewEnrollmentHandler(enrollmentSvc),
		Payments:     handler.NewPaymentHandler(paymentSvc),
		System:       handler.NewMetricsHandler(metrics, checks),
	}, handler.RouteOptions{
		Prefix:    cfg.APIPrefix,
		Auth:      middleware.JWT(identity),
		RateLimit: middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst), metrics),
		Logger:    logr,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
