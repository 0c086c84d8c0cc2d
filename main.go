package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tutorly/config"
	"tutorly/cron"
	"tutorly/database"
	"tutorly/database/repository"
	"tutorly/handlers"
	"tutorly/middleware"
	"tutorly/routes"
	"tutorly/services/availability"
	"tutorly/services/booking"
	"tutorly/services/notification"
	"tutorly/services/payment"
	"tutorly/services/tasks"
	"tutorly/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.InitDB()
	cache := utils.GetCacheClient()
	stripe.Key = config.AppConfig.StripeKey
	if stripe.Key == "" {
		logger.Warn("main: STRIPE_KEY is not set; payment intents will fail")
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// repositories.
	provRepo := repository.NewMongoProviderRepo(database.DB())
	bookingRepo := repository.NewMongoBookingRepo(database.DB())
	if err := provRepo.EnsureIndexes(rootCtx); err != nil {
		logger.Warn("main: provider indexes", zap.Error(err))
	}
	if err := bookingRepo.EnsureIndexes(rootCtx); err != nil {
		logger.Warn("main: booking indexes", zap.Error(err))
	}

	// background tasks.
	taskClient := asynq.NewClient(cron.RedisOpt())
	defer taskClient.Close()
	enqueuer := tasks.NewEnqueuer(taskClient, logger.Named("tasks"))

	// services.
	cachedSource := &availability.CachedSource{
		Next:   provRepo,
		Cache:  cache,
		TTL:    config.AppConfig.AvailabilityCacheTTL,
		Logger: logger.Named("availability"),
	}
	availabilityService := &availability.DefaultAvailabilityService{
		Source:      cachedSource,
		Writer:      provRepo,
		Invalidator: cachedSource,
		Policy:      availability.DefaultPolicy,
		Location:    config.Location(),
		HorizonDays: config.AppConfig.BookingHorizonDays,
		MaxResults:  config.AppConfig.BookingMaxDates,
		Logger:      logger.Named("availability"),
	}

	gateway := payment.NewStripeGateway(bookingRepo, provRepo, config.AppConfig.StripeReturnURL, logger.Named("stripe"))
	sessions, err := payment.NewManager(gateway, gateway, enqueuer, config.AppConfig.PaymentSessionCapacity, logger.Named("payment"))
	if err != nil {
		logger.Fatal("main: payment sessions", zap.Error(err))
	}

	bookingService := booking.NewDefaultBookingService(bookingRepo, enqueuer, logger.Named("booking"))

	var sender notification.Sender
	if fcm, err := utils.NewFCMClient(rootCtx); err != nil {
		logger.Warn("main: push notifications disabled", zap.Error(err))
	} else {
		sender = fcm
	}
	notificationService, err := notification.NewDefaultNotificationService(sender, bookingRepo, provRepo, logger.Named("notification"))
	if err != nil {
		logger.Fatal("main: notification service", zap.Error(err))
	}

	// worker.
	worker, mux := cron.NewServer(&cron.Handlers{
		Bookings:      bookingService,
		Intents:       gateway,
		Notifications: notificationService,
		Logger:        logger.Named("worker"),
	})
	if err := worker.Start(mux); err != nil {
		logger.Fatal("main: task worker failed to start", zap.Error(err))
	}

	utils.StartHealthMonitor(rootCtx, []*redis.Client{cache}, database.MongoClient)

	// Create the Gin router.
	router := gin.New()
	router.Use(middleware.RequestLogger(logger.Named("http")))
	router.Use(utils.ErrorHandler())
	router.Use(gin.Recovery())

	handlerBundle := &handlers.HandlerBundle{
		Availability: handlers.NewAvailabilityHandler(availabilityService),
		Payment:      handlers.NewPaymentHandler(sessions, gateway),
		Approval:     handlers.NewApprovalHandler(bookingService),
	}
	routes.RegisterRoutes(router, handlerBundle, config.AppConfig.MaxRequestsPerMin)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	worker.Shutdown()
	if err := cache.Close(); err != nil {
		logger.Warn("main: redis close", zap.Error(err))
	}
	if err := database.Close(ctx); err != nil {
		logger.Warn("main: mongo disconnect", zap.Error(err))
	}

	logger.Info("main: server stopped gracefully")
}
