package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/omar10120/ksdora-backend/internal/config"
	"github.com/omar10120/ksdora-backend/internal/database"
	"github.com/omar10120/ksdora-backend/internal/handlers"
	"github.com/omar10120/ksdora-backend/internal/middleware"
	"github.com/omar10120/ksdora-backend/internal/services"
	"github.com/omar10120/ksdora-backend/pkg/gateway"
	"github.com/omar10120/ksdora-backend/pkg/jwt"
	"github.com/omar10120/ksdora-backend/pkg/storage"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Ksdora Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Repositories need *sqlx.DB; db is the DB interface
	sqlxDB, ok := db.(*database.PostgresDB)
	if !ok {
		logger.Fatal("Failed to cast database connection to PostgresDB")
	}

	// Initialize repositories
	tripRepo := database.NewTripRepository(sqlxDB.DB)
	seatRepo := database.NewSeatRepository(sqlxDB.DB)
	bookingRepo := database.NewBookingRepository(sqlxDB.DB)
	lockRepo := database.NewLockRepository(sqlxDB.DB)
	paymentRepo := database.NewPaymentRepository(sqlxDB.DB)
	auditRepo := database.NewPaymentAuditRepository(sqlxDB.DB, logger)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	cacheService := services.NewCacheService(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	paymentGateway := gateway.NewSandboxGateway(cfg.Payment.Environment)

	receiptStore, err := storage.NewLocalStore(cfg.Storage.BaseDir, cfg.Storage.BaseURL)
	if err != nil {
		logger.Fatalf("Failed to initialize receipt storage: %v", err)
	}

	tripService := services.NewTripService(tripRepo, cacheService, logger)
	inventoryService := services.NewSeatInventoryService(seatRepo, tripRepo, cacheService)
	lockService := services.NewSeatLockService(lockRepo, tripRepo, cacheService, logger)
	bookingService := services.NewBookingService(bookingRepo, tripRepo, seatRepo, paymentRepo, cacheService, logger)
	paymentService := services.NewPaymentService(
		paymentRepo,
		bookingRepo,
		auditRepo,
		paymentGateway,
		receiptStore,
		cacheService,
		cfg.Payment.CashDepositPercent,
		logger,
	)

	// Start the seat lock sweeper
	sweeperService := services.NewSweeperService(lockRepo, cfg.Booking.LockSweepInterval, logger)
	if cfg.Booking.LockSweepEnabled {
		if err := sweeperService.Start(); err != nil {
			logger.Fatalf("Failed to start seat lock sweeper: %v", err)
		}
	} else {
		logger.Warn("Seat lock sweeper disabled; expired locks release lazily only")
	}

	logger.Info("Services initialized")

	// Initialize handlers
	tripHandler := handlers.NewTripHandler(tripService, logger)
	seatHandler := handlers.NewSeatHandler(inventoryService, lockService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Receipt images
	router.Static(cfg.Storage.BaseURL, cfg.Storage.BaseDir)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Trip browsing (public)
		v1.GET("/trips", tripHandler.ListTrips)
		v1.GET("/trips/:tripId", tripHandler.GetTrip)
		v1.GET("/trips/:tripId/seats", seatHandler.GetTripSeats)
		v1.GET("/trips/:tripId/seats/summary", seatHandler.GetSeatSummary)

		// Seat locks (protected)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(jwtService, logger))
		{
			protected.POST("/trips/:tripId/seats/lock", seatHandler.LockSeats)
			protected.DELETE("/seat-locks/:lockId", seatHandler.ReleaseLock)

			// Bookings
			protected.POST("/bookings", bookingHandler.CreateBooking)
			protected.GET("/bookings", bookingHandler.ListMyBookings)
			protected.GET("/bookings/:bookingId", bookingHandler.GetBooking)
			protected.PATCH("/bookings/:bookingId/status", bookingHandler.UpdateBookingStatus)
			protected.POST("/bookings/:bookingId/cancel", bookingHandler.CancelBooking)
			protected.DELETE("/bookings/:bookingId", bookingHandler.DeleteBooking)

			// Payments
			protected.POST("/bookings/:bookingId/payments", paymentHandler.SubmitPayment)
			protected.GET("/bookings/:bookingId/payments", paymentHandler.GetPaymentSummary)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService, logger))
		admin.Use(middleware.RequireRole(middleware.RoleAdmin))
		{
			admin.POST("/trips", tripHandler.CreateTrip)
			admin.PATCH("/trips/:tripId/status", tripHandler.UpdateTripStatus)
			admin.GET("/trips/:tripId/bookings", bookingHandler.ListTripBookings)
			admin.POST("/trips/:tripId/seats/block", seatHandler.BlockSeats)
			admin.POST("/trips/:tripId/seats/unblock", seatHandler.UnblockSeats)

			admin.POST("/payments/:paymentId/confirm", paymentHandler.ConfirmPayment)
			admin.POST("/payments/:paymentId/reject", paymentHandler.RejectPayment)
			admin.GET("/payments/audits", paymentHandler.ListPaymentAudits)

			// Manual sweep trigger for operators
			admin.POST("/seat-locks/sweep", func(c *gin.Context) {
				released, err := sweeperService.RunNow()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
					return
				}
				c.JSON(http.StatusOK, gin.H{"released": released})
			})
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if cfg.Booking.LockSweepEnabled {
		sweeperService.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
