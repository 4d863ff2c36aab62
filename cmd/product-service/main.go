package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bathtrack/bathtrack-backend/internal/product/consumers"
	"github.com/bathtrack/bathtrack-backend/internal/product/events"
	"github.com/bathtrack/bathtrack-backend/internal/product/handler"
	"github.com/bathtrack/bathtrack-backend/internal/product/repository"
	"github.com/bathtrack/bathtrack-backend/internal/product/service"
	"github.com/bathtrack/bathtrack-backend/pkg/config"
	"github.com/bathtrack/bathtrack-backend/pkg/database"
	"github.com/bathtrack/bathtrack-backend/pkg/httputil"
	"github.com/bathtrack/bathtrack-backend/pkg/logger"
	"github.com/bathtrack/bathtrack-backend/pkg/messaging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("product-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("product-service", cfg.Server.Environment)
	log.Info().Msg("starting Product Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	if err := rmq.DeclareDeadLetterQueue("product-service"); err != nil {
		log.Fatal().Err(err).Msg("failed to declare dead letter queue")
	}

	// Initialize event publisher
	publisher, err := events.NewProductEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	shoppingListRepo := repository.NewShoppingListRepository(db)

	// Initialize services
	productService := service.NewProductService(
		productRepo, shoppingListRepo, publisher,
		cfg.Categories.DefaultMonths, cfg.Categories.FallbackMonths, log,
	)
	reminderService := service.NewReminderService(productRepo, publisher, cfg.Notifications.LeadDays, log)

	// Initialize handlers
	productHandler := handler.NewProductHandler(productService, log)
	shoppingListHandler := handler.NewShoppingListHandler(productService, log)
	reminderHandler := handler.NewReminderHandler(reminderService, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start shopping list intent consumer
	shoppingListConsumer, err := consumers.NewShoppingListConsumer(rmq, shoppingListRepo, publisher, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create shopping list consumer")
	}
	if err := shoppingListConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start shopping list consumer")
	}

	// Start background reminder scheduler
	scheduler := service.NewReminderScheduler(reminderService, productRepo, cfg.Notifications.ScanInterval, log)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-User-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(httputil.UserMiddleware) // Extract user identity from gateway headers

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "product-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Product routes
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/", productHandler.Create)
			r.Get("/{id}", productHandler.Get)
			r.Put("/{id}", productHandler.Update)
			r.Delete("/{id}", productHandler.Delete)
			r.Post("/{id}/replace", productHandler.Replace)
		})

		// Shopping list routes
		r.Route("/shopping-list", func(r chi.Router) {
			r.Get("/", shoppingListHandler.List)
			r.Post("/", shoppingListHandler.Add)
			r.Patch("/{id}/check", shoppingListHandler.Check)
			r.Delete("/{id}", shoppingListHandler.Remove)
		})

		// Reminder routes
		r.Get("/reminders", reminderHandler.Due)
		r.Delete("/reminders/session", reminderHandler.ResetSession)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop consumers and the scheduler
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
