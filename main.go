package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"encore/internal/handlers"
	"encore/internal/models"
	"encore/internal/repositories"
	"encore/internal/services"
	"encore/pkg/rabbitmq"

	"github.com/spf13/viper"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_DSN", "encore.db")
	viper.SetDefault("RABBITMQ_URL", "") // empty disables eventing
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")

	// --- Database ---
	db, err := openDatabase(viper.GetString("DATABASE_DRIVER"), viper.GetString("DATABASE_DSN"))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.VintedUser{}, &models.VintedProduct{},
		&models.DepopUser{}, &models.DepopProduct{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Message Broker (optional) ---
	// The catalog works without a broker; scrape events are simply skipped.
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: mqURL})
		if err != nil {
			log.Printf("Warning: message broker unavailable, continuing without events: %v", err)
			mqClient = nil
		} else {
			defer mqClient.Close()
			publisher = mqClient
		}
	}

	// --- Initialize Repositories ---
	vintedRepo := repositories.NewGORMVintedRepository(db)
	depopRepo := repositories.NewGORMDepopRepository(db)

	// --- Initialize Services ---
	vintedService := services.NewVintedService(vintedRepo, publisher)
	depopService := services.NewDepopService(depopRepo, publisher)

	// Seed baseline data. Both loaders are idempotent, so every start is safe.
	if err := vintedService.Seed(); err != nil {
		log.Fatalf("Failed to seed vinted baseline: %v", err)
	}
	if err := depopService.Seed(); err != nil {
		log.Fatalf("Failed to seed depop baseline: %v", err)
	}

	// --- Initialize Handlers ---
	vintedHandler := handlers.NewVintedHandler(vintedService)
	depopHandler := handlers.NewDepopHandler(depopService)

	// --- Initialize Fiber App ---
	app := fiber.New()

	// --- Middleware ---
	app.Use(logger.New()) // Request logger

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")
	vintedHandler.RegisterRoutes(apiV1)
	depopHandler.RegisterRoutes(apiV1)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Encore resale intelligence API",
		})
	})

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start Catalog Event Consumer in a Goroutine ---
	// Scrape completion events are consumed and logged for observability.
	if mqClient != nil {
		go func() {
			log.Println("Starting catalog event consumer...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Catalog event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}
			if consumerErr := mqClient.ConsumeCatalogEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start catalog event consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// openDatabase selects the GORM driver from config. SQLite keeps the demo
// self-contained; postgres matches a deployed setup.
func openDatabase(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	case "postgres":
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", driver)
	}
}
