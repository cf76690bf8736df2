package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"booking-service/internal/api"
	"booking-service/internal/broadcast"
	"booking-service/internal/events"
	"booking-service/internal/repository"
	"booking-service/internal/service"
	"booking-service/internal/tracing"
	_ "booking-service/migrations"
)

const scheduleRefreshInterval = 30 * time.Second

func main() {
	if err := godotenv.Load(".env.dev"); err != nil {
		fmt.Println("No .env.dev file found, reading from environment variables provided by Docker")
	}

	api.SetupGlobalHandler("booking-service")

	shutdownTracer, err := tracing.InitTracerProvider("booking-service")
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		handleMigrations()
		return
	}

	db := connectDB()
	defer db.Close()

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}
	eventPublisher, err := events.NewNatsPublisher(natsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	log.Println("Successfully connected to NATS.")

	instructorRepo := repository.NewPostgresInstructorRepository(db)
	slotRepo := repository.NewPostgresSlotRepository(db)
	classRepo := repository.NewPostgresClassRepository(db)
	creditRepo := repository.NewPostgresCreditRepository(db)

	bookingService := service.NewBookingService(instructorRepo, slotRepo, eventPublisher)
	enrollmentService := service.NewEnrollmentService(classRepo, creditRepo, eventPublisher)
	classAdminService := service.NewClassAdminService(classRepo)
	creditService := service.NewCreditService(creditRepo)

	hub := broadcast.NewHub(service.NewScheduleSnapshotter(slotRepo), scheduleRefreshInterval)
	defer hub.Stop()

	feedSubscriber, err := events.NewScheduleFeedSubscriber(natsURL, hub)
	if err != nil {
		log.Printf("WARNING: Failed to start schedule feed subscriber: %v", err)
		// Continue running even if subscriber fails, NATS may not be ready
	} else {
		defer feedSubscriber.Close()
	}

	bookingHandler := api.NewBookingHandler(bookingService, hub)
	classHandler := api.NewClassHandler(enrollmentService, classAdminService)
	creditHandler := api.NewCreditHandler(creditService)
	streamHandler := api.NewStreamHandler(hub, instructorRepo)

	app := fiber.New()
	app.Use(otelfiber.Middleware())
	app.Use(api.PrometheusMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "booking-service"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1")

	bookingRoutes := v1.Group("/bookings")
	bookingRoutes.Delete("/", api.AuthMiddleware(), bookingHandler.DeleteBooking)
	bookingRoutes.Post("/confirm", api.InternalAuthMiddleware(), bookingHandler.ConfirmBooking)

	instructorRoutes := v1.Group("/instructors")
	instructorRoutes.Get("/:id/schedule", bookingHandler.GetSchedule)
	instructorRoutes.Get("/:id/schedule/stream", streamHandler.StreamCombined)
	instructorRoutes.Get("/:id/schedule/stream/lessons", streamHandler.StreamLessons)
	instructorRoutes.Post("/:id/slots", api.AuthMiddleware(), bookingHandler.PublishSlot)

	classRoutes := v1.Group("/ticket-classes")
	classRoutes.Post("/", api.AuthMiddleware(), classHandler.CreateClass)
	classRoutes.Get("/:id", classHandler.GetClass)
	classRoutes.Get("/:id/cancellation-policy", classHandler.CheckCancellationPolicy)
	classRoutes.Post("/:id/requests", api.AuthMiddleware(), classHandler.RequestSeat)
	classRoutes.Post("/:id/cancel", api.AuthMiddleware(), classHandler.CancelEnrollment)
	classRoutes.Post("/:id/cancel/paid", api.InternalAuthMiddleware(), classHandler.CompletePaidCancellation)
	classRoutes.Patch("/:id/students/:studentId", api.AuthMiddleware(), classHandler.UpdateStudentStatus)

	userRoutes := v1.Group("/users")
	userRoutes.Use(api.AuthMiddleware())
	userRoutes.Get("/:id/credits", creditHandler.GetRedeemableCredits)
	userRoutes.Get("/:id/credits/history", creditHandler.GetCreditHistory)

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8002"
	}

	log.Printf("Listening booking-service on port %s", port)
	log.Fatal(app.Listen(":" + port))
}

func connectDB() *sqlx.DB {
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPassword, dbHost, dbPort, dbName,
	)

	db, err := sqlx.Connect("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Successfully connected to the database.")
	return db
}

func handleMigrations() {
	fmt.Println("Running database migrations...")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPassword, dbHost, dbPort, dbName,
	)

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("failed to connect to database for migration: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set goose dialect: %v", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatalf("goose: failed to run migrations: %v", err)
	}

	fmt.Println("Migrations applied successfully!")
}
