package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"fitbook/internal/api"
	"fitbook/internal/auth"
	"fitbook/internal/repository"
	"fitbook/internal/service"
	"fitbook/internal/service/bookingsvc"
)

func main() {
	godotenv.Load()

	logger := newLogger()
	defer logger.Sync()

	dbURL := mustEnv("DATABASE_URL")
	mustEnv("JWT_SECRET")
	stripe.Key = mustEnv("STRIPE_SECRET_KEY")
	stripeWebhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")

	database, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := database.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	bookingRepo := repository.NewBookingRepository(database)
	slotRepo := repository.NewAvailabilityRepository(database)
	trainerRepo := repository.NewTrainerRepository(database)
	clientRepo := repository.NewClientRepository(database)
	paymentRepo := repository.NewPaymentRepository(database)
	jobRepo := repository.NewJobRepository(database)
	adminRepo := repository.NewAdminRepository(database)
	adminAuthRepo := repository.NewAdminAuthRepository(database)

	gateway := service.NewStripeGateway()
	meetings := service.NewSimulatedMeetingService(os.Getenv("MEETING_BASE_URL"), logger)
	notifier := service.NewNotifyService(clientRepo, trainerRepo, logger)

	bookingSvc := bookingsvc.NewBookingService(
		bookingRepo, slotRepo, trainerRepo, paymentRepo,
		gateway, meetings, notifier, logger)
	availabilitySvc := bookingsvc.NewAvailabilityService(slotRepo, logger)
	authSvc := service.NewAuthService(clientRepo, trainerRepo)
	adminAuthSvc := service.NewAdminAuthService(adminAuthRepo)
	adminSvc := service.NewAdminService(adminRepo, trainerRepo)
	jobSvc := service.NewJobService(jobRepo, bookingSvc, logger)

	bookingHandler := api.NewBookingHandler(bookingSvc)
	trainerHandler := api.NewTrainerHandler(availabilitySvc, trainerRepo)
	authHandler := api.NewAuthHandler(authSvc)
	adminHandler := api.NewAdminHandler(adminAuthSvc, adminSvc)
	stripeHandler := api.NewStripeWebhookHandler(stripeWebhookSecret, paymentRepo, bookingRepo, notifier, logger)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/clients/register", authHandler.RegisterClient).Methods("POST")
	r.HandleFunc("/api/clients/login", authHandler.LoginClient).Methods("POST")
	r.HandleFunc("/api/trainers/register", authHandler.RegisterTrainer).Methods("POST")
	r.HandleFunc("/api/trainers/login", authHandler.LoginTrainer).Methods("POST")
	r.HandleFunc("/api/webhooks/stripe", stripeHandler.HandleWebhook).Methods("POST")

	// Authenticated endpoints
	authenticated := r.PathPrefix("/api").Subrouter()
	authenticated.Use(auth.RequireRole())
	authenticated.HandleFunc("/trainers/{id}/services", trainerHandler.ListServices).Methods("GET")
	authenticated.HandleFunc("/trainers/{id}/availability", trainerHandler.ListSlots).Methods("GET")
	authenticated.HandleFunc("/bookings/{id}", bookingHandler.GetBooking).Methods("GET")
	authenticated.HandleFunc("/bookings", bookingHandler.ListBookings).Methods("GET")

	clientOnly := r.PathPrefix("/api").Subrouter()
	clientOnly.Use(auth.RequireRole(auth.RoleClient))
	clientOnly.HandleFunc("/bookings", bookingHandler.CreateBooking).Methods("POST")

	// Cancel is open to the booking's client or trainer; the orchestrator
	// checks party membership.
	party := r.PathPrefix("/api").Subrouter()
	party.Use(auth.RequireRole(auth.RoleClient, auth.RoleTrainer))
	party.HandleFunc("/bookings/{id}/cancel", bookingHandler.CancelBooking).Methods("POST")

	trainerOnly := r.PathPrefix("/api").Subrouter()
	trainerOnly.Use(auth.RequireRole(auth.RoleTrainer))
	trainerOnly.HandleFunc("/bookings/{id}/confirm", bookingHandler.ConfirmBooking).Methods("POST")
	trainerOnly.HandleFunc("/bookings/{id}/decline", bookingHandler.DeclineBooking).Methods("POST")
	trainerOnly.HandleFunc("/bookings/{id}/complete", bookingHandler.CompleteBooking).Methods("POST")
	trainerOnly.HandleFunc("/trainers/me/slots", trainerHandler.CreateSlot).Methods("POST")
	trainerOnly.HandleFunc("/trainers/me/slots/generate", trainerHandler.GenerateSlots).Methods("POST")

	// Admin endpoints (protected)
	r.HandleFunc("/admin/login", adminHandler.Login).Methods("POST")
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.RequireRole(auth.RoleAdmin))
	admin.HandleFunc("/bookings", adminHandler.ListBookings).Methods("GET")
	admin.HandleFunc("/trainers/unverified", adminHandler.ListUnverifiedTrainers).Methods("GET")
	admin.HandleFunc("/trainers/{id}/verify", adminHandler.VerifyTrainer).Methods("POST")

	startJobs(jobSvc, logger)

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{corsOrigin()}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("server listening", zap.String("port", port))
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}

func startJobs(jobSvc *service.JobService, logger *zap.Logger) {
	pendingTTL := 24 * time.Hour
	if raw := os.Getenv("PENDING_BOOKING_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("Invalid PENDING_BOOKING_TTL: %v", err)
		}
		pendingTTL = d
	}

	c := cron.New()
	c.AddFunc("*/10 * * * *", func() {
		jobSvc.CompleteFinishedBookings(context.Background())
	})
	c.AddFunc("*/10 * * * *", func() {
		jobSvc.ExpireStalePendingBookings(context.Background(), pendingTTL)
	})
	c.Start()
	logger.Info("booking sweep jobs scheduled", zap.Duration("pending_ttl", pendingTTL))
}

func newLogger() *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if os.Getenv("APP_ENV") == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	return logger
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("%s not set", key)
	}
	return v
}

func corsOrigin() string {
	if origin := os.Getenv("CORS_ALLOWED_ORIGIN"); origin != "" {
		return origin
	}
	return "*"
}
