package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	otpclient "github.com/deepedumate/loan-aggregator-sub000/internal/clients/otp"
	placesclient "github.com/deepedumate/loan-aggregator-sub000/internal/clients/places"
	programsclient "github.com/deepedumate/loan-aggregator-sub000/internal/clients/programs"
	ratesclient "github.com/deepedumate/loan-aggregator-sub000/internal/clients/rates"
	httpapi "github.com/deepedumate/loan-aggregator-sub000/internal/http"
	httpH "github.com/deepedumate/loan-aggregator-sub000/internal/http/handlers"
	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/envutil"
	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/logger"
	"github.com/deepedumate/loan-aggregator-sub000/internal/services"
	"github.com/deepedumate/loan-aggregator-sub000/internal/sse"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	address := envutil.String("HTTP_ADDRESS", ":8080")
	jwtSecretKey := envutil.String("JWT_SECRET_KEY", "defaultsecret")
	verificationTokenTTL := envutil.Seconds("VERIFICATION_TOKEN_TTL", 15*time.Minute)
	otpResendCooldown := envutil.Seconds("OTP_RESEND_COOLDOWN", 30*time.Second)
	ratesCacheTTL := envutil.Seconds("RATES_CACHE_TTL", time.Hour)
	conversationMaxIdle := envutil.Seconds("CONVERSATION_MAX_IDLE", 24*time.Hour)
	janitorSweepEvery := envutil.Seconds("JANITOR_SWEEP_EVERY", 10*time.Minute)

	// Redis (optional; rate lookups fall back to the upstream API without it)
	var rdb *redis.Client
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envutil.Int("REDIS_DB", 0),
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis ping failed, continuing without rate cache", "error", err)
			rdb = nil
		}
	}

	// Upstream clients
	log.Info("Setting up upstream clients from main...")
	programsClient, err := programsclient.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init program search client", "error", err)
		os.Exit(1)
	}
	ratesUpstream, err := ratesclient.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init exchange rate client", "error", err)
		os.Exit(1)
	}
	ratesClient := ratesclient.NewCached(ratesUpstream, rdb, ratesCacheTTL, log)
	otpGateway, err := otpclient.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init OTP gateway client", "error", err)
		os.Exit(1)
	}
	placesClient, err := placesclient.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init university autocomplete client", "error", err)
		os.Exit(1)
	}

	// SSE
	log.Info("Setting up SSE hub now...")
	hub := sse.NewHub(log)

	// Services
	log.Info("Setting up Services from main...")
	otpService := services.NewOTPService(log, otpGateway, jwtSecretKey, verificationTokenTTL, otpResendCooldown)
	autocompleteService := services.NewAutocompleteService(log, placesClient)
	loanService := services.NewLoanMatchService(log)
	conversationService := services.NewConversationService(
		log,
		programsClient,
		ratesClient,
		otpService,
		autocompleteService,
		loanService,
		hub,
	)
	conversationService.StartJanitor(context.Background(), janitorSweepEvery, conversationMaxIdle)

	// Handlers
	conversationHandler := httpH.NewConversationHandler(log, conversationService)
	realtimeHandler := httpH.NewRealtimeHandler(log, hub)
	healthHandler := httpH.NewHealthHandler()

	// Server
	srv := httpapi.NewServer(httpapi.RouterConfig{
		ConversationHandler: conversationHandler,
		RealtimeHandler:     realtimeHandler,
		HealthHandler:       healthHandler,
	})
	log.Info("Starting HTTP server", "address", address)
	if err := srv.Run(address); err != nil {
		log.Error("HTTP server exited", "error", err)
		os.Exit(1)
	}
}
