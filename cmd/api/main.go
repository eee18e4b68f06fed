package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"ledgerpay-shopify-layer/internal/application"
	apiinfra "ledgerpay-shopify-layer/internal/infrastructure/api"
	"ledgerpay-shopify-layer/internal/infrastructure/ratelimit"
	"ledgerpay-shopify-layer/internal/infrastructure/repository"
	shopifyinfra "ledgerpay-shopify-layer/internal/infrastructure/shopify"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Remote calls to Shopify get a bounded timeout; on expiry the call is a
// platform error for reconciliation and ignored for best-effort cleanup.
const shopifyTimeout = 15 * time.Second

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("No .env file found")
	}

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	dbName := os.Getenv("MONGODB_DATABASE")
	if dbName == "" {
		dbName = "ledgerpay"
	}
	db := client.Database(dbName)

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisClient := goredis.NewClient(&goredis.Options{Addr: redisAddr})
	defer redisClient.Close()

	scriptDir := os.Getenv("SCRIPT_DIR")
	if scriptDir == "" {
		scriptDir = "./web/static"
	}
	developing, _ := strconv.ParseBool(os.Getenv("DEVELOPING"))

	// Repositories
	storeRepo := repository.NewMongoStoreRepository(db)
	invoiceStore := repository.NewMongoInvoiceStore(db)

	// Shopify client factory
	clientFactory := shopifyinfra.NewFactory(logger)

	// Application services
	reconciler := application.NewReconciliationService(
		invoiceStore,
		storeRepo,
		clientFactory,
		shopifyTimeout,
		logger,
	)
	integrations := application.NewIntegrationService(
		storeRepo,
		clientFactory,
		shopifyTimeout,
		appURL,
		logger,
	)
	scripts := application.NewScriptService(
		scriptDir,
		application.DefaultScriptFiles,
		appURL,
		developing,
		logger,
	)

	handler := apiinfra.NewIntegrationHandler(reconciler, integrations, scripts, logger)

	// The script and reconcile endpoints are open to storefront pages, so
	// they are limited per remote address.
	limiter := ratelimit.ByRemoteAddress(ratelimit.NewStore(redisClient), 60, time.Minute, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", apiinfra.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/stores/{storeID}/integrations/shopify", func(r chi.Router) {
		r.Get("/", handler.GetSettings)
		r.Post("/", handler.SaveSettings)
		r.With(limiter).Get("/shopify.js", handler.Script)
		r.With(limiter).Get("/{orderID}", handler.ReconcileOrder)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("Starting Shopify integration API")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}
