package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/openshop/checkout/internal/cart"
	"github.com/openshop/checkout/internal/config"
	"github.com/openshop/checkout/internal/events"
	"github.com/openshop/checkout/internal/gateway"
	"github.com/openshop/checkout/internal/httpapi"
	"github.com/openshop/checkout/internal/pricing"
	"github.com/openshop/checkout/internal/session"
	"github.com/openshop/checkout/internal/shipping"
)

func main() {
	// Best-effort; the environment wins over the file either way.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("could not load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// Mongo holds the shipping profiles.
	mongoDB, err := shipping.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName, shipping.ConnectConfig{
		ConnectTimeout:   cfg.MongoConnectTimeout,
		SelectionTimeout: cfg.MongoSelectTimeout,
		MaxPoolSize:      cfg.MongoMaxPoolSize,
		MinPoolSize:      cfg.MongoMinPoolSize,
	})
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	profileRepo := shipping.NewMongoRepository(mongoDB)
	if err := profileRepo.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create shipping profile indexes: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	// Redis holds cart snapshots so carts survive reloads.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")
	snapshots := cart.NewRedisSnapshots(redisClient)

	// Postgres holds the promo rules, refreshed into memory.
	promoCred := &pricing.Credentials{
		Host:              cfg.PromoDBHost,
		Port:              cfg.PromoDBPort,
		User:              cfg.PromoDBUser,
		Password:          cfg.PromoDBPassword,
		DBName:            cfg.PromoDBName,
		MigrationsDirPath: cfg.PromoMigrationsDir,
	}
	promos, err := pricing.NewPostgresResolver(promoCred)
	if err != nil {
		log.Fatalf("Failed to connect to promo database: %v", err)
	}
	defer promos.Close()
	if err := promos.RunMigrations(promoCred); err != nil {
		log.Fatalf("Failed to run promo migrations: %v", err)
	}
	if err := promos.Start(ctx); err != nil {
		log.Fatalf("Failed to load promo rules: %v", err)
	}
	log.Printf("Promo rules loaded from postgres")

	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers...)
	defer publisher.Close()

	orderGateway := gateway.NewHTTPOrderGateway(cfg.OrderServiceURL, cfg.GatewayTimeout)
	shopDirectory := gateway.NewHTTPShopDirectory(cfg.ShopServiceURL, cfg.GatewayTimeout)

	sessions := session.NewManager(session.Deps{
		Snapshots: snapshots,
		Profiles:  profileRepo,
		Orders:    orderGateway,
		Auth:      gateway.ContextSession{},
		Publisher: publisher,
		Rules: pricing.Rules{
			FreeShippingThreshold: cfg.FreeShippingThreshold,
			FlatShippingFee:       cfg.FlatShippingFee,
			Promos:                promos,
		},
		Debounce: cfg.DebounceDelay,
	})
	defer sessions.Close()

	router := httpapi.NewRouter(sessions, shopDirectory, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "checkout-api"),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	go func() {
		log.Printf("Checkout API starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
		log.Printf("mongo disconnect failed: %v", err)
	}

	log.Println("server exited")
}
