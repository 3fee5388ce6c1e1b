package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/foodcart/internal/backend"
	"github.com/fjod/foodcart/internal/basket"
	c "github.com/fjod/foodcart/internal/cache"
	"github.com/fjod/foodcart/internal/catalog"
	"github.com/fjod/foodcart/internal/checkout"
	"github.com/fjod/foodcart/internal/config"
	"github.com/fjod/foodcart/internal/gateway"
	h "github.com/fjod/foodcart/internal/http"
	"github.com/fjod/foodcart/internal/realtime"
	"github.com/fjod/foodcart/internal/repository"
	"github.com/fjod/foodcart/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer l.Sync() //nolint:errcheck

	if err := run(cfg, l); err != nil {
		l.Fatal("basket api stopped", zap.Error(err))
	}
	l.Info("basket api stopped")
}

func run(cfg *config.Config, l *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres backend
	cred := &backend.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		SSLMode:           cfg.DBSSLMode,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	repo, err := backend.NewRepository(cred, l)
	if err != nil {
		return err
	}
	defer repo.Close()
	if err := repo.RunMigrations(cred); err != nil {
		return err
	}

	// Kafka order changes: the relay publishes what the orders trigger records, the hub fans it out
	publisher := realtime.NewPublisher(realtime.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...))
	defer publisher.Close()
	relay := realtime.NewRelay(repo, publisher, l)

	groupID := cfg.KafkaGroupID
	if groupID == "" {
		groupID = instanceGroupID()
	}
	hub := realtime.NewHub(realtime.NewKafkaReader(cfg.KafkaTopic, groupID, cfg.KafkaBrokers...), l)
	l.Info("consuming order changes", zap.String("topic", cfg.KafkaTopic), zap.String("group_id", groupID))

	// MongoDB basket snapshots
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer mongoDB.Client().Disconnect(context.Background()) //nolint:errcheck
	baskets := repository.NewMongoRepository(mongoDB)
	if err := repository.EnsureIndexes(ctx, baskets); err != nil {
		return err
	}
	l.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))

	// Redis basket cache
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	l.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))

	sessions := basket.NewSessions(baskets, c.NewRedisCache(redisClient), l)
	products := catalog.New(repo, cfg.CatalogTTL)

	pay := gateway.New(gateway.Config{
		AccountsURL:     cfg.GatewayAccountsURL,
		APIURL:          cfg.GatewayAPIURL,
		CheckoutURL:     cfg.GatewayCheckoutURL,
		ClientID:        cfg.GatewayClientID,
		ClientSecret:    cfg.GatewayClientSecret,
		Timeout:         cfg.GatewayTimeout,
		BreakerFailures: cfg.GatewayBreakerFailures,
		BreakerTimeout:  cfg.GatewayBreakerTimeout,
	}, l)

	checkouts := checkout.NewRegistry(
		checkout.BasketSourceFunc(func(ctx context.Context, userID string) checkout.Basket {
			return sessions.Basket(ctx, userID)
		}),
		checkout.NewGatewayHandler(pay, cfg.GatewayTimeout),
		checkout.NewBackendHandler(repo, cfg.BackendTimeout),
		cfg.PaymentCurrency(),
		l)

	router := h.NewRouter(h.RouterConfig{
		Logger:         l,
		RequestTimeout: cfg.RequestTimeout,
		Ready:          repo.Ping,
	}, h.Handlers{
		Products: h.NewProductHandler(products),
		Basket:   h.NewBasketHandler(sessions, products, cfg.MaxRequestBodySize),
		Checkout: h.NewCheckoutHandler(checkouts, sessions, cfg.MaxRequestBodySize),
		Orders:   h.NewOrdersHandler(repo, hub),
		Admin:    h.NewAdminHandler(repo, hub, cfg.MaxRequestBodySize),
	})

	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// event streams stay open; other routes are bounded by the request timeout middleware
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		l.Info("basket api starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// instanceGroupID gives every instance its own consumer group so each one sees all order changes.
func instanceGroupID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return "foodcart-api-" + host
}
