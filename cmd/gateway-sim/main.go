package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/foodcart/internal/gatewaysim"
	"github.com/fjod/foodcart/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

type Config struct {
	Port         string `envconfig:"SIM_PORT" default:"8090"`
	ClientID     string `envconfig:"GATEWAY_CLIENT_ID" default:"local-client"`
	ClientSecret string `envconfig:"GATEWAY_CLIENT_SECRET" default:"local-secret"`
	// Status fixes every payment outcome (F, E or A); empty draws one at random.
	Status    string `envconfig:"SIM_STATUS"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

func main() {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	l, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer l.Sync() //nolint:errcheck

	var status gatewaysim.StatusSource = gatewaysim.RandomStatus{}
	if cfg.Status != "" {
		status = gatewaysim.FixedStatus(cfg.Status)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      gatewaysim.New(cfg.ClientID, cfg.ClientSecret, status, l).Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		l.Info("payment gateway simulator listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	l.Info("shutting down simulator")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("simulator forced to shutdown", zap.Error(err))
	}
}
