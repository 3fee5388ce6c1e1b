// Package config loads service settings from the environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	d "github.com/fjod/foodcart/domain"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPPort           string        `envconfig:"HTTP_PORT" default:"8080"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxRequestBodySize int64         `envconfig:"MAX_REQUEST_BODY_SIZE" default:"1048576"`
	LogLevel           string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat          string        `envconfig:"LOG_FORMAT" default:"json"`

	DBHost         string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort         int           `envconfig:"DB_PORT" default:"5432"`
	DBUser         string        `envconfig:"DB_USER" default:"postgres"`
	DBPassword     string        `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName         string        `envconfig:"DB_NAME" default:"foodcart"`
	DBSSLMode      string        `envconfig:"DB_SSLMODE" default:"disable"`
	MigrationsPath string        `envconfig:"MIGRATIONS_PATH" default:"internal/backend/migrations"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"30s"`

	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"foodcart"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"order-changes"`
	KafkaGroupID string   `envconfig:"KAFKA_GROUP_ID" default:""` // empty: derived from the hostname

	GatewayAccountsURL     string        `envconfig:"GATEWAY_ACCOUNTS_URL" default:"https://demo-accounts.vivapayments.com"`
	GatewayAPIURL          string        `envconfig:"GATEWAY_API_URL" default:"https://demo-api.vivapayments.com"`
	GatewayCheckoutURL     string        `envconfig:"GATEWAY_CHECKOUT_URL" default:"https://demo.vivapayments.com"`
	GatewayClientID        string        `envconfig:"GATEWAY_CLIENT_ID" required:"true"`
	GatewayClientSecret    string        `envconfig:"GATEWAY_CLIENT_SECRET" required:"true"`
	GatewayTimeout         time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"45s"`
	GatewayBreakerFailures uint32        `envconfig:"GATEWAY_BREAKER_FAILURES" default:"5"`
	GatewayBreakerTimeout  time.Duration `envconfig:"GATEWAY_BREAKER_TIMEOUT" default:"30s"`
	Currency               string        `envconfig:"CURRENCY" default:"EUR"`

	CatalogTTL time.Duration `envconfig:"CATALOG_TTL" default:"5m"`
}

// Load reads envFiles (missing files are skipped; already-set variables win), then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := d.LookupCurrency(c.Currency); err != nil {
		return err
	}
	if c.RequestTimeout <= c.GatewayTimeout {
		return fmt.Errorf("REQUEST_TIMEOUT (%s) must exceed GATEWAY_TIMEOUT (%s)", c.RequestTimeout, c.GatewayTimeout)
	}
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS must list at least one broker")
	}
	return nil
}

func (c *Config) PaymentCurrency() d.Currency {
	cur, _ := d.LookupCurrency(c.Currency)
	return cur
}
