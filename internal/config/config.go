package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full server configuration, read from the environment.
type Config struct {
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`

	MongoURI            string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDBName         string        `env:"MONGO_DB_NAME" envDefault:"storefront"`
	MongoConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"10s"`
	MongoSelectTimeout  time.Duration `env:"MONGO_SELECT_TIMEOUT" envDefault:"5s"`
	MongoMaxPoolSize    uint64        `env:"MONGO_MAX_POOL_SIZE" envDefault:"100"`
	MongoMinPoolSize    uint64        `env:"MONGO_MIN_POOL_SIZE" envDefault:"10"`

	PromoDBHost        string `env:"PROMO_DB_HOST" envDefault:"localhost"`
	PromoDBPort        int    `env:"PROMO_DB_PORT" envDefault:"5432"`
	PromoDBUser        string `env:"PROMO_DB_USER" envDefault:"postgres"`
	PromoDBPassword    string `env:"PROMO_DB_PASSWORD" envDefault:"postgres"`
	PromoDBName        string `env:"PROMO_DB_NAME" envDefault:"storefront"`
	PromoMigrationsDir string `env:"PROMO_MIGRATIONS_DIR" envDefault:"migrations"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	OrderServiceURL string        `env:"ORDER_SERVICE_URL" envDefault:"http://localhost:8081"`
	ShopServiceURL  string        `env:"SHOP_SERVICE_URL" envDefault:"http://localhost:8082"`
	GatewayTimeout  time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"15s"`

	DebounceDelay time.Duration `env:"SHIPPING_DEBOUNCE_DELAY" envDefault:"2s"`

	// Pricing knobs, in the smallest currency unit.
	FreeShippingThreshold int64 `env:"FREE_SHIPPING_THRESHOLD" envDefault:"500000"`
	FlatShippingFee       int64 `env:"FLAT_SHIPPING_FEE" envDefault:"30000"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
