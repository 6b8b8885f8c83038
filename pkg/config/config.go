package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// EnvPrefix is empty because every field names its variable in full.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	Redis    RedisConfig
	Square   SquareConfig
	OrderAPI OrderAPIConfig
	Fees     FeeConfig
	Tracking TrackingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Fees.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"QUICKPLATE_APP_ENV" required:"true"`
	Port         string `envconfig:"QUICKPLATE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"QUICKPLATE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"QUICKPLATE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"QUICKPLATE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"QUICKPLATE_REDIS_ADDR"`
	Password     string        `envconfig:"QUICKPLATE_REDIS_PASSWORD"`
	DB           int           `envconfig:"QUICKPLATE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QUICKPLATE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QUICKPLATE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QUICKPLATE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QUICKPLATE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QUICKPLATE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"QUICKPLATE_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"QUICKPLATE_SQUARE_ENV" default:"sandbox"`
	LocationID  string `envconfig:"QUICKPLATE_SQUARE_LOCATION_ID"`
	Currency    string `envconfig:"QUICKPLATE_SQUARE_CURRENCY" default:"USD"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type OrderAPIConfig struct {
	BaseURL            string        `envconfig:"QUICKPLATE_ORDER_API_BASE_URL" required:"true"`
	Timeout            time.Duration `envconfig:"QUICKPLATE_ORDER_API_TIMEOUT" default:"10s"`
	BreakerMaxFailures uint32        `envconfig:"QUICKPLATE_ORDER_API_BREAKER_MAX_FAILURES" default:"5"`
	BreakerOpenFor     time.Duration `envconfig:"QUICKPLATE_ORDER_API_BREAKER_OPEN_FOR" default:"30s"`
}

type FeeConfig struct {
	TaxRate     decimal.Decimal `envconfig:"QUICKPLATE_FEE_TAX_RATE" default:"0.08"`
	DeliveryFee decimal.Decimal `envconfig:"QUICKPLATE_FEE_DELIVERY" default:"2.99"`
	ServiceFee  decimal.Decimal `envconfig:"QUICKPLATE_FEE_SERVICE" default:"1.00"`
}

func (f FeeConfig) validate() error {
	if f.TaxRate.IsNegative() {
		return fmt.Errorf("tax rate must be non-negative")
	}
	if f.DeliveryFee.IsNegative() || f.ServiceFee.IsNegative() {
		return fmt.Errorf("fees must be non-negative")
	}
	return nil
}

type TrackingConfig struct {
	TopicPrefix      string        `envconfig:"QUICKPLATE_TRACKING_TOPIC_PREFIX" default:"order_"`
	ResubscribeDelay time.Duration `envconfig:"QUICKPLATE_TRACKING_RESUBSCRIBE_DELAY" default:"2s"`
}
