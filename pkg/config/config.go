package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Fees         FeesConfig
	Cancellation CancellationConfig
	Jobs         JobsConfig
	Stripe       StripeConfig
	Mail         MailConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LOTEPRO_APP_ENV" required:"true"`
	Port         string `envconfig:"LOTEPRO_APP_PORT" default:"4000"`
	LogLevel     string `envconfig:"LOTEPRO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOTEPRO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LOTEPRO_DB_DSN" required:"true"`
	Driver string `envconfig:"LOTEPRO_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"LOTEPRO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOTEPRO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOTEPRO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOTEPRO_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"LOTEPRO_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOTEPRO_REDIS_URL"`
	Address      string        `envconfig:"LOTEPRO_REDIS_ADDR"`
	Password     string        `envconfig:"LOTEPRO_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOTEPRO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOTEPRO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOTEPRO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOTEPRO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOTEPRO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOTEPRO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LOTEPRO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LOTEPRO_JWT_ISSUER"`
	ExpirationMinutes int    `envconfig:"LOTEPRO_JWT_EXPIRATION_MINUTES" default:"60"`
}

// FeesConfig carries the platform fee policy in basis points out of 10,000.
type FeesConfig struct {
	CommissionBps int `envconfig:"LOTEPRO_PLATFORM_COMMISSION_BPS" default:"500"`
	ProcessingBps int `envconfig:"LOTEPRO_PLATFORM_PROCESSING_BPS" default:"399"`
}

type CancellationConfig struct {
	HoursBeforeCutoff int `envconfig:"LOTEPRO_CANCEL_HOURS_BEFORE_CUTOFF" default:"6"`
}

type JobsConfig struct {
	Secret           string        `envconfig:"LOTEPRO_JOB_SECRET"`
	ReserveBatchSize int           `envconfig:"LOTEPRO_JOB_RESERVE_BATCH_SIZE" default:"200"`
	Interval         time.Duration `envconfig:"LOTEPRO_JOB_INTERVAL" default:"1h"`
	LockTTL          time.Duration `envconfig:"LOTEPRO_JOB_LOCK_TTL" default:"55m"`
}

type StripeConfig struct {
	APIKey         string `envconfig:"LOTEPRO_STRIPE_API_KEY"`
	PublishableKey string `envconfig:"LOTEPRO_STRIPE_PUBLISHABLE_KEY"`
	WebhookSecret  string `envconfig:"LOTEPRO_STRIPE_WEBHOOK_SECRET"`
	Env            string `envconfig:"LOTEPRO_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type MailConfig struct {
	From string `envconfig:"LOTEPRO_MAIL_FROM" default:"LotePro <no-reply@lotepro.com.br>"`
}
