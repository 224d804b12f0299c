package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ANGELBOOST_APP_ENV" required:"true"`
	Port         string `envconfig:"ANGELBOOST_APP_PORT" default:"3000"`
	LogLevel     string `envconfig:"ANGELBOOST_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ANGELBOOST_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"ANGELBOOST_DB_DSN"`

	Host     string `envconfig:"ANGELBOOST_DB_HOST"`
	Port     int    `envconfig:"ANGELBOOST_DB_PORT" default:"5432"`
	User     string `envconfig:"ANGELBOOST_DB_USER"`
	Password string `envconfig:"ANGELBOOST_DB_PASSWORD"`
	Name     string `envconfig:"ANGELBOOST_DB_NAME"`
	SSLMode  string `envconfig:"ANGELBOOST_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ANGELBOOST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ANGELBOOST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ANGELBOOST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ANGELBOOST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a Postgres DSN from discrete fields when none was given.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either ANGELBOOST_DB_DSN or host/user/name settings are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"ANGELBOOST_REDIS_URL"`
	Address      string        `envconfig:"ANGELBOOST_REDIS_ADDR"`
	Password     string        `envconfig:"ANGELBOOST_REDIS_PASSWORD"`
	DB           int           `envconfig:"ANGELBOOST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ANGELBOOST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ANGELBOOST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ANGELBOOST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ANGELBOOST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ANGELBOOST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SessionConfig struct {
	CookieName string        `envconfig:"ANGELBOOST_SESSION_COOKIE_NAME" default:"sid"`
	TTL        time.Duration `envconfig:"ANGELBOOST_SESSION_TTL" default:"720h"`
	Secure     bool          `envconfig:"ANGELBOOST_SESSION_SECURE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"ANGELBOOST_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"ANGELBOOST_PUBSUB_ORDERS_TOPIC" default:"order-events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"ANGELBOOST_OUTBOX_BATCH_SIZE" default:"50"`
	PollInterval   time.Duration `envconfig:"ANGELBOOST_OUTBOX_POLL_INTERVAL" default:"500ms"`
	MaxAttempts    int           `envconfig:"ANGELBOOST_OUTBOX_MAX_ATTEMPTS" default:"10"`
	PublishTimeout time.Duration `envconfig:"ANGELBOOST_OUTBOX_PUBLISH_TIMEOUT" default:"15s"`
	MetricsPort    string        `envconfig:"ANGELBOOST_OUTBOX_METRICS_PORT" default:"9464"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ANGELBOOST_FEATURE_AUTO_MIGRATE" default:"false"`
}
