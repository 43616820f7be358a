package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"MEALCART_APP_ENV" required:"true"`
	Port         string `envconfig:"MEALCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MEALCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MEALCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MEALCART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MEALCART_DB_DSN"`
	Driver string `envconfig:"MEALCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MEALCART_DB_HOST"`
	LegacyPort     int    `envconfig:"MEALCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MEALCART_DB_USER"`
	LegacyPassword string `envconfig:"MEALCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"MEALCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"MEALCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MEALCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEALCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEALCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEALCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEALCART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MEALCART_REDIS_ADDR"`
	Password     string        `envconfig:"MEALCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEALCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEALCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEALCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEALCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEALCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEALCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MEALCART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MEALCART_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"MEALCART_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MEALCART_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"MEALCART_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MEALCART_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	CartTopic        string `envconfig:"MEALCART_PUBSUB_CART_TOPIC" default:"cart-updated"`
	CartSubscription string `envconfig:"MEALCART_PUBSUB_CART_SUBSCRIPTION" default:"cart-updated.cart-projector"`
	UserTopic        string `envconfig:"MEALCART_PUBSUB_USER_TOPIC" default:"user-created"`
	UserSubscription string `envconfig:"MEALCART_PUBSUB_USER_SUBSCRIPTION" default:"user-created.cart-projector"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MEALCART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MEALCART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MEALCART_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
