package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Pricing PricingConfig
	GCP     GCPConfig
	PubSub  PubSubConfig
	Cron    CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MARIOUOMO_APP_ENV" required:"true"`
	Port         string `envconfig:"MARIOUOMO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MARIOUOMO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARIOUOMO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MARIOUOMO_DB_DSN"`
	Driver string `envconfig:"MARIOUOMO_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MARIOUOMO_DB_HOST"`
	Port     int    `envconfig:"MARIOUOMO_DB_PORT" default:"5432"`
	User     string `envconfig:"MARIOUOMO_DB_USER"`
	Password string `envconfig:"MARIOUOMO_DB_PASSWORD"`
	Name     string `envconfig:"MARIOUOMO_DB_NAME"`
	SSLMode  string `envconfig:"MARIOUOMO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARIOUOMO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARIOUOMO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARIOUOMO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARIOUOMO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARIOUOMO_REDIS_URL"`
	PoolSize     int           `envconfig:"MARIOUOMO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARIOUOMO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARIOUOMO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARIOUOMO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARIOUOMO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PricingConfig carries the injectable checkout pricing policy. Tax is a
// fractional rate (0.10 = 10%), shipping a flat fee per order.
type PricingConfig struct {
	TaxRate     decimal.Decimal `envconfig:"MARIOUOMO_TAX_RATE" default:"0.10"`
	ShippingFee decimal.Decimal `envconfig:"MARIOUOMO_SHIPPING_FEE" default:"10.00"`
}

func (p PricingConfig) validate() error {
	if p.TaxRate.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvTaxRate)
	}
	if p.ShippingFee.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvShippingFee)
	}
	return nil
}

type GCPConfig struct {
	ProjectID string `envconfig:"MARIOUOMO_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"MARIOUOMO_PUBSUB_ORDERS_TOPIC" default:"order-events"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"MARIOUOMO_CRON_INTERVAL" default:"24h"`
	LockKey  string        `envconfig:"MARIOUOMO_CRON_LOCK_KEY" default:"mariouomo:cron:lock"`
	LockTTL  time.Duration `envconfig:"MARIOUOMO_CRON_LOCK_TTL" default:"25h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
