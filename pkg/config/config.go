package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "SHELFWATCH"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv      = "SHELFWATCH_APP_ENV"
	EnvPort        = "SHELFWATCH_APP_PORT"
	EnvDBDSN       = "SHELFWATCH_DB_DSN"
	EnvDBDriver    = "SHELFWATCH_DB_DRIVER"
	EnvDBHost      = "SHELFWATCH_DB_HOST"
	EnvDBUser      = "SHELFWATCH_DB_USER"
	EnvDBName      = "SHELFWATCH_DB_NAME"
	EnvRedisURL    = "SHELFWATCH_REDIS_URL"
	EnvJWTSecret   = "SHELFWATCH_JWT_SECRET"
	EnvJWTIssuer   = "SHELFWATCH_JWT_ISSUER"
	EnvJWTExpMins  = "SHELFWATCH_JWT_EXPIRATION_MINUTES"
	EnvTimezone    = "SHELFWATCH_TIMEZONE"
	EnvCacheTTL    = "SHELFWATCH_CACHE_FILTER_OPTIONS_TTL"
	EnvCacheDriver = "SHELFWATCH_CACHE_DRIVER"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
	CacheDriverNone   = "none"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Scheduler    SchedulerConfig
	Expiry       ExpiryConfig
	Cache        CacheConfig
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
	if cfg.Cache.Driver == CacheDriverRedis && !cfg.Redis.Enabled() {
		return nil, fmt.Errorf("%s=redis requires %s", EnvCacheDriver, EnvRedisURL)
	}
	if _, err := time.LoadLocation(cfg.Expiry.Timezone); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvTimezone, err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHELFWATCH_APP_ENV" required:"true"`
	Port         string `envconfig:"SHELFWATCH_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHELFWATCH_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SHELFWATCH_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"SHELFWATCH_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"SHELFWATCH_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SHELFWATCH_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHELFWATCH_DB_DSN"`
	Driver string `envconfig:"SHELFWATCH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHELFWATCH_DB_HOST"`
	LegacyPort     int    `envconfig:"SHELFWATCH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHELFWATCH_DB_USER"`
	LegacyPassword string `envconfig:"SHELFWATCH_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHELFWATCH_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHELFWATCH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHELFWATCH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHELFWATCH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHELFWATCH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHELFWATCH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"SHELFWATCH_REDIS_URL"`
	Address      string        `envconfig:"SHELFWATCH_REDIS_ADDR"`
	Password     string        `envconfig:"SHELFWATCH_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHELFWATCH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHELFWATCH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHELFWATCH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHELFWATCH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHELFWATCH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHELFWATCH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"SHELFWATCH_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHELFWATCH_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SHELFWATCH_JWT_EXPIRATION_MINUTES" default:"60"`
}

type SchedulerConfig struct {
	Interval        time.Duration `envconfig:"SHELFWATCH_SCHEDULER_INTERVAL" default:"1m"`
	LockTTL         time.Duration `envconfig:"SHELFWATCH_SCHEDULER_LOCK_TTL" default:"2m"`
	GenerateAlerts  bool          `envconfig:"SHELFWATCH_SCHEDULER_GENERATE_ALERTS" default:"true"`
	DistributedLock bool          `envconfig:"SHELFWATCH_SCHEDULER_DISTRIBUTED_LOCK" default:"false"`
	MetricsAddr     string        `envconfig:"SHELFWATCH_SCHEDULER_METRICS_ADDR"`
}

type ExpiryConfig struct {
	Timezone     string `envconfig:"SHELFWATCH_TIMEZONE" default:"UTC"`
	UpcomingDays int    `envconfig:"SHELFWATCH_EXPIRY_UPCOMING_DAYS" default:"15"`
}

type CacheConfig struct {
	Driver           string        `envconfig:"SHELFWATCH_CACHE_DRIVER" default:"memory"`
	FilterOptionsTTL time.Duration `envconfig:"SHELFWATCH_CACHE_FILTER_OPTIONS_TTL" default:"5m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHELFWATCH_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:shelfwatch.db?cache=shared"
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
