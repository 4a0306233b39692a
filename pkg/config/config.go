package config

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"

	"github.com/angelmondragon/landedcost/pkg/enums"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	ExchangeRate ExchangeRateConfig
	Presets      PresetsConfig
}

// Load reads the environment, fills in the database DSN and checks the values
// envconfig cannot. Every problem is reported in one error.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.resolveDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs error
	if _, err := strconv.ParseUint(c.App.Port, 10, 16); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("%s must be a port number, got %q", EnvPort, c.App.Port))
	}
	for _, origin := range c.App.CORSAllowedOrigins {
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			errs = multierr.Append(errs, fmt.Errorf("CORS origin %q must be scheme://host", origin))
		}
	}
	if _, err := enums.ParseCurrency(c.ExchangeRate.ReferenceCurrency); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", EnvReferenceCurrency, err))
	}
	if c.ExchangeRate.CacheTTL <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvExchangeRateCacheTTL))
	}
	if c.ExchangeRate.RefreshInterval < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must not be negative", EnvExchangeRateRefresh))
	}
	return errs
}

type AppConfig struct {
	Env          string `envconfig:"LANDEDCOST_APP_ENV" required:"true"`
	Port         string `envconfig:"LANDEDCOST_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LANDEDCOST_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LANDEDCOST_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"LANDEDCOST_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"LANDEDCOST_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LANDEDCOST_DB_DSN"`
	Driver string `envconfig:"LANDEDCOST_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LANDEDCOST_DB_HOST"`
	LegacyPort     int    `envconfig:"LANDEDCOST_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LANDEDCOST_DB_USER"`
	LegacyPassword string `envconfig:"LANDEDCOST_DB_PASSWORD"`
	LegacyName     string `envconfig:"LANDEDCOST_DB_NAME"`
	LegacySSLMode  string `envconfig:"LANDEDCOST_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LANDEDCOST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LANDEDCOST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LANDEDCOST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LANDEDCOST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"LANDEDCOST_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LANDEDCOST_REDIS_URL"`
	Address      string        `envconfig:"LANDEDCOST_REDIS_ADDR"`
	Password     string        `envconfig:"LANDEDCOST_REDIS_PASSWORD"`
	DB           int           `envconfig:"LANDEDCOST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LANDEDCOST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LANDEDCOST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LANDEDCOST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LANDEDCOST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LANDEDCOST_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"LANDEDCOST_REDIS_KEY_PREFIX" default:"lc"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LANDEDCOST_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LANDEDCOST_AUTO_MIGRATE" default:"false"`
}

// ExchangeRateConfig configures the rate collaborator. A RefreshInterval of zero
// disables the background refresh; the snapshot is then fetched once on boot and
// on POST /api/v1/exchange-rates/refresh.
type ExchangeRateConfig struct {
	URL               string        `envconfig:"LANDEDCOST_EXCHANGE_RATE_URL" required:"true"`
	APIKey            string        `envconfig:"LANDEDCOST_EXCHANGE_RATE_API_KEY"`
	Timeout           time.Duration `envconfig:"LANDEDCOST_EXCHANGE_RATE_TIMEOUT" default:"10s"`
	CacheTTL          time.Duration `envconfig:"LANDEDCOST_EXCHANGE_RATE_CACHE_TTL" default:"6h"`
	RefreshInterval   time.Duration `envconfig:"LANDEDCOST_EXCHANGE_RATE_REFRESH_INTERVAL" default:"1h"`
	ReferenceCurrency string        `envconfig:"LANDEDCOST_REFERENCE_CURRENCY" default:"KRW"`
}

type PresetsConfig struct {
	IdempotencyTTL time.Duration `envconfig:"LANDEDCOST_PRESETS_IDEMPOTENCY_TTL" default:"24h"`
}

// resolveDSN leaves an explicit DSN alone. Otherwise it uses the local sqlite
// file when requested, or assembles a postgres URL from the discrete variables.
func (db *DBConfig) resolveDSN(useSQLite bool) error {
	switch {
	case db.DSN != "":
		return nil
	case useSQLite:
		db.DSN = DefaultSQLiteDSN
		return nil
	}

	var missing []string
	for env, value := range map[string]string{EnvDBHost: db.LegacyHost, EnvDBUser: db.LegacyUser, EnvDBName: db.LegacyName} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("set %s, or all of %s", EnvDBDSN, strings.Join(missing, ", "))
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.User(db.LegacyUser),
		Host:   net.JoinHostPort(db.LegacyHost, strconv.Itoa(db.LegacyPort)),
		Path:   db.LegacyName,
	}
	if db.LegacyPassword != "" {
		dsn.User = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}
	if db.LegacySSLMode != "" {
		dsn.RawQuery = url.Values{"sslmode": {db.LegacySSLMode}}.Encode()
	}
	db.DSN = dsn.String()
	return nil
}
