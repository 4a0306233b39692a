package config

// EnvPrefix is handed to envconfig; every field carries an explicit envconfig tag.
const EnvPrefix = "LANDEDCOST"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DefaultSQLiteDSN = "file:landedcost.db?cache=shared&_foreign_keys=on"
)

const (
	EnvAppEnv   = "LANDEDCOST_APP_ENV"
	EnvPort     = "LANDEDCOST_APP_PORT"
	EnvLogLevel = "LANDEDCOST_LOG_LEVEL"

	EnvDBDSN  = "LANDEDCOST_DB_DSN"
	EnvDBHost = "LANDEDCOST_DB_HOST"
	EnvDBUser = "LANDEDCOST_DB_USER"
	EnvDBName = "LANDEDCOST_DB_NAME"

	EnvRedisURL  = "LANDEDCOST_REDIS_URL"
	EnvUseSQLite = "LANDEDCOST_USE_SQLITE"

	EnvExchangeRateURL      = "LANDEDCOST_EXCHANGE_RATE_URL"
	EnvExchangeRateCacheTTL = "LANDEDCOST_EXCHANGE_RATE_CACHE_TTL"
	EnvExchangeRateRefresh  = "LANDEDCOST_EXCHANGE_RATE_REFRESH_INTERVAL"
	EnvReferenceCurrency    = "LANDEDCOST_REFERENCE_CURRENCY"
)
