package config

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "MARIOUOMO"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv      = "MARIOUOMO_APP_ENV"
	EnvPort        = "MARIOUOMO_APP_PORT"
	EnvDBDSN       = "MARIOUOMO_DB_DSN"
	EnvDBHost      = "MARIOUOMO_DB_HOST"
	EnvDBUser      = "MARIOUOMO_DB_USER"
	EnvDBName      = "MARIOUOMO_DB_NAME"
	EnvRedisURL    = "MARIOUOMO_REDIS_URL"
	EnvTaxRate     = "MARIOUOMO_TAX_RATE"
	EnvShippingFee = "MARIOUOMO_SHIPPING_FEE"
)

var dbEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
