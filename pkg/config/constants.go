package config

// EnvPrefix scopes every environment variable read by envconfig.
const EnvPrefix = "BCOMMERCE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "BCOMMERCE_DB_DSN"
	EnvDBHost = "BCOMMERCE_DB_HOST"
	EnvDBUser = "BCOMMERCE_DB_USER"
	EnvDBName = "BCOMMERCE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
