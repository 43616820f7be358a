package config

const (
	EnvPrefix = "MEALCART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MEALCART_DB_DSN"
	EnvDBHost = "MEALCART_DB_HOST"
	EnvDBUser = "MEALCART_DB_USER"
	EnvDBName = "MEALCART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
