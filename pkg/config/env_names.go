package config

// EnvPrefix is intentionally empty: every variable carries the METRODOCS_
// prefix in its envconfig tag so greps for the literal name succeed.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "METRODOCS_DB_DSN"
	EnvDBHost = "METRODOCS_DB_HOST"
	EnvDBUser = "METRODOCS_DB_USER"
	EnvDBName = "METRODOCS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
