package config

const (
	// EnvPrefix is passed to envconfig; individual fields carry explicit
	// RETAILHUB_ names so the prefix only matters for unnamed fields.
	EnvPrefix = "retailhub"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv     = "RETAILHUB_APP_ENV"
	EnvPort       = "RETAILHUB_APP_PORT"
	EnvDBDSN      = "RETAILHUB_DB_DSN"
	EnvDBHost     = "RETAILHUB_DB_HOST"
	EnvDBUser     = "RETAILHUB_DB_USER"
	EnvDBName     = "RETAILHUB_DB_NAME"
	EnvRedisURL   = "RETAILHUB_REDIS_URL"
	EnvJWTSecret  = "RETAILHUB_JWT_SECRET"
	EnvJWTIssuer  = "RETAILHUB_JWT_ISSUER"
	EnvJWTExpMins = "RETAILHUB_JWT_EXPIRATION_MINUTES"
	EnvR2Bucket   = "RETAILHUB_R2_BUCKET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
