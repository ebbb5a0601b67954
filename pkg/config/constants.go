package config

const (
	EnvPrefix = "VENUEOPS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "VENUEOPS_APP_ENV"
	EnvPort     = "VENUEOPS_APP_PORT"
	EnvLogLevel = "VENUEOPS_LOG_LEVEL"

	EnvDBDSN         = "VENUEOPS_DB_DSN"
	EnvDBHost        = "VENUEOPS_DB_HOST"
	EnvDBUser        = "VENUEOPS_DB_USER"
	EnvDBName        = "VENUEOPS_DB_NAME"
	EnvDBTxIsolation = "VENUEOPS_DB_TX_ISOLATION"

	EnvRedisURL  = "VENUEOPS_REDIS_URL"
	EnvJWTSecret = "VENUEOPS_JWT_SECRET"
	EnvJWTIssuer = "VENUEOPS_JWT_ISSUER"

	EnvCheckoutDuplicatePolicy = "VENUEOPS_CHECKOUT_DUPLICATE_POLICY"
	EnvPubSubEventsTopic       = "VENUEOPS_PUBSUB_EVENTS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
