package config

// EnvPrefix is passed to envconfig; every field carries an explicit key so the prefix is informational.
const EnvPrefix = "AGENTBOT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	CheckpointBackendMemory = "memory"
	CheckpointBackendRedis  = "redis"
)

const (
	EnvAppEnv   = "AGENTBOT_APP_ENV"
	EnvPort     = "AGENTBOT_APP_PORT"
	EnvLogLevel = "AGENTBOT_LOG_LEVEL"

	EnvDBDSN    = "AGENTBOT_DB_DSN"
	EnvDBDriver = "AGENTBOT_DB_DRIVER"
	EnvDBHost   = "AGENTBOT_DB_HOST"
	EnvDBUser   = "AGENTBOT_DB_USER"
	EnvDBName   = "AGENTBOT_DB_NAME"

	EnvRedisURL  = "AGENTBOT_REDIS_URL"
	EnvJWTSecret = "AGENTBOT_JWT_SECRET"

	EnvSessionExpiryDays = "AGENTBOT_SESSION_EXPIRY_DAYS"
	EnvCheckpointBackend = "AGENTBOT_CHECKPOINT_BACKEND"
	EnvCallbackURL       = "AGENTBOT_WEBHOOK_CALLBACK_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
