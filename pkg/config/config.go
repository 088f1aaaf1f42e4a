package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	LLM          LLMConfig
	Session      SessionConfig
	Webhook      WebhookConfig
	Retry        RetryConfig
	Graph        GraphConfig
	Checkpoint   CheckpointConfig
	SMTP         SMTPConfig
	RateLimit    RateLimitConfig
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
	if err := cfg.Checkpoint.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AGENTBOT_APP_ENV" required:"true"`
	Port         string `envconfig:"AGENTBOT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AGENTBOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGENTBOT_LOG_WARN_STACK" default:"false"`

	CORSOrigins     []string      `envconfig:"AGENTBOT_CORS_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"AGENTBOT_SHUTDOWN_TIMEOUT" default:"20s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"AGENTBOT_DB_DSN"`
	Driver string `envconfig:"AGENTBOT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AGENTBOT_DB_HOST"`
	LegacyPort     int    `envconfig:"AGENTBOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGENTBOT_DB_USER"`
	LegacyPassword string `envconfig:"AGENTBOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGENTBOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGENTBOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGENTBOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGENTBOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGENTBOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGENTBOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver targets SQLite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"AGENTBOT_REDIS_URL"`
	Address      string        `envconfig:"AGENTBOT_REDIS_ADDR"`
	Password     string        `envconfig:"AGENTBOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGENTBOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGENTBOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGENTBOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGENTBOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGENTBOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGENTBOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"AGENTBOT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AGENTBOT_JWT_ISSUER" default:"agent-bot"`
	ExpirationMinutes int    `envconfig:"AGENTBOT_JWT_EXPIRATION_MINUTES" default:"720"`
}

type LLMConfig struct {
	OpenAIAPIKey    string  `envconfig:"AGENTBOT_OPENAI_API_KEY"`
	AnthropicAPIKey string  `envconfig:"AGENTBOT_ANTHROPIC_API_KEY"`
	RouterProvider  string  `envconfig:"AGENTBOT_LLM_ROUTER_PROVIDER" default:"openai"`
	RouterModel     string  `envconfig:"AGENTBOT_LLM_ROUTER_MODEL" default:"gpt-4o-mini"`
	AgentModel      string  `envconfig:"AGENTBOT_LLM_AGENT_MODEL" default:"gpt-4o-mini"`
	Temperature     float64 `envconfig:"AGENTBOT_LLM_TEMPERATURE" default:"0"`
	MaxToolRounds   int     `envconfig:"AGENTBOT_LLM_MAX_TOOL_ROUNDS" default:"6"`
}

type SessionConfig struct {
	ExpiryDays int    `envconfig:"AGENTBOT_SESSION_EXPIRY_DAYS" default:"3"`
	Timezone   string `envconfig:"AGENTBOT_SESSION_TIMEZONE" default:"Asia/Ho_Chi_Minh"`
}

// Expiry returns the inactivity window after which a session rotates.
func (s SessionConfig) Expiry() time.Duration {
	if s.ExpiryDays <= 0 {
		return 0
	}
	return time.Duration(s.ExpiryDays) * 24 * time.Hour
}

// Location resolves the configured timezone, falling back to UTC.
func (s SessionConfig) Location() *time.Location {
	if strings.TrimSpace(s.Timezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type WebhookConfig struct {
	CallbackURL string        `envconfig:"AGENTBOT_WEBHOOK_CALLBACK_URL"`
	Timeout     time.Duration `envconfig:"AGENTBOT_WEBHOOK_TIMEOUT" default:"30s"`
}

type RetryConfig struct {
	Attempts int           `envconfig:"AGENTBOT_REPO_RETRY_ATTEMPTS" default:"2"`
	MinWait  time.Duration `envconfig:"AGENTBOT_REPO_RETRY_MIN_WAIT" default:"1s"`
	MaxWait  time.Duration `envconfig:"AGENTBOT_REPO_RETRY_MAX_WAIT" default:"5s"`
}

type GraphConfig struct {
	MaxAttempts int           `envconfig:"AGENTBOT_GRAPH_MAX_ATTEMPTS" default:"2"`
	Backoff     time.Duration `envconfig:"AGENTBOT_GRAPH_BACKOFF" default:"500ms"`
	MaxBackoff  time.Duration `envconfig:"AGENTBOT_GRAPH_MAX_BACKOFF" default:"4s"`
	MaxSteps    int           `envconfig:"AGENTBOT_GRAPH_MAX_STEPS" default:"8"`
}

type CheckpointConfig struct {
	Backend string        `envconfig:"AGENTBOT_CHECKPOINT_BACKEND" default:"memory"`
	TTL     time.Duration `envconfig:"AGENTBOT_CHECKPOINT_TTL" default:"1h"`
}

func (c CheckpointConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Backend)) {
	case CheckpointBackendMemory, CheckpointBackendRedis:
		return nil
	}
	return fmt.Errorf("unsupported checkpoint backend %q", c.Backend)
}

// UsesRedis reports whether checkpoints live in redis.
func (c CheckpointConfig) UsesRedis() bool {
	return strings.EqualFold(strings.TrimSpace(c.Backend), CheckpointBackendRedis)
}

type SMTPConfig struct {
	Host      string `envconfig:"AGENTBOT_SMTP_HOST"`
	Port      int    `envconfig:"AGENTBOT_SMTP_PORT" default:"587"`
	User      string `envconfig:"AGENTBOT_SMTP_USER"`
	Password  string `envconfig:"AGENTBOT_SMTP_PASS"`
	From      string `envconfig:"AGENTBOT_SMTP_FROM"`
	Recipient string `envconfig:"AGENTBOT_ESCALATION_RECIPIENT"`
}

// Complete reports whether every field needed to send mail is present.
func (s SMTPConfig) Complete() bool {
	return s.Host != "" && s.Port > 0 && s.User != "" && s.Password != "" && s.Recipient != ""
}

// RateLimitConfig throttles inbound chat traffic. A zero window disables it.
type RateLimitConfig struct {
	Window    time.Duration `envconfig:"AGENTBOT_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit   int           `envconfig:"AGENTBOT_RATE_LIMIT_IP" default:"240"`
	ChatLimit int           `envconfig:"AGENTBOT_RATE_LIMIT_CHAT" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AGENTBOT_AUTO_MIGRATE" default:"false"`
	ThreadLock  bool `envconfig:"AGENTBOT_FEATURE_THREAD_LOCK" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
