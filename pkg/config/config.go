package config

import (
	"database/sql"
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
	RateLimit    RateLimitConfig
	Checkout     CheckoutConfig
	Timeclock    TimeclockConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.DB.IsolationLevel(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VENUEOPS_APP_ENV" required:"true"`
	Port         string `envconfig:"VENUEOPS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VENUEOPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VENUEOPS_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"VENUEOPS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VENUEOPS_DB_DSN"`
	Driver string `envconfig:"VENUEOPS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VENUEOPS_DB_HOST"`
	LegacyPort     int    `envconfig:"VENUEOPS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VENUEOPS_DB_USER"`
	LegacyPassword string `envconfig:"VENUEOPS_DB_PASSWORD"`
	LegacyName     string `envconfig:"VENUEOPS_DB_NAME"`
	LegacySSLMode  string `envconfig:"VENUEOPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VENUEOPS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENUEOPS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENUEOPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENUEOPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// TxIsolation applies to every engine transaction; empty keeps the driver default.
	TxIsolation string `envconfig:"VENUEOPS_DB_TX_ISOLATION" default:"repeatable_read"`
}

// IsolationLevel maps TxIsolation onto database/sql levels.
func (db DBConfig) IsolationLevel() (sql.IsolationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(db.TxIsolation)) {
	case "", "default":
		return sql.LevelDefault, nil
	case "read_committed":
		return sql.LevelReadCommitted, nil
	case "repeatable_read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	default:
		return sql.LevelDefault, fmt.Errorf("%s: unsupported isolation %q", EnvDBTxIsolation, db.TxIsolation)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"VENUEOPS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VENUEOPS_REDIS_ADDR"`
	Password     string        `envconfig:"VENUEOPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENUEOPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENUEOPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENUEOPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENUEOPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENUEOPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENUEOPS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies tokens minted by the external identity service.
type JWTConfig struct {
	Secret string `envconfig:"VENUEOPS_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"VENUEOPS_JWT_ISSUER" required:"true"`
}

type RateLimitConfig struct {
	Enabled       bool          `envconfig:"VENUEOPS_RATE_LIMIT_ENABLED" default:"true"`
	Window        time.Duration `envconfig:"VENUEOPS_RATE_LIMIT_WINDOW" default:"1m"`
	CheckoutLimit int           `envconfig:"VENUEOPS_RATE_LIMIT_CHECKOUT" default:"120"`
	VoidLimit     int           `envconfig:"VENUEOPS_RATE_LIMIT_VOID" default:"30"`
	PunchLimit    int           `envconfig:"VENUEOPS_RATE_LIMIT_PUNCH" default:"30"`
	RestockLimit  int           `envconfig:"VENUEOPS_RATE_LIMIT_RESTOCK" default:"60"`
}

type CheckoutConfig struct {
	DuplicatePolicy string `envconfig:"VENUEOPS_CHECKOUT_DUPLICATE_POLICY" default:"reject"`
}

func (c CheckoutConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.DuplicatePolicy)) {
	case "reject", "merge":
		return nil
	default:
		return fmt.Errorf("%s must be reject or merge, got %q", EnvCheckoutDuplicatePolicy, c.DuplicatePolicy)
	}
}

// TimeclockConfig bounds the worker fan-out used by large shift reports.
type TimeclockConfig struct {
	Parallelism int `envconfig:"VENUEOPS_TIMECLOCK_PARALLELISM" default:"4"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VENUEOPS_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VENUEOPS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"VENUEOPS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"VENUEOPS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EventsTopic string `envconfig:"VENUEOPS_PUBSUB_EVENTS_TOPIC" default:"venueops-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"VENUEOPS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"VENUEOPS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"VENUEOPS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	var missing []string
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
