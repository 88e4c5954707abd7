package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	AI            AIConfig
	Uploads       UploadsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"METRODOCS_APP_ENV" required:"true"`
	Port         string `envconfig:"METRODOCS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"METRODOCS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"METRODOCS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"METRODOCS_DB_DSN"`
	Driver string `envconfig:"METRODOCS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"METRODOCS_DB_HOST"`
	LegacyPort     int    `envconfig:"METRODOCS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"METRODOCS_DB_USER"`
	LegacyPassword string `envconfig:"METRODOCS_DB_PASSWORD"`
	LegacyName     string `envconfig:"METRODOCS_DB_NAME"`
	LegacySSLMode  string `envconfig:"METRODOCS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"METRODOCS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"METRODOCS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"METRODOCS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"METRODOCS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"METRODOCS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"METRODOCS_REDIS_ADDR"`
	Password     string        `envconfig:"METRODOCS_REDIS_PASSWORD"`
	DB           int           `envconfig:"METRODOCS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"METRODOCS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"METRODOCS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"METRODOCS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"METRODOCS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"METRODOCS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret          string `envconfig:"METRODOCS_JWT_SECRET" required:"true"`
	Issuer          string `envconfig:"METRODOCS_JWT_ISSUER" required:"true"`
	ExpirationHours int    `envconfig:"METRODOCS_JWT_EXPIRATION_HOURS" default:"24"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationHours <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationHours) * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"METRODOCS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"METRODOCS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"METRODOCS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"METRODOCS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"METRODOCS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"METRODOCS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"METRODOCS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"METRODOCS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"METRODOCS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"METRODOCS_AUTO_MIGRATE" default:"false"`
}

type AIConfig struct {
	BaseURL        string        `envconfig:"METRODOCS_AI_SERVER_URL"`
	RequestTimeout time.Duration `envconfig:"METRODOCS_AI_REQUEST_TIMEOUT" default:"2m"`
}

type UploadsConfig struct {
	Dir         string `envconfig:"METRODOCS_UPLOADS_DIR" default:"uploads"`
	MaxUploadMB int    `envconfig:"METRODOCS_MAX_UPLOAD_MB" default:"50"`
}

// MaxUploadBytes returns the multipart size cap in bytes.
func (u UploadsConfig) MaxUploadBytes() int64 {
	if u.MaxUploadMB <= 0 {
		return 50 << 20
	}
	return int64(u.MaxUploadMB) << 20
}

type GCPConfig struct {
	ProjectID string `envconfig:"METRODOCS_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DocumentTopic        string `envconfig:"METRODOCS_PUBSUB_DOCUMENT_TOPIC"`
	DocumentSubscription string `envconfig:"METRODOCS_PUBSUB_DOCUMENT_SUBSCRIPTION"`
}

// Enabled reports whether document event publishing is configured.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.DocumentTopic) != ""
}

// SubscriberEnabled reports whether the document event subscription is
// configured; the worker requires it, the api does not.
func (p PubSubConfig) SubscriberEnabled() bool {
	return strings.TrimSpace(p.DocumentSubscription) != ""
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
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
