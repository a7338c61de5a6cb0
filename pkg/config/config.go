package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "community"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv     = "COMMUNITY_APP_ENV"
	EnvPort       = "COMMUNITY_APP_PORT"
	EnvDBDSN      = "COMMUNITY_DB_DSN"
	EnvDBHost     = "COMMUNITY_DB_HOST"
	EnvDBUser     = "COMMUNITY_DB_USER"
	EnvDBName     = "COMMUNITY_DB_NAME"
	EnvRedisURL   = "COMMUNITY_REDIS_URL"
	EnvJWTSecret  = "COMMUNITY_JWT_SECRET"
	EnvJWTIssuer  = "COMMUNITY_JWT_ISSUER"
	EnvJWTExpMins = "COMMUNITY_JWT_EXPIRATION_MINUTES"
	EnvUploadDir  = "COMMUNITY_UPLOAD_DIR"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Uploads       UploadsConfig
	Invitations   InvitationsConfig
	PasswordReset PasswordResetConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"COMMUNITY_APP_ENV" required:"true"`
	Port         string `envconfig:"COMMUNITY_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"COMMUNITY_APP_BASE_URL" default:"http://localhost:5000"`
	LogLevel     string `envconfig:"COMMUNITY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"COMMUNITY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"COMMUNITY_DB_DSN"`
	Driver string `envconfig:"COMMUNITY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"COMMUNITY_DB_HOST"`
	LegacyPort     int    `envconfig:"COMMUNITY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"COMMUNITY_DB_USER"`
	LegacyPassword string `envconfig:"COMMUNITY_DB_PASSWORD"`
	LegacyName     string `envconfig:"COMMUNITY_DB_NAME"`
	LegacySSLMode  string `envconfig:"COMMUNITY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"COMMUNITY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"COMMUNITY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"COMMUNITY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COMMUNITY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"COMMUNITY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"COMMUNITY_REDIS_ADDR"`
	Password     string        `envconfig:"COMMUNITY_REDIS_PASSWORD"`
	DB           int           `envconfig:"COMMUNITY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COMMUNITY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COMMUNITY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COMMUNITY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COMMUNITY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COMMUNITY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"COMMUNITY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"COMMUNITY_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"COMMUNITY_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"COMMUNITY_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"COMMUNITY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"COMMUNITY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"COMMUNITY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"COMMUNITY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"COMMUNITY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"COMMUNITY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"COMMUNITY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"COMMUNITY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"COMMUNITY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"COMMUNITY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"COMMUNITY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type UploadsConfig struct {
	Dir         string `envconfig:"COMMUNITY_UPLOAD_DIR" default:"public/uploads"`
	MaxUploadMB int    `envconfig:"COMMUNITY_MAX_UPLOAD_MB" default:"5"`
}

// MaxUploadBytes converts the configured ceiling to bytes.
func (u UploadsConfig) MaxUploadBytes() int64 {
	if u.MaxUploadMB <= 0 {
		return 5 * 1024 * 1024
	}
	return int64(u.MaxUploadMB) * 1024 * 1024
}

type InvitationsConfig struct {
	TTL time.Duration `envconfig:"COMMUNITY_INVITATION_TTL" default:"168h"`
}

type PasswordResetConfig struct {
	TTL time.Duration `envconfig:"COMMUNITY_PASSWORD_RESET_TTL" default:"10m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"COMMUNITY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"COMMUNITY_AUTO_MIGRATE" default:"false"`
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
