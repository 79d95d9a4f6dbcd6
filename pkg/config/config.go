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
	Pricing       PricingConfig
	Analytics     AnalyticsConfig
	R2            R2Config
	Media         MediaConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RETAILHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"RETAILHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RETAILHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RETAILHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RETAILHUB_DB_DSN"`
	Driver string `envconfig:"RETAILHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RETAILHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"RETAILHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RETAILHUB_DB_USER"`
	LegacyPassword string `envconfig:"RETAILHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"RETAILHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"RETAILHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RETAILHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RETAILHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RETAILHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RETAILHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RETAILHUB_REDIS_URL" required:"true"`
	Password     string        `envconfig:"RETAILHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"RETAILHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RETAILHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RETAILHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RETAILHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RETAILHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RETAILHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RETAILHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RETAILHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RETAILHUB_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RETAILHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RETAILHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RETAILHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RETAILHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RETAILHUB_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"RETAILHUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"RETAILHUB_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"RETAILHUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"RETAILHUB_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"RETAILHUB_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"RETAILHUB_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RETAILHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RETAILHUB_AUTO_MIGRATE" default:"false"`
}

// PricingConfig controls where order line prices come from. In client mode
// the request body's unit prices are trusted as submitted; in server mode
// they are replaced with the catalog price at order time.
type PricingConfig struct {
	Mode string `envconfig:"RETAILHUB_PRICING_MODE" default:"client"`
}

const (
	PricingModeClient = "client"
	PricingModeServer = "server"
)

func (p PricingConfig) ServerPriced() bool {
	return strings.EqualFold(p.Mode, PricingModeServer)
}

func (p *PricingConfig) validate() error {
	mode := strings.TrimSpace(strings.ToLower(p.Mode))
	if mode == "" {
		mode = PricingModeClient
	}
	if mode != PricingModeClient && mode != PricingModeServer {
		return fmt.Errorf("RETAILHUB_PRICING_MODE must be %q or %q, got %q", PricingModeClient, PricingModeServer, p.Mode)
	}
	p.Mode = mode
	return nil
}

type AnalyticsConfig struct {
	TrendDays          int `envconfig:"RETAILHUB_ANALYTICS_TREND_DAYS" default:"30"`
	DeadStockMinStock  int `envconfig:"RETAILHUB_ANALYTICS_DEAD_STOCK_MIN_STOCK" default:"20"`
	DeadStockMaxSold   int `envconfig:"RETAILHUB_ANALYTICS_DEAD_STOCK_MAX_SOLD" default:"5"`
	TopProductsLimit   int `envconfig:"RETAILHUB_ANALYTICS_TOP_PRODUCTS_LIMIT" default:"10"`
	RegionRankingLimit int `envconfig:"RETAILHUB_ANALYTICS_REGION_RANKING_LIMIT" default:"10"`
}

// R2Config targets Cloudflare R2 through its S3-compatible API.
type R2Config struct {
	AccountID       string `envconfig:"RETAILHUB_R2_ACCOUNT_ID"`
	AccessKeyID     string `envconfig:"RETAILHUB_R2_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"RETAILHUB_R2_SECRET_ACCESS_KEY"`
	Bucket          string `envconfig:"RETAILHUB_R2_BUCKET"`
	Endpoint        string `envconfig:"RETAILHUB_R2_ENDPOINT"`
	PublicBaseURL   string `envconfig:"RETAILHUB_R2_PUBLIC_BASE_URL"`
}

// Configured reports whether object storage credentials are present. Uploads
// are rejected with a dependency error when they are not.
func (r R2Config) Configured() bool {
	return r.AccessKeyID != "" && r.SecretAccessKey != "" && r.Bucket != "" && (r.Endpoint != "" || r.AccountID != "")
}

// EndpointURL resolves the S3 endpoint, deriving the account-scoped R2 URL
// when only the account id was provided.
func (r R2Config) EndpointURL() string {
	if r.Endpoint != "" {
		return r.Endpoint
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.AccountID)
}

type MediaConfig struct {
	MaxUploadMB  int    `envconfig:"RETAILHUB_MAX_UPLOAD_MB" default:"16"`
	AllowedTypes string `envconfig:"RETAILHUB_MEDIA_ALLOWED_TYPES" default:"image/png,image/jpeg,image/webp"`
}

// AllowedMIMETypes splits the configured comma list, dropping blanks.
func (m MediaConfig) AllowedMIMETypes() []string {
	parts := strings.Split(m.AllowedTypes, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
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
