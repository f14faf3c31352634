package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/upb/estimate-api/utils"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Session       SessionConfig
	Estimate      EstimateConfig
	Observability ObservabilityConfig

	// Dev is true when the DEV variable is present in the environment.
	Dev bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	TLS             struct {
		Enabled  bool
		CertFile string
		KeyFile  string
	}
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// AuthConfig holds the Azure AD application and group identifiers.
type AuthConfig struct {
	AppID           string
	TenantID        string
	AdminGroupID    string
	TimecardGroupID string
	KeysBaseURL     string // e.g. https://login.microsoftonline.com
	KeysTimeout     time.Duration
}

// SessionConfig holds the identity cache configuration
type SessionConfig struct {
	Secret     string
	Store      string // postgres, redis or memory
	RedisURL   string
	CookieName string
	KeyPrefix  string
	// CookieSecure marks the session cookie HTTPS-only.
	CookieSecure bool
}

// EstimateConfig tunes the estimate report queries
type EstimateConfig struct {
	// ResultLimit caps the limited report lists.
	ResultLimit int `validate:"gt=0"`
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string `validate:"required"`
	LogFormat      string `validate:"oneof=json console"`
	LogPath        string
	LogMaxSizeMB   int
	LogMaxBackups  int
	MetricsEnabled bool
	MetricsPort    int
}

// Session store backends
const (
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
	SessionStoreMemory   = "memory"
)

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	_, dev := os.LookupEnv("DEV")

	cfg := &Config{
		Dev: dev,
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
			TLS: struct {
				Enabled  bool
				CertFile string
				KeyFile  string
			}{
				Enabled:  getEnvAsBool("TLS_ENABLED", false),
				CertFile: getEnv("TLS_CERT_FILE", "certs/cert.pem"),
				KeyFile:  getEnv("TLS_KEY_FILE", "certs/key.pem"),
			},
		},
		Database: DatabaseConfig{
			ConnectionString: getEnv("DATABASE_URL", ""),
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Auth: AuthConfig{
			AppID:           getEnv("APP_ID", ""),
			TenantID:        getEnv("TENANT_ID", ""),
			AdminGroupID:    getEnv("ADMIN_GROUP_ID", ""),
			TimecardGroupID: getEnv("TIMECARD_GROUP_ID", ""),
			KeysBaseURL:     getEnv("AUTH_KEYS_BASE_URL", "https://login.microsoftonline.com"),
			KeysTimeout:     getEnvAsDuration("AUTH_KEYS_TIMEOUT", 10*time.Second),
		},
		Session: SessionConfig{
			Secret:       getEnv("SESSION_SECRET", ""),
			Store:        strings.ToLower(getEnv("SESSION_STORE", SessionStorePostgres)),
			RedisURL:     getEnv("REDIS_URL", ""),
			CookieName:   getEnv("SESSION_COOKIE_NAME", "estimate_session"),
			KeyPrefix:    getEnv("SESSION_KEY_PREFIX", "estimate:session:"),
			CookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", true),
		},
		Estimate: EstimateConfig{
			ResultLimit: getEnvAsInt("ESTIMATE_RESULT_LIMIT", 25),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "console"),
			LogPath:        getEnv("LOG_PATH", ""),
			LogMaxSizeMB:   getEnvAsInt("LOG_MAX_SIZE_MB", 10),
			LogMaxBackups:  getEnvAsInt("LOG_MAX_BACKUPS", 10),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"SESSION_SECRET", c.Session.Secret},
		{"APP_ID", c.Auth.AppID},
		{"TENANT_ID", c.Auth.TenantID},
		{"ADMIN_GROUP_ID", c.Auth.AdminGroupID},
		{"TIMECARD_GROUP_ID", c.Auth.TimecardGroupID},
		{"DATABASE_URL", c.Database.ConnectionString},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if !c.Dev && c.Observability.LogPath == "" {
		missing = append(missing, "LOG_PATH")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	switch c.Session.Store {
	case SessionStorePostgres, SessionStoreMemory:
	case SessionStoreRedis:
		if c.Session.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("unsupported session store: %q", c.Session.Store)
	}

	if err := utils.ValidateStruct(c); err != nil {
		fields := utils.GetValidationFields(err)
		msgs := make([]string, 0, len(fields))
		for _, msg := range fields {
			msgs = append(msgs, msg)
		}
		sort.Strings(msgs)
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Dev
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return c.ConnectionString
}

// LogString returns a safe string for logging (no password).
func (c *DatabaseConfig) LogString() string {
	u, err := url.Parse(c.ConnectionString)
	if err != nil || u.Host == "" {
		return "host=<from DATABASE_URL>"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	db := strings.TrimPrefix(u.Path, "/")
	return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, db)
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if value := os.Getenv(key); value != "" {
			if p, err := strconv.Atoi(value); err == nil {
				return p
			}
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
