// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverBadger   = "badger"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Token formats.
const (
	TokenFormatJWT    = "jwt"
	TokenFormatPaseto = "paseto"
)

// DefaultJWTSecret is the development fallback signing secret. Production refuses it.
const DefaultJWTSecret = "secret-key"

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Google   GoogleConfig
	Features FeatureConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// IsProduction reports whether the server runs with ENV=production.
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // json, pretty, or empty for automatic
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // default: 3001
	ReadTimeout  time.Duration // default: 15s
	WriteTimeout time.Duration // default: 15s
	IdleTimeout  time.Duration // default: 60s
	CORSOrigins  []string      // default: *
}

// StorageConfig selects and locates the persistence backend.
type StorageConfig struct {
	// DataPath holds the Badger directory, the SQLite file, the search index and the PASETO key.
	DataPath      string
	Driver        string
	DatabaseURL   string // postgres DSN or mongodb URI
	MongoDatabase string
}

// AuthConfig holds session credential configuration.
type AuthConfig struct {
	TokenFormat string
	// JWTSecret signs JWTs. With PASETO it is the key derivation input when no key file exists.
	JWTSecret   string
	TokenTTL    time.Duration
	AdminEmails []string
	// RateLimitPerMinute bounds /auth requests per client IP. Zero disables the limiter.
	RateLimitPerMinute int
}

// GoogleConfig holds the OAuth client registration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	StateCheck   bool
}

// FeatureConfig toggles optional surfaces.
type FeatureConfig struct {
	SearchEnabled  bool
	MetricsEnabled bool
}

// LoadConfig loads configuration from the process arguments with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load is LoadConfig over an explicit argument list.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("quill", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (json, pretty)")

	// Server flags
	port := fs.String("port", "", "Server port (default: 3001)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated list of allowed CORS origins (default: *)")

	// Storage flags
	dataPath := fs.String("data-path", "", "Base path for local data")
	driver := fs.String("store", "", "Store driver (badger, sqlite, postgres, mongo)")
	databaseURL := fs.String("database-url", "", "PostgreSQL DSN or MongoDB URI")
	mongoDatabase := fs.String("mongo-database", "", "MongoDB database name")

	// Auth flags
	tokenFormat := fs.String("token-format", "", "Session token format (jwt, paseto)")
	jwtSecret := fs.String("jwt-secret", "", "Token signing secret")
	tokenTTL := fs.String("token-ttl", "", "Session token lifetime (default: 24h)")
	adminEmails := fs.String("admin-emails", "", "Comma separated emails granted the admin role on first login")
	authRateLimit := fs.String("auth-rate-limit", "", "Requests per minute per IP on /auth routes (default: 20)")

	// Google flags
	googleClientID := fs.String("google-client-id", "", "Google OAuth client id")
	googleClientSecret := fs.String("google-client-secret", "", "Google OAuth client secret")
	googleCallbackURL := fs.String("google-callback-url", "", "Google OAuth redirect URL")
	stateCheck := fs.String("oauth-state-check", "", "Verify the OAuth state parameter (default: true)")

	searchEnabled := fs.String("search", "", "Maintain the note search index (default: true)")
	metricsEnabled := fs.String("metrics", "", "Expose Prometheus metrics (default: true)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(*logLevel, "LOG_LEVEL", "info"),
			Format: strings.ToLower(getConfigValue(*logFormat, "LOG_FORMAT", "")),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*port, "PORT", "3001"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS", "*")),
		},
		Storage: StorageConfig{
			DataPath:      getConfigValue(*dataPath, "DATA_PATH", ""),
			Driver:        strings.ToLower(getConfigValue(*driver, "STORE_DRIVER", DriverBadger)),
			DatabaseURL:   getConfigValue(*databaseURL, "DATABASE_URL", ""),
			MongoDatabase: getConfigValue(*mongoDatabase, "MONGO_DATABASE", "quill"),
		},
		Auth: AuthConfig{
			TokenFormat:        strings.ToLower(getConfigValue(*tokenFormat, "TOKEN_FORMAT", TokenFormatJWT)),
			JWTSecret:          getConfigValue(*jwtSecret, "JWT_SECRET", DefaultJWTSecret),
			AdminEmails:        splitList(getConfigValue(*adminEmails, "ADMIN_EMAILS", "")),
			RateLimitPerMinute: getIntConfigValue(*authRateLimit, "AUTH_RATE_LIMIT", 20),
		},
		Google: GoogleConfig{
			ClientID:     getConfigValue(*googleClientID, "GOOGLE_CLIENT_ID", ""),
			ClientSecret: getConfigValue(*googleClientSecret, "GOOGLE_CLIENT_SECRET", ""),
			CallbackURL:  getConfigValue(*googleCallbackURL, "GOOGLE_CALLBACK_URL", "http://localhost:3001/auth/google/redirect"),
			StateCheck:   getBoolConfigValue(*stateCheck, "OAUTH_STATE_CHECK", true),
		},
		Features: FeatureConfig{
			SearchEnabled:  getBoolConfigValue(*searchEnabled, "SEARCH_ENABLED", true),
			MetricsEnabled: getBoolConfigValue(*metricsEnabled, "METRICS_ENABLED", true),
		},
	}

	durations := []struct {
		name   string
		flag   string
		envKey string
		def    string
		dst    *time.Duration
	}{
		{"token ttl", *tokenTTL, "TOKEN_TTL", "24h", &cfg.Auth.TokenTTL},
		{"read timeout", *readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{"write timeout", *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{"idle timeout", *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Logger.Format {
	case "", "json", "pretty":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", c.Logger.Format)
	}

	switch c.Storage.Driver {
	case DriverBadger, DriverSQLite:
		if c.Storage.DataPath == "" {
			return errors.New("data path cannot be empty after expansion")
		}
	case DriverPostgres, DriverMongo:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be badger, sqlite, postgres, or mongo)", c.Storage.Driver)
	}

	switch c.Auth.TokenFormat {
	case TokenFormatJWT, TokenFormatPaseto:
	default:
		return fmt.Errorf("invalid token format: %s (must be jwt or paseto)", c.Auth.TokenFormat)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET cannot be empty")
	}
	if c.App.IsProduction() && c.Auth.JWTSecret == DefaultJWTSecret {
		return errors.New("JWT_SECRET must be changed in production")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.Auth.TokenTTL)
	}

	if c.Auth.RateLimitPerMinute < 0 {
		return fmt.Errorf("auth rate limit cannot be negative, got %d", c.Auth.RateLimitPerMinute)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute, defaulting to ~/Quill/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Quill", "data")

	expanded, err := expandPath(c.Storage.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// splitList splits a comma separated value, trimming entries and dropping empty ones.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
