package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for every command.
type Config struct {
	Environment string
	LogLevel    string
	HTTPBind    string
	HTTPPort    int
	DataPath    string

	JWTSigningKey       string
	JWTTTL              time.Duration
	AdminBootstrapEmail string

	TMDBAPIKey   string
	TMDBBaseURL  string
	TMDBLanguage string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string
	EmailTo      []string

	SchedulerEnabled    bool
	SourceCheckSchedule string
	DigestSchedule      string
}

// Load reads configuration from the environment, after loading a .env
// file from the working directory when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", ""),
		HTTPBind:    getEnv("HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("HTTP_PORT", 8080),
		DataPath:    getEnv("DATA_PATH", "./data"),

		JWTSigningKey:       getEnv("JWT_SIGNING_KEY", ""),
		JWTTTL:              getEnvDuration("JWT_TTL", 24*time.Hour),
		AdminBootstrapEmail: strings.ToLower(getEnv("ADMIN_BOOTSTRAP_EMAIL", "")),

		TMDBAPIKey:   getEnv("TMDB_API_KEY", ""),
		TMDBBaseURL:  getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBLanguage: getEnv("TMDB_LANGUAGE", "es-ES"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "noreply@streamfusion.local"),
		EmailTo:      splitList(getEnv("EMAIL_TO", "")),

		SchedulerEnabled:    getEnvBool("SCHEDULER_ENABLED", true),
		SourceCheckSchedule: getEnv("SOURCE_CHECK_SCHEDULE", "0 0 3 * * *"),
		DigestSchedule:      getEnv("DIGEST_SCHEDULE", "0 0 10 * * 1"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that would fail at runtime.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.HTTPPort))
	}
	if c.DataPath == "" {
		errs = append(errs, errors.New("DATA_PATH is required"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Environment != "development" && c.JWTSigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY is required outside development"))
	}
	return errors.Join(errs...)
}

// SigningKey returns the JWT key, with a fixed development fallback.
func (c *Config) SigningKey() []byte {
	if c.JWTSigningKey == "" {
		return []byte("streamfusion-development-key")
	}
	return []byte(c.JWTSigningKey)
}

// ListenAddr is the address the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

// EmailEnabled reports whether there is enough SMTP configuration to send.
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != "" && len(c.EmailTo) > 0
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "true" || v == "1" || v == "yes" {
			return true
		}
		if v == "false" || v == "0" || v == "no" {
			return false
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
