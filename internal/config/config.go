package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds everything the application reads from the environment.
// It is built once at startup and handed to the components that need it.
type Config struct {
	Port      int
	SecretKey string

	DB DBConfig

	MediaRoot string
	MediaURL  string

	SendGridAPIKey   string
	DefaultFromEmail string
	EmailFromName    string

	CORSAllowedOrigins  []string
	MaxUploadBytes      int64
	AuthRatePerMinute   int
	SessionCookieSecure bool
}

// DBConfig describes the postgres connection.
type DBConfig struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
	LogLevel string
}

// DSN builds the key/value connection string understood by the gorm postgres driver.
func (c DBConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.Username, c.Password, c.Database, c.Port, c.SSLMode)
	if c.Schema != "" {
		dsn += " search_path=" + c.Schema
	}
	return dsn
}

// Load reads the configuration from the process environment. A .env file in the
// working directory is picked up by godotenv before Load runs.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		SecretKey: os.Getenv("SECRET_KEY"),
		DB: DBConfig{
			Host:     getEnv("BLUEPRINT_DB_HOST", "localhost"),
			Port:     getEnv("BLUEPRINT_DB_PORT", "5432"),
			Database: os.Getenv("BLUEPRINT_DB_DATABASE"),
			Username: os.Getenv("BLUEPRINT_DB_USERNAME"),
			Password: os.Getenv("BLUEPRINT_DB_PASSWORD"),
			Schema:   os.Getenv("BLUEPRINT_DB_SCHEMA"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			LogLevel: getEnv("DB_LOG_LEVEL", "warn"),
		},
		MediaRoot:          getEnv("MEDIA_ROOT", "media"),
		MediaURL:           getEnv("MEDIA_URL", "/media/"),
		SendGridAPIKey:     os.Getenv("SENDGRID_API_KEY"),
		DefaultFromEmail:   getEnv("DEFAULT_FROM_EMAIL", "webmaster@localhost"),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "Todo"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "https://*,http://*")),
	}

	var err error
	if cfg.Port, err = getInt("PORT", 8080); err != nil {
		errs = append(errs, err)
	}
	if cfg.AuthRatePerMinute, err = getInt("AUTH_RATE_PER_MINUTE", 20); err != nil {
		errs = append(errs, err)
	}
	maxUpload, err := getInt("MAX_UPLOAD_BYTES", 10<<20)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.MaxUploadBytes = int64(maxUpload)
	if cfg.SessionCookieSecure, err = getBool("SESSION_COOKIE_SECURE", false); err != nil {
		errs = append(errs, err)
	}

	if cfg.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY must be set"))
	}
	if !strings.HasSuffix(cfg.MediaURL, "/") {
		cfg.MediaURL += "/"
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
