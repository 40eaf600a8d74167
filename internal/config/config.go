// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	JWTTTLHours    int    `mapstructure:"JWT_TTL_HOURS"`
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	DBDriver     string `mapstructure:"DB_DRIVER"`
	DBHost       string `mapstructure:"DB_HOST"`
	DBPort       string `mapstructure:"DB_PORT"`
	DBUser       string `mapstructure:"DB_USER"`
	DBPassword   string `mapstructure:"DB_PASSWORD"`
	DBName       string `mapstructure:"DB_NAME"`
	DBSSLMode    string `mapstructure:"DB_SSLMODE"`
	SQLitePath   string `mapstructure:"SQLITE_PATH"`
	RedisURL     string `mapstructure:"REDIS_URL"`
	SiteName     string `mapstructure:"SITE_NAME"`
	SiteURL      string `mapstructure:"SITE_URL"`
	TimeZone     string `mapstructure:"TIME_ZONE"`
	PostsPerPage int    `mapstructure:"POSTS_PER_PAGE"`

	EmailBackend  string `mapstructure:"EMAIL_BACKEND"`
	EmailHost     string `mapstructure:"EMAIL_HOST"`
	EmailPort     int    `mapstructure:"EMAIL_PORT"`
	EmailUsername string `mapstructure:"EMAIL_USERNAME"`
	EmailPassword string `mapstructure:"EMAIL_PASSWORD"`
	EmailFrom     string `mapstructure:"EMAIL_FROM"`

	// DefaultUserPermissions is a comma separated list of codenames granted on registration.
	DefaultUserPermissions string `mapstructure:"DEFAULT_USER_PERMISSIONS"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from .env, file and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:8000,http://127.0.0.1:8000")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("JWT_TTL_HOURS", 24)
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "blog")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "blog")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SQLITE_PATH", "blog.db")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("SITE_NAME", "My Blog")
	viper.SetDefault("SITE_URL", "http://localhost:8000")
	viper.SetDefault("TIME_ZONE", "UTC")
	viper.SetDefault("POSTS_PER_PAGE", 3)
	viper.SetDefault("EMAIL_BACKEND", "console")
	viper.SetDefault("EMAIL_HOST", "localhost")
	viper.SetDefault("EMAIL_PORT", 587)
	viper.SetDefault("EMAIL_FROM", "webmaster@localhost")
	viper.SetDefault("DEFAULT_USER_PERMISSIONS", "blog.add_post")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.EmailBackend = strings.ToLower(strings.TrimSpace(c.EmailBackend))
	c.SiteURL = strings.TrimRight(c.SiteURL, "/")
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Location resolves TIME_ZONE. Permalink dates are computed in this zone.
func (c *Config) Location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DefaultPermissions splits DEFAULT_USER_PERMISSIONS into codenames.
func (c *Config) DefaultPermissions() []string {
	var out []string
	for _, p := range strings.Split(c.DefaultUserPermissions, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JWTTTL is the lifetime of issued access tokens.
func (c *Config) JWTTTL() time.Duration {
	if c.JWTTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.JWTTTLHours) * time.Hour
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.PostsPerPage <= 0 {
		return errors.New("POSTS_PER_PAGE must be positive")
	}
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.EmailBackend != "smtp" && c.EmailBackend != "console" {
		return fmt.Errorf("unsupported EMAIL_BACKEND %q", c.EmailBackend)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid TIME_ZONE %q: %w", c.TimeZone, err)
	}

	if c.IsProduction() {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == "postgres" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBDriver == "postgres" && (c.DBSSLMode == "disable" || c.DBSSLMode == "") {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
		if c.EmailBackend == "console" {
			log.Println("WARNING: EMAIL_BACKEND is 'console' in production. Emails will only be logged.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
