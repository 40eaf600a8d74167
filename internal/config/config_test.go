package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:          "development",
		Port:         "8000",
		JWTSecret:    "secure-secret-at-least-32-chars-long",
		DBDriver:     "postgres",
		DBPassword:   "secure-password",
		DBSSLMode:    "require",
		TimeZone:     "UTC",
		PostsPerPage: 3,
		EmailBackend: "smtp",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development", func(*Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"zero page size", func(c *Config) { c.PostsPerPage = 0 }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"unknown email backend", func(c *Config) { c.EmailBackend = "carrier-pigeon" }, true},
		{"bad time zone", func(c *Config) { c.TimeZone = "Mars/Olympus" }, true},
		{"production ok", func(c *Config) { c.Env = "production" }, false},
		{"production default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "your-secret-key-change-in-production"
		}, true},
		{"production short secret", func(c *Config) {
			c.Env = "prod"
			c.JWTSecret = "short"
		}, true},
		{"production ssl disabled", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "disable"
		}, true},
		{"production sqlite ignores db password", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "sqlite"
			c.DBPassword = ""
			c.DBSSLMode = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Helpers(t *testing.T) {
	c := validConfig()
	c.DefaultUserPermissions = " blog.add_post, ,blog.change_post "
	assert.Equal(t, []string{"blog.add_post", "blog.change_post"}, c.DefaultPermissions())

	assert.Equal(t, 24*time.Hour, c.JWTTTL())
	c.JWTTTLHours = 2
	assert.Equal(t, 2*time.Hour, c.JWTTTL())

	assert.Equal(t, time.UTC, c.Location())
	c.TimeZone = "Europe/Madrid"
	assert.Equal(t, "Europe/Madrid", c.Location().String())
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("EMAIL_BACKEND", "Console")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "console", c.EmailBackend)
	assert.Equal(t, 3, c.PostsPerPage)
	assert.Equal(t, "test", c.Env)
	assert.Equal(t, []string{"blog.add_post"}, c.DefaultPermissions())
}
