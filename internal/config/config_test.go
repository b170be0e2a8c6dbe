package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProductionConfig() *Config {
	return &Config{
		Env:                 "production",
		Port:                "8080",
		DBDriver:            "postgres",
		DBSSLMode:           "require",
		DBPassword:          "secure-password",
		JWTSecret:           "secure-secret-at-least-32-chars-long",
		TracingSamplerRatio: 1,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validProductionConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"default secret", func(c *Config) { c.JWTSecret = defaultJWTSecret }},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }},
		{"weak db password", func(c *Config) { c.DBPassword = "password" }},
		{"sqlite driver", func(c *Config) { c.DBDriver = "sqlite" }},
		{"dev admin bootstrap", func(c *Config) { c.DevBootstrapAdmin = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validProductionConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_ValidateGeneral(t *testing.T) {
	c := &Config{Env: "development", Port: "8080", JWTSecret: "x", DBDriver: "mysql"}
	assert.Error(t, c.Validate())

	c.DBDriver = "sqlite"
	c.DBSchemaMode = "magic"
	assert.Error(t, c.Validate())

	c.DBSchemaMode = "sql"
	c.TracingSamplerRatio = 2
	assert.Error(t, c.Validate())

	c.TracingSamplerRatio = 0.5
	assert.NoError(t, c.Validate())

	c.Port = ""
	assert.Error(t, c.Validate())
}

func TestConfig_JWTTTL(t *testing.T) {
	assert.Equal(t, 7*24*time.Hour, (&Config{}).JWTTTL())
	assert.Equal(t, 2*time.Hour, (&Config{JWTTTLHours: 2}).JWTTTL())
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("DB_DRIVER")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("DB_DRIVER", " SQLite ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "realestate-api", c.JWTIssuer)
	assert.False(t, c.IsProduction())
}
