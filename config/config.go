// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port       string `mapstructure:"PORT"`
	JWTSecret  string `mapstructure:"JWT_SECRET"`
	DBDriver   string `mapstructure:"DB_DRIVER"` // "postgres" or "sqlite"
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	SQLitePath string `mapstructure:"SQLITE_PATH"`
	RedisURL   string `mapstructure:"REDIS_URL"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	// AllowedEmailDomains is a comma-separated list of institutional email
	// domains accepted at signup, e.g. "gitam.edu,gitam.in".
	AllowedEmailDomains string `mapstructure:"ALLOWED_EMAIL_DOMAINS"`

	// Object storage for cover images.
	UploadDir    string `mapstructure:"UPLOAD_DIR"`
	MediaBaseURL string `mapstructure:"MEDIA_BASE_URL"`

	// Tracing.
	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"` // "stdout" or "otlp"
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`

	Environment string `mapstructure:"APP_ENV"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if errors.As(err, &notFoundErr) {
			log.Println("Config file not found; using environment variables and defaults")
		} else {
			return nil, err
		}
	}

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("JWT_SECRET", "change-me-in-production")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "taleboard")
	viper.SetDefault("DB_PASSWORD", "taleboard")
	viper.SetDefault("DB_NAME", "taleboard")
	viper.SetDefault("SQLITE_PATH", "taleboard.db")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_EMAIL_DOMAINS", "gitam.edu,gitam.in")
	viper.SetDefault("UPLOAD_DIR", "/tmp/taleboard/uploads")
	viper.SetDefault("MEDIA_BASE_URL", "/media")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
	viper.SetDefault("APP_ENV", "development")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// EmailDomains returns the signup domain allow-list as a cleaned slice.
func (c *Config) EmailDomains() []string {
	parts := strings.Split(c.AllowedEmailDomains, ",")
	domains := make([]string, 0, len(parts))
	for _, p := range parts {
		if d := strings.ToLower(strings.TrimSpace(p)); d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}
