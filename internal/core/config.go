package core

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort             = 8080
	DefaultImageSourceURL   = "https://dog.ceo/api/breeds/image/random"
	DefaultFallbackImageURL = "https://images.dog.ceo/breeds/pitbull/dog-3981540_1280.jpg"
	DefaultImageTimeout     = 5 * time.Second
)

type Database struct {
	Type             string `yaml:"type" validate:"required,oneof=sqlite file redis badger"`
	ConnectionString string `yaml:"connectionString" validate:"required"`
}

type ImageSource struct {
	URL              string        `yaml:"url" validate:"required,url"`
	Timeout          time.Duration `yaml:"timeout" validate:"gt=0"`
	FallbackImageURL string        `yaml:"fallbackImageUrl" validate:"required,url"`
}

type ServiceConfig struct {
	Port        int         `yaml:"port" validate:"gte=0,lte=65535"`
	LogLevel    string      `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`
	LogFormat   string      `yaml:"logFormat" validate:"omitempty,oneof=text json"`
	Database    Database    `yaml:"database"`
	ImageSource ImageSource `yaml:"imageSource"`
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Parse YAML
	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}

	return &config, nil
}

func (config *ServiceConfig) applyDefaults() {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	config.LogLevel = strings.ToLower(config.LogLevel)
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	config.LogFormat = strings.ToLower(config.LogFormat)
	if config.Database.Type == "" {
		config.Database.Type = "sqlite"
	}
	if config.Database.ConnectionString == "" && config.Database.Type == "sqlite" {
		config.Database.ConnectionString = "hotdog.db"
	}
	if config.ImageSource.URL == "" {
		config.ImageSource.URL = DefaultImageSourceURL
	}
	if config.ImageSource.Timeout == 0 {
		config.ImageSource.Timeout = DefaultImageTimeout
	}
	if config.ImageSource.FallbackImageURL == "" {
		config.ImageSource.FallbackImageURL = DefaultFallbackImageURL
	}
}

// Validate checks the struct tags of the configuration
func (config *ServiceConfig) Validate() error {
	return validator.New().Struct(config)
}

// SlogLevel maps the configured log level to a slog level, defaulting to info
func (config *ServiceConfig) SlogLevel() slog.Level {
	switch config.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogHandler returns a slog handler writing to w in the configured format and level.
func (config *ServiceConfig) NewLogHandler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: config.SlogLevel()}
	if config.LogFormat == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
