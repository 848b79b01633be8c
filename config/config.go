// Package config loads the soilscan configuration.
//
// The loading sequence is:
//  1. Load a .env file via godotenv (non-fatal if absent).
//  2. Use envconfig to process struct tags and populate the Config struct.
//  3. Validate the struct using go-playground/validator.
//
// Command line flags are applied on top of the returned Config by the caller.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Extractor names
const (
	ExtractorOpenCV = "opencv"
	ExtractorNative = "native"
)

// Config holds every setting of the service and the CLI
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"local" validate:"oneof=local dev prod"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFile  string `envconfig:"LOG_FILE"`

	Port               int           `envconfig:"PORT" default:"5000" validate:"min=1,max=65535"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s" validate:"gt=0"`
	MaxUploadBytes     int64         `envconfig:"MAX_UPLOAD_BYTES" default:"10485760" validate:"gt=0"`
	UploadDir          string        `envconfig:"UPLOAD_DIR" default:"uploads" validate:"required"`
	KeepUploads        bool          `envconfig:"KEEP_UPLOADS" default:"false"`

	KnowledgeBase string `envconfig:"KNOWLEDGE_BASE" default:"knowledge_base_afrique.csv"`
	DatabasePath  string `envconfig:"DATABASE_PATH"`

	Extractor   string `envconfig:"EXTRACTOR" default:"opencv" validate:"oneof=opencv native"`
	ClusterSeed int    `envconfig:"CLUSTER_SEED" default:"0"`
}

// ConfigErrorType classifies configuration failures
type ConfigErrorType string

const (
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
)

// ConfigError is a diagnostic error type returned by Load.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	// godotenv does not override variables that are already set
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct rules, for use after flags changed the config
func (c *Config) Validate() error {
	c.Extractor = strings.ToLower(strings.TrimSpace(c.Extractor))
	if err := validator.New().Struct(c); err != nil {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}
	return nil
}

// Debug reports whether debug logging is requested
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
