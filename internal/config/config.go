// Package config loads application configuration from an optional YAML file
// overlaid by environment variables. Environment variables use the DOCSPLIT
// prefix and win over the file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Google    GoogleConfig    `yaml:"google" envconfig:"GOOGLE"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Queue     QueueConfig     `yaml:"queue" envconfig:"QUEUE"`
	Extractor ExtractorConfig `yaml:"extractor" envconfig:"EXTRACTOR"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"30s"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/docsplit.log"`
}

// GoogleConfig identifies the Google Cloud project backing the stores and
// the extractor. An empty ProjectID switches the service to in-memory
// stores for local development.
type GoogleConfig struct {
	ProjectID            string `yaml:"project_id" envconfig:"PROJECT_ID"`
	Region               string `yaml:"region" envconfig:"REGION" default:"us-central1"`
	OperationsCollection string `yaml:"operations_collection" envconfig:"OPERATIONS_COLLECTION" default:"operations"`
	DocumentsCollection  string `yaml:"documents_collection" envconfig:"DOCUMENTS_COLLECTION" default:"documents"`
}

// StorageConfig names the container that receives assembled documents and
// result manifests.
type StorageConfig struct {
	OutputContainer string `yaml:"output_container" envconfig:"OUTPUT_CONTAINER" default:"processed-documents"`
}

// QueueConfig sizes the in-process job transport.
type QueueConfig struct {
	Workers       int `yaml:"workers" envconfig:"WORKERS" default:"4"`
	Capacity      int `yaml:"capacity" envconfig:"CAPACITY" default:"32"`
	MaxDeliveries int `yaml:"max_deliveries" envconfig:"MAX_DELIVERIES" default:"3"`
}

// ExtractorConfig selects the generative model used for field extraction.
type ExtractorConfig struct {
	Model string `yaml:"model" envconfig:"MODEL" default:"gemini-2.0-flash"`
}

// RateLimitConfig contains API rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// Load reads the optional config file named by DOCSPLIT_CONFIG_FILE (or
// ./config.yaml when present), then applies environment variables on top.
func Load() (*Config, error) {
	var cfg Config

	if path := configFilePath(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("DOCSPLIT", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func configFilePath() string {
	if path := os.Getenv("DOCSPLIT_CONFIG_FILE"); path != "" {
		return path
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Queue.Workers < 1 {
		return fmt.Errorf("queue workers must be positive, got %d", c.Queue.Workers)
	}
	if c.Queue.MaxDeliveries < 1 {
		return fmt.Errorf("queue max deliveries must be positive, got %d", c.Queue.MaxDeliveries)
	}
	if c.Storage.OutputContainer == "" {
		return fmt.Errorf("storage output container must not be empty")
	}
	return nil
}
