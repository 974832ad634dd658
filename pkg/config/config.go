// Package config provides the configuration model for the FTP connector.
//
// A job file is a single ConnectorConfig: the shared BaseConfig sections
// (performance, timeouts, reliability, observability), the ServerConfig that
// selects and reaches the remote transport, and a reader or writer section
// holding the connector-specific options. Values are plain scalars; option
// tokens are validated by the connector descriptor, not here.
//
// Example usage:
//
//	cfg := config.NewConnectorConfig("orders")
//	if err := config.Load("job.yaml", cfg); err != nil {
//	    log.Fatal(err)
//	}
//	cfg.ApplyDefaults()
package config

import (
	"fmt"
	"runtime"
	"time"
)

// BaseConfig is the unified configuration shared by every connector.
// Connector configurations embed it with the yaml inline tag.
type BaseConfig struct {
	// Name identifies the connector instance
	Name string `yaml:"name" json:"name"`
	// Type is the registry tag of the connector (e.g. "ftp")
	Type string `yaml:"type" json:"type"`
	// Version indicates the configuration version
	Version string `yaml:"version" json:"version"`

	Performance   PerformanceConfig   `yaml:"performance" json:"performance"`
	Timeouts      TimeoutConfig       `yaml:"timeouts" json:"timeouts"`
	Reliability   ReliabilityConfig   `yaml:"reliability" json:"reliability"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// PerformanceConfig controls caller-side concurrency.
type PerformanceConfig struct {
	// Workers bounds the number of sub-tasks executed concurrently
	Workers int `yaml:"workers" json:"workers"`
	// MaxConcurrency limits concurrent calls into the transport
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency"`
}

// TimeoutConfig contains all timeout-related settings.
type TimeoutConfig struct {
	// Connection timeout for establishing transport sessions
	Connection time.Duration `yaml:"connection" json:"connection"`
	// Request timeout for a single listing or transfer call
	Request time.Duration `yaml:"request" json:"request"`
	// Validation bounds the live enumeration performed during validation
	Validation time.Duration `yaml:"validation" json:"validation"`
}

// ReliabilityConfig is threaded through to the transport client.
// The enumeration engine itself never retries.
type ReliabilityConfig struct {
	// MaxRetry is the number of retries after the first failed transport call
	MaxRetry int `yaml:"max_retry" json:"max_retry"`
	// RetryDelay is the initial delay between retries
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
	// MaxRetryDelay caps the backoff
	MaxRetryDelay time.Duration `yaml:"max_retry_delay" json:"max_retry_delay"`
	// RateLimitPerSec limits transport calls per second (0 = unlimited)
	RateLimitPerSec int `yaml:"rate_limit_per_sec" json:"rate_limit_per_sec"`
}

// ObservabilityConfig contains monitoring settings.
type ObservabilityConfig struct {
	EnableMetrics bool   `yaml:"enable_metrics" json:"enable_metrics"`
	EnableTracing bool   `yaml:"enable_tracing" json:"enable_tracing"`
	LogLevel      string `yaml:"log_level" json:"log_level"`
}

// NewBaseConfig creates a new BaseConfig with sensible defaults.
func NewBaseConfig(name, connectorType string) *BaseConfig {
	return &BaseConfig{
		Name:    name,
		Type:    connectorType,
		Version: "1.0.0",
		Performance: PerformanceConfig{
			Workers:        runtime.NumCPU(),
			MaxConcurrency: 4,
		},
		Timeouts: TimeoutConfig{
			Connection: 10 * time.Second,
			Request:    30 * time.Second,
			Validation: 2 * time.Minute,
		},
		Reliability: ReliabilityConfig{
			MaxRetry:        3,
			RetryDelay:      time.Second,
			MaxRetryDelay:   30 * time.Second,
			RateLimitPerSec: 0,
		},
		Observability: ObservabilityConfig{
			EnableMetrics: true,
			EnableTracing: false,
			LogLevel:      "info",
		},
	}
}

// Validate validates the base configuration.
func (bc *BaseConfig) Validate() error {
	if bc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if bc.Type == "" {
		return fmt.Errorf("type is required")
	}
	if bc.Performance.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency cannot be negative")
	}
	if bc.Reliability.MaxRetry < 0 {
		return fmt.Errorf("max_retry cannot be negative")
	}
	if bc.Reliability.RateLimitPerSec < 0 {
		return fmt.Errorf("rate_limit_per_sec cannot be negative")
	}
	return nil
}

// GetWorkers returns the number of workers, ensuring it's at least 1
func (p *PerformanceConfig) GetWorkers() int {
	if p.Workers <= 0 {
		return runtime.NumCPU()
	}
	return p.Workers
}

// IsRateLimited returns true if rate limiting is enabled
func (r *ReliabilityConfig) IsRateLimited() bool {
	return r.RateLimitPerSec > 0
}
