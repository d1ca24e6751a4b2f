package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mediakit/mediakit/logger"
)

// Config is the root mediakit configuration.
type Config struct {
	Name        string         `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string         `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Debug       bool           `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config  `yaml:"logging" mapstructure:"logging"`
	Engine      EngineConfig   `yaml:"engine" mapstructure:"engine"`
	Cache       CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Pipelines   PipelineConfig `yaml:"pipelines" mapstructure:"pipelines"`
}

// EngineConfig tunes pipeline execution.
type EngineConfig struct {
	// Strategy selects the dispatch strategy: sequential, parallel or
	// fused. Empty means sequential.
	Strategy string `yaml:"strategy" mapstructure:"strategy" validate:"omitempty,oneof=sequential parallel fused"`
	// Workers bounds concurrent stage execution. Zero uses NumCPU.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=0"`
	// StageTimeout bounds each stage invocation. Zero disables it.
	StageTimeout time.Duration `yaml:"stage_timeout" mapstructure:"stage_timeout"`
	// PoolMaxWait bounds waiting for a worker slot. Zero waits
	// indefinitely.
	PoolMaxWait time.Duration `yaml:"pool_max_wait" mapstructure:"pool_max_wait"`
}

// CacheConfig tunes the content-addressed result cache.
type CacheConfig struct {
	// Enabled turns result caching on.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// MaxBytes is the eviction budget. Zero uses the cache default.
	MaxBytes int `yaml:"max_bytes" mapstructure:"max_bytes" validate:"gte=0"`
}

// PipelineConfig locates reusable pipeline definitions on disk.
type PipelineConfig struct {
	// Dir holds pipeline YAML files loadable by name.
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ApplyDefaults fills unset fields with working defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "mediakit"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Engine.Strategy == "" {
		c.Engine.Strategy = "sequential"
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: field %s failed %q validation", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())
