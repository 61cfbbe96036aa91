// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/SyedDaiam9101/enhance-service/internal/imaging"
	"github.com/SyedDaiam9101/enhance-service/internal/pipeline"
)

// EnvPrefix prefixes every environment variable, e.g. ENHANCE_SERVICE_PORT.
const EnvPrefix = "ENHANCE_SERVICE"

// Config holds all configuration for the service
type Config struct {
	// Server configuration
	Port        int           `mapstructure:"port"`
	MetricsPort int           `mapstructure:"metrics_port"`
	Redis       string        `mapstructure:"redis"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`

	// Pipeline configuration. InputSize, ModelAsset, Mean and Std override
	// the preset selected by Variant when set.
	Variant      string    `mapstructure:"variant"`
	InputSize    int       `mapstructure:"input_size"`
	ModelAsset   string    `mapstructure:"model_asset"`
	Mean         []float64 `mapstructure:"mean"`
	Std          []float64 `mapstructure:"std"`
	ResizeFilter string    `mapstructure:"resize_filter"`

	// Model storage
	AssetDir   string `mapstructure:"asset_dir"`
	CacheDir   string `mapstructure:"cache_dir"`
	ORTLibrary string `mapstructure:"ort_library"`

	// OpenTelemetry configuration
	OTELEnabled  bool   `mapstructure:"otel_enabled"`
	OTELEndpoint string `mapstructure:"otel_endpoint"`

	// Feature flags
	UseMockInference bool `mapstructure:"use_mock_inference"`
}

func newViper() *viper.Viper {
	v := viper.New()

	// Set defaults
	v.SetDefault("port", 50051)
	v.SetDefault("metrics_port", 9100)
	v.SetDefault("redis", "localhost:6379")
	v.SetDefault("cache_ttl", 10*time.Minute)
	v.SetDefault("variant", "resnet")
	v.SetDefault("input_size", 0)
	v.SetDefault("model_asset", "")
	v.SetDefault("mean", []float64{})
	v.SetDefault("std", []float64{})
	v.SetDefault("resize_filter", "bilinear")
	v.SetDefault("asset_dir", "assets")
	v.SetDefault("cache_dir", defaultCacheDir())
	v.SetDefault("ort_library", "")
	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_endpoint", "")
	v.SetDefault("use_mock_inference", false)

	// Environment variable configuration
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("use_mock_inference", EnvPrefix+"_USE_MOCK")
	v.BindEnv("ort_library", EnvPrefix+"_ORT_LIBRARY", "ONNXRUNTIME_LIB")

	return v
}

// Load loads configuration from an optional config file found in the usual
// locations, environment variables, defaults and overrides.
// Priority (highest to lowest): overrides > env vars > config file > defaults
func Load(overrides map[string]interface{}) (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/enhance-service/")
	v.AddConfigPath("$HOME/.enhance-service")

	// Read config file if present (ignore error if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return finish(v, overrides)
}

// LoadWithConfigFile loads configuration from a specific config file
func LoadWithConfigFile(configPath string, overrides map[string]interface{}) (*Config, error) {
	v := newViper()

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
	}

	return finish(v, overrides)
}

func finish(v *viper.Viper, overrides map[string]interface{}) (*Config, error) {
	// Check for OTEL standard env var
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		v.Set("otel_endpoint", endpoint)
		v.Set("otel_enabled", true)
	}
	for k, val := range overrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.MetricsPort)
	}
	if c.Port == c.MetricsPort {
		return fmt.Errorf("port and metrics_port must be different")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid cache_ttl: %v", c.CacheTTL)
	}
	if _, err := imaging.ScalerByName(c.ResizeFilter); err != nil {
		return err
	}
	if _, err := c.PipelineVariant(); err != nil {
		return err
	}
	if c.CacheDir == "" && !c.UseMockInference {
		return fmt.Errorf("cache_dir is required when not using mock inference")
	}
	return nil
}

// PipelineVariant resolves the preset named by Variant and applies the
// individual overrides.
func (c *Config) PipelineVariant() (pipeline.Variant, error) {
	v, err := pipeline.Preset(c.Variant)
	if err != nil {
		return pipeline.Variant{}, err
	}

	if c.InputSize != 0 {
		v.InputSize = c.InputSize
	}
	if c.ModelAsset != "" {
		v.ModelAsset = c.ModelAsset
	}
	if err := overrideTriple(&v.Norm.Mean, c.Mean, "mean"); err != nil {
		return pipeline.Variant{}, err
	}
	if err := overrideTriple(&v.Norm.Std, c.Std, "std"); err != nil {
		return pipeline.Variant{}, err
	}

	if err := v.Validate(); err != nil {
		return pipeline.Variant{}, err
	}
	return v, nil
}

func overrideTriple(dst *[3]float32, src []float64, name string) error {
	switch len(src) {
	case 0:
		return nil
	case 3:
		for i, f := range src {
			dst[i] = float32(f)
		}
		return nil
	default:
		return fmt.Errorf("%s must have 3 values, got %d", name, len(src))
	}
}
