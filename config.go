package fiber

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root Runtime configuration: how many Workers to start, the
// garbage-collection cadence, and logging.
type Config struct {
	// WorkerCount is how many OS-thread-pinned Workers EnableWorkerThreads
	// starts. Zero means runtime.NumCPU().
	WorkerCount int `mapstructure:"worker_count"`

	// GCCollectTimeout is how often the idle collector considers running
	// runtime.GC(). Zero means 2s.
	GCCollectTimeout time.Duration `mapstructure:"gc_collect_timeout"`

	// Process is applied once by NewRuntime, before any Worker starts,
	// dropping privileges per [ApplyProcessOptions]. Typically populated by
	// [RegisterProcessFlags] rather than a config file.
	Process ProcessOptions `mapstructure:"process"`

	Log LogConfig `mapstructure:"log"`
}

// DefaultConfig returns a Config populated with the same defaults NewRuntime
// falls back to when given a Config read from an empty environment.
func DefaultConfig() *Config {
	return &Config{
		WorkerCount:      0,
		GCCollectTimeout: 2 * time.Second,
		Log:              DefaultLogConfig(),
	}
}

// LoadConfig reads configuration from path if non-empty, otherwise searches
// common locations (./fiber.yaml, ./configs/fiber.yaml, ~/.fiber/fiber.yaml)
// and always applies FIBER_-prefixed environment overrides, e.g.
// FIBER_WORKER_COUNT=4.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("FIBER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("worker_count", cfg.WorkerCount)
	v.SetDefault("gc_collect_timeout", cfg.GCCollectTimeout)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	if path == "" {
		if envPath := os.Getenv("FIBER_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fiber")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".fiber"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("fiber: read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("fiber: decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadConfig is LoadConfig but panics on error, for use in program
// entry points where a broken config is unrecoverable.
func MustLoadConfig(path string) *Config {
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("fiber: invalid log.level: %q", c.Log.Level)
	}
	if c.WorkerCount < 0 {
		return fmt.Errorf("fiber: worker_count must not be negative: %d", c.WorkerCount)
	}
	if c.GCCollectTimeout < 0 {
		return fmt.Errorf("fiber: gc_collect_timeout must not be negative: %s", c.GCCollectTimeout)
	}
	return nil
}
