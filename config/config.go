package config

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
	"sketchagg/core"
)

var (
	ErrConfigEmpty  = errors.New("configuration is empty")
	ErrPartitions   = errors.New("partitions must be positive")
	ErrCombiners    = errors.New("combiners must not be negative")
	ErrStorageKind  = errors.New("storage kind must be memory or badger")
	ErrStoragePath  = errors.New("badger storage needs a path unless in_memory is set")
	ErrCacheSize    = errors.New("cache num_counters and max_cost must be positive")
	ErrLogLevel     = errors.New("unknown log level")
	ErrDefaultValue = errors.New("invalid engine default")
)

const (
	StorageMemory = "memory"
	StorageBadger = "badger"
)

type StorageConfig struct {
	Kind     string `yaml:"kind"`
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

type CacheConfig struct {
	Enabled     bool  `yaml:"enabled"`
	NumCounters int64 `yaml:"num_counters"`
	MaxCost     int64 `yaml:"max_cost"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultsConfig overrides engine defaults. Zero fields keep the engine's
// own default.
type DefaultsConfig struct {
	Size     int     `yaml:"size"`
	Sampling float64 `yaml:"sampling"`
	Mode     string  `yaml:"mode"`
	Seed     uint64  `yaml:"seed"`
}

type Config struct {
	Partitions int            `yaml:"partitions"`
	Combiners  int            `yaml:"combiners"`
	Storage    StorageConfig  `yaml:"storage"`
	Cache      CacheConfig    `yaml:"cache"`
	Log        LogConfig      `yaml:"log"`
	Defaults   DefaultsConfig `yaml:"defaults"`
}

func Default() *Config {
	return &Config{
		Partitions: 4,
		Combiners:  0,
		Storage:    StorageConfig{Kind: StorageMemory},
		Cache: CacheConfig{
			Enabled:     true,
			NumCounters: 1e4,
			MaxCost:     1 << 25,
		},
		Log: LogConfig{Level: "info"},
	}
}

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	cfg, err := LoadFromBytes(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading config %s", path)
	}
	return cfg, nil
}

// LoadFromBytes parses YAML over Default. Unknown fields are rejected.
func LoadFromBytes(data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrConfigEmpty
	}
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "parsing YAML")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if cfg.Partitions <= 0 {
		return errors.Wrapf(ErrPartitions, "got %d", cfg.Partitions)
	}
	if cfg.Combiners < 0 {
		return errors.Wrapf(ErrCombiners, "got %d", cfg.Combiners)
	}
	switch cfg.Storage.Kind {
	case StorageMemory:
	case StorageBadger:
		if cfg.Storage.Path == "" && !cfg.Storage.InMemory {
			return ErrStoragePath
		}
	default:
		return errors.Wrapf(ErrStorageKind, "got %q", cfg.Storage.Kind)
	}
	if cfg.Cache.Enabled && (cfg.Cache.NumCounters <= 0 || cfg.Cache.MaxCost <= 0) {
		return ErrCacheSize
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return errors.Wrapf(ErrLogLevel, "%q", cfg.Log.Level)
	}
	if cfg.Defaults.Size < 0 {
		return errors.Wrapf(ErrDefaultValue, "size %d", cfg.Defaults.Size)
	}
	if cfg.Defaults.Sampling < 0 || cfg.Defaults.Sampling > 1 {
		return errors.Wrapf(ErrDefaultValue, "sampling %v", cfg.Defaults.Sampling)
	}
	return nil
}

// EngineDefaults converts the defaults section for core.WithDefaults.
func (cfg *Config) EngineDefaults() core.Config {
	return core.Config{
		Size:     cfg.Defaults.Size,
		Sampling: cfg.Defaults.Sampling,
		Mode:     core.Mode(cfg.Defaults.Mode),
		Seed:     cfg.Defaults.Seed,
	}
}
