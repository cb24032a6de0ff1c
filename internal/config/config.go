// Package config loads debate kernel configuration from environment
// variables, with an optional on-disk preset override file read once at
// startup. Environment variables always take precedence over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Plswearpants/AI-debate/internal/cost"
)

// Config is the kernel's full runtime configuration.
type Config struct {
	DebatesRoot           string
	CostPreset            cost.Preset
	CrowdSize             int
	DefaultRounds         int
	UnderdogBiasThreshold float64
	ProviderTimeout       time.Duration
	PersonaCatalogPath    string
}

// Default returns the kernel's hardcoded configuration defaults, before
// any file override or environment variable is applied.
func Default() Config {
	return Config{
		DebatesRoot:           "./debates",
		CostPreset:            cost.Balanced,
		CrowdSize:             20,
		DefaultRounds:         3,
		UnderdogBiasThreshold: 0.6,
		ProviderTimeout:       60 * time.Second,
	}
}

// Load builds a Config from environment variables layered on top of cfg,
// so any value cfg already carries (from a file override, say) serves as
// the default an unset environment variable falls back to. This gives
// environment variables the final say, exactly as ApplyFile's doc
// comment promises.
func Load(cfg Config) Config {
	return Config{
		DebatesRoot:           getEnv("DEBATEKERNEL_DEBATES_ROOT", cfg.DebatesRoot),
		CostPreset:            cost.Preset(getEnv("DEBATEKERNEL_COST_PRESET", string(cfg.CostPreset))),
		CrowdSize:             getIntEnv("DEBATEKERNEL_CROWD_SIZE", cfg.CrowdSize),
		DefaultRounds:         getIntEnv("DEBATEKERNEL_ROUNDS", cfg.DefaultRounds),
		UnderdogBiasThreshold: getFloatEnv("DEBATEKERNEL_UNDERDOG_THRESHOLD", cfg.UnderdogBiasThreshold),
		ProviderTimeout:       getDurationEnv("DEBATEKERNEL_PROVIDER_TIMEOUT", cfg.ProviderTimeout),
		PersonaCatalogPath:    getEnv("PERSONA_CATALOG_PATH", cfg.PersonaCatalogPath),
	}
}

// filePreset is the shape of an optional on-disk preset override file.
type filePreset struct {
	DebatesRoot           string  `toml:"debates_root"`
	CostPreset            string  `toml:"cost_preset"`
	CrowdSize             int     `toml:"crowd_size"`
	DefaultRounds         int     `toml:"default_rounds"`
	UnderdogBiasThreshold float64 `toml:"underdog_bias_threshold"`
}

// ApplyFile overlays settings from a TOML file onto cfg for any field the
// file sets (zero values in the file leave the existing cfg value alone).
// Call this before Load so environment variables keep the final say.
func ApplyFile(cfg Config, path string) (Config, error) {
	var fp filePreset
	if _, err := toml.DecodeFile(path, &fp); err != nil {
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if fp.DebatesRoot != "" {
		cfg.DebatesRoot = fp.DebatesRoot
	}
	if fp.CostPreset != "" {
		cfg.CostPreset = cost.Preset(fp.CostPreset)
	}
	if fp.CrowdSize != 0 {
		cfg.CrowdSize = fp.CrowdSize
	}
	if fp.DefaultRounds != 0 {
		cfg.DefaultRounds = fp.DefaultRounds
	}
	if fp.UnderdogBiasThreshold != 0 {
		cfg.UnderdogBiasThreshold = fp.UnderdogBiasThreshold
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
