package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server string `koanf:"server"` // API base URL override
	Token  string `koanf:"token"`
	Secret string `koanf:"secret"`

	Formats    []string `koanf:"formats"`     // acceptable audio formats, in preference order
	MaxBitrate int      `koanf:"max_bitrate"` // kbps

	PlacementID string `koanf:"placement_id"` // empty means server-assigned default
	StationID   string `koanf:"station_id"`

	// TuneOnChange requests a new play immediately when the station or
	// placement changes, instead of waiting for an explicit tune.
	TuneOnChange bool `koanf:"tune_on_change"`

	// MaxRetries caps each retry loop. 0 retries forever.
	MaxRetries int `koanf:"max_retries"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/aerial/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "aerial", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}
