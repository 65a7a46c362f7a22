package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// PathEnv names the environment variable holding the config file path.
const PathEnv = "EVENTSYNC_CONFIG"

const defaultPath = "./eventsync.yaml"

// DefaultTarget is collect.target when neither the file nor the environment
// sets it.
const DefaultTarget = 50

const targetEnv = "EVENTSYNC_TARGET"

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The YAML file path is taken from EVENTSYNC_CONFIG (fallback
// "./eventsync.yaml"). If the fallback file does not exist, configuration is
// loaded from ENV + defaults only.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(PathEnv))
}

// LoadFile is Load with an explicit path. An empty path means the default
// file, which may be absent; a named file must exist.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	explicitPath := path != ""
	if !explicitPath {
		path = defaultPath
	}

	targetSet := false
	if _, ok := os.LookupEnv(targetEnv); ok {
		targetSet = true
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		inFile, err := fileSetsTarget(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		targetSet = targetSet || inFile
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if !targetSet {
		cfg.Collect.Target = DefaultTarget
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// fileSetsTarget reports whether the YAML file sets collect.target, so an
// explicit 0 is kept.
func fileSetsTarget(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	var doc struct {
		Collect struct {
			Target *int `yaml:"target"`
		} `yaml:"collect"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return false, err
	}
	return doc.Collect.Target != nil, nil
}
