// Package config loads pipeline configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	domainAnomaly "github.com/MRIIOT/llm-cmp-sub005/internal/domain/anomaly"
	"github.com/MRIIOT/llm-cmp-sub005/internal/infrastructure/encoding"
)

// Config describes the full scoring pipeline. Every field has a working
// default; a config file only needs to name what it changes.
type Config struct {
	Engine  domainAnomaly.EngineConfig `yaml:"engine"`
	Encoder encoding.SDRConfig         `yaml:"encoder"`

	// SemanticDimensions sizes the local semantic estimator's embeddings.
	SemanticDimensions int `yaml:"semantic_dimensions"`

	// TracePath, when set, enables the SQLite score trace sink.
	TracePath string `yaml:"trace_path"`
}

// Default returns the full pipeline defaults.
func Default() Config {
	return Config{
		Engine:             domainAnomaly.DefaultEngineConfig(),
		Encoder:            encoding.DefaultSDRConfig(),
		SemanticDimensions: 128,
	}
}

// Load reads a YAML config file, overlaying defaults. An empty path yields
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Engine = cfg.Engine.Normalize()
	if cfg.SemanticDimensions <= 0 {
		cfg.SemanticDimensions = 128
	}
	return cfg, nil
}
