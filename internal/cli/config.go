package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/grackle/internal/ir"
)

// BuildConfig is the optional YAML build configuration. Flag values beat
// config values; config values beat what the grammar definition declares.
type BuildConfig struct {
	Prefix    string `yaml:"prefix"`    // override generated-name prefix
	Algorithm string `yaml:"algorithm"` // override table-construction algorithm
	Output    string `yaml:"output"`    // default output file for compile
	Cache     string `yaml:"cache"`     // default cache database path
}

// LoadBuildConfig reads and validates a YAML build configuration file.
func LoadBuildConfig(path string) (*BuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading build config: %w", err)
	}

	var cfg BuildConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing build config %s: %w", path, err)
	}

	if cfg.Algorithm != "" {
		if _, ok := ir.AlgorithmFromString(cfg.Algorithm); !ok {
			return nil, fmt.Errorf("build config %s: unsupported algorithm %q", path, cfg.Algorithm)
		}
	}

	return &cfg, nil
}

// Apply overrides grammar settings from the config.
func (c *BuildConfig) Apply(g *ir.Grammar) {
	if c.Prefix != "" {
		g.Prefix = c.Prefix
	}
	if c.Algorithm != "" {
		if alg, ok := ir.AlgorithmFromString(c.Algorithm); ok {
			g.Algorithm = alg
		}
	}
}
