// Package config loads per-project settings from .buildermigrate.yml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/DeusData/builder-migrate/internal/builder"
	"github.com/DeusData/builder-migrate/internal/lint"
	"github.com/DeusData/builder-migrate/internal/rewrite"
	"github.com/DeusData/builder-migrate/internal/typeck"
)

// FileName is the config file looked up in a project root.
const FileName = ".buildermigrate.yml"

// ErrInvalid wraps every decoding or validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds user-overridable migration settings.
type Config struct {
	Target TargetConfig `yaml:"target"`

	// StrictReceivers requires closure chain receivers to resolve to a
	// builder type. Default: true.
	StrictReceivers *bool `yaml:"strict_receivers"`

	// MultilineSetters puts each emitted setter on its own line.
	// Default: false.
	MultilineSetters *bool `yaml:"multiline_setters"`

	// RequiredFields overrides the constructor fields of builder types.
	RequiredFields map[string][]string `yaml:"required_fields"`

	// Signatures are added to the built-in closure signature table.
	Signatures []typeck.Signature `yaml:"signatures"`

	// Ignore holds extra glob patterns excluded from discovery.
	Ignore []string `yaml:"ignore"`
}

// TargetConfig names the crate and module builder types live in.
type TargetConfig struct {
	Crate  string `yaml:"crate"`
	Module string `yaml:"module"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{}
}

// Load reads FileName from dir. A missing file yields the defaults.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile reads the config at path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates YAML config data.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field consistency.
func (c *Config) Validate() error {
	if (c.Target.Crate == "") != (c.Target.Module == "") {
		return fmt.Errorf("%w: target needs both crate and module", ErrInvalid)
	}
	for ty, fields := range c.RequiredFields {
		for _, f := range fields {
			if f == "" {
				return fmt.Errorf("%w: required_fields.%s has an empty field name", ErrInvalid, ty)
			}
		}
	}
	for i, s := range c.Signatures {
		if s.Receiver == "" || s.Method == "" || s.Param == "" || s.Arg < 0 {
			return fmt.Errorf("%w: signatures[%d] needs receiver, method, param and a non-negative arg", ErrInvalid, i)
		}
	}
	return nil
}

// EffectiveStrictReceivers returns the configured strictness, or true.
func (c *Config) EffectiveStrictReceivers() bool {
	if c.StrictReceivers != nil {
		return *c.StrictReceivers
	}
	return true
}

// EffectiveMultilineSetters returns the configured layout, or false.
func (c *Config) EffectiveMultilineSetters() bool {
	if c.MultilineSetters != nil {
		return *c.MultilineSetters
	}
	return false
}

// EffectiveTarget returns the configured target, or builder.DefaultTarget.
func (c *Config) EffectiveTarget() builder.Target {
	if c.Target.Crate == "" {
		return builder.DefaultTarget
	}
	return builder.Target{Crate: c.Target.Crate, Module: c.Target.Module}
}

// Catalogue returns base extended with the configured signatures and
// retargeted when a target is set. base is not modified.
func (c *Config) Catalogue(base *typeck.Catalogue) *typeck.Catalogue {
	cat := base.Clone()
	if c.Target.Crate != "" {
		cat.Retarget(c.Target.Crate, c.Target.Module)
	}
	cat.Merge(c.Signatures)
	return cat
}

// Registry returns the built-in rewrite registry with required field
// overrides applied.
func (c *Config) Registry() *rewrite.Registry {
	reg := rewrite.NewRegistry()
	for ty, fields := range c.RequiredFields {
		reg.SetRequired(ty, fields)
	}
	return reg
}

// LintOptions returns the checker options.
func (c *Config) LintOptions() lint.Options {
	return lint.Options{
		Target:           c.EffectiveTarget(),
		StrictReceivers:  c.EffectiveStrictReceivers(),
		MultilineSetters: c.EffectiveMultilineSetters(),
	}
}
