// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config loads the ebtset configuration from HCL, JSON or YAML.
package config

import (
	"time"

	"grimm.is/ebtset/internal/logging"
	"grimm.is/ebtset/internal/sets"
)

// CurrentSchemaVersion is the configuration schema this build understands.
const CurrentSchemaVersion = "1.0"

// Defaults applied to missing fields.
const (
	DefaultTimeout = "5s"
	DefaultFamily  = "ipv4"
	DefaultLevel   = "info"
)

// Config is the top-level configuration.
type Config struct {
	SchemaVersion string            `hcl:"schema_version,optional" json:"schema_version,omitempty" yaml:"schema_version,omitempty"`
	Registry      *RegistryConfig   `hcl:"registry,block" json:"registry,omitempty" yaml:"registry,omitempty"`
	Logging       *LoggingConfig    `hcl:"logging,block" json:"logging,omitempty" yaml:"logging,omitempty"`
	Simulation    *SimulationConfig `hcl:"simulation,block" json:"simulation,omitempty" yaml:"simulation,omitempty"`
}

// RegistryConfig controls how set names are resolved.
type RegistryConfig struct {
	// Timeout bounds one request to the kernel registry. "0s" waits forever.
	Timeout string `hcl:"timeout,optional" json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Family is the address family sets must hold: ipv4, ipv6 or unspec.
	Family string `hcl:"family,optional" json:"family,omitempty" yaml:"family,omitempty"`
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	Level string `hcl:"level,optional" json:"level,omitempty" yaml:"level,omitempty"`
	JSON  bool   `hcl:"json,optional" json:"json,omitempty" yaml:"json,omitempty"`
}

// SimulationConfig describes an in-memory registry used instead of the
// kernel, for dry runs and tests.
type SimulationConfig struct {
	// Legacy makes the registry reject family-aware lookups.
	Legacy     bool           `hcl:"legacy,optional" json:"legacy,omitempty" yaml:"legacy,omitempty"`
	Sets       []SimSetConfig `hcl:"set,block" json:"sets,omitempty" yaml:"sets,omitempty"`
	DomainSets []SimSetConfig `hcl:"domain_set,block" json:"domain_sets,omitempty" yaml:"domain_sets,omitempty"`
}

// SimSetConfig is one simulated set.
type SimSetConfig struct {
	Name   string `hcl:"name,label" json:"name" yaml:"name"`
	Index  int    `hcl:"index" json:"index" yaml:"index"`
	Family string `hcl:"family,optional" json:"family,omitempty" yaml:"family,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills in missing blocks and fields.
func (c *Config) ApplyDefaults() {
	if c.SchemaVersion == "" {
		c.SchemaVersion = CurrentSchemaVersion
	}
	if c.Registry == nil {
		c.Registry = &RegistryConfig{}
	}
	if c.Registry.Timeout == "" {
		c.Registry.Timeout = DefaultTimeout
	}
	if c.Registry.Family == "" {
		c.Registry.Family = DefaultFamily
	}
	if c.Logging == nil {
		c.Logging = &LoggingConfig{}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLevel
	}
}

// Timeout returns the registry timeout. Call Validate first; an invalid
// value yields the default.
func (c *Config) Timeout() time.Duration {
	if c.Registry != nil {
		if d, err := time.ParseDuration(c.Registry.Timeout); err == nil && d >= 0 {
			return d
		}
	}
	return sets.DefaultTimeout
}

// Family returns the expected address family.
func (c *Config) Family() sets.Family {
	if c.Registry != nil {
		if f, err := sets.ParseFamily(c.Registry.Family); err == nil {
			return f
		}
	}
	return sets.FamilyIPv4
}

// LogConfig converts the logging block for logging.New.
func (c *Config) LogConfig() logging.Config {
	cfg := logging.DefaultConfig()
	if c.Logging != nil {
		if level, err := logging.ParseLevel(c.Logging.Level); err == nil {
			cfg.Level = level
		}
		cfg.JSON = c.Logging.JSON
	}
	return cfg
}

// Registries builds the simulated ipset and domain-set registries.
func (s *SimulationConfig) Registries() (*sets.SimRegistry, *sets.SimRegistry, error) {
	ipsets := sets.NewSimRegistry(sets.IPSet)
	domains := sets.NewSimRegistry(sets.DomainSet)
	if s == nil {
		return ipsets, domains, nil
	}
	ipsets.Legacy = s.Legacy
	domains.Legacy = s.Legacy

	for _, set := range s.Sets {
		family, err := sets.ParseFamily(set.Family)
		if err != nil {
			return nil, nil, err
		}
		if err := ipsets.Add(set.Name, sets.Index(set.Index), family); err != nil {
			return nil, nil, err
		}
	}
	for _, set := range s.DomainSets {
		family, err := sets.ParseFamily(set.Family)
		if err != nil {
			return nil, nil, err
		}
		if err := domains.Add(set.Name, sets.Index(set.Index), family); err != nil {
			return nil, nil, err
		}
	}
	return ipsets, domains, nil
}
