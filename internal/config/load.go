// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// evalContext exposes the family keywords so HCL can say family = ipv4.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"ipv4":   cty.StringVal("ipv4"),
			"ipv6":   cty.StringVal("ipv6"),
			"unspec": cty.StringVal("unspec"),
		},
	}
}

// LoadFile loads and validates a config file. The format is chosen by
// extension; unknown extensions are tried as HCL, then JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		cfg, err = LoadHCL(data, path)
	case ".json":
		cfg, err = LoadJSON(data)
	case ".yaml", ".yml":
		cfg, err = LoadYAML(data)
	default:
		var hclErr, jsonErr error
		cfg, hclErr = LoadHCL(data, path)
		if hclErr != nil {
			cfg, jsonErr = LoadJSON(data)
			if jsonErr != nil {
				err = fmt.Errorf("failed to parse config as HCL: %w (JSON fallback error: %v)", hclErr, jsonErr)
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadHCL decodes HCL source.
func LoadHCL(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %w", diags)
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %w", diags)
	}
	return finish(&cfg)
}

// LoadJSON decodes JSON. Unknown fields are rejected.
func LoadJSON(data []byte) (*Config, error) {
	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return finish(&cfg)
}

// LoadYAML decodes YAML. Unknown fields are rejected.
func LoadYAML(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	if cfg.SchemaVersion != "" && cfg.SchemaVersion != CurrentSchemaVersion {
		return nil, fmt.Errorf("config version %s is not supported (want %s)", cfg.SchemaVersion, CurrentSchemaVersion)
	}
	cfg.ApplyDefaults()
	if errs := cfg.Validate(); errs.HasErrors() {
		return nil, fmt.Errorf("invalid config: %w", errs)
	}
	return cfg, nil
}
