// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"fmt"
	"strings"
	"time"

	"grimm.is/ebtset/internal/logging"
	"grimm.is/ebtset/internal/sets"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field    string
	Message  string
	Severity string // "error" (default), "warning"
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if any entry is not a warning.
func (e ValidationErrors) HasErrors() bool {
	for _, err := range e {
		if err.Severity != "warning" {
			return true
		}
	}
	return false
}

// Warnings returns only the warnings.
func (e ValidationErrors) Warnings() ValidationErrors {
	var out ValidationErrors
	for _, err := range e {
		if err.Severity == "warning" {
			out = append(out, err)
		}
	}
	return out
}

// Validate validates the entire configuration.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	errs = append(errs, c.validateRegistry()...)
	errs = append(errs, c.validateLogging()...)
	if c.Simulation != nil {
		errs = append(errs, validateSimSets("simulation.set", c.Simulation.Sets)...)
		errs = append(errs, validateSimSets("simulation.domain_set", c.Simulation.DomainSets)...)
	}

	return errs
}

func (c *Config) validateRegistry() ValidationErrors {
	var errs ValidationErrors
	if c.Registry == nil {
		return errs
	}

	d, err := time.ParseDuration(c.Registry.Timeout)
	switch {
	case err != nil:
		errs = append(errs, ValidationError{Field: "registry.timeout", Message: fmt.Sprintf("invalid duration %q", c.Registry.Timeout)})
	case d < 0:
		errs = append(errs, ValidationError{Field: "registry.timeout", Message: "must not be negative"})
	case d == 0:
		errs = append(errs, ValidationError{Field: "registry.timeout", Message: "0 waits for the kernel indefinitely", Severity: "warning"})
	}

	if _, err := sets.ParseFamily(c.Registry.Family); err != nil {
		errs = append(errs, ValidationError{Field: "registry.family", Message: err.Error()})
	}
	return errs
}

func (c *Config) validateLogging() ValidationErrors {
	var errs ValidationErrors
	if c.Logging == nil {
		return errs
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, ValidationError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)})
	}
	return errs
}

func validateSimSets(field string, list []SimSetConfig) ValidationErrors {
	var errs ValidationErrors
	names := make(map[string]bool)
	indices := make(map[int]string)

	for _, s := range list {
		f := fmt.Sprintf("%s[%q]", field, s.Name)

		switch {
		case s.Name == "":
			errs = append(errs, ValidationError{Field: field, Message: "set name is required"})
		case len(s.Name) > sets.MaxNameLen-1:
			errs = append(errs, ValidationError{Field: f, Message: fmt.Sprintf("name longer than %d characters", sets.MaxNameLen-1)})
		case names[s.Name]:
			errs = append(errs, ValidationError{Field: f, Message: "duplicate set name"})
		}
		names[s.Name] = true

		switch {
		case s.Index < 0 || s.Index >= int(sets.InvalidIndex):
			errs = append(errs, ValidationError{Field: f + ".index", Message: fmt.Sprintf("must be between 0 and %d", int(sets.InvalidIndex)-1)})
		case indices[s.Index] != "":
			errs = append(errs, ValidationError{Field: f + ".index", Message: fmt.Sprintf("index %d already used by %q", s.Index, indices[s.Index])})
		default:
			indices[s.Index] = s.Name
		}

		if _, err := sets.ParseFamily(s.Family); err != nil {
			errs = append(errs, ValidationError{Field: f + ".family", Message: err.Error()})
		}
	}
	return errs
}
