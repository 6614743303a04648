// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package match implements rule match extensions for the bridge filter:
// set membership against the kernel ipset and domain-set registries, and
// rule comments.
package match

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// OptionSpec is one long option an extension accepts.
type OptionSpec struct {
	Name   string
	HasArg bool
	Code   rune
}

// Match is the per-rule slot an extension owns. Data holds the binary
// payload exactly as it is stored in the rule.
type Match struct {
	Name     string
	Revision uint8
	Data     []byte
}

// Entry is the rule a match belongs to.
type Entry struct {
	Matches []*Match
}

// ParseCall carries one recognized option to an extension.
type ParseCall struct {
	// Code is the option code from the extension's option table.
	Code rune
	// Arg is the option argument, empty for flag options.
	Arg string
	// Inverted is set when the option or its argument was preceded by "!".
	Inverted bool
	Entry    *Entry
	// Flags is private to the extension for the current rule. Set matches
	// raise it once the set is bound.
	Flags *uint32
	Match *Match
}

// Extension is a match plugin. The host calls Init once per rule slot,
// Parse for every option, FinalCheck when the rule is complete, and Print
// and Compare on finished rules.
type Extension interface {
	Name() string
	Revision() uint8
	Size() int
	Options() []OptionSpec
	Help(w io.Writer)
	Init(m *Match)
	// Parse returns false if the option code is not one of its own.
	Parse(ctx context.Context, call *ParseCall) (bool, error)
	FinalCheck(e *Entry, m *Match, name string, hookMask, timeMask uint32) error
	Print(ctx context.Context, w io.Writer, e *Entry, m *Match) error
	Compare(a, b *Match) bool
}

// Registry holds extensions by name.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Extension
	order  []Extension
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Extension)}
}

// Register adds ext. It panics if the name is taken.
func (r *Registry) Register(ext Extension) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := ext.Name()
	if _, ok := r.byName[name]; ok {
		panic(fmt.Sprintf("Multiple match extensions registered with name %q.", name))
	}
	r.byName[name] = ext
	r.order = append(r.order, ext)
}

// Lookup returns the extension registered as name.
func (r *Registry) Lookup(name string) (Extension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.byName[name]
	return ext, ok
}

// Extensions returns all extensions in registration order.
func (r *Registry) Extensions() []Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Extension(nil), r.order...)
}

// FindOption returns the spec for a long option name.
func FindOption(ext Extension, name string) (OptionSpec, bool) {
	for _, opt := range ext.Options() {
		if opt.Name == name {
			return opt, true
		}
	}
	return OptionSpec{}, false
}

// NewMatch allocates and initializes a slot for ext.
func NewMatch(ext Extension) *Match {
	m := &Match{Name: ext.Name(), Revision: ext.Revision()}
	ext.Init(m)
	return m
}
