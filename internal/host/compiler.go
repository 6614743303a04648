// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package host is a small rule compiler that drives match extensions the
// way the bridge filter's command line does: it tokenizes a rule, routes
// each option to the extension that owns it, and runs final checks.
package host

import (
	"context"
	"strings"

	shlex "github.com/anmitsu/go-shlex"

	"grimm.is/ebtset/internal/errors"
	"grimm.is/ebtset/internal/logging"
	"grimm.is/ebtset/internal/match"
	"grimm.is/ebtset/internal/metrics"
)

// Compiler parses rules against a registry of extensions.
type Compiler struct {
	Registry *match.Registry
	Logger   *logging.Logger
	Metrics  *metrics.Metrics
}

// NewCompiler creates a compiler for reg.
func NewCompiler(reg *match.Registry, logger *logging.Logger, m *metrics.Metrics) *Compiler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Compiler{
		Registry: reg,
		Logger:   logger.WithComponent("host"),
		Metrics:  m,
	}
}

// Split breaks a rule written on one line into tokens using shell quoting.
func Split(line string) ([]string, error) {
	tokens, err := shlex.Split(line, true)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindUsage, "tokenizing rule")
	}
	return tokens, nil
}

// parser holds the state of one ParseRule call.
type parser struct {
	c       *Compiler
	rule    *Rule
	current *slot
	args    []string
	pos     int
}

// ParseRule parses args into a rule. Any error discards the whole rule.
func (c *Compiler) ParseRule(ctx context.Context, args []string) (*Rule, error) {
	p := &parser{
		c:    c,
		rule: &Rule{},
		args: args,
	}

	rule, err := p.run(ctx)
	if err != nil {
		class := match.Classify(err)
		c.Metrics.ParseError(class)
		c.Logger.Debug("rule rejected", "class", class, "error", err)
		return nil, err
	}
	c.Metrics.RuleParsed()
	return rule, nil
}

func (p *parser) next() (string, bool) {
	if p.pos >= len(p.args) {
		return "", false
	}
	tok := p.args[p.pos]
	p.pos++
	return tok, true
}

func (p *parser) run(ctx context.Context) (*Rule, error) {
	inverted := false

	for {
		tok, ok := p.next()
		if !ok {
			break
		}

		switch {
		case tok == "!":
			if inverted {
				return nil, usageError(match.ErrUnexpectedInversion, "Multiple `!' flags not allowed")
			}
			inverted = true
			continue

		case tok == "-m" || tok == "--match":
			if inverted {
				return nil, usageError(match.ErrUnexpectedInversion, "Unexpected `!' before %s", tok)
			}
			name, ok := p.next()
			if !ok {
				return nil, usageError(ErrMissingArgument, "option %s requires an argument", tok)
			}
			ext, ok := p.c.Registry.Lookup(name)
			if !ok {
				return nil, usageError(ErrUnknownMatch, "Couldn't find match `%s'", name)
			}
			p.current = p.rule.slotFor(ext)
			continue
		}

		if err := p.option(ctx, tok, inverted); err != nil {
			return nil, err
		}
		inverted = false
	}

	if inverted {
		return nil, usageError(match.ErrUnexpectedInversion, "Unexpected `!' at end of rule")
	}

	for _, s := range p.rule.slots {
		if err := s.ext.FinalCheck(&p.rule.Entry, s.match, s.ext.Name(), 0, 0); err != nil {
			return nil, err
		}
	}
	return p.rule, nil
}

// option dispatches one option token. Long options are written "--name";
// a bare name is accepted for options of the current extension, which is
// how printed rules spell them.
func (p *parser) option(ctx context.Context, tok string, inverted bool) error {
	name, long := strings.CutPrefix(tok, "--")

	s, spec, ok := p.resolve(name, long)
	if !ok {
		return usageError(match.ErrUnknownOption, "Unknown argument: '%s'", tok)
	}
	p.current = s

	call := &match.ParseCall{
		Code:     spec.Code,
		Inverted: inverted,
		Entry:    &p.rule.Entry,
		Flags:    &s.flags,
		Match:    s.match,
	}

	if spec.HasArg {
		arg, ok := p.next()
		if ok && arg == "!" {
			if inverted {
				return usageError(match.ErrUnexpectedInversion, "Multiple `!' flags not allowed")
			}
			call.Inverted = true
			arg, ok = p.next()
		}
		if !ok {
			return usageError(ErrMissingArgument, "option --%s requires an argument", spec.Name)
		}
		call.Arg = arg
	}

	handled, err := s.ext.Parse(ctx, call)
	if err != nil {
		return err
	}
	if !handled {
		return usageError(match.ErrUnknownOption, "Unknown argument: '%s'", tok)
	}
	return nil
}

// resolve finds the extension owning an option. The current extension is
// tried first, then the rule's other matches, latest first, and only then
// the registry in registration order.
func (p *parser) resolve(name string, long bool) (*slot, match.OptionSpec, bool) {
	if p.current != nil {
		if spec, ok := match.FindOption(p.current.ext, name); ok {
			return p.current, spec, true
		}
	}
	for i := len(p.rule.slots) - 1; i >= 0; i-- {
		s := p.rule.slots[i]
		if spec, ok := match.FindOption(s.ext, name); ok {
			return s, spec, true
		}
	}
	if !long {
		return nil, match.OptionSpec{}, false
	}
	for _, ext := range p.c.Registry.Extensions() {
		if spec, ok := match.FindOption(ext, name); ok {
			return p.rule.slotFor(ext), spec, true
		}
	}
	return nil, match.OptionSpec{}, false
}
