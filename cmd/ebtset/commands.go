// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/pmezard/go-difflib/difflib"

	"grimm.is/ebtset/internal/host"
	"grimm.is/ebtset/internal/metrics"
)

// ruleArgs accepts a rule either as separate arguments or as one quoted string.
func ruleArgs(args []string) ([]string, error) {
	if len(args) == 1 && strings.ContainsAny(args[0], " \t") {
		return host.Split(args[0])
	}
	return args, nil
}

func (a *app) parseRule(ctx context.Context, args []string) (*host.Rule, error) {
	tokens, err := ruleArgs(args)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty rule")
	}
	return a.compiler.ParseRule(ctx, tokens)
}

// parseFlags strips the parse command's own flags. Rule tokens look like
// flags themselves, so only a leading -v and an optional "--" are taken.
func parseFlags(args []string) (verbose bool, rest []string) {
	if len(args) > 0 && args[0] == "-v" {
		verbose = true
		args = args[1:]
	}
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}
	return verbose, args
}

func (a *app) runParse(args []string, w io.Writer) error {
	verbose, args := parseFlags(args)

	ctx := context.Background()
	rule, err := a.parseRule(ctx, args)
	if err != nil {
		return err
	}

	var sb strings.Builder
	if err := rule.Print(ctx, &sb); err != nil {
		return err
	}
	Printer.Fprintf(w, "%s\n", strings.TrimSuffix(sb.String(), " "))

	if verbose {
		for _, s := range rule.Slots() {
			Printer.Fprintf(w, "%s rev %s: %s\n",
				s.Extension.Name(),
				strconv.Itoa(int(s.Extension.Revision())),
				hex.EncodeToString(s.Match.Data))
		}
	}
	return nil
}

// runCompare prints "equal" or a unified diff of the two printed rules.
func (a *app) runCompare(args []string, w io.Writer) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("compare takes exactly two rules")
	}

	ctx := context.Background()
	var rules [2]*host.Rule
	var lines [2][]string
	for i, text := range args {
		tokens, err := host.Split(text)
		if err != nil {
			return false, err
		}
		rule, err := a.compiler.ParseRule(ctx, tokens)
		if err != nil {
			return false, fmt.Errorf("rule %d: %w", i+1, err)
		}
		rules[i] = rule
		if lines[i], err = rule.Lines(ctx); err != nil {
			return false, err
		}
	}

	if rules[0].Equal(rules[1]) {
		Printer.Fprintf(w, "%s\n", StyleEqual.Render("equal"))
		return true, nil
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        withNewlines(lines[0]),
		B:        withNewlines(lines[1]),
		FromFile: "rule 1",
		ToFile:   "rule 2",
		Context:  1,
	})
	if err != nil {
		return false, err
	}
	if diff == "" {
		// Same text, different registry identity.
		diff = "rules print identically but reference different set indices\n"
	}
	Printer.Fprintf(w, "%s", highlightDiff(diff))
	return false, nil
}

func withNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}

func (a *app) runHelp(args []string, w io.Writer) error {
	if len(args) == 0 {
		for _, ext := range a.registry.Extensions() {
			Printer.Fprintf(w, "%s\n", StyleHeader.Render(ext.Name()))
			ext.Help(w)
			Printer.Fprintf(w, "\n")
		}
		return nil
	}

	for _, name := range args {
		ext, ok := a.registry.Lookup(name)
		if !ok {
			return fmt.Errorf("no match named %q", name)
		}
		ext.Help(w)
	}
	return nil
}

func (a *app) runList(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tREVISION\tSIZE\tOPTIONS")
	for _, ext := range a.registry.Extensions() {
		var names []string
		for _, opt := range ext.Options() {
			names = append(names, "--"+opt.Name)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", ext.Name(), ext.Revision(), ext.Size(), strings.Join(names, " "))
	}
	return tw.Flush()
}

func (a *app) runSets(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tFAMILY\tENTRIES\tREFERENCES")
	for _, inv := range a.inventory {
		list, err := inv.List()
		if err != nil {
			return err
		}
		for _, s := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", s.Name, s.Type, s.Family, s.Entries, s.References)
		}
	}
	return tw.Flush()
}

// runMetrics parses a rule, ignoring the outcome, and dumps the metrics.
func (a *app) runMetrics(args []string, w io.Writer) error {
	if len(args) > 0 {
		if _, err := a.parseRule(context.Background(), args); err != nil {
			a.logger.Info("rule rejected", "error", err)
		}
	}
	return metrics.WriteText(w, a.gatherer)
}
