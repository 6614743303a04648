// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command ebtset parses, prints and compares bridge filter rules that match
// on kernel ipsets and domain sets.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"grimm.is/ebtset/internal/i18n"
	"grimm.is/ebtset/internal/match"
)

// Printer writes user-facing output.
var Printer = i18n.NewCLIPrinter()

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer, fs *flag.FlagSet) {
	Printer.Fprintf(w, "Usage: ebtset [flags] <command> [args]\n\n")
	Printer.Fprintf(w, "Commands:\n")
	Printer.Fprintf(w, "  parse [-v] <rule...>     parse a rule and print it back\n")
	Printer.Fprintf(w, "  compare <rule> <rule>    report whether two rules match the same packets\n")
	Printer.Fprintf(w, "  help [match]             show match options\n")
	Printer.Fprintf(w, "  list                     list registered matches\n")
	Printer.Fprintf(w, "  sets                     list sets known to the kernel\n")
	Printer.Fprintf(w, "  metrics <rule...>        parse a rule and dump registry metrics\n\n")
	Printer.Fprintf(w, "Flags:\n")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// run executes one invocation and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ebtset", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var opts options
	fs.StringVar(&opts.configPath, "config", "", "Path to HCL, JSON or YAML config file")
	fs.BoolVar(&opts.simulate, "simulate", false, "Use the simulated registries from the config instead of the kernel")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&opts.jsonLogs, "json", false, "Write logs as JSON")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			usage(stdout, fs)
			return 0
		}
		reportError(stderr, err)
		return 1
	}

	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr, fs)
		return 1
	}

	a, err := newApp(opts, stderr)
	if err != nil {
		reportError(stderr, err)
		return 1
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "parse":
		err = a.runParse(cmdArgs, stdout)
	case "compare":
		var equal bool
		equal, err = a.runCompare(cmdArgs, stdout)
		if err == nil && !equal {
			return 1
		}
	case "help":
		err = a.runHelp(cmdArgs, stdout)
	case "list":
		err = a.runList(stdout)
	case "sets":
		err = a.runSets(stdout)
	case "metrics":
		err = a.runMetrics(cmdArgs, stdout)
	default:
		err = fmt.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		reportError(stderr, err)
		return 1
	}
	return 0
}

func reportError(w io.Writer, err error) {
	class := match.Classify(err)
	Printer.Fprintf(w, "%s %s %s\n",
		StyleError.Render("error"),
		StyleClass.Render("["+class+"]"),
		err.Error())
}
