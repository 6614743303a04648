// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package main

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"grimm.is/ebtset/internal/config"
	"grimm.is/ebtset/internal/host"
	"grimm.is/ebtset/internal/kernel"
	"grimm.is/ebtset/internal/logging"
	"grimm.is/ebtset/internal/match"
	"grimm.is/ebtset/internal/metrics"
	"grimm.is/ebtset/internal/sets"
)

// options are the global command-line flags.
type options struct {
	configPath string
	simulate   bool
	logLevel   string
	jsonLogs   bool
}

// app wires configuration, registries and extensions for one invocation.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
	registry  *match.Registry
	compiler  *host.Compiler
	inventory []sets.Inventory
}

func newApp(opts options, stderr io.Writer) (*app, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.LoadFile(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	logCfg := cfg.LogConfig()
	logCfg.Output = stderr
	if opts.logLevel != "" {
		level, err := logging.ParseLevel(opts.logLevel)
		if err != nil {
			return nil, err
		}
		logCfg.Level = level
	}
	if opts.jsonLogs {
		logCfg.JSON = true
	}
	logger := logging.New(logCfg)
	logging.SetDefault(logger)

	for _, w := range cfg.Validate().Warnings() {
		logger.Warn("config", "field", w.Field, "warning", w.Message)
	}

	promReg := prometheus.NewRegistry()
	m := metrics.New()
	if err := m.Register(promReg); err != nil {
		return nil, err
	}

	var ipOpener, domainOpener kernel.Opener
	var inventory []sets.Inventory
	if opts.simulate {
		ipsets, domains, err := cfg.Simulation.Registries()
		if err != nil {
			return nil, err
		}
		ipOpener, domainOpener = ipsets, domains
		inventory = []sets.Inventory{ipsets, domains}
		logger.Debug("using simulated registries", "sets", len(ipsets.Sets()), "domain_sets", len(domains.Sets()))
	} else {
		linux := kernel.NewLinuxOpener()
		ipOpener, domainOpener = linux, linux
		inventory = []sets.Inventory{sets.NetlinkInventory{}}
	}

	clientOpts := []sets.Option{
		sets.WithLogger(logger),
		sets.WithTimeout(cfg.Timeout()),
		sets.WithMetrics(m),
	}

	registry := match.NewRegistry()
	match.RegisterBuiltins(registry, match.Deps{
		IPSets:     sets.NewClient(sets.IPSet, ipOpener, clientOpts...),
		DomainSets: sets.NewClient(sets.DomainSet, domainOpener, clientOpts...),
		Family:     cfg.Family(),
		Logger:     logger,
	})

	return &app{
		cfg:       cfg,
		logger:    logger.WithComponent("cli"),
		metrics:   m,
		gatherer:  promReg,
		registry:  registry,
		compiler:  host.NewCompiler(registry, logger, m),
		inventory: inventory,
	}, nil
}
