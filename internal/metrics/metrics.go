// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics exposes Prometheus counters for set registry traffic and
// rule parsing outcomes.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Registry request results.
const (
	ResultOK          = "ok"
	ResultError       = "error"
	ResultUnsupported = "unsupported"
	ResultShort       = "short_reply"
	ResultTimeout     = "timeout"
)

// Metrics holds all ebtset Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RegistryRequests  *prometheus.CounterVec
	RegistryFallbacks *prometheus.CounterVec
	SessionsOpen      *prometheus.GaugeVec
	ParseErrors       *prometheus.CounterVec
	RulesParsed       prometheus.Counter
}

// New creates the metric set.
func New() *Metrics {
	return &Metrics{
		RegistryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ebtset_registry_requests_total",
			Help: "Total number of set registry sockopt requests",
		}, []string{"protocol", "op", "result"}),

		RegistryFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ebtset_registry_fallbacks_total",
			Help: "Total number of downgrades from family-aware to name-only lookup",
		}, []string{"protocol"}),

		SessionsOpen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ebtset_sessions_open",
			Help: "Number of registry control sockets currently open",
		}, []string{"protocol"}),

		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ebtset_parse_errors_total",
			Help: "Total number of rejected rules by error class",
		}, []string{"class"}),

		RulesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ebtset_rules_parsed_total",
			Help: "Total number of rules parsed successfully",
		}),
	}
}

// Describe implements prometheus.Collector
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.RegistryRequests.Describe(ch)
	m.RegistryFallbacks.Describe(ch)
	m.SessionsOpen.Describe(ch)
	m.ParseErrors.Describe(ch)
	m.RulesParsed.Describe(ch)
}

// Collect implements prometheus.Collector
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.RegistryRequests.Collect(ch)
	m.RegistryFallbacks.Collect(ch)
	m.SessionsOpen.Collect(ch)
	m.ParseErrors.Collect(ch)
	m.RulesParsed.Collect(ch)
}

// Register registers the metric set with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	return reg.Register(m)
}

// Request records one registry round-trip.
func (m *Metrics) Request(protocol, op, result string) {
	if m == nil {
		return
	}
	m.RegistryRequests.WithLabelValues(protocol, op, result).Inc()
}

// Fallback records a name-only lookup retry.
func (m *Metrics) Fallback(protocol string) {
	if m == nil {
		return
	}
	m.RegistryFallbacks.WithLabelValues(protocol).Inc()
}

// SessionOpened tracks a newly opened control socket.
func (m *Metrics) SessionOpened(protocol string) {
	if m == nil {
		return
	}
	m.SessionsOpen.WithLabelValues(protocol).Inc()
}

// SessionClosed tracks a closed control socket.
func (m *Metrics) SessionClosed(protocol string) {
	if m == nil {
		return
	}
	m.SessionsOpen.WithLabelValues(protocol).Dec()
}

// ParseError records a rejected rule.
func (m *Metrics) ParseError(class string) {
	if m == nil {
		return
	}
	m.ParseErrors.WithLabelValues(class).Inc()
}

// RuleParsed records an accepted rule.
func (m *Metrics) RuleParsed() {
	if m == nil {
		return
	}
	m.RulesParsed.Inc()
}

// WriteText writes every family in g in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
