// Package metrics exports attempt logging counters to prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eslsoft/dsasheet/internal/entity"
	"github.com/eslsoft/dsasheet/internal/srs"
	"github.com/eslsoft/dsasheet/internal/usecase"
)

const namespace = "dsasheet"

var _ usecase.AttemptObserver = (*Collector)(nil)

// Collector implements usecase.AttemptObserver on top of prometheus counters.
type Collector struct {
	registry *prometheus.Registry

	attemptsRecorded *prometheus.CounterVec
	attemptFailures  *prometheus.CounterVec
	conflicts        prometheus.Counter
	reconciliations  *prometheus.CounterVec
}

// NewCollector registers the attempt metrics plus the go and process
// collectors on a private registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		attemptsRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_recorded_total",
				Help:      "Total number of attempts recorded with an updated schedule",
			},
			[]string{"outcome", "tier"},
		),
		attemptFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempt_failures_total",
				Help:      "Total number of failed attempt logging calls by stage",
			},
			[]string{"stage"},
		),
		conflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "schedule_conflicts_total",
				Help:      "Total number of conditional schedule writes that lost a race",
			},
		),
		reconciliations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciliations_total",
				Help:      "Total number of schedule reconciliations",
			},
			[]string{"repaired"},
		),
	}
	c.registry.MustRegister(
		c.attemptsRecorded,
		c.attemptFailures,
		c.conflicts,
		c.reconciliations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) AttemptRecorded(outcome entity.Outcome, tier srs.Tier) {
	c.attemptsRecorded.WithLabelValues(string(outcome), tier.String()).Inc()
}

func (c *Collector) AttemptFailed(stage string) {
	c.attemptFailures.WithLabelValues(stage).Inc()
}

func (c *Collector) ScheduleConflict() {
	c.conflicts.Inc()
}

func (c *Collector) Reconciled(repaired bool) {
	c.reconciliations.WithLabelValues(strconv.FormatBool(repaired)).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
