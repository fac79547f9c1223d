package scenario

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prosopo/obce/pkg/config"
)

// Metrics for monitoring scenario runs.
var (
	// scenarioRuns prometheus metric.
	scenarioRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of scenario runs by status",
			Name:      "scenario_runs_total",
			Namespace: "harness",
		},
		[]string{"scenario", "status"},
	)
	// scenarioDuration prometheus metric.
	scenarioDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Help:      "Scenario run duration including environment setup",
			Name:      "scenario_duration_seconds",
			Namespace: "harness",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"scenario"},
	)
)

func init() {
	prometheus.MustRegister(
		scenarioRuns,
		scenarioDuration,
	)
}

func observe(scenario string, o Outcome) {
	scenarioRuns.WithLabelValues(scenario, string(o.Status)).Inc()
	scenarioDuration.WithLabelValues(scenario).Observe(o.Duration.Seconds())
}

// versionLabel groups pushed metrics by the harness version, "version" label
// is taken by go_info.
const versionLabel = "harness_version"

// PushMetrics pushes all metrics gathered by the process to the push gateway
// configured, nothing is done if there is no gateway.
func PushMetrics(cfg config.Metrics) error {
	if cfg.PushGateway == "" {
		return nil
	}
	err := push.New(cfg.PushGateway, cfg.Job).
		Grouping(versionLabel, config.Version).
		Gatherer(prometheus.DefaultGatherer).
		Push()
	if err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
