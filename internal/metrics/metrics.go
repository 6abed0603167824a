// Package metrics declares the Prometheus collectors this operator exposes
// beyond controller-runtime's built-in workqueue and client metrics. It is
// grounded on the teacher's KASHealthMetrics pattern
// (hostedcontrolplane/kas/metrics.go): plain prometheus.Collector values
// registered once with the controller-runtime registry so the manager's
// metrics endpoint serves them, no separate metrics server needed.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	crmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
)

const (
	HealthProbeDurationMetricName = "stellarnode_health_probe_duration_seconds"
	HealthProbeResultMetricName   = "stellarnode_health_probe_result_total"
	PluginEvalDurationMetricName  = "stellarnode_admission_plugin_eval_duration_seconds"
	PluginEvalFailureMetricName   = "stellarnode_admission_plugin_eval_failures_total"
)

var (
	// HealthProbeDuration records the latency of a single sync-status probe
	// (§4.D), independent of its verdict.
	HealthProbeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    HealthProbeDurationMetricName,
		Help:    "Latency of a single StellarNode sync-status probe.",
		Buckets: prometheus.DefBuckets,
	})

	// HealthProbeResult counts probe outcomes by verdict, so a node stuck
	// oscillating between Unknown and Unhealthy shows up without reading logs.
	HealthProbeResult = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: HealthProbeResultMetricName,
		Help: "Count of sync-status probe outcomes by verdict.",
	}, []string{"verdict"})

	// PluginEvalDuration records the latency of one plugin's Eval call (§4.I),
	// labeled by plugin name so a slow plugin is identifiable without tracing.
	PluginEvalDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    PluginEvalDurationMetricName,
		Help:    "Latency of a single admission plugin evaluation.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"plugin"})

	// PluginEvalFailure counts outcomes whose sandbox.FailureKind is not
	// FailureNone, labeled by
	// plugin and kind (§4.I's five deterministic failure modes).
	PluginEvalFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: PluginEvalFailureMetricName,
		Help: "Count of admission plugin evaluations that failed, by failure kind.",
	}, []string{"plugin", "kind"})
)

func init() {
	crmetrics.Registry.MustRegister(HealthProbeDuration, HealthProbeResult, PluginEvalDuration, PluginEvalFailure)
}
