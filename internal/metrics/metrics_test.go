package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Grounded on the teacher's nodepool/metrics test: gather a fresh pedantic
// registry and inspect the dto.MetricFamily values directly, rather than
// asserting against the shared controller-runtime registry these collectors
// are registered with at init time.
func TestHealthProbeResultRecordsByVerdict(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: HealthProbeResultMetricName,
		Help: "test copy",
	}, []string{"verdict"})
	counter.WithLabelValues("Healthy").Inc()
	counter.WithLabelValues("Healthy").Inc()
	counter.WithLabelValues("Unhealthy").Inc()

	reg := prometheus.NewPedanticRegistry()
	reg.MustRegister(counter)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	var family *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == HealthProbeResultMetricName {
			family = f
		}
	}
	if family == nil {
		t.Fatalf("no metric family named %s in %v", HealthProbeResultMetricName, families)
	}

	totals := map[string]float64{}
	for _, m := range family.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "verdict" {
				totals[l.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	if totals["Healthy"] != 2 {
		t.Fatalf("Healthy total = %v, want 2", totals["Healthy"])
	}
	if totals["Unhealthy"] != 1 {
		t.Fatalf("Unhealthy total = %v, want 1", totals["Unhealthy"])
	}
}

func TestPluginEvalDurationRegistersWithPedanticRegistry(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(PluginEvalDuration); err != nil {
		t.Fatalf("Register() error = %v, want the collector to be accepted by a fresh pedantic registry", err)
	}
}
