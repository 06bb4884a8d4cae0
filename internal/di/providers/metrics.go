package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"

	"github.com/quillnotes/quill-server/internal/config"
	"github.com/quillnotes/quill-server/internal/metrics"
)

// MetricsHandle holds the Prometheus registry and collector.
// Collector is nil when metrics are disabled.
type MetricsHandle struct {
	Registry  *prometheus.Registry
	Collector *metrics.Collector
}

// Recorder returns the collector, or a no-op when metrics are disabled.
func (h *MetricsHandle) Recorder() metrics.Recorder {
	if h.Collector == nil {
		return metrics.Noop{}
	}
	return h.Collector
}

// ProvideMetrics provides the Prometheus collector.
func ProvideMetrics(i do.Injector) (*MetricsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	if !cfg.Features.MetricsEnabled {
		return &MetricsHandle{}, nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsHandle{
		Registry:  reg,
		Collector: metrics.NewCollector(reg),
	}, nil
}
