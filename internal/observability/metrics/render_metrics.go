package metrics

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels attached to every render metric.
type Config struct {
	ServiceName string
	Environment string
}

// RenderMetrics tracks render outcomes across output formats.
type RenderMetrics struct {
	rendersTotal         *prometheus.CounterVec
	renderDuration       *prometheus.HistogramVec
	conversionRetries    prometheus.Counter
	templateCacheLookups *prometheus.CounterVec
}

var (
	renderMetricsOnce sync.Once
	renderMetrics     *RenderMetrics
)

func Render() *RenderMetrics {
	return RenderWithConfig(Config{})
}

func RenderWithConfig(cfg Config) *RenderMetrics {
	renderMetricsOnce.Do(func() {
		renderMetrics = newRenderMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return renderMetrics
}

func ResetRenderMetricsForTest() {
	renderMetricsOnce = sync.Once{}
	renderMetrics = nil
}

func newRenderMetrics(registerer prometheus.Registerer, cfg Config) *RenderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "docfactory"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	rendersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "docfactory_renders_total",
			Help:        "Completed render requests by output format and result.",
			ConstLabels: constLabels,
		},
		[]string{"format", "result"}, // result: success | <stage name>
	)

	renderDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "docfactory_render_duration_seconds",
			Help:        "End-to-end render latency by output format.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			ConstLabels: constLabels,
		},
		[]string{"format"},
	)

	conversionRetries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "docfactory_conversion_retries_total",
			Help:        "Retries of the external fixed-layout conversion call.",
			ConstLabels: constLabels,
		},
	)

	templateCacheLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "docfactory_template_cache_lookups_total",
			Help:        "Template bundle cache lookups by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"}, // hit | miss
	)

	for _, c := range []prometheus.Collector{rendersTotal, renderDuration, conversionRetries, templateCacheLookups} {
		if err := registerer.Register(c); err != nil {
			already := prometheus.AlreadyRegisteredError{}
			if errors.As(err, &already) {
				continue
			}
			panic(err)
		}
	}

	return &RenderMetrics{
		rendersTotal:         rendersTotal,
		renderDuration:       renderDuration,
		conversionRetries:    conversionRetries,
		templateCacheLookups: templateCacheLookups,
	}
}

// ObserveRender records one completed render attempt.
func (m *RenderMetrics) ObserveRender(format, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rendersTotal.WithLabelValues(format, result).Inc()
	m.renderDuration.WithLabelValues(format).Observe(elapsed.Seconds())
}

// ObserveConversionRetry counts one retry of the external converter.
func (m *RenderMetrics) ObserveConversionRetry() {
	if m == nil {
		return
	}
	m.conversionRetries.Inc()
}

// ObserveCacheLookup records a template cache hit or miss.
func (m *RenderMetrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.templateCacheLookups.WithLabelValues(outcome).Inc()
}
