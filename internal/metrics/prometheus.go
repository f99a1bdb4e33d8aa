package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hotbundle"

// Prometheus implements Recorder with Prometheus counters and a histogram.
type Prometheus struct {
	registry       *prom.Registry
	resolveTotal   *prom.CounterVec
	updateTotal    *prom.CounterVec
	updateDuration *prom.HistogramVec
}

// NewPrometheus registers the bundle metrics on reg, creating a fresh
// registry when reg is nil.
func NewPrometheus(reg *prom.Registry) *Prometheus {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	p := &Prometheus{
		registry: reg,
		resolveTotal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_total",
			Help:      "Bundle resolutions by outcome",
		}, []string{"outcome"}),
		updateTotal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "update_total",
			Help:      "Update attempts by outcome",
		}, []string{"outcome"}),
		updateDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "update_duration_seconds",
			Help:      "Duration of update attempts",
			Buckets:   prom.ExponentialBuckets(0.05, 2, 12),
		}, []string{"outcome"}),
	}
	reg.MustRegister(p.resolveTotal, p.updateTotal, p.updateDuration)
	return p
}

func (p *Prometheus) ObserveResolve(outcome string) {
	p.resolveTotal.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) ObserveUpdate(outcome string, d time.Duration) {
	p.updateTotal.WithLabelValues(outcome).Inc()
	p.updateDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Registry returns the registry the metrics live in.
func (p *Prometheus) Registry() *prom.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
