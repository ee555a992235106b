package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catbattle"

// PrometheusRecorder implements Recorder using Prometheus counters.
type PrometheusRecorder struct {
	reg     *prom.Registry
	saves   *prom.CounterVec
	loads   *prom.CounterVec
	clears  *prom.CounterVec
	actions *prom.CounterVec
}

// NewPrometheusRecorder registers its counters on reg, or on a fresh
// registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		saves: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "storage_saves_total",
			Help:      "Writes of the progress envelope by result",
		}, []string{"result"}),
		loads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "storage_loads_total",
			Help:      "Reads of the progress envelope by outcome",
		}, []string{"outcome"}),
		clears: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "storage_clears_total",
			Help:      "Erasures of the progress envelope by result",
		}, []string{"result"}),
		actions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "store_actions_total",
			Help:      "Progress mutations by action",
		}, []string{"action"}),
	}
	reg.MustRegister(pr.saves, pr.loads, pr.clears, pr.actions)
	return pr
}

func (p *PrometheusRecorder) IncSave(ok bool) {
	p.saves.WithLabelValues(resultLabel(ok)).Inc()
}

func (p *PrometheusRecorder) IncLoad(outcome LoadOutcome) {
	p.loads.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncClear(ok bool) {
	p.clears.WithLabelValues(resultLabel(ok)).Inc()
}

func (p *PrometheusRecorder) IncAction(name string) {
	p.actions.WithLabelValues(name).Inc()
}

// Handler serves the recorder's registry in the Prometheus text format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
