package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inventar"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once               sync.Once
	reg                *prom.Registry
	transitions        *prom.CounterVec
	transitionDuration prom.Histogram
	integrityWarnings  *prom.CounterVec
	cacheLookups       *prom.CounterVec
	cacheInvalidations prom.Counter
	auditFindings      prom.Gauge
	httpDuration       *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.once.Do(func() {
		pr.transitions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Status transitions by source, target and outcome",
		}, []string{"from", "to", "result"})
		pr.transitionDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "transition_duration_seconds",
			Help:      "Duration of status transition transactions",
			Buckets:   prom.DefBuckets,
		})
		pr.integrityWarnings = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "integrity_warnings_total",
			Help:      "Status/usage history mismatches observed",
		}, []string{"problem"})
		pr.cacheLookups = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Read cache lookups by result",
		}, []string{"result"})
		pr.cacheInvalidations = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cache_tag_invalidations_total",
			Help:      "Cache tags invalidated by writes",
		})
		pr.auditFindings = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_findings",
			Help:      "Items failing the invariant audit at the last run",
		})
		pr.httpDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route and status",
			Buckets:   prom.DefBuckets,
		}, []string{"method", "route", "status"})
		reg.MustRegister(pr.transitions, pr.transitionDuration, pr.integrityWarnings, pr.cacheLookups, pr.cacheInvalidations, pr.auditFindings, pr.httpDuration)
	})
	return pr
}

// Handler serves the recorder's registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) IncTransition(from, to string, result ResultLabel) {
	if p == nil || p.transitions == nil {
		return
	}
	p.transitions.WithLabelValues(from, to, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveTransitionDuration(d time.Duration) {
	if p == nil || p.transitionDuration == nil {
		return
	}
	p.transitionDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncIntegrityWarning(problem string) {
	if p == nil || p.integrityWarnings == nil {
		return
	}
	p.integrityWarnings.WithLabelValues(problem).Inc()
}

func (p *PrometheusRecorder) IncCacheLookup(hit bool) {
	if p == nil || p.cacheLookups == nil {
		return
	}
	res := "miss"
	if hit {
		res = "hit"
	}
	p.cacheLookups.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) AddCacheInvalidations(tags int) {
	if p == nil || p.cacheInvalidations == nil {
		return
	}
	p.cacheInvalidations.Add(float64(tags))
}

func (p *PrometheusRecorder) SetAuditFindings(n int) {
	if p == nil || p.auditFindings == nil {
		return
	}
	p.auditFindings.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if p == nil || p.httpDuration == nil {
		return
	}
	p.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
