package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once         sync.Once
	httpRequests *prom.CounterVec
	httpDuration *prom.HistogramVec
	daemonOps    *prom.CounterVec
	daemonUp     prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.httpRequests = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "panel",
			Name:      "http_requests_total",
			Help:      "HTTP requests served by path, method and status",
		}, []string{"path", "method", "status"})
		pr.httpDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "panel",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request handling duration by path",
			Buckets:   prom.DefBuckets,
		}, []string{"path"})
		pr.daemonOps = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "panel",
			Name:      "daemon_operations_total",
			Help:      "Daemon start/stop operations by outcome",
		}, []string{"operation", "result"})
		pr.daemonUp = prom.NewGauge(prom.GaugeOpts{
			Namespace: "panel",
			Name:      "daemon_up",
			Help:      "Whether the agent worker was running at last check",
		})
		reg.MustRegister(pr.httpRequests, pr.httpDuration, pr.daemonOps, pr.daemonUp)
	})
	return pr
}

func (p *PrometheusRecorder) IncHTTPRequest(path, method string, status int) {
	if p == nil || p.httpRequests == nil {
		return
	}
	p.httpRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) ObserveHTTPDuration(path string, d time.Duration) {
	if p == nil || p.httpDuration == nil {
		return
	}
	p.httpDuration.WithLabelValues(path).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDaemonOperation(operation string, success bool) {
	if p == nil || p.daemonOps == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.daemonOps.WithLabelValues(operation, res).Inc()
}

func (p *PrometheusRecorder) SetDaemonUp(running bool) {
	if p == nil || p.daemonUp == nil {
		return
	}
	if running {
		p.daemonUp.Set(1)
	} else {
		p.daemonUp.Set(0)
	}
}
