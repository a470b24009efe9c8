package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	commands       *prom.CounterVec
	transactions   *prom.CounterVec
	uploadDuration *prom.HistogramVec
	uploadResults  *prom.CounterVec
	saveResults    *prom.CounterVec
	openSessions   prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.commands = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdcms",
			Name:      "editor_commands_total",
			Help:      "Editor commands by name and result",
		}, []string{"command", "result"})
		pr.transactions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdcms",
			Name:      "editor_transactions_total",
			Help:      "Committed document transactions by source",
		}, []string{"source"})
		pr.uploadDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "mdcms",
			Name:      "image_upload_duration_seconds",
			Help:      "Duration of image uploads",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.uploadResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdcms",
			Name:      "image_upload_results_total",
			Help:      "Image upload outcomes",
		}, []string{"result"})
		pr.saveResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdcms",
			Name:      "content_saves_total",
			Help:      "Content saves by result",
		}, []string{"result"})
		pr.openSessions = prom.NewGauge(prom.GaugeOpts{
			Namespace: "mdcms",
			Name:      "editor_open_sessions",
			Help:      "Currently open editing sessions",
		})
		reg.MustRegister(pr.commands, pr.transactions, pr.uploadDuration, pr.uploadResults, pr.saveResults, pr.openSessions)
	})
	return pr
}

func (p *PrometheusRecorder) IncCommand(command string, result ResultLabel) {
	if p == nil || p.commands == nil {
		return
	}
	p.commands.WithLabelValues(command, string(result)).Inc()
}

func (p *PrometheusRecorder) IncTransaction(source TransactionSource) {
	if p == nil || p.transactions == nil {
		return
	}
	p.transactions.WithLabelValues(string(source)).Inc()
}

func (p *PrometheusRecorder) ObserveUploadDuration(d time.Duration, success bool) {
	if p == nil || p.uploadDuration == nil {
		return
	}
	p.uploadDuration.WithLabelValues(string(ResultFor(success))).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncUploadResult(result ResultLabel) {
	if p == nil || p.uploadResults == nil {
		return
	}
	p.uploadResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncSaveResult(result ResultLabel) {
	if p == nil || p.saveResults == nil {
		return
	}
	p.saveResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) SetOpenSessions(n int) {
	if p == nil || p.openSessions == nil {
		return
	}
	p.openSessions.Set(float64(n))
}
