package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
)

// Prometheus records governance job outcomes on the given registerer.
type Prometheus struct {
	batchItems       *prometheus.CounterVec
	riskScores       prometheus.Histogram
	dispatchFailures *prometheus.CounterVec
}

func NewPrometheus(registry prometheus.Registerer) *Prometheus {
	factory := promauto.With(registry)
	return &Prometheus{
		batchItems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "governance_batch_items_total",
			Help: "Batch job items processed, by job and outcome",
		}, []string{"job", "outcome"}),
		riskScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "governance_risk_score",
			Help:    "Distribution of computed behavior risk scores",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		dispatchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "governance_dispatch_failures_total",
			Help: "Push and email dispatch failures, by channel",
		}, []string{"channel"}),
	}
}

func (p *Prometheus) ObserveBatchItem(job, outcome string) {
	p.batchItems.WithLabelValues(job, outcome).Inc()
}

func (p *Prometheus) ObserveRiskScore(score int) {
	p.riskScores.Observe(float64(score))
}

func (p *Prometheus) ObserveDispatchFailure(channel string) {
	p.dispatchFailures.WithLabelValues(channel).Inc()
}

var _ ports.Metrics = (*Prometheus)(nil)
