package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks reference resolution outcomes and snapshot creation.
type Metrics struct {
	Resolutions             *prometheus.CounterVec
	CrossOwnerRejections    prometheus.Counter
	SnapshotsCreated        prometheus.Counter
	SnapshotCreateDuration  prometheus.Histogram
	ResolveChainDuration    prometheus.Histogram
	ShareConfigWriteFailure prometheus.Counter
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer lets tests register against a private registry so repeated
// construction does not panic on duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "talent_portfolio_resolutions_total",
			Help: "Reference resolutions by the strategy that produced the result",
		}, []string{"strategy"}),
		CrossOwnerRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "talent_portfolio_cross_owner_rejections_total",
			Help: "Numeric bank references rejected because the item belongs to another owner",
		}),
		SnapshotsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "talent_portfolio_snapshots_created_total",
			Help: "Total number of disclosure snapshots created",
		}),
		SnapshotCreateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "talent_portfolio_snapshot_create_duration_seconds",
			Help:    "Duration of snapshot creation (load, compose, insert)",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		ResolveChainDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "talent_portfolio_resolve_chain_duration_seconds",
			Help:    "Duration of a single reference resolution across all strategies",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ShareConfigWriteFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "talent_portfolio_share_config_write_failures_total",
			Help: "Share configuration writes that failed and were rolled back",
		}),
	}
}

func (m *Metrics) IncResolution(strategy string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(strategy).Inc()
}

func (m *Metrics) IncCrossOwnerRejection() {
	if m == nil {
		return
	}
	m.CrossOwnerRejections.Inc()
}

func (m *Metrics) IncShareConfigWriteFailure() {
	if m == nil {
		return
	}
	m.ShareConfigWriteFailure.Inc()
}

// ObserveSnapshotCreate records a successful snapshot creation started at start.
func (m *Metrics) ObserveSnapshotCreate(start time.Time) {
	if m == nil {
		return
	}
	m.SnapshotsCreated.Inc()
	m.SnapshotCreateDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveResolveChain(start time.Time) {
	if m == nil {
		return
	}
	m.ResolveChainDuration.Observe(time.Since(start).Seconds())
}
