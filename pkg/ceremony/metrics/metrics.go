// Package metrics exposes the Prometheus collectors tracking ceremony
// lifecycle (spec.md §6 NEW), grounded on luxfi-consensus's
// protocol/nova.newMetrics shape: a struct of pre-built collectors,
// registered once against a caller-supplied prometheus.Registerer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Kind labels a ceremony metric by which protocol it belongs to.
type Kind string

const (
	KindKeygen  Kind = "keygen"
	KindSigning Kind = "signing"
)

// Metrics holds every collector the ceremony manager updates over a
// ceremony's lifetime.
type Metrics struct {
	ActiveCeremonies  *prometheus.GaugeVec
	Outcomes          *prometheus.CounterVec
	BlamedParties     *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
}

// New constructs the collector set without registering it.
func New() *Metrics {
	return &Metrics{
		ActiveCeremonies: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ceremony_active_total",
			Help: "Number of ceremonies currently in flight, by kind.",
		}, []string{"kind"}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ceremony_outcomes_total",
			Help: "Terminal ceremony outcomes, by kind and result.",
		}, []string{"kind", "result"}),
		BlamedParties: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ceremony_blamed_parties_total",
			Help: "Number of times a party was named in a ceremony's blame set.",
		}, []string{"kind"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ceremony_stage_duration_seconds",
			Help:    "Wall-clock time spent collecting a single stage's messages.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind", "stage"}),
	}
}

// Register registers every collector against reg. Callers typically do
// this once at process start.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.ActiveCeremonies, m.Outcomes, m.BlamedParties, m.StageDuration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// CeremonyStarted records a new in-flight ceremony of the given kind.
func (m *Metrics) CeremonyStarted(kind Kind) {
	m.ActiveCeremonies.WithLabelValues(string(kind)).Inc()
}

// CeremonyFinished records a ceremony leaving the in-flight set, along with
// its terminal result ("success", "timeout", "invalid", "unauthorised")
// and the number of parties blamed, if any.
func (m *Metrics) CeremonyFinished(kind Kind, result string, blamed int) {
	m.ActiveCeremonies.WithLabelValues(string(kind)).Dec()
	m.Outcomes.WithLabelValues(string(kind), result).Inc()
	if blamed > 0 {
		m.BlamedParties.WithLabelValues(string(kind)).Add(float64(blamed))
	}
}

// ObserveStageDuration records how long one stage took to collect its full
// message set.
func (m *Metrics) ObserveStageDuration(kind Kind, stage string, seconds float64) {
	m.StageDuration.WithLabelValues(string(kind), stage).Observe(seconds)
}
