package sensor

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/raterudder/apsystems-sensor/pkg/types"
)

// Metrics instruments polls. A nil *Metrics records nothing.
type Metrics struct {
	polls   *prometheus.CounterVec
	reading *prometheus.GaugeVec
	cache   *prometheus.CounterVec
}

// NewMetrics creates the poll metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apsystems_polls_total",
			Help: "Polls of the EMA cloud by mode and outcome",
		}, []string{"mode", "outcome"}),
		reading: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "apsystems_reading",
			Help: "Last reading returned to the host (W or kWh depending on kind)",
		}, []string{"kind"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apsystems_transport_cache_total",
			Help: "Response cache lookups by result (hit, miss, stale)",
		}, []string{"result"}),
	}
	reg.MustRegister(m.polls, m.reading, m.cache)
	return m
}

func (m *Metrics) observe(r types.Reading) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(string(r.Mode), string(r.Outcome)).Inc()
	m.reading.WithLabelValues(string(r.Kind)).Set(r.Value)
}

func (m *Metrics) cacheCounter() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.cache
}
