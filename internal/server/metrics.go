package server

import "github.com/prometheus/client_golang/prometheus"

// metrics are the counters the debug HTTP surface exposes at /metrics.
// None of them feed back into consistency decisions — they are purely
// observational.
type metrics struct {
	writesTotal       *prometheus.CounterVec
	readsTotal        *prometheus.CounterVec
	quorumFailures    prometheus.Counter
	propagationRounds *prometheus.CounterVec
}

func newMetrics(reg *prometheus.Registry) *metrics {
	m := &metrics{
		writesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bulletinboard_writes_total",
			Help: "Article writes accepted by this server, by outcome.",
		}, []string{"outcome"}),
		readsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bulletinboard_reads_total",
			Help: "Quorum-mode read requests served by this server, by kind. Local reads in Sequential and Read-Your-Writes modes are not counted.",
		}, []string{"kind"}),
		quorumFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bulletinboard_quorum_write_failures_total",
			Help: "Quorum writes that failed to collect NW acks.",
		}),
		propagationRounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bulletinboard_propagation_rounds_total",
			Help: "Completed background propagation/anti-entropy rounds, by mode.",
		}, []string{"mode"}),
	}
	reg.MustRegister(m.writesTotal, m.readsTotal, m.quorumFailures, m.propagationRounds)
	return m
}
