package executor

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pseudomuto/txkeeper/pkg/fault"
)

// Metrics are the executor's prometheus collectors.
type Metrics struct {
	Attempts           prometheus.Counter
	Commits            prometheus.Counter
	Rollbacks          prometheus.Counter
	ConnectionRetries  prometheus.Counter
	TransactionRetries prometheus.Counter
	Failures           *prometheus.CounterVec
}

// NewMetrics creates an unregistered set of collectors.
func NewMetrics() *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "txkeeper",
			Subsystem: "executor",
			Name:      name,
			Help:      help,
		})
	}

	return &Metrics{
		Attempts:           counter("attempts_total", "number of transaction attempts started."),
		Commits:            counter("commits_total", "number of transactions committed."),
		Rollbacks:          counter("rollbacks_total", "number of transactions rolled back."),
		ConnectionRetries:  counter("connection_retries_total", "number of times a session was reacquired after a connection fault."),
		TransactionRetries: counter("transaction_retries_total", "number of attempts replayed after a transient fault."),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "txkeeper",
			Subsystem: "executor",
			Name:      "failures_total",
			Help:      "number of calls that ended in a terminal failure, by kind.",
		}, []string{"kind"}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.Attempts,
		m.Commits,
		m.Rollbacks,
		m.ConnectionRetries,
		m.TransactionRetries,
		m.Failures,
	} {
		if err := reg.Register(c); err != nil {
			return errors.Wrap(err, "unable to register metric")
		}
	}

	return nil
}

func (m *Metrics) failed(err error) {
	if kind, ok := fault.KindOf(err); ok {
		m.Failures.WithLabelValues(string(kind)).Inc()
	}
}
