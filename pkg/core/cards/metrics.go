package cards

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for card ingestion and rendering.
type Metrics struct {
	appended   *prometheus.CounterVec
	duplicates prometheus.Counter
	evicted    prometheus.Counter
	renders    *prometheus.CounterVec
}

// NewMetrics registers the card collectors with reg. Collectors that are
// already registered (a second store in the same process, tests) are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		appended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reportviz",
			Subsystem: "cards",
			Name:      "appended_total",
			Help:      "Cards added to the visualization store, by card type.",
		}, []string{"type"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reportviz",
			Subsystem: "cards",
			Name:      "duplicate_total",
			Help:      "Append calls ignored because the card id was already present.",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reportviz",
			Subsystem: "cards",
			Name:      "evicted_total",
			Help:      "Cards dropped because the store reached capacity.",
		}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reportviz",
			Subsystem: "cards",
			Name:      "render_attempts_total",
			Help:      "Render calls against the external boundary, by outcome.",
		}, []string{"outcome"}),
	}

	m.appended = register(reg, m.appended).(*prometheus.CounterVec)
	m.duplicates = register(reg, m.duplicates).(prometheus.Counter)
	m.evicted = register(reg, m.evicted).(prometheus.Counter)
	m.renders = register(reg, m.renders).(*prometheus.CounterVec)
	return m
}

func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector
		}
		panic(err)
	}
	return c
}

func (m *Metrics) incAppended(cardType string) {
	if m == nil {
		return
	}
	m.appended.WithLabelValues(cardType).Inc()
}

func (m *Metrics) incDuplicate() {
	if m == nil {
		return
	}
	m.duplicates.Inc()
}

func (m *Metrics) incEvicted() {
	if m == nil {
		return
	}
	m.evicted.Inc()
}

func (m *Metrics) incRender(outcome string) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(outcome).Inc()
}
