package regheap

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Reductions        prometheus.Counter
	RegAllocations    prometheus.Counter
	StepAllocations   prometheus.Counter
	ResultAllocations prometheus.Counter
	KnuckleMerges     prometheus.Counter
	GCRuns            prometheus.Counter
	RegsReclaimed     prometheus.Counter
	Tokens            prometheus.Gauge
}

// NewMetrics creates the machine metrics and registers them to reg if it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lazyphy",
			Subsystem: "regheap",
			Name:      name,
			Help:      help,
		})
	}
	m := &Metrics{
		Reductions:        counter("reductions_total", "Reductions performed."),
		RegAllocations:    counter("reg_allocations_total", "Registers allocated."),
		StepAllocations:   counter("step_allocations_total", "Steps allocated."),
		ResultAllocations: counter("result_allocations_total", "Results allocated."),
		KnuckleMerges:     counter("knuckle_merges_total", "Knuckle tokens merged."),
		GCRuns:            counter("gc_runs_total", "Garbage collections."),
		RegsReclaimed:     counter("regs_reclaimed_total", "Registers reclaimed by garbage collection."),
		Tokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lazyphy",
			Subsystem: "regheap",
			Name:      "tokens",
			Help:      "Tokens in use.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Reductions,
			m.RegAllocations,
			m.StepAllocations,
			m.ResultAllocations,
			m.KnuckleMerges,
			m.GCRuns,
			m.RegsReclaimed,
			m.Tokens,
		)
	}
	return m
}
