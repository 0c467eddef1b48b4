package regheap

import (
	"fmt"

	"github.com/reusee/lazyphy/logs"
)

// Machine is the register machine: the register arena, the step and result
// pools, the token tree and the contexts bound to it.
//
// A Machine is not safe for concurrent use.
type Machine struct {
	config  Config
	logger  logs.Logger
	metrics *Metrics

	regs    *pool[Reg]
	steps   *pool[Step]
	results *pool[Result]

	tokens       []*Token
	unusedTokens []int
	root         int
	lastState    int64

	contexts       []int
	unusedContexts []int

	heads       []int
	tempHeads   []int
	identifiers map[string]int
	parameters  []namedReg
	randoms     []RandomModifiable

	factors    []factor
	constantPr float64
	nZeroConst int

	// registers being reduced
	stack []int
	// nesting of public operations
	depth int

	allocations     int
	allocationsAtGC int
	totalReductions int
}

type namedReg struct {
	name string
	reg  int
}

func NewMachine(
	config Config,
	logger logs.Logger,
	metrics *Metrics,
) *Machine {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	m := &Machine{
		config:      config,
		logger:      logger,
		metrics:     metrics,
		regs:        newPool("register", config.ArenaBlock, resetReg),
		steps:       newPool("step", config.ArenaBlock, resetStep),
		results:     newPool("result", config.ArenaBlock, resetResult),
		identifiers: make(map[string]int),
	}
	m.root = m.getUnusedToken()
	return m
}

func (m *Machine) Config() Config {
	return m.config
}

// Root returns the root token.
func (m *Machine) Root() int {
	return m.root
}

// enter marks the start of a public operation that may evaluate.
// Garbage collection only happens here, when nothing is being evaluated.
func (m *Machine) enter() {
	if m.depth == 0 {
		m.maybeCollectGarbage()
	}
	m.depth++
}

func (m *Machine) leave() {
	m.depth--
	if m.depth == 0 {
		m.afterOperation()
	}
}

func (m *Machine) afterOperation() {
	if m.depth > 0 || !m.config.CheckInvariants {
		return
	}
	if err := m.Check(); err != nil {
		throw("%v", err)
	}
}

func (m *Machine) maybeCollectGarbage() {
	if m.config.GCThreshold <= 0 {
		return
	}
	if m.allocations-m.allocationsAtGC < m.config.GCThreshold {
		return
	}
	m.CollectGarbage()
}

type Stats struct {
	Regs        int
	RegCapacity int
	Steps       int
	Results     int
	Tokens      int
	Contexts    int
	Reductions  int
	Allocations int
	ArenaBytes  int64
}

// reg, step and result slot sizes are approximations for reporting
const (
	approxRegBytes    = 128
	approxStepBytes   = 96
	approxResultBytes = 120
)

func (m *Machine) Stats() Stats {
	tokens := 0
	for _, t := range m.tokens {
		if t.used {
			tokens++
		}
	}
	return Stats{
		Regs:        m.regs.live,
		RegCapacity: m.regs.capacity(),
		Steps:       m.steps.live,
		Results:     m.results.live,
		Tokens:      tokens,
		Contexts:    len(m.contexts) - len(m.unusedContexts),
		Reductions:  m.totalReductions,
		Allocations: m.allocations,
		ArenaBytes: int64(m.regs.capacity())*approxRegBytes +
			int64(m.steps.capacity())*approxStepBytes +
			int64(m.results.capacity())*approxResultBytes,
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("regs=%d/%d steps=%d results=%d tokens=%d contexts=%d reductions=%d",
		s.Regs, s.RegCapacity, s.Steps, s.Results, s.Tokens, s.Contexts, s.Reductions)
}
