package regheap

import (
	"github.com/reusee/lazyphy/exprs"
)

type regKind uint8

const (
	kindUnknown regKind = iota
	kindIndexVar
	kindConstant
	kindChangeable
)

func (k regKind) String() string {
	switch k {
	case kindIndexVar:
		return "index-var"
	case kindConstant:
		return "constant"
	case kindChangeable:
		return "changeable"
	}
	return "unknown"
}

// version locates the Step or Result a token holds for a register:
// id in the step or result pool, pos in the token mapping.
type version struct {
	token int
	id    int
	pos   int
}

type Reg struct {
	closure   exprs.Closure
	kind      regKind
	nHeads    int
	createdBy int

	// entries of every token delta holding this register
	steps   []version
	results []version

	evaluating bool
}

func resetReg(r *Reg) {
	r.closure = exprs.Closure{}
	r.kind = kindUnknown
	r.nHeads = 0
	r.createdBy = -1
	r.steps = r.steps[:0]
	r.results = r.results[:0]
	r.evaluating = false
}

func (r *Reg) isModifiable() bool {
	_, ok := r.closure.Expr.(exprs.Modifiable)
	return ok
}

func findVersion(list []version, token int) int {
	for i, v := range list {
		if v.token == token {
			return i
		}
	}
	return -1
}

func removeVersion(list []version, i int) []version {
	last := len(list) - 1
	list[i] = list[last]
	return list[:last]
}

// modifiableBit is the dependency bit of a modifiable register.
func modifiableBit(r int) uint64 {
	return 1 << (uint(r) % 64)
}

// allocate returns a fresh register holding c.
func (m *Machine) allocate(c exprs.Closure) int {
	r, grown := m.regs.allocate()
	reg := m.regs.access(r)
	resetReg(reg)
	reg.closure = c
	m.allocations++
	m.metrics.RegAllocations.Inc()
	if grown {
		m.logger.Debug("register arena grown",
			"capacity", m.regs.capacity(),
		)
	}
	return r
}

// clear resets a register and makes its slot reusable.
// Only the garbage collector calls it.
func (m *Machine) clear(r int) {
	reg := m.regs.access(r)
	if len(reg.steps) > 0 || len(reg.results) > 0 {
		throw("clearing register %d with live steps or results", r)
	}
	m.regs.release(r)
}

// access is the checked register accessor.
func (m *Machine) access(r int) *Reg {
	return m.regs.access(r)
}
