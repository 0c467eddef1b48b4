package regheap

import (
	"time"

	"github.com/reusee/lazyphy/exprs"
)

// CollectGarbage reclaims registers unreachable from every live token,
// together with their steps and results.
//
// Marking is non-recursive. A register reachable in any token keeps
// everything its entries in every token refer to.
func (m *Machine) CollectGarbage() {
	if m.depth > 0 {
		throw("garbage collection during evaluation")
	}
	start := time.Now()

	marked := make([]bool, m.regs.size)
	var stack []int
	push := func(r int) {
		if r < 0 || marked[r] {
			return
		}
		marked[r] = true
		stack = append(stack, r)
	}

	for _, r := range m.roots() {
		push(r)
	}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reg := m.regs.access(r)
		for _, e := range reg.closure.Env {
			push(e)
		}
		if lit, ok := reg.closure.Expr.(exprs.Lit); ok {
			if list, ok := lit.Value.(exprs.List); ok {
				for _, e := range list {
					push(e)
				}
			}
		}
		for _, v := range reg.steps {
			s := m.steps.access(v.id)
			push(s.call)
			for _, u := range s.usedInputs {
				push(u.reg)
			}
			for _, c := range s.createdRegs {
				push(c)
			}
		}
		for _, v := range reg.results {
			push(m.results.access(v.id).value)
		}
	}

	var dead []int
	m.regs.each(func(i int, _ *Reg) {
		if !marked[i] {
			dead = append(dead, i)
		}
	})

	// detach reverse edges before any record is reset
	for _, r := range dead {
		reg := m.regs.access(r)
		for _, v := range reg.steps {
			m.clearBackEdgesForStep(v.id)
		}
		for _, v := range reg.results {
			m.clearBackEdgesForResult(v.id)
		}
	}
	nSteps, nResults := 0, 0
	for _, r := range dead {
		reg := m.regs.access(r)
		for len(reg.steps) > 0 {
			v := reg.steps[len(reg.steps)-1]
			reg.steps = reg.steps[:len(reg.steps)-1]
			m.eraseDeltaAt(v.token, stepEntry, v.pos)
			m.clearStep(v.id)
			m.steps.release(v.id)
			nSteps++
		}
		for len(reg.results) > 0 {
			v := reg.results[len(reg.results)-1]
			reg.results = reg.results[:len(reg.results)-1]
			m.eraseDeltaAt(v.token, resultEntry, v.pos)
			m.clearResult(v.id)
			m.results.release(v.id)
			nResults++
		}
	}
	for _, r := range dead {
		m.clear(r)
	}

	m.allocationsAtGC = m.allocations
	m.metrics.GCRuns.Inc()
	m.metrics.RegsReclaimed.Add(float64(len(dead)))
	m.logger.Debug("garbage collected",
		"regs", len(dead),
		"steps", nSteps,
		"results", nResults,
		"live", m.regs.live,
		"duration", time.Since(start),
	)
}

func (m *Machine) roots() []int {
	var ret []int
	ret = append(ret, m.heads...)
	ret = append(ret, m.tempHeads...)
	for _, r := range m.identifiers {
		ret = append(ret, r)
	}
	for _, p := range m.parameters {
		ret = append(ret, p.reg)
	}
	for _, r := range m.randoms {
		ret = append(ret, r.Reg)
	}
	for _, f := range m.factors {
		ret = append(ret, f.reg)
	}
	ret = append(ret, m.stack...)
	return ret
}
