package regheap

// backEdge names the used-input slot of a Step that depends on a Result.
type backEdge struct {
	step int
	slot int
}

// Result is the memoized value of a register in some token.
type Result struct {
	sourceReg  int
	sourceStep handle
	value      int

	callResult  handle
	callBackPos int

	usedBy   []backEdge
	calledBy []int

	// modifiables this value depends on, one bit per modifiableBit
	deps uint64
	// token states this result was last verified in, most recent first
	verified [2]int64
}

func resetResult(r *Result) {
	r.sourceReg = -1
	r.sourceStep = noHandle
	r.value = -1
	r.callResult = noHandle
	r.callBackPos = -1
	r.usedBy = r.usedBy[:0]
	r.calledBy = r.calledBy[:0]
	r.deps = 0
	r.verified = [2]int64{}
}

func (m *Machine) newResult(source int, step handle, value int, deps uint64) int {
	id, _ := m.results.allocate()
	r := m.results.access(id)
	resetResult(r)
	r.sourceReg = source
	r.sourceStep = step
	r.value = value
	r.deps = deps
	m.metrics.ResultAllocations.Inc()
	return id
}

// clearResult tears a result down to its empty state.
// Reverse edges must already be detached.
func (m *Machine) clearResult(id int) {
	m.checkBackEdgesClearedForResult(id)
	resetResult(m.results.access(id))
}

func (m *Machine) destroyResult(id int) {
	m.clearBackEdgesForResult(id)
	m.clearResult(id)
	m.results.release(id)
}

func (m *Machine) markVerified(r *Result, t int) {
	state := m.tokens[t].state
	if r.verified[0] == state {
		return
	}
	r.verified[1] = r.verified[0]
	r.verified[0] = state
}

// isVerified reports whether r is known to hold in token t without consulting its inputs.
//
// A mark is a token state. It holds in a token whose current state is the mark,
// or whose history reaches the mark through changes r does not depend on.
// Walking to the parent is allowed while the token did not change anything r depends on.
func (m *Machine) isVerified(r *Result, t int) bool {
	for t != noToken {
		tk := m.tokens[t]
		for _, mark := range r.verified {
			if mark == 0 {
				continue
			}
			if mark == tk.state {
				return true
			}
			for _, h := range tk.history {
				if h.state == mark && h.changes&r.deps == 0 {
					return true
				}
			}
		}
		if tk.changes&r.deps != 0 {
			return false
		}
		t = tk.parent
	}
	return false
}
