package regheap

// setUsedInput records that step consulted reg and saw result.
func (m *Machine) setUsedInput(step int, reg int, result handle) {
	s := m.steps.access(step)
	res := m.results.get(result)
	s.usedInputs = append(s.usedInputs, usedInput{
		reg:     reg,
		result:  result,
		backPos: len(res.usedBy),
	})
	res.usedBy = append(res.usedBy, backEdge{
		step: step,
		slot: len(s.usedInputs) - 1,
	})
}

// setCall records that result res forwards to the result target.
func (m *Machine) setCall(res int, target handle) {
	r := m.results.access(res)
	if r.callResult.valid() {
		throw("result %d already has a call edge", res)
	}
	t := m.results.get(target)
	r.callResult = target
	r.callBackPos = len(t.calledBy)
	t.calledBy = append(t.calledBy, res)
}

func (m *Machine) clearBackEdgesForStep(id int) {
	s := m.steps.access(id)
	for slot := range s.usedInputs {
		u := &s.usedInputs[slot]
		if !u.result.valid() {
			continue
		}
		res := m.results.get(u.result)
		last := len(res.usedBy) - 1
		if res.usedBy[u.backPos] != (backEdge{step: id, slot: slot}) {
			throw("step %d slot %d: reverse edge mismatch", id, slot)
		}
		if u.backPos != last {
			moved := res.usedBy[last]
			res.usedBy[u.backPos] = moved
			m.steps.access(moved.step).usedInputs[moved.slot].backPos = u.backPos
		}
		res.usedBy = res.usedBy[:last]
		u.result = noHandle
		u.backPos = -1
	}
}

func (m *Machine) clearBackEdgesForResult(id int) {
	r := m.results.access(id)

	// as a caller
	if r.callResult.valid() {
		t := m.results.get(r.callResult)
		last := len(t.calledBy) - 1
		if t.calledBy[r.callBackPos] != id {
			throw("result %d: call reverse edge mismatch", id)
		}
		if r.callBackPos != last {
			moved := t.calledBy[last]
			t.calledBy[r.callBackPos] = moved
			m.results.access(moved).callBackPos = r.callBackPos
		}
		t.calledBy = t.calledBy[:last]
		r.callResult = noHandle
		r.callBackPos = -1
	}

	// dependents lose their edges; they no longer validate
	for _, e := range r.usedBy {
		u := &m.steps.access(e.step).usedInputs[e.slot]
		u.result = noHandle
		u.backPos = -1
	}
	r.usedBy = r.usedBy[:0]
	for _, c := range r.calledBy {
		caller := m.results.access(c)
		caller.callResult = noHandle
		caller.callBackPos = -1
	}
	r.calledBy = r.calledBy[:0]
}

func (m *Machine) checkBackEdgesClearedForStep(id int) {
	s := m.steps.access(id)
	for slot, u := range s.usedInputs {
		if u.result.valid() {
			throw("step %d: used input %d still has a reverse edge", id, slot)
		}
	}
}

func (m *Machine) checkBackEdgesClearedForResult(id int) {
	r := m.results.access(id)
	if r.callResult.valid() {
		throw("result %d: call edge not cleared", id)
	}
	if len(r.usedBy) > 0 {
		throw("result %d: %d used-by edges not cleared", id, len(r.usedBy))
	}
	if len(r.calledBy) > 0 {
		throw("result %d: %d called-by edges not cleared", id, len(r.calledBy))
	}
}
