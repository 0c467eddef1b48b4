package regheap

// usedInput is a dependency edge from a Step to the Result of a consulted register.
// backPos is the position of the reverse edge in the Result's usedBy.
type usedInput struct {
	reg     int
	result  handle
	backPos int
}

// Step records how a register was reduced in some token.
type Step struct {
	sourceReg   int
	call        int
	usedInputs  []usedInput
	createdRegs []int
}

func resetStep(s *Step) {
	s.sourceReg = -1
	s.call = -1
	s.usedInputs = s.usedInputs[:0]
	s.createdRegs = s.createdRegs[:0]
}

func (m *Machine) newStep(source int) int {
	id, _ := m.steps.allocate()
	s := m.steps.access(id)
	resetStep(s)
	s.sourceReg = source
	m.metrics.StepAllocations.Inc()
	return id
}

// clearStep tears a step down to its empty state.
// Reverse edges must already be detached.
func (m *Machine) clearStep(id int) {
	m.checkBackEdgesClearedForStep(id)
	s := m.steps.access(id)
	for _, r := range s.createdRegs {
		if m.regs.isUsed(r) {
			reg := m.regs.access(r)
			if reg.createdBy == id {
				reg.createdBy = -1
			}
		}
	}
	resetStep(s)
}

func (m *Machine) destroyStep(id int) {
	m.clearBackEdgesForStep(id)
	m.clearStep(id)
	m.steps.release(id)
}
