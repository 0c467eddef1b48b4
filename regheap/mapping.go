package regheap

type pair struct {
	reg   int
	value int
}

// mapping is the ordered association list behind a token delta.
// Positions are stable until eraseAt, which moves the last pair into the hole.
type mapping struct {
	pairs []pair
}

func (m *mapping) add(reg, value int) int {
	m.pairs = append(m.pairs, pair{
		reg:   reg,
		value: value,
	})
	return len(m.pairs) - 1
}

// eraseAt removes the pair at pos. If another pair moved into pos, its register is returned.
func (m *mapping) eraseAt(pos int) (moved int, ok bool) {
	last := len(m.pairs) - 1
	if pos < 0 || pos > last {
		throw("mapping position %d out of range [0, %d]", pos, last)
	}
	if pos != last {
		m.pairs[pos] = m.pairs[last]
		moved, ok = m.pairs[pos].reg, true
	}
	m.pairs = m.pairs[:last]
	return
}

func (m *mapping) at(pos int) pair {
	return m.pairs[pos]
}

func (m *mapping) set(pos int, value int) {
	m.pairs[pos].value = value
}

func (m *mapping) size() int {
	return len(m.pairs)
}

func (m *mapping) empty() bool {
	return len(m.pairs) == 0
}

func (m *mapping) clear() {
	m.resize(0)
}

// resize truncates or extends with unset pairs.
func (m *mapping) resize(n int) {
	for len(m.pairs) < n {
		m.pairs = append(m.pairs, pair{reg: -1, value: -1})
	}
	m.pairs = m.pairs[:n]
}
