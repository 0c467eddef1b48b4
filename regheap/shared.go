package regheap

// entryKind selects the step or result side of token deltas.
type entryKind uint8

const (
	stepEntry entryKind = iota
	resultEntry
)

func (m *Machine) versions(r int, kind entryKind) *[]version {
	reg := m.regs.access(r)
	if kind == stepEntry {
		return &reg.steps
	}
	return &reg.results
}

func (m *Machine) delta(t int, kind entryKind) *mapping {
	if kind == stepEntry {
		return &m.tokens[t].vmStep
	}
	return &m.tokens[t].vmResult
}

// visible follows the copy-on-write chain from t to the root.
func (m *Machine) visible(r int, t int, kind entryKind) (id int, owner int, ok bool) {
	list := *m.versions(r, kind)
	if len(list) == 0 {
		return -1, noToken, false
	}
	for ; t != noToken; t = m.tokens[t].parent {
		if i := findVersion(list, t); i >= 0 {
			return list[i].id, t, true
		}
	}
	return -1, noToken, false
}

// getSharedStep returns the step of r visible from t.
func (m *Machine) getSharedStep(r int, t int) (int, bool) {
	id, _, ok := m.visible(r, t, stepEntry)
	return id, ok
}

// getSharedResult returns the result of r visible from t.
func (m *Machine) getSharedResult(r int, t int) (int, bool) {
	id, _, ok := m.visible(r, t, resultEntry)
	return id, ok
}

// addSharedStep makes step the step of r in t. The previous step of r in t
// and the result built on it are destroyed; ancestors are untouched.
func (m *Machine) addSharedStep(r int, t int, step int) {
	m.removeEntry(r, t, resultEntry)
	m.setEntry(r, t, stepEntry, step)
}

// addSharedResult makes result the result of r in t, destroying the previous one.
func (m *Machine) addSharedResult(r int, t int, result int) {
	m.setEntry(r, t, resultEntry, result)
}

func (m *Machine) destroy(kind entryKind, id int) {
	if kind == stepEntry {
		m.destroyStep(id)
	} else {
		m.destroyResult(id)
	}
}

func (m *Machine) setEntry(r int, t int, kind entryKind, id int) {
	list := m.versions(r, kind)
	if i := findVersion(*list, t); i >= 0 {
		old := (*list)[i].id
		(*list)[i].id = id
		m.delta(t, kind).set((*list)[i].pos, id)
		m.destroy(kind, old)
		return
	}
	pos := m.delta(t, kind).add(r, id)
	*list = append(*list, version{
		token: t,
		id:    id,
		pos:   pos,
	})
}

// removeEntry destroys the entry of r in t, if any.
func (m *Machine) removeEntry(r int, t int, kind entryKind) {
	list := m.versions(r, kind)
	i := findVersion(*list, t)
	if i < 0 {
		return
	}
	v := (*list)[i]
	*list = removeVersion(*list, i)
	m.eraseDeltaAt(t, kind, v.pos)
	m.destroy(kind, v.id)
}

// eraseDeltaAt erases a delta pair and fixes the position of the pair moved into the hole.
func (m *Machine) eraseDeltaAt(t int, kind entryKind, pos int) {
	moved, ok := m.delta(t, kind).eraseAt(pos)
	if !ok {
		return
	}
	list := *m.versions(moved, kind)
	j := findVersion(list, t)
	if j < 0 {
		throw("register %d in delta of token %d has no version", moved, t)
	}
	list[j].pos = pos
}
