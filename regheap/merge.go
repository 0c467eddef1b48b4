package regheap

import "slices"

// releaseKnuckleTokens merges t with its only child while t is an unreferenced knuckle.
// It returns the surviving token.
//
// The root always survives. Otherwise the token with the larger delta survives,
// so the smaller delta is the one that gets moved.
func (m *Machine) releaseKnuckleTokens(t int) int {
	for {
		tk := m.tokens[t]
		if tk.nContextRefs > 0 || len(tk.children) != 1 {
			return t
		}
		child := tk.children[0]
		ck := m.tokens[child]
		m.logger.Debug("merge knuckle token",
			"token", t,
			"child", child,
			"delta", tk.deltaSize(),
			"child delta", ck.deltaSize(),
		)
		if t == m.root || tk.deltaSize() >= ck.deltaSize() {
			m.mergeChildIntoParent(t, child)
		} else {
			m.mergeParentIntoChild(t, child)
			t = child
		}
		m.metrics.KnuckleMerges.Inc()
	}
}

// mergeChildIntoParent: parent takes over the delta, children, contexts and state of child.
func (m *Machine) mergeChildIntoParent(parent, child int) {
	p := m.tokens[parent]
	c := m.tokens[child]

	m.mergeSplitMappings(parent, child, true)

	p.children = append(p.children[:0], c.children...)
	for _, g := range c.children {
		m.tokens[g].parent = parent
	}
	c.children = c.children[:0]
	for ctx, t := range m.contexts {
		if t == child {
			m.contexts[ctx] = parent
		}
	}
	p.nContextRefs = c.nContextRefs
	c.nContextRefs = 0

	// parent now has the semantics of child
	history := make([]stateRecord, 0, len(p.history)+len(c.history)+1)
	for _, h := range p.history {
		history = append(history, stateRecord{
			state:   h.state,
			changes: h.changes | c.changes,
		})
	}
	history = append(history, stateRecord{
		state:   p.state,
		changes: c.changes,
	})
	history = append(history, c.history...)
	p.history = trimHistory(history)
	p.state = c.state
	p.changes |= c.changes
	if c.prob != nil {
		p.prob = c.prob
	}

	m.freeToken(child)
}

// mergeParentIntoChild: child takes over the unshadowed delta and the place of parent.
func (m *Machine) mergeParentIntoChild(parent, child int) {
	p := m.tokens[parent]
	c := m.tokens[child]

	m.mergeSplitMappings(child, parent, false)

	grand := p.parent
	c.parent = grand
	if grand != noToken {
		g := m.tokens[grand]
		i := slices.Index(g.children, parent)
		if i < 0 {
			throw("token %d is not a child of its parent %d", parent, grand)
		}
		g.children[i] = child
	}
	p.children = p.children[:0]

	history := make([]stateRecord, 0, len(p.history)+len(c.history)+1)
	for _, h := range p.history {
		history = append(history, stateRecord{
			state:   h.state,
			changes: h.changes | c.changes,
		})
	}
	history = append(history, stateRecord{
		state:   p.state,
		changes: c.changes,
	})
	history = append(history, c.history...)
	c.history = trimHistory(history)
	c.changes |= p.changes
	if c.prob == nil {
		c.prob = p.prob
	}

	m.freeToken(parent)
}

// mergeSplitMappings moves the delta of src into dst.
// Where both hold an entry for a register, the entry of src wins if srcWins,
// otherwise the entry of dst is kept. Losing entries are destroyed.
// After the merge src has an empty delta.
func (m *Machine) mergeSplitMappings(dst, src int, srcWins bool) {
	var lostSteps, lostResults []int
	for _, kind := range []entryKind{stepEntry, resultEntry} {
		from := m.delta(src, kind)
		for _, p := range from.pairs {
			list := *m.versions(p.reg, kind)
			si := findVersion(list, src)
			if si < 0 {
				throw("register %d in delta of token %d has no version", p.reg, src)
			}
			di := findVersion(list, dst)

			var lost int
			switch {
			case di < 0:
				// move
				list[si].token = dst
				list[si].pos = m.delta(dst, kind).add(p.reg, p.value)
				continue
			case srcWins:
				lost = list[di].id
				list[di].id = p.value
				m.delta(dst, kind).set(list[di].pos, p.value)
			default:
				lost = p.value
			}
			list = removeVersion(list, si)
			*m.versions(p.reg, kind) = list
			if kind == stepEntry {
				lostSteps = append(lostSteps, lost)
			} else {
				lostResults = append(lostResults, lost)
			}
		}
		from.clear()
	}

	for _, id := range lostSteps {
		m.clearBackEdgesForStep(id)
	}
	for _, id := range lostResults {
		m.clearBackEdgesForResult(id)
	}
	for _, id := range lostSteps {
		m.clearStep(id)
		m.steps.release(id)
	}
	for _, id := range lostResults {
		m.clearResult(id)
		m.results.release(id)
	}
}
