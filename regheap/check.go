package regheap

import (
	"errors"
	"fmt"
	"slices"
)

// Check verifies the token tree, the token deltas and the symmetry of
// dependency edges. It reports every violation found.
func (m *Machine) Check() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	// contexts
	refs := make(map[int]int)
	for c, t := range m.contexts {
		if t == noToken {
			continue
		}
		if t < 0 || t >= len(m.tokens) || !m.tokens[t].used {
			fail("context %d bound to unused token %d", c, t)
			continue
		}
		refs[t]++
	}

	// token tree
	if !m.tokens[m.root].used || m.tokens[m.root].parent != noToken {
		fail("bad root token %d", m.root)
	}
	for t, tk := range m.tokens {
		if !tk.used {
			continue
		}
		if tk.nContextRefs != refs[t] {
			fail("token %d: %d context references, %d contexts", t, tk.nContextRefs, refs[t])
		}
		if tk.parent != noToken {
			p := m.tokens[tk.parent]
			if !p.used || !slices.Contains(p.children, t) {
				fail("token %d: not a child of its parent %d", t, tk.parent)
			}
		} else if t != m.root {
			fail("token %d: no parent", t)
		}
		for _, c := range tk.children {
			if m.tokens[c].parent != t {
				fail("token %d: child %d has parent %d", t, c, m.tokens[c].parent)
			}
		}
		if tk.nContextRefs == 0 {
			switch {
			case len(tk.children) == 0 && t != m.root:
				fail("token %d: unreferenced tip", t)
			case len(tk.children) == 1:
				fail("token %d: unreferenced knuckle", t)
			}
		}

		// deltas against version lists
		for _, kind := range []entryKind{stepEntry, resultEntry} {
			for pos, p := range m.delta(t, kind).pairs {
				if !m.regs.isUsed(p.reg) {
					fail("token %d: delta holds free register %d", t, p.reg)
					continue
				}
				list := *m.versions(p.reg, kind)
				i := findVersion(list, t)
				if i < 0 || list[i].id != p.value || list[i].pos != pos {
					fail("token %d: delta pair %d of register %d has no matching version", t, pos, p.reg)
				}
			}
		}
	}

	// registers
	m.regs.each(func(r int, reg *Reg) {
		for _, kind := range []entryKind{stepEntry, resultEntry} {
			for _, v := range *m.versions(r, kind) {
				if v.token < 0 || v.token >= len(m.tokens) || !m.tokens[v.token].used {
					fail("register %d: version in unused token %d", r, v.token)
					continue
				}
				d := m.delta(v.token, kind)
				if v.pos >= d.size() || d.at(v.pos) != (pair{reg: r, value: v.id}) {
					fail("register %d: version not in delta of token %d", r, v.token)
				}
			}
		}
		if reg.evaluating && m.depth == 0 {
			fail("register %d: still marked as evaluating", r)
		}
	})

	// steps
	m.steps.each(func(id int, s *Step) {
		for slot, u := range s.usedInputs {
			if !u.result.valid() {
				continue
			}
			if !m.results.alive(u.result) {
				fail("step %d: used input %d refers to a freed result", id, slot)
				continue
			}
			res := m.results.get(u.result)
			if u.backPos >= len(res.usedBy) || res.usedBy[u.backPos] != (backEdge{step: id, slot: slot}) {
				fail("step %d: used input %d has no reverse edge", id, slot)
			}
		}
	})

	// results
	m.results.each(func(id int, r *Result) {
		h := m.results.handle(id)
		for i, e := range r.usedBy {
			if !m.steps.isUsed(e.step) {
				fail("result %d: used by freed step %d", id, e.step)
				continue
			}
			s := m.steps.access(e.step)
			if e.slot >= len(s.usedInputs) || s.usedInputs[e.slot].result != h || s.usedInputs[e.slot].backPos != i {
				fail("result %d: used-by edge %d has no forward edge", id, i)
			}
		}
		if r.callResult.valid() {
			if !m.results.alive(r.callResult) {
				fail("result %d: calls a freed result", id)
			} else {
				t := m.results.get(r.callResult)
				if r.callBackPos >= len(t.calledBy) || t.calledBy[r.callBackPos] != id {
					fail("result %d: call edge has no reverse edge", id)
				}
			}
		}
		for i, c := range r.calledBy {
			if !m.results.isUsed(c) {
				fail("result %d: called by freed result %d", id, c)
				continue
			}
			caller := m.results.access(c)
			if caller.callResult != h || caller.callBackPos != i {
				fail("result %d: called-by edge %d has no forward edge", id, i)
			}
		}
	})

	return errors.Join(errs...)
}
