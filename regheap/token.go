package regheap

import "slices"

const noToken = -1

// historyLength bounds the number of past states a token remembers.
const historyLength = 32

type stateRecord struct {
	state int64
	// modifiables changed since state
	changes uint64
}

// Token is one versioned snapshot of the Step/Result graph.
// Non-root tokens hold only the entries that differ from their parent.
type Token struct {
	parent       int
	children     []int
	nContextRefs int
	vmStep       mapping
	vmResult     mapping
	used         bool

	// state names the semantic state of the token; it changes on every mutation
	state   int64
	history []stateRecord
	// modifiables changed relative to the parent
	changes uint64

	prob *probCache
}

func (t *Token) deltaSize() int {
	return t.vmStep.size() + t.vmResult.size()
}

func (t *Token) isReferenced() bool {
	return t.nContextRefs > 0 || len(t.children) > 0
}

func (m *Machine) nextState() int64 {
	m.lastState++
	return m.lastState
}

func (m *Machine) getUnusedToken() int {
	var t int
	if n := len(m.unusedTokens); n > 0 {
		t = m.unusedTokens[n-1]
		m.unusedTokens = m.unusedTokens[:n-1]
	} else {
		t = len(m.tokens)
		m.tokens = append(m.tokens, new(Token))
	}
	tk := m.tokens[t]
	if tk.used {
		throw("token %d is already in use", t)
	}
	tk.used = true
	tk.parent = noToken
	tk.children = tk.children[:0]
	tk.nContextRefs = 0
	tk.state = m.nextState()
	tk.history = tk.history[:0]
	tk.changes = 0
	tk.prob = nil
	m.metrics.Tokens.Inc()
	return t
}

func (m *Machine) makeChildToken(parent int) int {
	c := m.getUnusedToken()
	m.tokens[c].parent = parent
	p := m.tokens[parent]
	p.children = append(p.children, c)
	return c
}

// switchToChildToken moves context c to a fresh child of its token.
func (m *Machine) switchToChildToken(c int) int {
	t := m.tokenForContext(c)
	child := m.makeChildToken(t)
	m.setTokenForContext(c, child)
	m.unsetTokenForContext(c, t)
	return child
}

// advance gives t a new state after its modifiables in bits changed.
func (m *Machine) advance(t int, bits uint64) {
	tk := m.tokens[t]
	for i := range tk.history {
		tk.history[i].changes |= bits
	}
	tk.history = append(tk.history, stateRecord{
		state:   tk.state,
		changes: bits,
	})
	tk.history = trimHistory(tk.history)
	tk.state = m.nextState()
	tk.changes |= bits
}

func trimHistory(h []stateRecord) []stateRecord {
	if len(h) <= historyLength {
		return h
	}
	return slices.Delete(h, 0, len(h)-historyLength)
}

// releaseTipToken destroys a childless unreferenced token and then
// releases its parent if that became an unreferenced tip or knuckle.
func (m *Machine) releaseTipToken(t int) {
	tk := m.tokens[t]
	if t == m.root {
		throw("releasing the root token")
	}
	if len(tk.children) > 0 {
		throw("releasing token %d with %d children", t, len(tk.children))
	}
	if tk.nContextRefs > 0 {
		throw("releasing token %d with %d context references", t, tk.nContextRefs)
	}

	m.destroyTokenEntries(t)

	parent := tk.parent
	if parent != noToken {
		p := m.tokens[parent]
		i := slices.Index(p.children, t)
		if i < 0 {
			throw("token %d is not a child of its parent %d", t, parent)
		}
		p.children = slices.Delete(p.children, i, i+1)
	}
	m.freeToken(t)

	if parent != noToken {
		m.releaseUnreferencedTips(parent)
	}
}

func (m *Machine) freeToken(t int) {
	tk := m.tokens[t]
	tk.used = false
	tk.parent = noToken
	tk.children = tk.children[:0]
	tk.vmStep.clear()
	tk.vmResult.clear()
	tk.history = tk.history[:0]
	tk.changes = 0
	tk.prob = nil
	m.unusedTokens = append(m.unusedTokens, t)
	m.metrics.Tokens.Dec()
}

// destroyTokenEntries destroys every step and result in the delta of t.
// All reverse edges are detached before any record is reset.
func (m *Machine) destroyTokenEntries(t int) {
	tk := m.tokens[t]
	for _, p := range tk.vmStep.pairs {
		m.clearBackEdgesForStep(p.value)
	}
	for _, p := range tk.vmResult.pairs {
		m.clearBackEdgesForResult(p.value)
	}
	for _, p := range tk.vmStep.pairs {
		list := &m.regs.access(p.reg).steps
		*list = removeVersion(*list, findVersion(*list, t))
		m.clearStep(p.value)
		m.steps.release(p.value)
	}
	for _, p := range tk.vmResult.pairs {
		list := &m.regs.access(p.reg).results
		*list = removeVersion(*list, findVersion(*list, t))
		m.clearResult(p.value)
		m.results.release(p.value)
	}
	tk.vmStep.clear()
	tk.vmResult.clear()
}

// releaseUnreferencedTips walks up from t, releasing unreferenced tips and
// merging unreferenced knuckles.
func (m *Machine) releaseUnreferencedTips(t int) {
	for t != noToken {
		tk := m.tokens[t]
		if tk.nContextRefs > 0 {
			return
		}
		switch len(tk.children) {
		case 0:
			if t == m.root {
				return
			}
			m.releaseTipToken(t)
			return
		case 1:
			// the survivor is not a knuckle, but may be an unreferenced tip
			t = m.releaseKnuckleTokens(t)
			if m.tokens[t].isReferenced() {
				return
			}
		default:
			return
		}
	}
}
