package regheap

import (
	"fmt"
	"math"
	"slices"

	"github.com/reusee/lazyphy/exprs"
	"github.com/reusee/lazyphy/logprob"
)

type factor struct {
	reg int
	// folded factors are constant and counted in the machine constant term
	folded bool
}

type probTerm struct {
	result handle
	value  float64
	set    bool
}

// probCache is the per-token running sum of log factor values.
type probCache struct {
	terms []probTerm
	// sum of the finite terms
	variable float64
	// terms that are zero in linear space, kept out of variable
	nZero int
	// accumulated rounding error of incremental updates
	totalError float64
}

func (p *probCache) clone() *probCache {
	ret := *p
	ret.terms = slices.Clone(p.terms)
	return &ret
}

func (p *probCache) add(v float64) {
	if math.IsInf(v, -1) {
		p.nZero++
		return
	}
	p.variable += v
	p.totalError += math.Abs(v) * epsilon
}

func (p *probCache) remove(v float64) {
	if math.IsInf(v, -1) {
		p.nZero--
		return
	}
	p.variable -= v
	p.totalError += math.Abs(v) * epsilon
}

const epsilon = 0x1p-52

// RegisterProbability adds e as a probability factor. Its value is a logprob.LogDouble
// or a plain number in linear space.
func (m *Machine) RegisterProbability(e exprs.Expr) (int, error) {
	c, err := exprs.Preprocess(e, m.resolve)
	if err != nil {
		return -1, err
	}
	r := m.allocate(c)
	m.RegisterProbabilityReg(r)
	return r, nil
}

func (m *Machine) RegisterProbabilityReg(r int) {
	m.factors = append(m.factors, factor{
		reg: r,
	})
}

func (m *Machine) Factors() []int {
	ret := make([]int, 0, len(m.factors))
	for _, f := range m.factors {
		ret = append(ret, f.reg)
	}
	return ret
}

func logFactor(v any) (float64, error) {
	switch v := v.(type) {
	case logprob.LogDouble:
		return v.Log(), nil
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("negative probability factor %v: %w", v, exprs.ErrDomain)
		}
		return math.Log(v), nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("negative probability factor %v: %w", v, exprs.ErrDomain)
		}
		return math.Log(float64(v)), nil
	}
	return 0, fmt.Errorf("probability factor of type %T: %w", v, exprs.ErrType)
}

// ownProbCache returns the cache of t, cloning the nearest ancestor cache on first use.
func (m *Machine) ownProbCache(t int) *probCache {
	tk := m.tokens[t]
	if tk.prob != nil {
		return tk.prob
	}
	for a := tk.parent; a != noToken; a = m.tokens[a].parent {
		if p := m.tokens[a].prob; p != nil {
			tk.prob = p.clone()
			return tk.prob
		}
	}
	tk.prob = new(probCache)
	return tk.prob
}

func (m *Machine) total(p *probCache) logprob.LogDouble {
	if p.nZero > 0 || m.nZeroConst > 0 {
		return logprob.Zero
	}
	return logprob.FromLog(m.constantPr + p.variable)
}

// ProbabilityForContextDiff updates the cache of the context token by
// re-reading only the factors whose result changed.
func (m *Machine) ProbabilityForContextDiff(ctx int) (logprob.LogDouble, error) {
	if err := m.checkContext(ctx); err != nil {
		return logprob.Zero, err
	}
	m.enter()
	defer m.leave()
	t := m.tokenForContext(ctx)
	p := m.ownProbCache(t)
	if err := m.updateProbCache(t, p, false); err != nil {
		return logprob.Zero, err
	}
	return m.total(p), nil
}

// ProbabilityForContextFull recomputes the cache of the context token from every factor.
func (m *Machine) ProbabilityForContextFull(ctx int) (logprob.LogDouble, error) {
	if err := m.checkContext(ctx); err != nil {
		return logprob.Zero, err
	}
	m.enter()
	defer m.leave()
	t := m.tokenForContext(ctx)
	p := m.ownProbCache(t)
	if err := m.updateProbCache(t, p, true); err != nil {
		return logprob.Zero, err
	}
	return m.total(p), nil
}

// ProbabilityForContext is the diff path, falling back to the full path
// once the accumulated rounding error is too large.
func (m *Machine) ProbabilityForContext(ctx int) (logprob.LogDouble, error) {
	pr, err := m.ProbabilityForContextDiff(ctx)
	if err != nil {
		return pr, err
	}
	p := m.tokens[m.tokenForContext(ctx)].prob
	if p != nil && p.totalError > m.config.MaxProbabilityError {
		m.logger.Debug("probability error exceeded",
			"error", p.totalError,
			"limit", m.config.MaxProbabilityError,
		)
		return m.ProbabilityForContextFull(ctx)
	}
	return pr, nil
}

func (m *Machine) updateProbCache(t int, p *probCache, full bool) error {
	if full {
		p.variable = 0
		p.nZero = 0
		p.totalError = 0
		for i := range p.terms {
			p.terms[i] = probTerm{}
		}
	}

	for i := range m.factors {
		f := &m.factors[i]
		if f.folded {
			continue
		}
		if i >= len(p.terms) {
			p.terms = append(p.terms, make([]probTerm, i+1-len(p.terms))...)
		}

		res, err := m.incrementalEvaluate(f.reg, t)
		if err != nil {
			return err
		}
		term := &p.terms[i]
		if term.set && res.result.valid() && term.result == res.result {
			continue
		}

		v, err := logFactor(m.valueOf(res.value))
		if err != nil {
			return err
		}

		if !res.result.valid() {
			// constant in every token
			f.folded = true
			if math.IsInf(v, -1) {
				m.nZeroConst++
			} else {
				m.constantPr += v
			}
			if term.set {
				p.remove(term.value)
				*term = probTerm{}
			}
			continue
		}

		if term.set {
			p.remove(term.value)
		}
		p.add(v)
		term.result = res.result
		term.value = v
		term.set = true
	}
	if full {
		p.totalError = 0
	}
	return nil
}

// ProbabilityTerm is the current log value of one factor.
type ProbabilityTerm struct {
	Reg      int
	LogValue float64
	Constant bool
}

// ProbabilityTerms evaluates every factor in ctx, for logging.
func (m *Machine) ProbabilityTerms(ctx int) ([]ProbabilityTerm, error) {
	if err := m.checkContext(ctx); err != nil {
		return nil, err
	}
	m.enter()
	defer m.leave()
	t := m.tokenForContext(ctx)
	ret := make([]ProbabilityTerm, 0, len(m.factors))
	for _, f := range m.factors {
		res, err := m.incrementalEvaluate(f.reg, t)
		if err != nil {
			return nil, err
		}
		v, err := logFactor(m.valueOf(res.value))
		if err != nil {
			return nil, err
		}
		ret = append(ret, ProbabilityTerm{
			Reg:      f.reg,
			LogValue: v,
			Constant: !res.result.valid(),
		})
	}
	return ret, nil
}
