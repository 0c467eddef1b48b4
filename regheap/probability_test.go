package regheap

import (
	"math"
	"testing"

	"github.com/reusee/lazyphy/exprs"
)

func normalLog(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return -0.5*z*z - math.Log(sigma) - 0.5*math.Log(2*math.Pi)
}

func TestProbability(t *testing.T) {
	m := newTestMachine(t)
	x, err := m.AddModifiableParameter("x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.RegisterProbability(exprs.Ap(exprs.NormalDensity, exprs.Var("x"), exprs.L(0.0), exprs.L(1.0))); err != nil {
		t.Fatal(err)
	}
	// constant factor
	if _, err := m.RegisterProbability(exprs.Ap(exprs.ExponentialDensity, exprs.L(1.0), exprs.L(2.0))); err != nil {
		t.Fatal(err)
	}
	constant := math.Log(2) - 2

	cur := m.NewContext()
	set(t, cur, x, 0.5)
	pr, err := cur.Probability()
	if err != nil {
		t.Fatal(err)
	}
	if want := normalLog(0.5, 0, 1) + constant; math.Abs(pr.Log()-want) > 1e-12 {
		t.Fatalf("got %v, want %v", pr.Log(), want)
	}

	trial := copyContext(t, cur)
	set(t, trial, x, 1.5)
	diff, err := m.ProbabilityForContextDiff(trial.ID())
	if err != nil {
		t.Fatal(err)
	}
	full, err := m.ProbabilityForContextFull(trial.ID())
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(diff.Log()-full.Log()) > 1e-12 {
		t.Fatalf("got %v and %v", diff.Log(), full.Log())
	}
	if want := normalLog(1.5, 0, 1) + constant; math.Abs(full.Log()-want) > 1e-12 {
		t.Fatalf("got %v, want %v", full.Log(), want)
	}

	// reject
	if err := trial.Release(); err != nil {
		t.Fatal(err)
	}
	again, err := cur.Probability()
	if err != nil {
		t.Fatal(err)
	}
	if again != pr {
		t.Fatalf("got %v, want %v", again, pr)
	}

	terms, err := m.ProbabilityTerms(cur.ID())
	if err != nil {
		t.Fatal(err)
	}
	if len(terms) != 2 || terms[0].Constant || !terms[1].Constant {
		t.Fatalf("got %+v", terms)
	}
	check(t, m)
}

func TestProbabilityDiffMatchesFull(t *testing.T) {
	m := newTestMachine(t, func(c *Config) {
		c.CheckInvariants = false
	})
	var regs []int
	for _, name := range []string{"a", "b", "c"} {
		r, err := m.AddModifiableParameter(name)
		if err != nil {
			t.Fatal(err)
		}
		regs = append(regs, r)
		if _, err := m.RegisterProbability(exprs.Ap(exprs.NormalDensity, exprs.Var(name), exprs.L(0.0), exprs.L(2.0))); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := m.RegisterProbability(exprs.Ap(exprs.NormalDensity,
		exprs.Ap(exprs.Add, exprs.Var("a"), exprs.Var("b")),
		exprs.Var("c"),
		exprs.L(1.0),
	)); err != nil {
		t.Fatal(err)
	}

	cur := m.NewContext()
	for _, r := range regs {
		set(t, cur, r, 0.0)
	}
	for i := range 200 {
		trial := copyContext(t, cur)
		r := regs[i%len(regs)]
		set(t, trial, r, math.Sin(float64(i)))
		diff, err := m.ProbabilityForContextDiff(trial.ID())
		if err != nil {
			t.Fatal(err)
		}
		full, err := m.ProbabilityForContextFull(trial.ID())
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(diff.Log()-full.Log()) > 1e-9 {
			t.Fatalf("iteration %d: got %v and %v", i, diff.Log(), full.Log())
		}
		if i%3 != 0 {
			if err := cur.Assign(trial); err != nil {
				t.Fatal(err)
			}
		}
		if err := trial.Release(); err != nil {
			t.Fatal(err)
		}
	}
	check(t, m)
}

func TestZeroProbability(t *testing.T) {
	m := newTestMachine(t)
	x, err := m.AddModifiableParameter("x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.RegisterProbability(exprs.Ap(exprs.UniformDensity, exprs.Var("x"), exprs.L(0.0), exprs.L(1.0))); err != nil {
		t.Fatal(err)
	}
	c := m.NewContext()
	set(t, c, x, 2.0)
	pr, err := c.Probability()
	if err != nil {
		t.Fatal(err)
	}
	if !pr.IsZero() {
		t.Fatalf("got %v", pr)
	}
	set(t, c, x, 0.5)
	pr, err = c.Probability()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(pr.Log()) > 1e-12 {
		t.Fatalf("got %v", pr)
	}
}

func TestProbabilityErrorFallback(t *testing.T) {
	m := newTestMachine(t, func(c *Config) {
		c.MaxProbabilityError = 1e-300
	})
	x, err := m.AddModifiableParameter("x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.RegisterProbability(exprs.Ap(exprs.NormalDensity, exprs.Var("x"), exprs.L(0.0), exprs.L(1.0))); err != nil {
		t.Fatal(err)
	}
	c := m.NewContext()
	set(t, c, x, 3.0)
	if _, err := c.Probability(); err != nil {
		t.Fatal(err)
	}
	// the full path resets the error, the diff path added some
	if p := m.tokens[c.Token()].prob; p.totalError != 0 {
		t.Fatalf("got %v", p.totalError)
	}
}

func TestBadFactor(t *testing.T) {
	m := newTestMachine(t)
	if _, err := m.RegisterProbability(exprs.L("foo")); err != nil {
		t.Fatal(err)
	}
	c := m.NewContext()
	if _, err := c.Probability(); err == nil {
		t.Fatal("should fail")
	}
}
