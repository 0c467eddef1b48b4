package regheap

import (
	"io"
	"log/slog"
	"testing"

	"github.com/reusee/lazyphy/exprs"
)

func benchMachine(b *testing.B, n int) (*Machine, *Context, []int) {
	m := NewMachine(DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	var regs []int
	for i := range n {
		r, err := m.AddModifiableParameter(string(rune('a' + i%26)) + string(rune('0'+i/26)))
		if err != nil {
			b.Fatal(err)
		}
		regs = append(regs, r)
	}
	// sum of squares
	var sum exprs.Expr = exprs.L(0.0)
	for _, r := range regs {
		sum = exprs.Ap(exprs.Add, sum, exprs.Ap(exprs.Mul, exprs.RegRef(r), exprs.RegRef(r)))
	}
	if _, err := m.RegisterProbability(exprs.Ap(exprs.NormalDensity, sum, exprs.L(0.0), exprs.L(1.0))); err != nil {
		b.Fatal(err)
	}
	c := m.NewContext()
	for _, r := range regs {
		if err := c.SetModifiableValue(r, 0.1); err != nil {
			b.Fatal(err)
		}
	}
	if _, err := c.Probability(); err != nil {
		b.Fatal(err)
	}
	return m, c, regs
}

func BenchmarkForkEvaluateAccept(b *testing.B) {
	_, cur, regs := benchMachine(b, 32)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		trial, err := cur.Copy()
		if err != nil {
			b.Fatal(err)
		}
		if err := trial.SetModifiableValue(regs[i%len(regs)], float64(i%7)/10); err != nil {
			b.Fatal(err)
		}
		if _, err := trial.Probability(); err != nil {
			b.Fatal(err)
		}
		if err := cur.Assign(trial); err != nil {
			b.Fatal(err)
		}
		if err := trial.Release(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkForkEvaluateReject(b *testing.B) {
	_, cur, regs := benchMachine(b, 32)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		trial, err := cur.Copy()
		if err != nil {
			b.Fatal(err)
		}
		if err := trial.SetModifiableValue(regs[i%len(regs)], float64(i%7)/10); err != nil {
			b.Fatal(err)
		}
		if _, err := trial.Probability(); err != nil {
			b.Fatal(err)
		}
		if err := trial.Release(); err != nil {
			b.Fatal(err)
		}
	}
}
