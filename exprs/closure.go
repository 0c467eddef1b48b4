package exprs

type Closure struct {
	Expr Expr
	Env  []int
}

func Value(v any) Closure {
	return Closure{
		Expr: Lit{Value: v},
	}
}

// Forwarding returns a closure that reduces to register r.
func Forwarding(r int) Closure {
	return Closure{
		Expr: Index(0),
		Env:  []int{r},
	}
}

func (c Closure) Lookup(i Index) int {
	return c.Env[i]
}

// Extend returns the environment followed by regs, without aliasing c.Env.
func (c Closure) Extend(regs ...int) []int {
	env := make([]int, 0, len(c.Env)+len(regs))
	env = append(env, c.Env...)
	env = append(env, regs...)
	return env
}

func (c Closure) IsZero() bool {
	return c.Expr == nil
}
