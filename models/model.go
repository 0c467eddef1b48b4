package models

import (
	"fmt"
	"slices"

	"github.com/reusee/lazyphy/regheap"
)

// Model is a machine populated by a model script, with the context holding
// the initial values of its modifiables.
type Model struct {
	Machine *regheap.Machine
	Context *regheap.Context
	// modifiables declared as random, in declaration order
	Randoms []Random
	// compute expressions, as head indices
	Expressions []int
}

type Random struct {
	Name string
	Reg  int
}

func (m *Model) Random(name string) (int, error) {
	i := slices.IndexFunc(m.Randoms, func(r Random) bool {
		return r.Name == name
	})
	if i < 0 {
		return -1, fmt.Errorf("random modifiable %s not found", name)
	}
	return m.Randoms[i].Reg, nil
}

// Values evaluates every random modifiable in ctx.
func (m *Model) Values(ctx *regheap.Context) (map[string]any, error) {
	ret := make(map[string]any, len(m.Randoms))
	for _, r := range m.Randoms {
		v, err := ctx.ModifiableValue(r.Reg)
		if err != nil {
			return nil, err
		}
		ret[r.Name] = v
	}
	return ret, nil
}
