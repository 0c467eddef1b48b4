package regheap

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// DotGraphForToken renders the registers, steps and results visible from
// token t in Graphviz DOT.
func (m *Machine) DotGraphForToken(w io.Writer, t int) error {
	if t < 0 || t >= len(m.tokens) || !m.tokens[t].used {
		return fmt.Errorf("token %d is not in use", t)
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph token%d {\n", t)
	fmt.Fprintf(bw, "  node [shape=box, fontname=monospace];\n")

	m.regs.each(func(r int, reg *Reg) {
		label := fmt.Sprintf("%d: %s", r, reg.closure)
		if reg.nHeads > 0 {
			label += " [head]"
		}
		style := ""
		switch reg.kind {
		case kindChangeable:
			style = ", style=filled, fillcolor=lightyellow"
		case kindConstant:
			style = ", style=filled, fillcolor=lightgrey"
		}
		fmt.Fprintf(bw, "  r%d [label=%s%s];\n", r, strconv.Quote(label), style)

		for _, e := range reg.closure.Env {
			fmt.Fprintf(bw, "  r%d -> r%d [color=grey];\n", r, e)
		}

		if id, owner, ok := m.visible(r, t, stepEntry); ok {
			s := m.steps.access(id)
			for _, u := range s.usedInputs {
				fmt.Fprintf(bw, "  r%d -> r%d [style=dashed, label=\"used\"];\n", r, u.reg)
			}
			fmt.Fprintf(bw, "  r%d -> r%d [color=blue, label=\"call@t%d\"];\n", r, s.call, owner)
		}
		if id, owner, ok := m.visible(r, t, resultEntry); ok {
			res := m.results.access(id)
			if res.value != r {
				fmt.Fprintf(bw, "  r%d -> r%d [color=red, style=dotted, label=\"value@t%d\"];\n", r, res.value, owner)
			}
		}
	})

	fmt.Fprintf(bw, "}\n")
	return bw.Flush()
}

// WriteTokenGraph renders the token tree and the contexts bound to it.
func (m *Machine) WriteTokenGraph(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph tokens {\n")
	for t, tk := range m.tokens {
		if !tk.used {
			continue
		}
		label := fmt.Sprintf("t%d\\nrefs=%d steps=%d results=%d",
			t, tk.nContextRefs, tk.vmStep.size(), tk.vmResult.size())
		shape := "ellipse"
		if t == m.root {
			shape = "doublecircle"
		}
		fmt.Fprintf(bw, "  t%d [label=\"%s\", shape=%s];\n", t, label, shape)
		for _, c := range tk.children {
			fmt.Fprintf(bw, "  t%d -> t%d;\n", t, c)
		}
	}
	for c, t := range m.contexts {
		if t == noToken {
			continue
		}
		fmt.Fprintf(bw, "  c%d [shape=box];\n", c)
		fmt.Fprintf(bw, "  c%d -> t%d [style=dashed];\n", c, t)
	}
	fmt.Fprintf(bw, "}\n")
	return bw.Flush()
}
