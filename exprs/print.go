package exprs

import (
	"fmt"
	"strings"
)

func Format(e Expr) string {
	var b strings.Builder
	format(&b, e)
	return b.String()
}

func format(b *strings.Builder, e Expr) {
	switch e := e.(type) {
	case Lit:
		fmt.Fprintf(b, "%v", e.Value)
	case Local:
		b.WriteString(string(e))
	case Var:
		b.WriteString(string(e))
	case RegRef:
		fmt.Fprintf(b, "<%d>", int(e))
	case Index:
		fmt.Fprintf(b, "%%%d", int(e))
	case Modifiable:
		b.WriteString("modifiable")
	case Apply:
		b.WriteString("(" + e.Op.Name)
		for _, arg := range e.Args {
			b.WriteString(" ")
			format(b, arg)
		}
		b.WriteString(")")
	case Call:
		b.WriteString("(")
		format(b, e.Fn)
		for _, arg := range e.Args {
			b.WriteString(" ")
			format(b, arg)
		}
		b.WriteString(")")
	case Lambda:
		fmt.Fprintf(b, "\\%d -> ", len(e.Params))
		format(b, e.Body)
	case Let:
		b.WriteString("let {")
		for i, bind := range e.Binds {
			if i > 0 {
				b.WriteString("; ")
			}
			format(b, bind)
		}
		b.WriteString("} in ")
		format(b, e.Body)
	case nil:
		b.WriteString("<nil>")
	default:
		fmt.Fprintf(b, "%T", e)
	}
}

func (c Closure) String() string {
	if len(c.Env) == 0 {
		return Format(c.Expr)
	}
	return fmt.Sprintf("%s %v", Format(c.Expr), c.Env)
}
