package cmds

import (
	"fmt"
	"reflect"
)

// Command is a named action on the command line. A command with Func consumes
// one argument per parameter; a command with Subs makes the sub commands
// available to the arguments after it.
type Command struct {
	Func        reflect.Value
	Subs        map[string]*Command
	Description string
	Aliases     []string
	ArgNames    []string
}

func (c *Command) Desc(desc string) *Command {
	c.Description = desc
	return c
}

func (c *Command) Alias(names ...string) *Command {
	c.Aliases = append(c.Aliases, names...)
	return c
}

// Args names the parameters for usage output.
func (c *Command) Args(names ...string) *Command {
	c.ArgNames = names
	return c
}

var errorType = reflect.TypeFor[error]()

// Func wraps fn, which must return nothing or an error.
func Func(fn any) *Command {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic(fmt.Errorf("command must be a function, got %T", fn))
	}
	t := v.Type()
	switch {
	case t.NumOut() > 1:
		panic(fmt.Errorf("command %v returns more than one value", t))
	case t.NumOut() == 1 && t.Out(0) != errorType:
		panic(fmt.Errorf("command %v must return error", t))
	}
	for i := range t.NumIn() {
		if !supportedArg(t.In(i)) {
			panic(fmt.Errorf("command %v: unsupported argument type %v", t, t.In(i)))
		}
	}
	return &Command{
		Func: v,
	}
}

func Sub(subs map[string]*Command) *Command {
	return &Command{
		Subs: subs,
	}
}

func (c *Command) argName(i int) string {
	if i < len(c.ArgNames) {
		return c.ArgNames[i]
	}
	return c.Func.Type().In(i).String()
}
