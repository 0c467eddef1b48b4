package debugs

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/reusee/lazyphy/logs"
	"go.starlark.net/repl"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// Tap opens a starlark REPL on stdin with globals predeclared.
type Tap func(ctx context.Context, what string, globals map[string]any) error

func (Module) Tap(
	logger logs.Logger,
) Tap {
	return func(ctx context.Context, what string, globals map[string]any) error {
		predeclared, err := Globals(globals)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "tap",
			"what", what,
			"globals", slices.Sorted(maps.Keys(globals)),
		)
		defer logger.InfoContext(ctx, "tap end", "what", what)
		thread := &starlark.Thread{
			Name: "tap: " + what,
		}
		repl.REPLOptions(fileOptions, thread, predeclared)
		return nil
	}
}

// Inspect runs a starlark script with globals predeclared.
// Printed lines go to the log. src is as for starlark.ExecFile.
type Inspect func(ctx context.Context, filename string, src any, globals map[string]any) error

func (Module) Inspect(
	logger logs.Logger,
) Inspect {
	return func(ctx context.Context, filename string, src any, globals map[string]any) error {
		predeclared, err := Globals(globals)
		if err != nil {
			return err
		}
		thread := &starlark.Thread{
			Name: "inspect: " + filename,
			Print: func(_ *starlark.Thread, msg string) {
				logger.InfoContext(ctx, "inspect", "file", filename, "msg", msg)
			},
		}
		// cancel the script with the context
		stop := context.AfterFunc(ctx, func() {
			thread.Cancel(context.Cause(ctx).Error())
		})
		defer stop()
		if _, err := starlark.ExecFileOptions(fileOptions, thread, filename, src, predeclared); err != nil {
			return fmt.Errorf("inspect %s: %w", filename, err)
		}
		return nil
	}
}
