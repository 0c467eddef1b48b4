package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dc0d/onexit"
	"github.com/docker/go-units"
	"github.com/reusee/dscope"
	"github.com/reusee/lazyphy/chains"
	"github.com/reusee/lazyphy/cmds"
	"github.com/reusee/lazyphy/configs"
	"github.com/reusee/lazyphy/debugs"
	"github.com/reusee/lazyphy/logs"
	"github.com/reusee/lazyphy/models"
	"github.com/reusee/lazyphy/modes"
	"github.com/reusee/lazyphy/regheap"
	"github.com/reusee/lazyphy/vars"
)

var (
	modelFlag      = cmds.Var[string]("model", "model script to sample from")
	iterationsFlag = cmds.Var[int]("-iterations", "number of chain iterations")
	seedFlag       = cmds.Var[int64]("-seed", "random seed")
	timeoutFlag    = cmds.Var[time.Duration]("-timeout", "stop the chain after this long")
	dotFlag        = cmds.Var[string]("-dot", "write the reduction graph of the final state")
	tapFlag        = cmds.Switch("-tap", "open a starlark REPL on the final state")
	inspectFlag    = cmds.Var[string]("-inspect", "run a starlark script on the final state")
)

func main() {
	if err := cmds.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cmds.PrintUsage()
		onexit.ForceExit(2)
	}
	if *modelFlag == "" {
		fmt.Fprintln(os.Stderr, "Error: model is required (use 'model path/to/model.star')")
		onexit.ForceExit(2)
	}

	scope := dscope.New(
		new(chains.Module),
		new(debugs.Module),
		modes.ForProduction(),
	)
	scope = scope.Fork(
		func(loader configs.Loader) chains.Config {
			config := chains.Module{}.Config(loader)
			config.Iterations = vars.FirstNonZero(*iterationsFlag, config.Iterations)
			config.Seed = vars.FirstNonZero(*seedFlag, config.Seed)
			return config
		},
	)

	var code int
	scope.Call(func(
		load models.Load,
		newChain chains.NewChain,
		config chains.Config,
		machine *regheap.Machine,
		logger logs.Logger,
		tap debugs.Tap,
		inspect debugs.Inspect,
	) {
		onexit.Register(func() {
			stats := machine.Stats()
			logger.Info("machine stats",
				"regs", stats.Regs,
				"steps", stats.Steps,
				"results", stats.Results,
				"tokens", stats.Tokens,
				"reductions", stats.Reductions,
				"arena", units.HumanSize(float64(stats.ArenaBytes)),
			)
		})

		if err := run(load, newChain, config, machine, tap, inspect); err != nil {
			logger.Error("run failed", "error", err)
			code = 1
		}
	})
	onexit.ForceExit(code)
}

func run(
	load models.Load,
	newChain chains.NewChain,
	config chains.Config,
	machine *regheap.Machine,
	tap debugs.Tap,
	inspect debugs.Inspect,
) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if *timeoutFlag > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, *timeoutFlag)
		defer cancelTimeout()
	}

	model, err := load(*modelFlag, nil)
	if err != nil {
		return err
	}
	defer model.Context.Release()
	moves := chains.RandomWalk(machine, config.ProposalSD)
	if len(moves) == 0 {
		return fmt.Errorf("model %s declares no random modifiables", *modelFlag)
	}

	chain, err := newChain(model.Context)
	if err != nil {
		return err
	}
	defer chain.Close()

	if err := chain.Run(ctx, moves, config.Iterations); err != nil {
		return err
	}

	if *dotFlag != "" {
		if err := writeDot(*dotFlag, machine, chain.Current()); err != nil {
			return err
		}
	}

	if *tapFlag || *inspectFlag != "" {
		values, err := model.Values(chain.Current())
		if err != nil {
			return err
		}
		terms, err := machine.ProbabilityTerms(chain.Current().ID())
		if err != nil {
			return err
		}
		globals := map[string]any{
			"run":         chain.ID(),
			"stats":       machine.Stats(),
			"values":      values,
			"terms":       terms,
			"probability": chain.Probability().Log(),
			"acceptance":  chain.AcceptanceRate(),
			"iterations":  chain.Iterations(),
		}
		if *inspectFlag != "" {
			if err := inspect(ctx, *inspectFlag, nil, globals); err != nil {
				return err
			}
		}
		if *tapFlag {
			if err := tap(ctx, "chain", globals); err != nil {
				return err
			}
		}
	}

	return nil
}

func writeDot(path string, machine *regheap.Machine, current *regheap.Context) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = e
		}
	}()
	if err := machine.DotGraphForToken(f, current.Token()); err != nil {
		return err
	}
	tokens, err := os.Create(path + ".tokens")
	if err != nil {
		return err
	}
	defer func() {
		if e := tokens.Close(); e != nil && err == nil {
			err = e
		}
	}()
	return machine.WriteTokenGraph(tokens)
}
