package chains

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/reusee/lazyphy/exprs"
	"github.com/reusee/lazyphy/logprob"
	"github.com/reusee/lazyphy/logs"
	"github.com/reusee/lazyphy/regheap"
)

// Proposal mutates the trial context and returns the log Hastings ratio
// of the move.
type Proposal func(trial *regheap.Context, rng *rand.Rand) (float64, error)

// Chain is a Metropolis-Hastings chain over the states of one machine.
type Chain struct {
	id      uuid.UUID
	config  Config
	logger  logs.Logger
	newSpan logs.NewSpan
	machine *regheap.Machine
	rng     *rand.Rand

	current   *regheap.Context
	currentPr logprob.LogDouble

	iterations int
	accepted   int
	// acceptance since the last progress log
	windowIterations int
	windowAccepted   int
}

type NewChain func(start *regheap.Context) (*Chain, error)

func (Module) NewChain(
	config Config,
	logger logs.Logger,
	newSpan logs.NewSpan,
) NewChain {
	return func(start *regheap.Context) (*Chain, error) {
		c, err := New(start, config, logger)
		if err != nil {
			return nil, err
		}
		c.newSpan = newSpan
		return c, nil
	}
}

// New starts a chain from a copy of start.
func New(start *regheap.Context, config Config, logger logs.Logger) (*Chain, error) {
	current, err := start.Copy()
	if err != nil {
		return nil, err
	}
	pr, err := current.Probability()
	if err != nil {
		return nil, errors.Join(err, current.Release())
	}
	seed := uint64(config.Seed)
	c := &Chain{
		id:        uuid.New(),
		config:    config,
		logger:    logger,
		machine:   current.Machine(),
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		current:   current,
		currentPr: pr,
	}
	logger.Info("chain started",
		"run", c.id,
		"log probability", pr.Log(),
	)
	return c, nil
}

func (c *Chain) ID() uuid.UUID {
	return c.id
}

// Current is the context holding the accepted state.
func (c *Chain) Current() *regheap.Context {
	return c.current
}

func (c *Chain) Probability() logprob.LogDouble {
	return c.currentPr
}

func (c *Chain) Iterations() int {
	return c.iterations
}

func (c *Chain) AcceptanceRate() float64 {
	if c.iterations == 0 {
		return 0
	}
	return float64(c.accepted) / float64(c.iterations)
}

// Step proposes a move in a trial context, then accepts or rejects it.
// The trial context is always released.
func (c *Chain) Step(propose Proposal) (bool, error) {
	trial, err := c.current.Copy()
	if err != nil {
		return false, err
	}
	accepted, err := c.try(trial, propose)
	if e := trial.Release(); e != nil {
		err = errors.Join(err, e)
	}
	if err != nil {
		return false, err
	}

	c.iterations++
	c.windowIterations++
	if accepted {
		c.accepted++
		c.windowAccepted++
	}
	if c.config.GCEvery > 0 && c.iterations%c.config.GCEvery == 0 {
		c.machine.CollectGarbage()
	}
	return accepted, nil
}

func (c *Chain) try(trial *regheap.Context, propose Proposal) (bool, error) {
	hastings, err := propose(trial, c.rng)
	if err != nil {
		return false, err
	}
	pr, err := trial.Probability()
	if err != nil {
		return false, err
	}
	ratio := pr.Log() - c.currentPr.Log() + hastings
	// NaN from two zero probabilities rejects
	if !(ratio >= 0 || math.Log(c.rng.Float64()) < ratio) {
		return false, nil
	}
	if err := c.current.Assign(trial); err != nil {
		return false, err
	}
	c.currentPr = pr
	return true, nil
}

// Move is a named proposal, picked with probability proportional to Weight.
type Move struct {
	Name    string
	Weight  float64
	Propose Proposal
}

// Run performs n steps, each with a move picked at random by weight.
func (c *Chain) Run(ctx context.Context, moves []Move, n int) error {
	var total float64
	for _, move := range moves {
		if !(move.Weight >= 0) || math.IsInf(move.Weight, 1) {
			return fmt.Errorf("move %s: bad weight %v", move.Name, move.Weight)
		}
		total += move.Weight
	}
	if total == 0 {
		return fmt.Errorf("no proposals")
	}
	if c.newSpan != nil {
		ctx, _ = c.newSpan(ctx, "chain")
	}
	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		move := c.pick(moves, total)
		if _, err := c.Step(move.Propose); err != nil {
			return logs.WrapSpan(ctx, fmt.Errorf("iteration %d: %s: %w", c.iterations, move.Name, err))
		}
		if c.config.LogEvery > 0 && c.iterations%c.config.LogEvery == 0 {
			c.logger.InfoContext(ctx, "chain progress",
				"run", c.id,
				"iteration", c.iterations,
				"acceptance", float64(c.windowAccepted)/float64(c.windowIterations),
				"log probability", c.currentPr.Log(),
			)
			c.windowAccepted = 0
			c.windowIterations = 0
		}
	}
	c.logger.InfoContext(ctx, "chain done",
		"run", c.id,
		"iterations", c.iterations,
		"acceptance", c.AcceptanceRate(),
		"log probability", c.currentPr.Log(),
	)
	return nil
}

func (c *Chain) pick(moves []Move, total float64) Move {
	if len(moves) == 1 {
		return moves[0]
	}
	u := c.rng.Float64() * total
	for _, move := range moves {
		if u < move.Weight {
			return move
		}
		u -= move.Weight
	}
	// rounding
	for i := len(moves) - 1; i >= 0; i-- {
		if moves[i].Weight > 0 {
			return moves[i]
		}
	}
	return moves[len(moves)-1]
}

// Close releases the current context.
func (c *Chain) Close() error {
	return c.current.Release()
}

// GaussianProposal moves the modifiable r by a normal step of deviation sigma,
// reflected back into bounds. The move is symmetric.
func GaussianProposal(r int, bounds regheap.Range, sigma float64) Proposal {
	return func(trial *regheap.Context, rng *rand.Rand) (float64, error) {
		v, err := trial.ModifiableValue(r)
		if err != nil {
			return 0, err
		}
		var x float64
		switch v := v.(type) {
		case float64:
			x = v
		case int:
			x = float64(v)
		default:
			return 0, fmt.Errorf("modifiable %d holds %T: %w", r, v, exprs.ErrType)
		}
		if err := trial.SetModifiableValue(r, bounds.Reflect(x+rng.NormFloat64()*sigma)); err != nil {
			return 0, err
		}
		return 0, nil
	}
}

// RandomWalk returns a reflected Gaussian move for every random modifiable
// of machine, weighted by its rate.
func RandomWalk(machine *regheap.Machine, sigma float64) []Move {
	randoms := machine.RandomModifiables()
	ret := make([]Move, 0, len(randoms))
	for _, r := range randoms {
		ret = append(ret, Move{
			Name:    fmt.Sprintf("walk %d", r.Reg),
			Weight:  r.Rate,
			Propose: GaussianProposal(r.Reg, r.Range, sigma),
		})
	}
	return ret
}
