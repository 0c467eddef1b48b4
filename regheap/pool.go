package regheap

import (
	"github.com/google/btree"
)

// handle names a pool slot together with the generation it was allocated in.
// A handle outlives the slot safely: once the slot is released, the
// generation no longer matches.
type handle struct {
	index int
	gen   uint32
}

var noHandle = handle{index: -1}

func (h handle) valid() bool {
	return h.index >= 0
}

type slot[T any] struct {
	value T
	gen   uint32
	used  bool
}

// pool is a slot arena with stable addresses.
// Slots live in fixed-size blocks, so growing never moves a slot.
// Released slots are kept in an ordered free set and the lowest index is reused first.
type pool[T any] struct {
	what      string
	blockSize int
	blocks    [][]slot[T]
	size      int
	live      int
	free      *btree.BTreeG[int]
	reset     func(*T)
}

func newPool[T any](what string, blockSize int, reset func(*T)) *pool[T] {
	if blockSize <= 0 {
		blockSize = 1024
	}
	return &pool[T]{
		what:      what,
		blockSize: blockSize,
		free: btree.NewG(8, func(a, b int) bool {
			return a < b
		}),
		reset: reset,
	}
}

func (p *pool[T]) slot(i int) *slot[T] {
	if i < 0 || i >= p.size {
		throw("%s %d out of range [0, %d)", p.what, i, p.size)
	}
	return &p.blocks[i/p.blockSize][i%p.blockSize]
}

// allocate returns a zeroed slot. The bool reports whether the arena had to grow.
func (p *pool[T]) allocate() (int, bool) {
	if i, ok := p.free.DeleteMin(); ok {
		s := p.slot(i)
		s.used = true
		p.live++
		return i, false
	}
	grown := false
	if p.size == len(p.blocks)*p.blockSize {
		p.blocks = append(p.blocks, make([]slot[T], p.blockSize))
		grown = true
	}
	i := p.size
	p.size++
	s := p.slot(i)
	s.used = true
	p.live++
	return i, grown
}

func (p *pool[T]) release(i int) {
	s := p.slot(i)
	if !s.used {
		throw("double free of %s %d", p.what, i)
	}
	if p.reset != nil {
		p.reset(&s.value)
	} else {
		var zero T
		s.value = zero
	}
	s.used = false
	s.gen++
	p.live--
	p.free.ReplaceOrInsert(i)
}

func (p *pool[T]) access(i int) *T {
	s := p.slot(i)
	if !s.used {
		throw("access to free %s %d", p.what, i)
	}
	return &s.value
}

func (p *pool[T]) isUsed(i int) bool {
	if i < 0 || i >= p.size {
		return false
	}
	return p.slot(i).used
}

func (p *pool[T]) handle(i int) handle {
	s := p.slot(i)
	if !s.used {
		throw("handle of free %s %d", p.what, i)
	}
	return handle{
		index: i,
		gen:   s.gen,
	}
}

// alive reports whether h still names the allocation it was taken from.
func (p *pool[T]) alive(h handle) bool {
	if h.index < 0 || h.index >= p.size {
		return false
	}
	s := p.slot(h.index)
	return s.used && s.gen == h.gen
}

func (p *pool[T]) get(h handle) *T {
	if !p.alive(h) {
		throw("stale %s handle %d/%d", p.what, h.index, h.gen)
	}
	return &p.slot(h.index).value
}

func (p *pool[T]) each(fn func(i int, v *T)) {
	for i := 0; i < p.size; i++ {
		s := p.slot(i)
		if s.used {
			fn(i, &s.value)
		}
	}
}

func (p *pool[T]) capacity() int {
	return len(p.blocks) * p.blockSize
}
