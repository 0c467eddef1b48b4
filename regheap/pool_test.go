package regheap

import "testing"

func TestPool(t *testing.T) {
	p := newPool[int]("int", 2, nil)
	var idx []int
	for range 5 {
		i, _ := p.allocate()
		idx = append(idx, i)
	}
	if p.live != 5 || p.capacity() != 6 {
		t.Fatalf("got %v %v", p.live, p.capacity())
	}
	*p.access(3) = 42
	h := p.handle(3)
	if !p.alive(h) || *p.get(h) != 42 {
		t.Fatal()
	}

	p.release(3)
	p.release(1)
	if p.alive(h) {
		t.Fatal("stale handle is alive")
	}
	// lowest free index first
	i, grown := p.allocate()
	if i != 1 || grown {
		t.Fatalf("got %v %v", i, grown)
	}
	i, _ = p.allocate()
	if i != 3 {
		t.Fatalf("got %v", i)
	}
	if *p.access(3) != 0 {
		t.Fatal("slot not zeroed")
	}
	if p.alive(h) {
		t.Fatal("reused slot matches old handle")
	}
}

func expectInternalError(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		p := recover()
		if _, ok := p.(*InternalError); !ok {
			t.Fatalf("got %v", p)
		}
	}()
	fn()
}

func TestPoolMisuse(t *testing.T) {
	p := newPool[int]("int", 4, nil)
	i, _ := p.allocate()
	p.release(i)
	expectInternalError(t, func() {
		p.release(i)
	})
	expectInternalError(t, func() {
		p.access(i)
	})
	expectInternalError(t, func() {
		p.access(100)
	})
	expectInternalError(t, func() {
		p.get(handle{index: i})
	})
}
