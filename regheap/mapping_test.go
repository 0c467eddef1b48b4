package regheap

import "testing"

func TestMapping(t *testing.T) {
	var m mapping
	if !m.empty() {
		t.Fatal()
	}
	for i := range 4 {
		if pos := m.add(i, i*10); pos != i {
			t.Fatalf("got %v", pos)
		}
	}
	moved, ok := m.eraseAt(1)
	if !ok || moved != 3 {
		t.Fatalf("got %v %v", moved, ok)
	}
	if p := m.at(1); p.reg != 3 || p.value != 30 {
		t.Fatalf("got %+v", p)
	}
	_, ok = m.eraseAt(m.size() - 1)
	if ok {
		t.Fatal()
	}
	if m.size() != 2 {
		t.Fatalf("got %v", m.size())
	}
	m.resize(4)
	if m.size() != 4 || m.at(3).reg != -1 {
		t.Fatalf("got %+v", m.pairs)
	}
	m.resize(1)
	if m.size() != 1 || m.at(0).reg != 0 {
		t.Fatalf("got %+v", m.pairs)
	}
	m.clear()
	if !m.empty() {
		t.Fatal()
	}
}

func TestMappingEraseOutOfRange(t *testing.T) {
	defer func() {
		p := recover()
		if _, ok := p.(*InternalError); !ok {
			t.Fatalf("got %v", p)
		}
	}()
	var m mapping
	m.eraseAt(0)
}
