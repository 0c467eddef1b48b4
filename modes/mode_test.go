package modes

import (
	"testing"

	"github.com/reusee/dscope"
)

func TestForProduction(t *testing.T) {
	dscope.New(ForProduction()).Call(func(
		got *testing.T,
		mode Mode,
	) {
		if got != nil {
			t.Fatal()
		}
		if mode != ModeProduction || mode.Checked() {
			t.Fatalf("got %v", mode)
		}
	})
}

func TestForTest(t *testing.T) {
	dscope.New(ForTest(t)).Call(func(
		got *testing.T,
		mode Mode,
	) {
		if got != t {
			t.Fatal()
		}
		if mode != ModeDevelopment || !mode.Checked() || mode.String() != "development" {
			t.Fatalf("got %v", mode)
		}
	})
}
