package vars

import "testing"

func TestFirstNonZero(t *testing.T) {
	if got := FirstNonZero(0, 500, 1000); got != 500 {
		t.Fatalf("got %v", got)
	}
	if got := FirstNonZero[int64](); got != 0 {
		t.Fatalf("got %v", got)
	}
	if got := FirstNonZero("", "", "hky.star"); got != "hky.star" {
		t.Fatalf("got %v", got)
	}
}

func TestStrToBool(t *testing.T) {
	for str, want := range map[string]bool{
		"true": true,
		"T":    true,
		"1":    true,
		"yes":  true,
		"On":   true,
		"no":   false,
		"0":    false,
		"off":  false,
		"":     false,
	} {
		if got := StrToBool(str); got != want {
			t.Fatalf("%q: got %v", str, got)
		}
	}
}
