package envutil

import (
	"testing"
	"time"
)

func TestEnvParsing(t *testing.T) {
	t.Setenv("BARISTA_TEST_INT", "7")
	t.Setenv("BARISTA_TEST_BAD_INT", "seven")
	t.Setenv("BARISTA_TEST_BOOL", "off")
	t.Setenv("BARISTA_TEST_DUR", "45")
	t.Setenv("BARISTA_TEST_DUR2", "2m")
	t.Setenv("BARISTA_TEST_FLOAT", "0.25")

	if got := Int("BARISTA_TEST_INT", 1); got != 7 {
		t.Fatalf("Int: got %d", got)
	}
	if got := Int("BARISTA_TEST_BAD_INT", 3); got != 3 {
		t.Fatalf("Int fallback: got %d", got)
	}
	if got := Bool("BARISTA_TEST_BOOL", true); got {
		t.Fatalf("Bool: expected false")
	}
	if got := Duration("BARISTA_TEST_DUR", time.Second); got != 45*time.Second {
		t.Fatalf("Duration secs: got %s", got)
	}
	if got := Duration("BARISTA_TEST_DUR2", time.Second); got != 2*time.Minute {
		t.Fatalf("Duration str: got %s", got)
	}
	if got := Float("BARISTA_TEST_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float: got %v", got)
	}
	if got := String("BARISTA_TEST_UNSET", "x"); got != "x" {
		t.Fatalf("String default: got %q", got)
	}
}

func TestClamp(t *testing.T) {
	cases := []struct{ v, lo, hi, want int }{
		{1, 3, 5, 3},
		{4, 3, 5, 4},
		{9, 3, 5, 5},
	}
	for _, c := range cases {
		if got := Clamp(c.v, c.lo, c.hi); got != c.want {
			t.Fatalf("Clamp(%d,%d,%d)=%d want %d", c.v, c.lo, c.hi, got, c.want)
		}
	}
}
