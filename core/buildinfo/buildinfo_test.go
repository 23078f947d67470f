package buildinfo

import "testing"

func TestString(t *testing.T) {
	if got := String(); got != "dev (commit local, built unknown)" {
		t.Fatalf("String() = %q", got)
	}
}
