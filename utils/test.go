package utils

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func AssertTrue(t *testing.T, a bool) {
	t.Helper()
	if !a {
		t.Fatalf("Expected true, got false")
	}
}

func AssertEqual(t *testing.T, a interface{}, b interface{}) {
	t.Helper()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("Expected equal (-got +want):\n%s", diff)
	}
}

// AssertClose fails unless a is within margin of b.
func AssertClose(t *testing.T, a, b, margin float64) {
	t.Helper()
	if !cmp.Equal(a, b, cmpopts.EquateApprox(0, margin)) {
		t.Fatalf("Expected %v within %v of %v", a, margin, b)
	}
}
