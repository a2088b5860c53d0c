package utils

import (
	"regexp"
	"testing"
)

func TestReferenceSuffix(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{10}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		suffix, err := ReferenceSuffix(10)
		if err != nil {
			t.Fatalf("ReferenceSuffix failed: %v", err)
		}
		if !pattern.MatchString(suffix) {
			t.Fatalf("suffix %q is not 10 uppercase alphanumerics", suffix)
		}
		seen[suffix] = true
	}
	if len(seen) < 99 {
		t.Errorf("only %d distinct suffixes out of 100", len(seen))
	}
}

func TestReceiptReference(t *testing.T) {
	for _, kind := range []string{"deposit", "withdraw", "transfer"} {
		reference, err := ReceiptReference(kind)
		if err != nil {
			t.Fatalf("ReceiptReference(%q) failed: %v", kind, err)
		}
		if !regexp.MustCompile(`^[A-Z]+-[A-Z0-9]{8}$`).MatchString(reference) {
			t.Errorf("reference %q does not match KIND-XXXXXXXX", reference)
		}
	}
}
