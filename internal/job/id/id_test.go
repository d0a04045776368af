package id

import (
	"testing"

	"github.com/google/uuid"
)

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		generated := Generate()
		if seen[generated] {
			t.Fatalf("duplicate ID generated: %s", generated)
		}
		seen[generated] = true
	}
}

func TestGenerate_ValidUUID(t *testing.T) {
	generated := Generate()
	if _, err := uuid.Parse(generated); err != nil {
		t.Errorf("expected a valid UUID, got %q: %v", generated, err)
	}
}
