package id

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerator_NewID(t *testing.T) {
	gen := NewUUIDGenerator()

	first, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	second, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}

	if first == second {
		t.Fatalf("expected distinct ids, got %s twice", first)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("expected uuid, got %q: %v", first, err)
	}
}

func TestSequenceGenerator_NewID(t *testing.T) {
	gen := &SequenceGenerator{Prefix: "conn-"}

	got, _ := gen.NewID()
	if got != "conn-1" {
		t.Fatalf("unexpected first id: %s", got)
	}
	got, _ = gen.NewID()
	if got != "conn-2" {
		t.Fatalf("unexpected second id: %s", got)
	}
}
