package memory

import (
	"context"
	"errors"
	"testing"

	"solo-quiz-service/internal/domain"
)

func TestStoreGetSet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "quiz.items.v1"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := store.Set(ctx, "quiz.items.v1", "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, err := store.Get(ctx, "quiz.items.v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "[]" {
		t.Fatalf("expected stored value, got %q", value)
	}

	// Last writer wins.
	if err := store.Set(ctx, "quiz.items.v1", "[1]"); err != nil {
		t.Fatalf("set again: %v", err)
	}
	value, _ = store.Get(ctx, "quiz.items.v1")
	if value != "[1]" {
		t.Fatalf("expected overwrite, got %q", value)
	}
}
