package redis

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"solo-quiz-service/internal/domain"
)

func TestStoreGetSet(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	if _, err := store.Get(ctx, "quiz.timerSeconds.v1"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := store.Set(ctx, "quiz.timerSeconds.v1", "120"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, err := store.Get(ctx, "quiz.timerSeconds.v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "120" {
		t.Fatalf("expected 120, got %q", value)
	}
	if got, _ := mr.Get("quiz.timerSeconds.v1"); got != "120" {
		t.Fatalf("expected raw redis value 120, got %q", got)
	}
}

func TestStoreEntriesDoNotExpire(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	if err := store.Set(context.Background(), "quiz.highestScore.v1", "3"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if mr.TTL("quiz.highestScore.v1") != 0 {
		t.Fatalf("expected no TTL on score key")
	}
}
