package app_test

import (
	"context"
	"reflect"
	"testing"

	"solo-quiz-service/internal/app"
	"solo-quiz-service/internal/domain"
	"solo-quiz-service/internal/infra/memory"
)

func TestBankStoreFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()

	cases := map[string]func(kv *memory.Store){
		"absent":    func(kv *memory.Store) {},
		"bad json":  func(kv *memory.Store) { _ = kv.Set(ctx, "quiz.items.v1", "{nope") },
		"non-array": func(kv *memory.Store) { _ = kv.Set(ctx, "quiz.items.v1", `{"id":1}`) },
		"empty":     func(kv *memory.Store) { _ = kv.Set(ctx, "quiz.items.v1", `[]`) },
	}
	for name, seed := range cases {
		kv := memory.NewStore()
		seed(kv)
		bank := app.NewBankStore(kv)

		questions, err := bank.Load(ctx)
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		if !reflect.DeepEqual(questions, domain.DefaultQuestions()) {
			t.Fatalf("%s: expected default set", name)
		}
	}
}

func TestBankStoreSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()

	saved := []domain.Question{
		{
			ID:      1,
			Type:    domain.TypeCheckbox,
			Prompt:  "Pick two",
			Choices: map[string]string{"A": "x", "B": "y", "C": "z"},
			Answer:  domain.SetAnswer("A", "C"),
		},
		{
			ID:      2,
			Type:    domain.TypeTrueFalse,
			Prompt:  "Yes?",
			Choices: map[string]string{"A": "True", "B": "False"},
			Answer:  domain.SingleAnswer("A"),
		},
	}
	if err := app.NewBankStore(kv).Save(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Fresh store over the same medium, so the cache cannot help.
	loaded, err := app.NewBankStore(kv).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(saved, loaded) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", saved, loaded)
	}
}

func TestBankStoreCachesDecodedBank(t *testing.T) {
	ctx := context.Background()
	kv := &countingKV{Store: memory.NewStore()}
	bank := app.NewBankStore(kv)

	if _, err := bank.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if kv.gets != 1 {
		t.Fatalf("expected one backend read, got %d", kv.gets)
	}
	if _, err := bank.Load(ctx); err != nil {
		t.Fatalf("load 2: %v", err)
	}
	if kv.gets != 1 {
		t.Fatalf("expected cache hit, backend reads %d", kv.gets)
	}
}

func TestBankStoreLoadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	bank := app.NewBankStore(memory.NewStore())

	first, err := bank.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for key := range first[0].Choices {
		first[0].Choices[key] = "mutated"
	}

	second, _ := bank.Load(ctx)
	for _, text := range second[0].Choices {
		if text == "mutated" {
			t.Fatalf("loaded bank must not share state with earlier callers")
		}
	}
}

func TestSettingsStoreDefaultsAndRepair(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	settings := app.NewSettingsStore(kv)

	if n, err := settings.TimerSeconds(ctx); err != nil || n != app.DefaultTimerSeconds {
		t.Fatalf("expected default timer %d, got %d err=%v", app.DefaultTimerSeconds, n, err)
	}
	if n, err := settings.HighestScore(ctx); err != nil || n != 0 {
		t.Fatalf("expected default highest 0, got %d err=%v", n, err)
	}

	// Corrupt entries repair to defaults instead of erroring.
	_ = kv.Set(ctx, "quiz.timerSeconds.v1", "soon")
	if n, _ := settings.TimerSeconds(ctx); n != app.DefaultTimerSeconds {
		t.Fatalf("expected repair to default, got %d", n)
	}
	_ = kv.Set(ctx, "quiz.timerSeconds.v1", "-30")
	if n, _ := settings.TimerSeconds(ctx); n != app.DefaultTimerSeconds {
		t.Fatalf("expected negative to repair to default, got %d", n)
	}

	if err := settings.SetTimerSeconds(ctx, 90); err != nil {
		t.Fatalf("set timer: %v", err)
	}
	if n, _ := settings.TimerSeconds(ctx); n != 90 {
		t.Fatalf("expected 90, got %d", n)
	}

	if err := settings.SetHighestScore(ctx, 4); err != nil {
		t.Fatalf("set highest: %v", err)
	}
	if err := settings.SetLastScore(ctx, 2); err != nil {
		t.Fatalf("set last: %v", err)
	}
	if err := settings.ResetScores(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	highest, _ := settings.HighestScore(ctx)
	last, _ := settings.LastScore(ctx)
	if highest != 0 || last != 0 {
		t.Fatalf("expected zeroed scores, got %d/%d", highest, last)
	}
}

type countingKV struct {
	*memory.Store
	gets int
}

func (c *countingKV) Get(ctx context.Context, key string) (string, error) {
	c.gets++
	return c.Store.Get(ctx, key)
}
