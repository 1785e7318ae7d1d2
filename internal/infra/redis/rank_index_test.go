package redis

import (
	"context"
	"testing"
	"time"

	"fanfirst-engagement-service/internal/domain"
	"fanfirst-engagement-service/internal/infra/memory"
)

func seededStore(t *testing.T, scores map[string]float64) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	for id, score := range scores {
		err := store.CreateAttempt(context.Background(), domain.QuizAttempt{
			ID: id, QuizID: "quiz-1", UserID: "user-" + id, Status: domain.AttemptCompleted, FinalScore: score,
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return store
}

func TestRankIndexRebuildsFromSource(t *testing.T) {
	mr, client := newMiniredis(t)
	idx := NewRankIndex(client, seededStore(t, map[string]float64{"a": 90, "b": 80, "c": 80}), time.Hour)

	higher, err := idx.CountHigher(context.Background(), "quiz-1", 80)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if higher != 1 {
		t.Fatalf("ties are not higher, expected 1 got %d", higher)
	}
	members, _ := mr.ZMembers("quiz:quiz-1:scores")
	if len(members) != 3 {
		t.Fatalf("expected index rebuilt with 3 members, got %v", members)
	}
}

func TestRankIndexRecord(t *testing.T) {
	_, client := newMiniredis(t)
	idx := NewRankIndex(client, seededStore(t, map[string]float64{"a": 90}), time.Hour)
	ctx := context.Background()

	if _, err := idx.CountHigher(ctx, "quiz-1", 0); err != nil {
		t.Fatalf("warm: %v", err)
	}
	if err := idx.Record(ctx, "quiz-1", "d", 95.5); err != nil {
		t.Fatalf("record: %v", err)
	}
	if higher, _ := idx.CountHigher(ctx, "quiz-1", 91); higher != 1 {
		t.Fatalf("expected recorded score counted, got %d", higher)
	}
	if higher, _ := idx.CountHigher(ctx, "quiz-1", 95.5); higher != 0 {
		t.Fatalf("expected nothing above top score, got %d", higher)
	}
}

func TestRankIndexEmptyQuiz(t *testing.T) {
	_, client := newMiniredis(t)
	idx := NewRankIndex(client, memory.NewStore(), time.Hour)
	if higher, err := idx.CountHigher(context.Background(), "quiz-9", 10); err != nil || higher != 0 {
		t.Fatalf("expected zero on empty quiz, got %d %v", higher, err)
	}
}
