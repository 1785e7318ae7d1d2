package sqlstore_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"fanfirst-engagement-service/internal/domain"
	"fanfirst-engagement-service/internal/infra/sqlstore"
	"fanfirst-engagement-service/internal/infra/sqlstore/migrations"
)

func newStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sqlstore.Open(sqlstore.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := migrations.Apply(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return sqlstore.NewStore(db)
}

func sampleQuiz(id, artistID string) domain.Quiz {
	return domain.Quiz{
		ID:            id,
		ArtistID:      artistID,
		ArtistName:    "Nova",
		Type:          domain.QuizAsync,
		Status:        domain.QuizActive,
		Duration:      180,
		QuestionCount: 2,
		CreatedAt:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Questions: []domain.Question{
			{ID: id + "-q2", QuizID: id, Prompt: "Second", Type: domain.QuestionMultipleChoice, Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "b", Difficulty: "medium", TimeLimit: 7, OrderIndex: 1},
			{ID: id + "-q1", QuizID: id, Prompt: "First", Type: domain.QuestionCreative, Options: []string{"w", "x", "y", "z"}, CorrectAnswer: "y", Difficulty: "hard", TimeLimit: 10, OrderIndex: 0},
		},
	}
}

func TestStoreQuizRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	if err := store.CreateQuiz(ctx, sampleQuiz("quiz-1", "artist-1")); err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	quiz, err := store.LoadQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	if len(quiz.Questions) != 2 || quiz.Questions[0].Prompt != "First" {
		t.Fatalf("expected questions ordered by index, got %+v", quiz.Questions)
	}
	if quiz.Questions[0].CorrectAnswer != "y" || len(quiz.Questions[0].Options) != 4 {
		t.Fatalf("question fields lost: %+v", quiz.Questions[0])
	}

	if _, err := store.LoadQuiz(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_ = store.CreateQuiz(ctx, sampleQuiz("quiz-2", "artist-2"))
	listed, err := store.ListQuizzes(ctx, domain.QuizFilter{ArtistID: "artist-2"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != "quiz-2" {
		t.Fatalf("unexpected listing %+v", listed)
	}
}

func TestStoreCompleteAttemptOnce(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_ = store.CreateQuiz(ctx, sampleQuiz("quiz-1", "artist-1"))

	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	attempt := domain.QuizAttempt{ID: "a1", QuizID: "quiz-1", UserID: "u1", Status: domain.AttemptInProgress, TotalQuestions: 2, StartedAt: started}
	if err := store.CreateAttempt(ctx, attempt); err != nil {
		t.Fatalf("create attempt: %v", err)
	}
	open, ok, err := store.FindInProgress(ctx, "quiz-1", "u1")
	if err != nil || !ok || open.ID != "a1" {
		t.Fatalf("expected open attempt, got %+v %v %v", open, ok, err)
	}

	done := started.Add(time.Minute)
	attempt.Status = domain.AttemptCompleted
	attempt.CorrectAnswers = 1
	attempt.ResponseTimes = []int64{1200, 3400}
	attempt.FinalScore = 61.5
	attempt.CompletedAt = &done
	responses := []domain.QuizResponse{
		{ID: "r1", AttemptID: "a1", QuestionID: "quiz-1-q1", Answer: "y", IsCorrect: true, ResponseTime: 1200},
		{ID: "r2", AttemptID: "a1", QuestionID: "quiz-1-q2", Answer: "c", ResponseTime: 3400},
	}
	if err := store.CompleteAttempt(ctx, attempt, responses); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := store.CompleteAttempt(ctx, attempt, responses); !errors.Is(err, domain.ErrAttemptCompleted) {
		t.Fatalf("expected second completion rejected, got %v", err)
	}
	ghost := attempt
	ghost.ID = "ghost"
	if err := store.CompleteAttempt(ctx, ghost, nil); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	got, err := store.GetAttempt(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.AttemptCompleted || got.FinalScore != 61.5 || len(got.ResponseTimes) != 2 || got.CompletedAt == nil {
		t.Fatalf("completion not persisted: %+v", got)
	}
	stored, err := store.Responses(ctx, "a1")
	if err != nil || len(stored) != 2 {
		t.Fatalf("expected 2 responses, got %d %v", len(stored), err)
	}
	if _, ok, _ := store.FindInProgress(ctx, "quiz-1", "u1"); ok {
		t.Fatalf("completed attempt must not be reported as open")
	}
}

func TestStoreRanking(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_ = store.CreateQuiz(ctx, sampleQuiz("quiz-1", "artist-1"))
	_ = store.CreateQuiz(ctx, sampleQuiz("quiz-2", "artist-2"))

	seed := []domain.QuizAttempt{
		{ID: "a", QuizID: "quiz-1", UserID: "u1", Status: domain.AttemptCompleted, FinalScore: 90},
		{ID: "b", QuizID: "quiz-1", UserID: "u2", Status: domain.AttemptCompleted, FinalScore: 80},
		{ID: "c", QuizID: "quiz-1", UserID: "u3", Status: domain.AttemptCompleted, FinalScore: 80},
		{ID: "d", QuizID: "quiz-1", UserID: "u4", Status: domain.AttemptInProgress, FinalScore: 99},
		{ID: "e", QuizID: "quiz-2", UserID: "u5", Status: domain.AttemptCompleted, FinalScore: 99},
	}
	for i, a := range seed {
		a.StartedAt = time.Date(2025, 3, 1, 12, i, 0, 0, time.UTC)
		if err := store.CreateAttempt(ctx, a); err != nil {
			t.Fatalf("seed %s: %v", a.ID, err)
		}
	}

	higher, err := store.CountHigherScores(ctx, "quiz-1", 80)
	if err != nil || higher != 1 {
		t.Fatalf("expected 1 higher score, got %d %v", higher, err)
	}
	if err := store.SetRank(ctx, "b", 2); err != nil {
		t.Fatalf("set rank: %v", err)
	}
	if err := store.SetRank(ctx, "nope", 2); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if got, _ := store.GetAttempt(ctx, "b"); got.Rank != 2 {
		t.Fatalf("rank not stored: %d", got.Rank)
	}

	byArtist, err := store.ListCompleted(ctx, domain.AttemptFilter{ArtistID: "artist-1"})
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(byArtist) != 3 || byArtist[0].ID != "a" {
		t.Fatalf("unexpected completed listing %+v", byArtist)
	}
}

func TestStoreFandomScoreIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	if score, err := store.GetFandomScore(ctx, "u1"); err != nil || score != 0 {
		t.Fatalf("expected zero for unknown user, got %d %v", score, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.IncrementFandomScore(ctx, "u1", 5); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()

	total, err := store.IncrementFandomScore(ctx, "u1", 10)
	if err != nil || total != 60 {
		t.Fatalf("expected 60, got %d %v", total, err)
	}
}
