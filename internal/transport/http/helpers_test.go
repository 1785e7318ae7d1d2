package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"fanfirst-engagement-service/internal/app"
	"fanfirst-engagement-service/internal/comfort"
	"fanfirst-engagement-service/internal/domain"
	"fanfirst-engagement-service/internal/guard"
	"fanfirst-engagement-service/internal/infra/memory"
	"fanfirst-engagement-service/internal/scoring"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	if err := store.CreateQuiz(context.Background(), sampleQuiz()); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	repo := memory.NewQuizRepository(store, time.Minute)
	live := app.NewLiveService(memory.NewSessionStore(), repo)
	attempts := app.NewAttemptService(repo, store, store, scoring.NewEngine(scoring.DefaultConfig()), scoring.DefaultBonusConfig(), nil).
		WithPublisher(live)

	srv := NewServer(Services{
		Quizzes:     app.NewQuizService(store, repo, nil, guard.DefaultPolicy("question-ai"), nil),
		Attempts:    attempts,
		Leaderboard: app.NewLeaderboardService(store),
		Fandom:      app.NewFandomService(store, nil),
		Live:        live,
		Comfort:     comfort.NewClassifier(comfort.NewEngine(comfort.DefaultWeights()), nil, guard.DefaultPolicy("comfort-ai"), nil),
	}, ServerConfig{})

	server := httptest.NewServer(srv.Router())
	t.Cleanup(server.Close)
	return server
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:         "quiz-1",
		ArtistID:   "artist-1",
		ArtistName: "Nova",
		Type:       domain.QuizLive,
		Status:     domain.QuizActive,
		Questions: []domain.Question{
			{ID: "q1", Prompt: "Debut year?", Options: []string{"2015", "2016", "2017", "2018"}, CorrectAnswer: "2016", TimeLimit: 7},
			{ID: "q2", Prompt: "Real first name?", Options: []string{"Michael", "James", "David", "Robert"}, CorrectAnswer: "Michael", TimeLimit: 7},
		},
	}
}
