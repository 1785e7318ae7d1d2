package app

import (
	"context"

	"fanfirst-engagement-service/internal/domain"
)

// SessionRepository abstracts how live quiz rooms are stored (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(quizID string) *Session
	Get(quizID string) (*Session, bool)
	DeleteIfEmpty(quizID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizStore persists quizzes and their questions.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error)
}

// AttemptStore persists attempts and their responses.
type AttemptStore interface {
	CreateAttempt(ctx context.Context, attempt domain.QuizAttempt) error
	GetAttempt(ctx context.Context, attemptID string) (domain.QuizAttempt, error)
	// FindInProgress returns the user's open attempt on a quiz, if any.
	FindInProgress(ctx context.Context, quizID, userID string) (domain.QuizAttempt, bool, error)
	// CompleteAttempt writes the scored attempt and its responses only if the
	// stored attempt is still in progress, otherwise domain.ErrAttemptCompleted.
	CompleteAttempt(ctx context.Context, attempt domain.QuizAttempt, responses []domain.QuizResponse) error
	SetRank(ctx context.Context, attemptID string, rank int) error
	// CountHigherScores counts completed attempts on quizID with a final score strictly above score.
	CountHigherScores(ctx context.Context, quizID string, score float64) (int, error)
	ListCompleted(ctx context.Context, filter domain.AttemptFilter) ([]domain.QuizAttempt, error)
}

// FandomStore keeps each user's cumulative fandom score.
type FandomStore interface {
	// IncrementFandomScore adds delta atomically and returns the new total.
	IncrementFandomScore(ctx context.Context, userID string, delta int) (int, error)
	GetFandomScore(ctx context.Context, userID string) (int, error)
}

// RankIndex is an optional fast path for rank queries.
type RankIndex interface {
	Record(ctx context.Context, quizID, attemptID string, score float64) error
	CountHigher(ctx context.Context, quizID string, score float64) (int, error)
}

// QuestionGenerator authors trivia questions about an artist.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, artistName string, count int) ([]domain.Question, error)
}

// ResultPublisher announces completed attempts to live rooms.
type ResultPublisher interface {
	PublishResult(ctx context.Context, attempt domain.QuizAttempt) error
}
