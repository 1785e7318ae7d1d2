package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"fanfirst-engagement-service/internal/domain"
	"fanfirst-engagement-service/internal/guard"
)

const (
	DefaultQuestionCount = 10
	MaxQuestionCount     = 20
	DefaultQuizDuration  = 180 // seconds
	optionsPerQuestion   = 4
	creativeTimeLimit    = 10
	standardTimeLimit    = 7
)

// CreateQuizInput describes a new quiz. Zero values take defaults.
type CreateQuizInput struct {
	ArtistID      string          `json:"artistId"`
	ArtistName    string          `json:"artistName"`
	EventID       string          `json:"eventId"`
	Type          domain.QuizType `json:"type"`
	QuestionCount int             `json:"questionCount"`
	Duration      int             `json:"duration"`
	StartTime     *time.Time      `json:"startTime"`
}

// GeneratedQuestions is a question set and where it came from.
type GeneratedQuestions struct {
	Questions []domain.Question `json:"questions"`
	Fallback  bool              `json:"fallback"`
	Reason    string            `json:"reason,omitempty"`
}

// QuizService authors quizzes and serves their content.
type QuizService struct {
	store     QuizStore
	quizzes   QuizRepository
	generator QuestionGenerator
	policy    guard.Policy
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewQuizService wires quiz authoring. generator may be nil, in which case every
// quiz uses the local question set.
func NewQuizService(store QuizStore, quizzes QuizRepository, generator QuestionGenerator, policy guard.Policy, logger *slog.Logger) *QuizService {
	if logger == nil {
		logger = slog.Default()
	}
	if policy.Logger == nil {
		policy.Logger = logger
	}
	return &QuizService{
		store:     store,
		quizzes:   quizzes,
		generator: generator,
		policy:    policy,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// GetQuiz returns a quiz through the cache.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

func (s *QuizService) ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	return s.store.ListQuizzes(ctx, filter)
}

// CreateQuiz generates questions for the artist and stores a new quiz. A quiz
// with a start time begins pending; otherwise it is active immediately.
func (s *QuizService) CreateQuiz(ctx context.Context, in CreateQuizInput) (domain.Quiz, error) {
	if strings.TrimSpace(in.ArtistID) == "" || strings.TrimSpace(in.ArtistName) == "" {
		return domain.Quiz{}, domain.InvalidInput("artistId", "artist id and name are required")
	}
	quizType := in.Type
	switch quizType {
	case "":
		quizType = domain.QuizAsync
	case domain.QuizLive, domain.QuizAsync:
	default:
		return domain.Quiz{}, domain.InvalidInput("type", fmt.Sprintf("unknown quiz type %q", in.Type))
	}
	count, err := questionCount(in.QuestionCount)
	if err != nil {
		return domain.Quiz{}, err
	}
	duration := in.Duration
	if duration < 0 {
		return domain.Quiz{}, domain.InvalidInput("duration", "duration must be non-negative")
	}
	if duration == 0 {
		duration = DefaultQuizDuration
	}

	generated := s.GenerateQuestions(ctx, in.ArtistName, count)

	quiz := domain.Quiz{
		ID:         s.newID(),
		ArtistID:   in.ArtistID,
		ArtistName: in.ArtistName,
		EventID:    in.EventID,
		Type:       quizType,
		Status:     domain.QuizActive,
		Duration:   duration,
		StartTime:  in.StartTime,
		CreatedAt:  s.now(),
	}
	if in.StartTime != nil {
		quiz.Status = domain.QuizPending
	}
	for i, q := range generated.Questions {
		q.ID = s.newID()
		q.QuizID = quiz.ID
		q.OrderIndex = i
		quiz.Questions = append(quiz.Questions, q)
	}
	quiz.QuestionCount = len(quiz.Questions)

	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.logger.Info("quiz created", "quiz", quiz.ID, "artist", quiz.ArtistID, "questions", quiz.QuestionCount, "fallback", generated.Fallback)
	return quiz, nil
}

// GenerateQuestions always returns questions: generated ones when the
// generator answers with usable output, the local set otherwise.
func (s *QuizService) GenerateQuestions(ctx context.Context, artistName string, count int) GeneratedQuestions {
	count = min(max(count, 1), MaxQuestionCount)
	fallback := sanitizeQuestions(fallbackQuestions(artistName, count), count)
	if s.generator == nil {
		return GeneratedQuestions{Questions: fallback, Fallback: true, Reason: "generator-disabled"}
	}

	res := guard.Call(ctx, s.policy, func(ctx context.Context) ([]domain.Question, error) {
		raw, err := s.generator.GenerateQuestions(ctx, artistName, count)
		if err != nil {
			return nil, err
		}
		return sanitizeQuestions(raw, count), nil
	}, func(qs []domain.Question) error {
		if len(qs) == 0 {
			return domain.Malformed(s.policy.Service, "no usable questions")
		}
		return nil
	}, fallback)

	return GeneratedQuestions{Questions: res.Value, Fallback: res.Fallback, Reason: res.Reason}
}

func questionCount(n int) (int, error) {
	switch {
	case n == 0:
		return DefaultQuestionCount, nil
	case n < 0 || n > MaxQuestionCount:
		return 0, domain.InvalidInput("questionCount", fmt.Sprintf("question count must be within [1,%d]", MaxQuestionCount))
	}
	return n, nil
}

// sanitizeQuestions drops unusable questions, trims options to four and fills
// in type, difficulty and time limit.
func sanitizeQuestions(in []domain.Question, limit int) []domain.Question {
	out := make([]domain.Question, 0, len(in))
	for _, q := range in {
		if strings.TrimSpace(q.Prompt) == "" || q.CorrectAnswer == "" || len(q.Options) < optionsPerQuestion {
			continue
		}
		q.Options = append([]string(nil), q.Options[:optionsPerQuestion]...)
		if q.Type == "" {
			q.Type = domain.QuestionMultipleChoice
		}
		if q.Difficulty == "" {
			q.Difficulty = "medium"
		}
		q.TimeLimit = standardTimeLimit
		if q.Type == domain.QuestionCreative {
			q.TimeLimit = creativeTimeLimit
		}
		out = append(out, q)
		if len(out) == limit {
			break
		}
	}
	return out
}
