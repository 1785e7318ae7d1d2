package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fanfirst-engagement-service/internal/domain"
	"fanfirst-engagement-service/internal/scoring"
)

// AttemptService runs an attempt from start to a scored, ranked result.
type AttemptService struct {
	quizzes   QuizRepository
	attempts  AttemptStore
	fandom    FandomStore
	engine    *scoring.Engine
	bonus     scoring.BonusConfig
	ranks     RankIndex
	publisher ResultPublisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

func NewAttemptService(quizzes QuizRepository, attempts AttemptStore, fandom FandomStore, engine *scoring.Engine, bonus scoring.BonusConfig, logger *slog.Logger) *AttemptService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttemptService{
		quizzes:  quizzes,
		attempts: attempts,
		fandom:   fandom,
		engine:   engine,
		bonus:    bonus,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithRankIndex makes rank lookups go through idx before falling back to the store.
func (s *AttemptService) WithRankIndex(idx RankIndex) *AttemptService {
	s.ranks = idx
	return s
}

// WithPublisher announces completed attempts, typically to live rooms.
func (s *AttemptService) WithPublisher(p ResultPublisher) *AttemptService {
	s.publisher = p
	return s
}

// WithClock is test-only for deterministic timestamps.
func (s *AttemptService) WithClock(now func() time.Time) *AttemptService {
	s.now = now
	return s
}

// StartAttempt opens an attempt for userID on an active quiz. An attempt already
// in progress is returned as-is with created=false.
func (s *AttemptService) StartAttempt(ctx context.Context, quizID, userID string) (attempt domain.QuizAttempt, created bool, err error) {
	if userID == "" {
		return domain.QuizAttempt{}, false, domain.ErrUserIDRequired
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizAttempt{}, false, err
	}
	if !quiz.AcceptingAttempts(s.now()) {
		return domain.QuizAttempt{}, false, domain.ErrQuizInactive
	}
	if len(quiz.Questions) == 0 {
		return domain.QuizAttempt{}, false, domain.InvalidInput("quizId", "quiz has no questions")
	}

	existing, ok, err := s.attempts.FindInProgress(ctx, quizID, userID)
	if err != nil {
		return domain.QuizAttempt{}, false, err
	}
	if ok {
		return existing, false, nil
	}

	attempt = domain.QuizAttempt{
		ID:             s.newID(),
		QuizID:         quizID,
		UserID:         userID,
		TotalQuestions: len(quiz.Questions),
		ResponseTimes:  []int64{},
		Status:         domain.AttemptInProgress,
		StartedAt:      s.now(),
	}
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return domain.QuizAttempt{}, false, err
	}
	s.logger.Info("attempt started", "attempt", attempt.ID, "quiz", quizID, "user", userID)
	return attempt, true, nil
}

// SubmitAttempt scores the responses, completes the attempt, awards the fandom
// bonus and ranks the result. Responses to unknown questions and repeat answers
// to a question already answered are skipped; the first answer counts.
func (s *AttemptService) SubmitAttempt(ctx context.Context, attemptID string, responses []domain.ResponseInput) (domain.SubmitResult, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	if attempt.Status == domain.AttemptCompleted {
		return domain.SubmitResult{}, domain.ErrAttemptCompleted
	}
	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	var (
		flags   []bool
		records []domain.QuizResponse
		correct int
	)
	times := make([]int64, 0, len(responses))
	answered := make(map[string]struct{}, len(responses))
	for _, in := range responses {
		question, ok := quiz.QuestionByID(in.QuestionID)
		if !ok {
			continue
		}
		if _, dup := answered[question.ID]; dup {
			continue
		}
		answered[question.ID] = struct{}{}
		if in.ResponseTime < 0 {
			return domain.SubmitResult{}, domain.InvalidInput("responseTime", "response times must be non-negative")
		}
		isCorrect := in.Answer == question.CorrectAnswer
		if isCorrect {
			correct++
		}
		flags = append(flags, isCorrect)
		times = append(times, in.ResponseTime)
		records = append(records, domain.QuizResponse{
			ID:           s.newID(),
			AttemptID:    attempt.ID,
			QuestionID:   question.ID,
			Answer:       in.Answer,
			IsCorrect:    isCorrect,
			ResponseTime: in.ResponseTime,
		})
	}

	total := attempt.TotalQuestions
	if total == 0 {
		total = len(quiz.Questions)
	}

	scores, err := s.engine.Score(correct, total, times)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	streak, maxStreak := scoring.TrackStreak(flags)

	completedAt := s.now()
	attempt.TotalQuestions = total
	attempt.CorrectAnswers = correct
	attempt.ResponseTimes = times
	attempt.Streak = streak
	attempt.MaxStreak = maxStreak
	attempt.AvgResponseTime = scores.AvgResponse
	attempt.ResponseTimeStdDev = scores.StdDev
	attempt.AccuracyScore = scores.Accuracy
	attempt.SpeedScore = scores.Speed
	attempt.ConsistencyScore = scores.Consistency
	attempt.FinalScore = scores.Final
	attempt.Status = domain.AttemptCompleted
	attempt.CompletedAt = &completedAt

	if err := s.attempts.CompleteAttempt(ctx, attempt, records); err != nil {
		return domain.SubmitResult{}, err
	}

	bonus, err := s.bonus.Bonus(correct, total, maxStreak, correct == total)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	if bonus > 0 {
		if _, err := s.fandom.IncrementFandomScore(ctx, attempt.UserID, bonus); err != nil {
			s.logger.Error("fandom bonus not applied", "attempt", attempt.ID, "user", attempt.UserID, "bonus", bonus, "error", err)
		}
	}

	rank, err := s.rank(ctx, attempt)
	if err != nil {
		s.logger.Error("rank lookup failed", "attempt", attempt.ID, "error", err)
	} else {
		attempt.Rank = rank
		if err := s.attempts.SetRank(ctx, attempt.ID, rank); err != nil {
			s.logger.Error("rank not stored", "attempt", attempt.ID, "error", err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishResult(ctx, attempt); err != nil {
			s.logger.Warn("publish result failed", "attempt", attempt.ID, "error", err)
		}
	}

	s.logger.Info("attempt completed",
		"attempt", attempt.ID,
		"quiz", attempt.QuizID,
		"user", attempt.UserID,
		"correct", correct,
		"total", total,
		"final", attempt.FinalScore,
		"rank", attempt.Rank,
		"bonus", bonus,
	)
	return domain.SubmitResult{Attempt: attempt, FandomBonus: bonus, Rank: attempt.Rank}, nil
}

// rank counts strictly higher completed scores. The rank index is consulted
// first; the store is the source of truth when the index fails.
func (s *AttemptService) rank(ctx context.Context, attempt domain.QuizAttempt) (int, error) {
	if s.ranks != nil {
		higher, err := s.ranks.CountHigher(ctx, attempt.QuizID, attempt.FinalScore)
		if err == nil {
			if err := s.ranks.Record(ctx, attempt.QuizID, attempt.ID, attempt.FinalScore); err != nil {
				s.logger.Warn("rank index record failed", "attempt", attempt.ID, "error", err)
			}
			return scoring.Rank(higher)
		}
		s.logger.Warn("rank index unavailable, counting in store", "quiz", attempt.QuizID, "error", err)
	}
	higher, err := s.attempts.CountHigherScores(ctx, attempt.QuizID, attempt.FinalScore)
	if err != nil {
		return 0, err
	}
	return scoring.Rank(higher)
}

// GetAttempt returns a stored attempt.
func (s *AttemptService) GetAttempt(ctx context.Context, attemptID string) (domain.QuizAttempt, error) {
	return s.attempts.GetAttempt(ctx, attemptID)
}
