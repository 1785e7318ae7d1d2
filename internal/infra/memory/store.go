package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"fanfirst-engagement-service/internal/domain"
)

// Store keeps quizzes, attempts and fandom scores in process memory. It backs
// local runs without a database and the service tests.
type Store struct {
	mu        sync.RWMutex
	quizzes   map[string]domain.Quiz
	attempts  map[string]domain.QuizAttempt
	order     []string // attempt ids in insertion order
	responses map[string][]domain.QuizResponse
	fandom    map[string]int
}

func NewStore() *Store {
	return &Store{
		quizzes:   make(map[string]domain.Quiz),
		attempts:  make(map[string]domain.QuizAttempt),
		responses: make(map[string][]domain.QuizResponse),
		fandom:    make(map[string]int),
	}
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = cloneQuiz(quiz)
	return nil
}

// LoadQuiz makes Store usable as a QuizLoader behind the cache.
func (s *Store) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(quiz), nil
}

func (s *Store) ListQuizzes(_ context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		if filter.Status != "" && q.Status != filter.Status {
			continue
		}
		if filter.Type != "" && q.Type != filter.Type {
			continue
		}
		if filter.ArtistID != "" && q.ArtistID != filter.ArtistID {
			continue
		}
		out = append(out, cloneQuiz(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateAttempt(_ context.Context, attempt domain.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.ID] = cloneAttempt(attempt)
	s.order = append(s.order, attempt.ID)
	return nil
}

func (s *Store) GetAttempt(_ context.Context, attemptID string) (domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attempts[attemptID]
	if !ok {
		return domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	return cloneAttempt(a), nil
}

func (s *Store) FindInProgress(_ context.Context, quizID, userID string) (domain.QuizAttempt, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		a := s.attempts[id]
		if a.QuizID == quizID && a.UserID == userID && a.Status == domain.AttemptInProgress {
			return cloneAttempt(a), true, nil
		}
	}
	return domain.QuizAttempt{}, false, nil
}

func (s *Store) CompleteAttempt(_ context.Context, attempt domain.QuizAttempt, responses []domain.QuizResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.attempts[attempt.ID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if cur.Status != domain.AttemptInProgress {
		return domain.ErrAttemptCompleted
	}
	s.attempts[attempt.ID] = cloneAttempt(attempt)
	s.responses[attempt.ID] = slices.Clone(responses)
	return nil
}

func (s *Store) SetRank(_ context.Context, attemptID string, rank int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[attemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	a.Rank = rank
	s.attempts[attemptID] = a
	return nil
}

func (s *Store) CountHigherScores(_ context.Context, quizID string, score float64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.attempts {
		if a.QuizID == quizID && a.Status == domain.AttemptCompleted && a.FinalScore > score {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListCompleted(_ context.Context, filter domain.AttemptFilter) ([]domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.QuizAttempt
	for _, id := range s.order {
		a := s.attempts[id]
		if a.Status != domain.AttemptCompleted {
			continue
		}
		if filter.QuizID != "" && a.QuizID != filter.QuizID {
			continue
		}
		if filter.ArtistID != "" && s.quizzes[a.QuizID].ArtistID != filter.ArtistID {
			continue
		}
		out = append(out, cloneAttempt(a))
	}
	return out, nil
}

// Responses returns the answers recorded for an attempt.
func (s *Store) Responses(attemptID string) []domain.QuizResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.responses[attemptID])
}

func (s *Store) IncrementFandomScore(_ context.Context, userID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fandom[userID] += delta
	return s.fandom[userID], nil
}

func (s *Store) GetFandomScore(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fandom[userID], nil
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	q.Questions = slices.Clone(q.Questions)
	for i := range q.Questions {
		q.Questions[i].Options = slices.Clone(q.Questions[i].Options)
	}
	return q
}

func cloneAttempt(a domain.QuizAttempt) domain.QuizAttempt {
	a.ResponseTimes = slices.Clone(a.ResponseTimes)
	return a
}
