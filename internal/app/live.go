package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"fanfirst-engagement-service/internal/domain"
)

// LiveService runs the real-time rooms where fans watch a quiz leaderboard fill in.
type LiveService struct {
	sessions SessionRepository
	quizzes  QuizRepository
}

func NewLiveService(store SessionRepository, quizzes QuizRepository) *LiveService {
	return &LiveService{sessions: store, quizzes: quizzes}
}

// NewSessionWithClock is exported for the session stores; now stamps joins and results.
func NewSessionWithClock(id string, now func() time.Time) *Session {
	return newSessionWithClock(id, now)
}

// Join registers or refreshes a participant in a quiz room.
func (s *LiveService) Join(ctx context.Context, quizID, userID, displayName string) (domain.Leaderboard, error) {
	if userID == "" {
		return domain.Leaderboard{}, domain.ErrUserIDRequired
	}
	// Preload quiz into cache; users cannot join unknown quizzes.
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.Leaderboard{}, err
	}

	session := s.sessions.GetOrCreate(quizID)
	return session.join(userID, displayName), nil
}

// PublishResult folds a completed attempt into its quiz room, if one is open.
// A participant's room score is their best final score.
func (s *LiveService) PublishResult(_ context.Context, attempt domain.QuizAttempt) error {
	session, ok := s.sessions.Get(attempt.QuizID)
	if !ok {
		return nil
	}
	session.recordResult(attempt)
	return nil
}

// Subscribe returns a channel that receives leaderboard updates for a quiz.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *LiveService) Subscribe(_ context.Context, quizID string) (<-chan domain.Leaderboard, func(), error) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Leave removes a participant from the room and drops the room if empty.
func (s *LiveService) Leave(_ context.Context, quizID, userID string) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return
	}
	session.leave(userID)
	if session.isEmpty() {
		s.sessions.DeleteIfEmpty(quizID)
	}
}

// Session is an in-memory live quiz room.
type Session struct {
	id           string
	now          func() time.Time
	mu           sync.RWMutex
	participants map[string]*domain.Participant
	subscribers  map[chan domain.Leaderboard]struct{}
}

func newSessionWithClock(id string, now func() time.Time) *Session {
	return &Session{
		id:           id,
		now:          now,
		participants: make(map[string]*domain.Participant),
		subscribers:  make(map[chan domain.Leaderboard]struct{}),
	}
}

func (s *Session) join(userID, displayName string) domain.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	if displayName == "" {
		displayName = userID
	}
	now := s.now()
	if participant, ok := s.participants[userID]; ok {
		participant.DisplayName = displayName
		participant.LastUpdated = now
	} else {
		s.participants[userID] = &domain.Participant{
			UserID:      userID,
			DisplayName: displayName,
			LastUpdated: now,
		}
	}
	return s.broadcastLocked(nil)
}

func (s *Session) recordResult(attempt domain.QuizAttempt) domain.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	if participant, ok := s.participants[attempt.UserID]; ok && attempt.FinalScore > participant.Score {
		participant.Score = attempt.FinalScore
		participant.LastUpdated = s.now()
	}
	return s.broadcastLocked(&domain.AttemptSummary{
		AttemptID:  attempt.ID,
		UserID:     attempt.UserID,
		FinalScore: attempt.FinalScore,
		Rank:       attempt.Rank,
	})
}

func (s *Session) leave(userID string) domain.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.participants, userID)
	return s.broadcastLocked(nil)
}

func (s *Session) isEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.participants) == 0
}

// IsEmpty reports whether the room has no participants.
func (s *Session) IsEmpty() bool {
	return s.isEmpty()
}

func (s *Session) subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked(nil)
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked(latest *domain.AttemptSummary) domain.Leaderboard {
	lb := s.snapshotLocked(latest)
	for ch := range s.subscribers {
		select {
		case ch <- lb:
		default:
			// slow subscriber: drop its oldest update
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
	return lb
}

func (s *Session) snapshotLocked(latest *domain.AttemptSummary) domain.Leaderboard {
	entries := make([]domain.LeaderboardEntry, 0, len(s.participants))
	for _, participant := range s.participants {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:      participant.UserID,
			DisplayName: participant.DisplayName,
			Score:       participant.Score,
		})
	}

	// score desc, then whoever reached it first, then name
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		pi := s.participants[entries[i].UserID]
		pj := s.participants[entries[j].UserID]
		if pi != nil && pj != nil && !pi.LastUpdated.Equal(pj.LastUpdated) {
			return pi.LastUpdated.Before(pj.LastUpdated)
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})

	return domain.Leaderboard{
		QuizID:    s.id,
		Entries:   entries,
		Latest:    latest,
		UpdatedAt: s.now(),
	}
}
