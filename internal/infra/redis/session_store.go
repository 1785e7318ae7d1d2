package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"fanfirst-engagement-service/internal/app"
)

// SessionStore keeps live rooms in process and advertises them in Redis so
// other instances (and operators) can see which quizzes have an open room.
// Broadcasts still happen locally; cross-instance fan-out would need pub/sub.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(quizID string) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[quizID]; ok {
		// keep the marker alive while the room is in use
		_ = s.client.Expire(context.Background(), roomKey(quizID), s.ttl).Err()
		return session
	}
	session := app.NewSessionWithClock(quizID, s.now)
	s.sessions[quizID] = session
	_ = s.client.Set(context.Background(), roomKey(quizID), s.now().UTC().Format(time.RFC3339), s.ttl).Err()
	return session
}

func (s *SessionStore) Get(quizID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[quizID]
	return session, ok
}

func (s *SessionStore) DeleteIfEmpty(quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[quizID]
	if !ok || !session.IsEmpty() {
		return
	}
	delete(s.sessions, quizID)
	_ = s.client.Del(context.Background(), roomKey(quizID)).Err()
}

// RoomOpen reports whether any instance has advertised a room for quizID.
func (s *SessionStore) RoomOpen(ctx context.Context, quizID string) (bool, error) {
	n, err := s.client.Exists(ctx, roomKey(quizID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func roomKey(quizID string) string {
	return "quiz:room:" + quizID
}
