package app

import (
	"context"
	"fmt"
	"sort"

	"fanfirst-engagement-service/internal/domain"
)

// LeaderboardType selects the metric a leaderboard ranks by.
type LeaderboardType string

const (
	LeaderboardFinal       LeaderboardType = "final"
	LeaderboardAccuracy    LeaderboardType = "accuracy"
	LeaderboardSpeed       LeaderboardType = "speed"
	LeaderboardConsistency LeaderboardType = "consistency"

	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 100
)

// LeaderboardQuery filters and bounds a leaderboard.
type LeaderboardQuery struct {
	Type     LeaderboardType
	QuizID   string
	ArtistID string
	Limit    int
}

// RankedAttempt is one row of a metric leaderboard.
type RankedAttempt struct {
	Position int                `json:"position"`
	UserID   string             `json:"userId"`
	Value    float64            `json:"value"`
	Attempt  domain.QuizAttempt `json:"attempt"`
}

// LeaderboardService ranks users by their best completed attempt.
type LeaderboardService struct {
	attempts AttemptStore
}

func NewLeaderboardService(attempts AttemptStore) *LeaderboardService {
	return &LeaderboardService{attempts: attempts}
}

// Leaderboard keeps each user's best attempt for the chosen metric. Speed ranks
// by ascending average response time; the other metrics descend.
func (s *LeaderboardService) Leaderboard(ctx context.Context, q LeaderboardQuery) ([]RankedAttempt, error) {
	if q.Type == "" {
		q.Type = LeaderboardFinal
	}
	metric, lowerIsBetter, err := leaderboardMetric(q.Type)
	if err != nil {
		return nil, err
	}
	switch {
	case q.Limit == 0:
		q.Limit = DefaultLeaderboardLimit
	case q.Limit < 0:
		return nil, domain.InvalidInput("limit", "limit must be positive")
	case q.Limit > MaxLeaderboardLimit:
		q.Limit = MaxLeaderboardLimit
	}

	attempts, err := s.attempts.ListCompleted(ctx, domain.AttemptFilter{QuizID: q.QuizID, ArtistID: q.ArtistID})
	if err != nil {
		return nil, err
	}

	better := func(a, b float64) bool {
		if lowerIsBetter {
			return a < b
		}
		return a > b
	}

	best := make(map[string]domain.QuizAttempt)
	for _, a := range attempts {
		if lowerIsBetter && len(a.ResponseTimes) == 0 {
			// nothing answered, nothing timed
			continue
		}
		cur, ok := best[a.UserID]
		if !ok || better(metric(a), metric(cur)) {
			best[a.UserID] = a
		}
	}

	rows := make([]RankedAttempt, 0, len(best))
	for userID, a := range best {
		rows = append(rows, RankedAttempt{UserID: userID, Value: metric(a), Attempt: a})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return better(rows[i].Value, rows[j].Value)
		}
		return rows[i].UserID < rows[j].UserID
	})
	if len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows, nil
}

func leaderboardMetric(t LeaderboardType) (func(domain.QuizAttempt) float64, bool, error) {
	switch t {
	case LeaderboardFinal:
		return func(a domain.QuizAttempt) float64 { return a.FinalScore }, false, nil
	case LeaderboardAccuracy:
		return func(a domain.QuizAttempt) float64 { return a.AccuracyScore }, false, nil
	case LeaderboardSpeed:
		return func(a domain.QuizAttempt) float64 { return a.AvgResponseTime }, true, nil
	case LeaderboardConsistency:
		return func(a domain.QuizAttempt) float64 { return a.ConsistencyScore }, false, nil
	}
	return nil, false, domain.InvalidInput("type", fmt.Sprintf("unknown leaderboard type %q", t))
}
