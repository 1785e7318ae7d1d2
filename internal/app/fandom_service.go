package app

import (
	"context"
	"fmt"
	"log/slog"

	"fanfirst-engagement-service/internal/domain"
)

// FandomAction is an engagement event that earns fandom points.
type FandomAction string

const (
	ActionTicketPurchase   FandomAction = "ticket_purchase"
	ActionQuizComplete     FandomAction = "quiz_complete"
	ActionCommunityPost    FandomAction = "community_post"
	ActionCommunityComment FandomAction = "community_comment"
	ActionDailyLogin       FandomAction = "daily_login"
)

var fandomPoints = map[FandomAction]int{
	ActionTicketPurchase:   20,
	ActionQuizComplete:     10,
	ActionCommunityPost:    3,
	ActionCommunityComment: 2,
	ActionDailyLogin:       1,
}

// FandomService awards and reports cumulative fandom scores.
type FandomService struct {
	store  FandomStore
	logger *slog.Logger
}

func NewFandomService(store FandomStore, logger *slog.Logger) *FandomService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FandomService{store: store, logger: logger}
}

// RecordAction adds the points for action to the user's score. customPoints,
// when positive, overrides the table. Returns points awarded and the new total.
func (s *FandomService) RecordAction(ctx context.Context, userID string, action FandomAction, customPoints int) (int, int, error) {
	if userID == "" {
		return 0, 0, domain.ErrUserIDRequired
	}
	if customPoints < 0 {
		return 0, 0, domain.InvalidInput("points", "points must be non-negative")
	}
	points := customPoints
	if points == 0 {
		var ok bool
		points, ok = fandomPoints[action]
		if !ok {
			return 0, 0, domain.InvalidInput("action", fmt.Sprintf("unknown action %q", action))
		}
	}

	total, err := s.store.IncrementFandomScore(ctx, userID, points)
	if err != nil {
		return 0, 0, err
	}
	s.logger.Info("fandom points awarded", "user", userID, "action", action, "points", points, "total", total)
	return points, total, nil
}

func (s *FandomService) GetFandomScore(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, domain.ErrUserIDRequired
	}
	return s.store.GetFandomScore(ctx, userID)
}
