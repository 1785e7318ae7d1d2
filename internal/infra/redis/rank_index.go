package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"fanfirst-engagement-service/internal/domain"
)

// CompletedSource lists completed attempts; used to rebuild a missing index.
type CompletedSource interface {
	ListCompleted(ctx context.Context, filter domain.AttemptFilter) ([]domain.QuizAttempt, error)
}

// RankIndex keeps final scores per quiz in a sorted set:
//
//	ZADD quiz:{quizID}:scores {finalScore} {attemptID}
//
// A missing key is rebuilt from the source so counts stay exact after eviction.
type RankIndex struct {
	client *redis.Client
	source CompletedSource
	ttl    time.Duration
	sf     singleflight.Group
}

func NewRankIndex(client *redis.Client, source CompletedSource, ttl time.Duration) *RankIndex {
	return &RankIndex{client: client, source: source, ttl: ttl}
}

func (r *RankIndex) Record(ctx context.Context, quizID, attemptID string, score float64) error {
	seeded, err := r.ensure(ctx, quizID)
	if err != nil {
		return err
	}
	if seeded {
		// the rebuild already read this attempt from the source
		return nil
	}
	key := scoresKey(quizID)
	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: attemptID})
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// CountHigher counts attempts on quizID scoring strictly above score.
func (r *RankIndex) CountHigher(ctx context.Context, quizID string, score float64) (int, error) {
	if _, err := r.ensure(ctx, quizID); err != nil {
		return 0, err
	}
	n, err := r.client.ZCount(ctx, scoresKey(quizID), "("+formatScore(score), "+inf").Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ensure rebuilds the sorted set when it is missing and reports whether it did.
func (r *RankIndex) ensure(ctx context.Context, quizID string) (bool, error) {
	key := scoresKey(quizID)
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	_, err, _ = r.sf.Do(quizID, func() (interface{}, error) {
		attempts, err := r.source.ListCompleted(ctx, domain.AttemptFilter{QuizID: quizID})
		if err != nil {
			return nil, err
		}
		if len(attempts) == 0 {
			return nil, nil
		}
		members := make([]redis.Z, 0, len(attempts))
		for _, a := range attempts {
			members = append(members, redis.Z{Score: a.FinalScore, Member: a.ID})
		}
		pipe := r.client.TxPipeline()
		pipe.ZAdd(ctx, key, members...)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		_, err = pipe.Exec(ctx)
		return nil, err
	})
	return err == nil, err
}

func scoresKey(quizID string) string {
	return "quiz:" + quizID + ":scores"
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
