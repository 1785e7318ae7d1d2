package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// FandomCounter keeps cumulative fandom scores in a single hash:
//
//	HINCRBY fandom:scores {userID} {delta}
//
// HINCRBY is atomic, so concurrent awards never lose an increment.
type FandomCounter struct {
	client *redis.Client
	key    string
}

func NewFandomCounter(client *redis.Client) *FandomCounter {
	return &FandomCounter{client: client, key: "fandom:scores"}
}

func (c *FandomCounter) IncrementFandomScore(ctx context.Context, userID string, delta int) (int, error) {
	total, err := c.client.HIncrBy(ctx, c.key, userID, int64(delta)).Result()
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (c *FandomCounter) GetFandomScore(ctx context.Context, userID string) (int, error) {
	total, err := c.client.HGet(ctx, c.key, userID).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}
