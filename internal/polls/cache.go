package polls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// TallyCache is a read-through Redis cache for poll tallies. Concurrent
// misses for the same poll collapse into one recompute via singleflight.
// A nil client degrades to computing the tally every time.
type TallyCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewTallyCache instantiates the cache helper.
func NewTallyCache(client *redis.Client, ttl time.Duration) *TallyCache {
	return &TallyCache{client: client, ttl: ttl}
}

func tallyKey(pollID int64) string {
	return fmt.Sprintf("polls:tally:%d", pollID)
}

// Fetch loads a cached tally or populates it using the loader.
func (c *TallyCache) Fetch(ctx context.Context, pollID int64, loader func(context.Context) (*Tally, error)) (*Tally, error) {
	if loader == nil {
		return nil, errors.New("polls: tally loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}

	// Cache failures never fail the read: a broken Redis degrades to
	// recomputing the tally through the loader.
	key := tallyKey(pollID)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var tally Tally
		if err := json.Unmarshal(payload, &tally); err == nil {
			return &tally, nil
		}
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		tally, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(tally); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttl).Err()
		}
		return tally, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*Tally), nil
}

// Invalidate drops the cached tally after a vote or close.
func (c *TallyCache) Invalidate(ctx context.Context, pollID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Del(ctx, tallyKey(pollID)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
