package textprediction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"growth-forecast/internal/models"
)

const rangeKeyPrefix = "growth-forecast:range:"

// RangeCache stores provider-sourced appropriate-weight ranges.
type RangeCache interface {
	Get(ctx context.Context, key string) (models.WeightRange, bool, error)
	Set(ctx context.Context, key string, r models.WeightRange, ttl time.Duration) error
}

type RedisRangeCache struct {
	client redis.Cmdable
}

func NewRedisRangeCache(client redis.Cmdable) *RedisRangeCache {
	return &RedisRangeCache{client: client}
}

func (c *RedisRangeCache) Get(ctx context.Context, key string) (models.WeightRange, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.WeightRange{}, false, nil
	}
	if err != nil {
		return models.WeightRange{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var r models.WeightRange
	if err := json.Unmarshal(raw, &r); err != nil {
		return models.WeightRange{}, false, fmt.Errorf("decode cached range: %w", err)
	}
	return r, true, nil
}

func (c *RedisRangeCache) Set(ctx context.Context, key string, r models.WeightRange, ttl time.Duration) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// RangeKey identifies a range request by everything the prompt depends on.
func RangeKey(s models.SubjectProfile, now time.Time) string {
	return fmt.Sprintf("%s%s|%s|%d|%.1f|%.1f",
		rangeKeyPrefix,
		strings.ToLower(strings.TrimSpace(s.BreedLabel())),
		s.Sex.English(),
		s.AgeInMonths(now),
		s.MotherAdultWeight,
		s.FatherAdultWeight,
	)
}
