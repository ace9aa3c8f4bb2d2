package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tracknest/tracknest/internal/models"
)

// StatsCache keeps precomputed stats responses in Redis so profile pages do
// not hit Postgres on every view. Entries are invalidated whenever a fold
// commits for the owning user × type, so staleness is bounded by the TTL only
// when invalidation itself fails.
type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStatsCache(redisAddr string, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StatsCache{
		rdb: redis.NewClient(&redis.Options{Addr: redisAddr}),
		ttl: ttl,
	}
}

func statsKey(userID uuid.UUID, mt models.MediaType) string {
	return fmt.Sprintf("stats:%s:%s", userID, mt)
}

// Get returns the cached row, or (nil, false) on miss or any Redis error.
func (c *StatsCache) Get(ctx context.Context, userID uuid.UUID, mt models.MediaType) (*models.UserStats, bool) {
	data, err := c.rdb.Get(ctx, statsKey(userID, mt)).Bytes()
	if err != nil {
		return nil, false
	}
	var s models.UserStats
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false
	}
	return &s, true
}

func (c *StatsCache) Set(ctx context.Context, s *models.UserStats) {
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, statsKey(s.UserID, s.MediaType), data, c.ttl).Err(); err != nil {
		log.Printf("stats cache: set failed: %v", err)
	}
}

// Invalidate drops the cached row for a user × type.
func (c *StatsCache) Invalidate(userID uuid.UUID, mt models.MediaType) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.rdb.Del(ctx, statsKey(userID, mt)).Err(); err != nil {
		log.Printf("stats cache: invalidate failed: %v", err)
	}
}

func (c *StatsCache) Close() error {
	return c.rdb.Close()
}
