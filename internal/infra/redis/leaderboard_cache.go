package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"kodein-progress-service/internal/domain"
)

// ProfileSource is the ordered profile projection being cached.
type ProfileSource interface {
	TopProfiles(ctx context.Context, limit int) ([]domain.Profile, error)
	RankOf(ctx context.Context, userID string) (int, domain.Profile, error)
}

// LeaderboardCache keeps the top-N snapshot in Redis so leaderboard refreshes
// don't hammer the profiles relation. Own-rank lookups pass through: they run
// against the full ordered set, which is cheap to count and must not lag
// behind a cached page.
type LeaderboardCache struct {
	client *redis.Client
	source ProfileSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewLeaderboardCache(client *redis.Client, source ProfileSource, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) TopProfiles(ctx context.Context, limit int) ([]domain.Profile, error) {
	key := c.key(limit)

	if profiles, ok := c.cached(ctx, key); ok {
		return profiles, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if profiles, ok := c.cached(ctx, key); ok {
			return profiles, nil
		}
		profiles, err := c.source.TopProfiles(ctx, limit)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(profiles); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return profiles, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Profile), nil
}

func (c *LeaderboardCache) RankOf(ctx context.Context, userID string) (int, domain.Profile, error) {
	return c.source.RankOf(ctx, userID)
}

func (c *LeaderboardCache) cached(ctx context.Context, key string) ([]domain.Profile, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	var profiles []domain.Profile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, false
	}
	return profiles, true
}

func (c *LeaderboardCache) key(limit int) string {
	return "leaderboard:top:" + strconv.Itoa(limit)
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
