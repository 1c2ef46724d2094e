package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"kodein-progress-service/internal/domain"
	"kodein-progress-service/internal/infra/memory"
)

func TestLeaderboardCacheSnapshots(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	profiles := memory.NewProfileStore()
	profiles.Put(domain.Profile{ID: "a", XPPoints: 300, Level: 2})
	profiles.Put(domain.Profile{ID: "b", XPPoints: 100, Level: 2})

	source := &countingSource{ProfileSource: profiles}
	cache := NewLeaderboardCache(client, source, time.Minute)

	top, err := cache.TopProfiles(context.Background(), 10)
	if err != nil {
		t.Fatalf("top profiles: %v", err)
	}
	if len(top) != 2 || top[0].ID != "a" {
		t.Fatalf("unexpected snapshot: %+v", top)
	}
	if source.topCalls != 1 {
		t.Fatalf("expected source hit once, got %d", source.topCalls)
	}
	if !mr.Exists("leaderboard:top:10") {
		t.Fatalf("expected snapshot key in redis")
	}

	if _, err := cache.TopProfiles(context.Background(), 10); err != nil {
		t.Fatalf("top profiles 2: %v", err)
	}
	if source.topCalls != 1 {
		t.Fatalf("expected cache hit, source calls=%d", source.topCalls)
	}
}

func TestLeaderboardCacheRankPassesThrough(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	profiles := memory.NewProfileStore()
	profiles.Put(domain.Profile{ID: "a", XPPoints: 300, Level: 2})
	profiles.Put(domain.Profile{ID: "b", XPPoints: 100, Level: 2})

	cache := NewLeaderboardCache(client, profiles, time.Minute)
	rank, profile, err := cache.RankOf(context.Background(), "b")
	if err != nil {
		t.Fatalf("rank of: %v", err)
	}
	if rank != 2 || profile.ID != "b" {
		t.Fatalf("expected rank 2 for b, got rank=%d profile=%+v", rank, profile)
	}
}

type countingSource struct {
	ProfileSource
	topCalls int
}

func (s *countingSource) TopProfiles(ctx context.Context, limit int) ([]domain.Profile, error) {
	s.topCalls++
	return s.ProfileSource.TopProfiles(ctx, limit)
}
