package app

import (
	"context"

	"kodein-progress-service/internal/domain"
)

// LeaderboardSource provides ordered profile projections. TopProfiles must
// return profiles ordered by XP descending with ties broken by ascending id,
// so the ranking stays stable across refreshes. RankOf resolves a user's
// 1-based position against the full ordered set, not a truncated page.
type LeaderboardSource interface {
	TopProfiles(ctx context.Context, limit int) ([]domain.Profile, error)
	RankOf(ctx context.Context, userID string) (int, domain.Profile, error)
}

// DefaultLeaderboardLimit caps the displayed leaderboard page.
const DefaultLeaderboardLimit = 100

// Leaderboard is a read-time projection of profiles ranked by XP.
type Leaderboard struct {
	source LeaderboardSource
	limit  int
}

func NewLeaderboard(source LeaderboardSource, limit int) *Leaderboard {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	return &Leaderboard{source: source, limit: limit}
}

// TopN returns the displayed leaderboard page with 1-based ranks assigned.
func (l *Leaderboard) TopN(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 || limit > l.limit {
		limit = l.limit
	}
	profiles, err := l.source.TopProfiles(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LeaderboardEntry, 0, len(profiles))
	for i, p := range profiles {
		entries = append(entries, entryFor(i+1, p))
	}
	return entries, nil
}

// RankFor locates a user in the full ordering, even beyond the displayed page.
func (l *Leaderboard) RankFor(ctx context.Context, userID string) (domain.LeaderboardEntry, error) {
	rank, profile, err := l.source.RankOf(ctx, userID)
	if err != nil {
		return domain.LeaderboardEntry{}, err
	}
	return entryFor(rank, profile), nil
}

func entryFor(rank int, p domain.Profile) domain.LeaderboardEntry {
	level := p.Level
	if level < 1 {
		level = 1
	}
	xp := p.XPPoints
	if xp < 0 {
		xp = 0
	}
	return domain.LeaderboardEntry{
		Rank:       rank,
		UserID:     p.ID,
		Username:   p.Username,
		FullName:   p.FullName,
		XPPoints:   xp,
		Level:      level,
		StreakDays: p.StreakDays,
	}
}
