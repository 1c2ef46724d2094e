package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"kodein-progress-service/internal/domain"
)

// ProfileStore reads and writes gamification state on the profiles relation.
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

const profileColumns = `id, COALESCE(username, ''), COALESCE(full_name, ''),
	COALESCE(xp_points, 0), COALESCE(level, 1), COALESCE(streak_days, 0), created_at`

func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, userID)
	profile, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	return profile, nil
}

func (s *ProfileStore) UpdateXP(ctx context.Context, userID string, xp, level int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE profiles SET xp_points = $2, level = $3 WHERE id = $1`, userID, xp, level)
	if err != nil {
		return fmt.Errorf("update xp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// TopProfiles returns profiles by xp descending with the id tie-break that
// keeps rankings stable across refreshes. Null-ish XP rows are excluded, as
// the leaderboard view does.
func (s *ProfileStore) TopProfiles(ctx context.Context, limit int) ([]domain.Profile, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+profileColumns+`
		FROM profiles
		WHERE xp_points IS NOT NULL AND xp_points >= 0
		ORDER BY xp_points DESC, id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

// RankOf counts profiles strictly ahead of the user in the full ordering.
func (s *ProfileStore) RankOf(ctx context.Context, userID string) (int, domain.Profile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return 0, domain.Profile{}, err
	}
	var ahead int
	err = s.pool.QueryRow(ctx, `SELECT count(*) FROM profiles
		WHERE COALESCE(xp_points, 0) > $1
		   OR (COALESCE(xp_points, 0) = $1 AND id < $2)`,
		profile.XPPoints, profile.ID).Scan(&ahead)
	if err != nil {
		return 0, domain.Profile{}, fmt.Errorf("compute rank: %w", err)
	}
	return ahead + 1, profile, nil
}

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.ID, &p.Username, &p.FullName, &p.XPPoints, &p.Level, &p.StreakDays, &p.CreatedAt)
	return p, err
}
