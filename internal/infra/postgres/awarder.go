package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"

	"kodein-progress-service/internal/domain"
)

// Awarder calls the server-side add_user_xp function, which increments XP and
// recomputes the level in one transactional statement.
type Awarder struct {
	pool *pgxpool.Pool
}

func NewAwarder(pool *pgxpool.Pool) *Awarder {
	return &Awarder{pool: pool}
}

// Available probes for the function once at ledger setup; deployments that
// have not applied the function migration fall back to the manual path.
func (a *Awarder) Available(ctx context.Context) bool {
	var exists bool
	err := a.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_proc WHERE proname = 'add_user_xp')`).Scan(&exists)
	if err != nil {
		log.Printf("add_user_xp probe failed: %v", err)
		return false
	}
	return exists
}

func (a *Awarder) AddUserXP(ctx context.Context, userID string, amount int) (domain.AwardResult, error) {
	var raw []byte
	err := a.pool.QueryRow(ctx, `SELECT add_user_xp($1, $2)`, userID, amount).Scan(&raw)
	if err != nil {
		return domain.AwardResult{}, fmt.Errorf("call add_user_xp: %w", err)
	}

	var result domain.AwardResult
	if err := json.Unmarshal(raw, &result); err != nil {
		// An unexpected shape sends the ledger to the manual path rather
		// than trusting an ambiguous payload.
		return domain.AwardResult{}, fmt.Errorf("decode add_user_xp result: %w", err)
	}
	if !result.Success && result.NewLevel == 0 {
		result.NewLevel = 1
	}
	return result, nil
}
