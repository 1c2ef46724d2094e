package memory

import (
	"context"
	"sync"

	"kodein-progress-service/internal/domain"
)

// AtomicAwarder is an in-memory stand-in for the server-side add_user_xp
// function. The mutex makes the read-increment-write a single step, matching
// the transactional semantics of the real procedure.
type AtomicAwarder struct {
	mu       sync.Mutex
	profiles *ProfileStore

	// Disabled makes the capability probe fail, forcing the ledger onto the
	// manual verified path.
	Disabled bool
	// Err, when set, is returned from AddUserXP to simulate a runtime failure
	// of an available procedure.
	Err error
}

func NewAtomicAwarder(profiles *ProfileStore) *AtomicAwarder {
	return &AtomicAwarder{profiles: profiles}
}

func (a *AtomicAwarder) Available(_ context.Context) bool {
	return !a.Disabled
}

func (a *AtomicAwarder) AddUserXP(ctx context.Context, userID string, amount int) (domain.AwardResult, error) {
	if a.Err != nil {
		return domain.AwardResult{}, a.Err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	profile, err := a.profiles.GetProfile(ctx, userID)
	if err != nil {
		return domain.AwardResult{}, err
	}
	newXP := profile.XPPoints + amount
	newLevel := domain.LevelForXP(newXP)
	if err := a.profiles.UpdateXP(ctx, userID, newXP, newLevel); err != nil {
		return domain.AwardResult{}, err
	}
	return domain.AwardResult{Success: true, NewXP: newXP, NewLevel: newLevel}, nil
}
