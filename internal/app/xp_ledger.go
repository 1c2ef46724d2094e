package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"kodein-progress-service/internal/domain"
)

// ProfileRepository abstracts profile reads and the manual XP write path.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
	UpdateXP(ctx context.Context, userID string, xp, level int) error
}

// AtomicAwarder is the preferred award path: a single server-side operation
// that increments XP and recomputes the level transactionally.
type AtomicAwarder interface {
	// Available probes whether the atomic operation exists on the backend.
	Available(ctx context.Context) bool
	AddUserXP(ctx context.Context, userID string, amount int) (domain.AwardResult, error)
}

type awardStrategy int

const (
	strategyUnresolved awardStrategy = iota
	strategyAtomic
	strategyManualVerified
)

// XPLedger grants experience to a profile. The award strategy is resolved by
// capability probing once per ledger: Atomic when the server-side function is
// present, ManualVerified (read, compute, write, re-read, compare) otherwise.
// A probed-atomic call that errors at runtime still falls back to the manual
// path for that invocation.
//
// Award never returns an error; callers always get a structured result with
// last-known XP/level on failure.
type XPLedger struct {
	profiles ProfileRepository
	atomic   AtomicAwarder

	once     sync.Once
	strategy awardStrategy
}

// NewXPLedger builds a ledger. atomic may be nil when the backend exposes no
// transactional XP operation.
func NewXPLedger(profiles ProfileRepository, atomic AtomicAwarder) *XPLedger {
	return &XPLedger{profiles: profiles, atomic: atomic}
}

func (l *XPLedger) resolve(ctx context.Context) awardStrategy {
	l.once.Do(func() {
		if l.atomic != nil && l.atomic.Available(ctx) {
			l.strategy = strategyAtomic
			return
		}
		l.strategy = strategyManualVerified
		log.Printf("xp ledger: atomic award unavailable, using manual verified path")
	})
	return l.strategy
}

// Award adds amount XP to the user's profile and recomputes their level.
func (l *XPLedger) Award(ctx context.Context, userID string, amount int) domain.AwardResult {
	if l.resolve(ctx) == strategyAtomic {
		result, err := l.atomic.AddUserXP(ctx, userID, amount)
		if err == nil {
			return result
		}
		log.Printf("xp ledger: atomic award failed, falling back: %v", err)
	}
	return l.manualAward(ctx, userID, amount)
}

// manualAward is the verified read-modify-write fallback. A successful write
// is only reported as success once a re-read confirms the stored values match
// the computed ones; a mismatch (lost update, concurrent writer, stale read)
// is surfaced with the observed values rather than silently claimed.
func (l *XPLedger) manualAward(ctx context.Context, userID string, amount int) domain.AwardResult {
	profile, err := l.profiles.GetProfile(ctx, userID)
	if err != nil {
		return domain.AwardResult{
			NewXP:    0,
			NewLevel: 1,
			Reason:   fmt.Sprintf("failed to fetch profile: %v", err),
		}
	}

	newXP := profile.XPPoints + amount
	newLevel := domain.LevelForXP(newXP)

	if err := l.profiles.UpdateXP(ctx, userID, newXP, newLevel); err != nil {
		return domain.AwardResult{
			NewXP:    profile.XPPoints,
			NewLevel: profile.Level,
			Reason:   fmt.Sprintf("failed to update xp: %v", err),
		}
	}

	verified, err := l.profiles.GetProfile(ctx, userID)
	if err != nil {
		return domain.AwardResult{
			NewXP:    profile.XPPoints,
			NewLevel: profile.Level,
			Reason:   fmt.Sprintf("update may have succeeded but verification failed: %v", err),
		}
	}
	if verified.XPPoints != newXP || verified.Level != newLevel {
		return domain.AwardResult{
			NewXP:    verified.XPPoints,
			NewLevel: verified.Level,
			Reason: fmt.Sprintf("xp update verification failed: expected %d/%d, stored %d/%d",
				newXP, newLevel, verified.XPPoints, verified.Level),
		}
	}

	return domain.AwardResult{Success: true, NewXP: newXP, NewLevel: newLevel}
}
