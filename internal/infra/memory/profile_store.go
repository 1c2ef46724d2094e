package memory

import (
	"context"
	"sort"
	"sync"

	"kodein-progress-service/internal/domain"
)

// ProfileStore is an in-memory profile backend for demos and tests. The
// exported failure hooks let tests exercise the ledger's fallback and
// verification branches without a real database.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile

	// FailGet, when set, is returned from GetProfile.
	FailGet error
	// FailUpdate, when set, is returned from UpdateXP.
	FailUpdate error
	// DropUpdates makes UpdateXP report success without persisting anything,
	// simulating a write that is accepted but never becomes visible.
	DropUpdates bool
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[string]domain.Profile)}
}

// Put seeds or replaces a profile.
func (s *ProfileStore) Put(profile domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = profile
}

func (s *ProfileStore) GetProfile(_ context.Context, userID string) (domain.Profile, error) {
	if s.FailGet != nil {
		return domain.Profile{}, s.FailGet
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return profile, nil
}

func (s *ProfileStore) UpdateXP(_ context.Context, userID string, xp, level int) error {
	if s.FailUpdate != nil {
		return s.FailUpdate
	}
	if s.DropUpdates {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return domain.ErrProfileNotFound
	}
	profile.XPPoints = xp
	profile.Level = level
	s.profiles[userID] = profile
	return nil
}

func (s *ProfileStore) TopProfiles(_ context.Context, limit int) ([]domain.Profile, error) {
	ordered := s.ordered()
	if limit > 0 && limit < len(ordered) {
		ordered = ordered[:limit]
	}
	return ordered, nil
}

func (s *ProfileStore) RankOf(_ context.Context, userID string) (int, domain.Profile, error) {
	for i, p := range s.ordered() {
		if p.ID == userID {
			return i + 1, p, nil
		}
	}
	return 0, domain.Profile{}, domain.ErrProfileNotFound
}

// ordered returns all profiles by XP descending, ties broken by id ascending.
func (s *ProfileStore) ordered() []domain.Profile {
	s.mu.RLock()
	profiles := make([]domain.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, p)
	}
	s.mu.RUnlock()

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].XPPoints != profiles[j].XPPoints {
			return profiles[i].XPPoints > profiles[j].XPPoints
		}
		return profiles[i].ID < profiles[j].ID
	})
	return profiles
}
