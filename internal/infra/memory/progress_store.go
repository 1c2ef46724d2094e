package memory

import (
	"context"
	"sync"

	"kodein-progress-service/internal/domain"
)

type progressKey struct {
	userID   string
	lessonID string
}

// ProgressStore is an in-memory implementation of app.ProgressRepository.
type ProgressStore struct {
	mu   sync.RWMutex
	rows map[progressKey]domain.LessonProgress

	// FailCheck, when set, is returned from IsCompleted.
	FailCheck error
	// FailUpsert, when set, is returned from UpsertCompleted.
	FailUpsert error
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{rows: make(map[progressKey]domain.LessonProgress)}
}

func (s *ProgressStore) IsCompleted(_ context.Context, userID, lessonID string) (bool, error) {
	if s.FailCheck != nil {
		return false, s.FailCheck
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[progressKey{userID, lessonID}]
	return ok && row.Completed, nil
}

// UpsertCompleted inserts or confirms the (user, lesson) row. CompletedAt is
// kept from the first completion on re-upsert.
func (s *ProgressStore) UpsertCompleted(_ context.Context, progress domain.LessonProgress) error {
	if s.FailUpsert != nil {
		return s.FailUpsert
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := progressKey{progress.UserID, progress.LessonID}
	if existing, ok := s.rows[key]; ok && existing.Completed {
		progress.CompletedAt = existing.CompletedAt
	}
	s.rows[key] = progress
	return nil
}

// Count reports the number of stored rows; tests use it to assert that
// repeated upserts never duplicate.
func (s *ProgressStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Get exposes a stored row for assertions.
func (s *ProgressStore) Get(userID, lessonID string) (domain.LessonProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[progressKey{userID, lessonID}]
	return row, ok
}
