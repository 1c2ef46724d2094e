package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"kodein-progress-service/internal/domain"
)

// ProgressStore persists (user, lesson) completion rows. The existence check
// prefers the server-side is_lesson_completed function and falls back to a
// direct query; an error on either path is reported as not-completed so the
// user can re-attempt completion instead of being blocked.
type ProgressStore struct {
	pool *pgxpool.Pool
}

func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

func (s *ProgressStore) IsCompleted(ctx context.Context, userID, lessonID string) (bool, error) {
	var completed bool
	err := s.pool.QueryRow(ctx, `SELECT is_lesson_completed($1, $2)`, userID, lessonID).Scan(&completed)
	if err == nil {
		return completed, nil
	}
	log.Printf("is_lesson_completed function failed, querying directly: %v", err)

	err = s.pool.QueryRow(ctx,
		`SELECT completed FROM user_progress WHERE user_id = $1 AND lesson_id = $2`,
		userID, lessonID).Scan(&completed)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		log.Printf("completion query failed, assuming not completed: %v", err)
		return false, nil
	}
	return completed, nil
}

// UpsertCompleted writes the completion row in a single round trip. The
// conflict key is (user_id, lesson_id); re-upserting confirms the row without
// duplicating it, and completed_at keeps the first completion time.
func (s *ProgressStore) UpsertCompleted(ctx context.Context, progress domain.LessonProgress) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO user_progress
			(user_id, lesson_id, course_id, completed, completed_at, score)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET
			completed = EXCLUDED.completed,
			completed_at = COALESCE(user_progress.completed_at, EXCLUDED.completed_at),
			score = COALESCE(EXCLUDED.score, user_progress.score),
			course_id = EXCLUDED.course_id`,
		progress.UserID, progress.LessonID, progress.CourseID,
		progress.Completed, progress.CompletedAt, progress.Score)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}
