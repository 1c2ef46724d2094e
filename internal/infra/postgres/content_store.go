package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"kodein-progress-service/internal/domain"
)

// ContentStore loads lessons and quiz content. Quiz options arrive from
// storage either as a JSON array or, from older admin imports, as a JSON
// string that itself encodes an array; anything else is rejected here rather
// than passed inward as an ambiguous value.
type ContentStore struct {
	pool *pgxpool.Pool
}

func NewContentStore(pool *pgxpool.Pool) *ContentStore {
	return &ContentStore{pool: pool}
}

func (s *ContentStore) GetLesson(ctx context.Context, lessonID string) (domain.Lesson, error) {
	var lesson domain.Lesson
	err := s.pool.QueryRow(ctx,
		`SELECT id, course_id, COALESCE(title, ''), xp_reward, lesson_order FROM lessons WHERE id = $1`,
		lessonID).Scan(&lesson.ID, &lesson.CourseID, &lesson.Title, &lesson.XPReward, &lesson.LessonOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lesson{}, domain.ErrLessonNotFound
	}
	if err != nil {
		return domain.Lesson{}, fmt.Errorf("fetch lesson: %w", err)
	}
	return lesson, nil
}

// LoadQuiz fetches a lesson's questions from the backing store. The redis
// cache layer wraps this behind GetQuiz.
func (s *ContentStore) LoadQuiz(ctx context.Context, lessonID string) ([]domain.QuizQuestion, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, lesson_id, question, options, correct_answer,
			COALESCE(explanation, '')
		FROM quizzes WHERE lesson_id = $1 ORDER BY id`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("fetch quiz: %w", err)
	}
	defer rows.Close()

	var questions []domain.QuizQuestion
	for rows.Next() {
		var q domain.QuizQuestion
		var rawOptions []byte
		if err := rows.Scan(&q.ID, &q.LessonID, &q.Question, &rawOptions, &q.CorrectAnswer, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan quiz row: %w", err)
		}
		q.Options, err = decodeOptions(rawOptions)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", q.ID, err)
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return nil, fmt.Errorf("question %s: correct_answer %d out of range: %w",
				q.ID, q.CorrectAnswer, domain.ErrMalformedQuiz)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrQuizNotFound
	}
	return questions, nil
}

// GetQuiz satisfies app.QuizRepository when no cache is configured.
func (s *ContentStore) GetQuiz(ctx context.Context, lessonID string) ([]domain.QuizQuestion, error) {
	return s.LoadQuiz(ctx, lessonID)
}

func decodeOptions(raw []byte) ([]string, error) {
	var options []string
	if err := json.Unmarshal(raw, &options); err == nil {
		return options, nil
	}
	// Doubly-encoded form: a JSON string containing the array.
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &options); err == nil {
			return options, nil
		}
	}
	return nil, fmt.Errorf("options payload is neither an array nor an encoded array: %w", domain.ErrMalformedQuiz)
}
