package memory

import (
	"context"

	"kodein-progress-service/internal/domain"
)

// ContentStore serves lessons and quiz questions from in-memory maps
// (useful for tests/demos). It doubles as the QuizLoader behind the redis
// cache and as a direct app.QuizRepository when redis is not configured.
type ContentStore struct {
	lessons map[string]domain.Lesson
	quizzes map[string][]domain.QuizQuestion
}

func NewContentStore(lessons map[string]domain.Lesson, quizzes map[string][]domain.QuizQuestion) *ContentStore {
	if lessons == nil {
		lessons = make(map[string]domain.Lesson)
	}
	if quizzes == nil {
		quizzes = make(map[string][]domain.QuizQuestion)
	}
	return &ContentStore{lessons: lessons, quizzes: quizzes}
}

func (s *ContentStore) GetLesson(_ context.Context, lessonID string) (domain.Lesson, error) {
	if lesson, ok := s.lessons[lessonID]; ok {
		return lesson, nil
	}
	return domain.Lesson{}, domain.ErrLessonNotFound
}

func (s *ContentStore) GetQuiz(ctx context.Context, lessonID string) ([]domain.QuizQuestion, error) {
	return s.LoadQuiz(ctx, lessonID)
}

func (s *ContentStore) LoadQuiz(_ context.Context, lessonID string) ([]domain.QuizQuestion, error) {
	if questions, ok := s.quizzes[lessonID]; ok && len(questions) > 0 {
		return questions, nil
	}
	return nil, domain.ErrQuizNotFound
}
