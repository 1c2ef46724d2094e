package cli

import (
	"kodein-progress-service/internal/domain"
)

// Sample content for demo mode; a real deployment serves lessons and quizzes
// from Postgres.

func sampleLessons() map[string]domain.Lesson {
	return map[string]domain.Lesson{
		"lesson-1": {ID: "lesson-1", CourseID: "course-go", Title: "Pengenalan Go", XPReward: 10, LessonOrder: 1},
		"lesson-2": {ID: "lesson-2", CourseID: "course-go", Title: "Variabel dan Tipe Data", XPReward: 15, LessonOrder: 2},
	}
}

func sampleQuizzes() map[string][]domain.QuizQuestion {
	return map[string][]domain.QuizQuestion{
		"lesson-1": {
			{
				ID:            "q1",
				LessonID:      "lesson-1",
				Question:      "Siapa yang menciptakan bahasa Go?",
				Options:       []string{"Microsoft", "Google", "Apple"},
				CorrectAnswer: 1,
				Explanation:   "Go dikembangkan di Google oleh Robert Griesemer, Rob Pike, dan Ken Thompson.",
			},
			{
				ID:            "q2",
				LessonID:      "lesson-1",
				Question:      "Perintah untuk menjalankan program Go?",
				Options:       []string{"go run", "go start", "go exec"},
				CorrectAnswer: 0,
			},
		},
	}
}

func sampleProfiles() []domain.Profile {
	return []domain.Profile{
		{ID: "demo-user", Username: "demo", FullName: "Demo User", XPPoints: 0, Level: 1},
		{ID: "rival-user", Username: "rival", FullName: "Rival User", XPPoints: 250, Level: 2, StreakDays: 3},
	}
}
