package domain

import "time"

// Profile is a user's gamification state. XPPoints is monotonically
// non-decreasing outside of administrative correction; Level is derived from
// XPPoints but cached redundantly in storage for fast reads.
type Profile struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	FullName   string    `json:"fullName"`
	XPPoints   int       `json:"xpPoints"`
	Level      int       `json:"level"`
	StreakDays int       `json:"streakDays"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Lesson is the unit of completion. XPReward is fixed per lesson and immutable
// from this service's perspective.
type Lesson struct {
	ID          string `json:"id"`
	CourseID    string `json:"courseId"`
	Title       string `json:"title"`
	XPReward    int    `json:"xpReward"`
	LessonOrder int    `json:"lessonOrder"`
}

// LessonProgress records a single (user, lesson) completion. At most one row
// exists per pair; CompletedAt is set on first completion and never moves.
type LessonProgress struct {
	UserID      string    `json:"userId"`
	LessonID    string    `json:"lessonId"`
	CourseID    string    `json:"courseId"`
	Completed   bool      `json:"completed"`
	CompletedAt time.Time `json:"completedAt"`
	Score       *int      `json:"score,omitempty"`
}

// QuizQuestion is a multiple-choice question. CorrectAnswer is a zero-based
// index into Options.
type QuizQuestion struct {
	ID            string   `json:"id"`
	LessonID      string   `json:"lessonId"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// AwardResult is the structured outcome of an XP award attempt. On failure
// NewXP/NewLevel carry the last known values so callers can still render a
// coherent profile state.
type AwardResult struct {
	Success  bool   `json:"success"`
	NewXP    int    `json:"newXP"`
	NewLevel int    `json:"newLevel"`
	Reason   string `json:"error,omitempty"`
}

// LeaderboardEntry is a ranked view of a profile.
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	FullName   string `json:"fullName"`
	XPPoints   int    `json:"xpPoints"`
	Level      int    `json:"level"`
	StreakDays int    `json:"streakDays"`
}
