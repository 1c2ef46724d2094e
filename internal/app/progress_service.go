package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"kodein-progress-service/internal/domain"
	"kodein-progress-service/internal/metrics"
)

// ProgressRepository persists (user, lesson) completion records. UpsertCompleted
// must be safe under repetition: the conflict key is the pair, re-upserting
// identical values is not an error, and no duplicate rows are ever created.
type ProgressRepository interface {
	IsCompleted(ctx context.Context, userID, lessonID string) (bool, error)
	UpsertCompleted(ctx context.Context, progress domain.LessonProgress) error
}

// LessonRepository loads lesson metadata (xp reward, owning course).
type LessonRepository interface {
	GetLesson(ctx context.Context, lessonID string) (domain.Lesson, error)
}

// QuizRepository loads a lesson's quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, lessonID string) ([]domain.QuizQuestion, error)
}

// CompletionStatus classifies the outcome of a completion attempt. The lesson
// screen renders "saved but partial" (StatusXPFailed), "failed entirely"
// (StatusProgressFailed) and "already done" (StatusAlreadyCompleted) as
// distinct states, so the status must never collapse them.
type CompletionStatus string

const (
	// StatusCompleted: first completion recorded and XP granted.
	StatusCompleted CompletionStatus = "completed"
	// StatusAlreadyCompleted: repeat invocation, XP already granted, no action.
	StatusAlreadyCompleted CompletionStatus = "already_completed"
	// StatusRepaired: completion existed but XP was missing; granted now.
	StatusRepaired CompletionStatus = "repaired"
	// StatusQuizFailed: score below the pass line, nothing mutated.
	StatusQuizFailed CompletionStatus = "quiz_failed"
	// StatusProgressFailed: the completion record could not be written; the
	// profile's XP is untouched.
	StatusProgressFailed CompletionStatus = "progress_failed"
	// StatusXPFailed: completion is durably saved but the award failed.
	// Retried via the repair branch on a later visit, never rolled back.
	StatusXPFailed CompletionStatus = "xp_failed"
	// StatusInvalid: caller contract violation, no remote call attempted.
	StatusInvalid CompletionStatus = "invalid"
)

// CompletionResult is the structured outcome the lesson screen renders.
type CompletionResult struct {
	Status    CompletionStatus   `json:"status"`
	LessonID  string             `json:"lessonId,omitempty"`
	XPReward  int                `json:"xpReward,omitempty"`
	Award     domain.AwardResult `json:"award"`
	LeveledUp bool               `json:"leveledUp,omitempty"`

	// Quiz context, populated when the attempt came through a quiz.
	Score      int `json:"score,omitempty"`
	Total      int `json:"total,omitempty"`
	Percentage int `json:"percentage,omitempty"`
	MinScore   int `json:"minScore,omitempty"`
}

// ProgressService orchestrates lesson completion: idempotency check, repair
// of the known missing-XP state, completion upsert, and the XP award.
type ProgressService struct {
	lessons  LessonRepository
	quizzes  QuizRepository
	progress ProgressRepository
	profiles ProfileRepository
	ledger   *XPLedger
	timeout  time.Duration
	now      func() time.Time
}

// NewProgressService wires the completion flow. timeout bounds each
// invocation's remote calls; zero means no bound.
func NewProgressService(
	lessons LessonRepository,
	quizzes QuizRepository,
	progress ProgressRepository,
	profiles ProfileRepository,
	ledger *XPLedger,
	timeout time.Duration,
) *ProgressService {
	return &ProgressService{
		lessons:  lessons,
		quizzes:  quizzes,
		progress: progress,
		profiles: profiles,
		ledger:   ledger,
		timeout:  timeout,
		now:      time.Now,
	}
}

// StartQuiz opens a scoring session over the lesson's quiz questions.
func (s *ProgressService) StartQuiz(ctx context.Context, lessonID string) (*QuizSession, error) {
	questions, err := s.quizzes.GetQuiz(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	return NewQuizSession(questions)
}

// FinishQuiz applies the completion gate to a final quiz score and, on pass,
// runs the completion flow. A failing score mutates nothing.
func (s *ProgressService) FinishQuiz(ctx context.Context, userID, lessonID string, score, total int) CompletionResult {
	quiz := func(r CompletionResult) CompletionResult {
		r.Score = score
		r.Total = total
		r.Percentage = Percentage(score, total)
		r.MinScore = MinPassingScore(total)
		return r
	}
	if total < 1 {
		return quiz(s.invalid(lessonID, "quiz has no questions"))
	}
	if !Passes(score, total) {
		log.Printf("quiz below pass line: lesson=%s score=%d/%d min=%d", lessonID, score, total, MinPassingScore(total))
		metrics.ObserveCompletion(string(StatusQuizFailed))
		return quiz(CompletionResult{Status: StatusQuizFailed, LessonID: lessonID})
	}
	return quiz(s.CompleteLesson(ctx, userID, lessonID, &score))
}

// CompleteLesson runs the award flow for a (user, lesson) pair. It is safe to
// invoke repeatedly: a repeat invocation either reports already-completed or
// repairs the missing-XP state, and never grants the reward twice.
func (s *ProgressService) CompleteLesson(ctx context.Context, userID, lessonID string, score *int) CompletionResult {
	if userID == "" || lessonID == "" {
		return s.invalid(lessonID, "missing user or lesson id")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	lesson, err := s.lessons.GetLesson(ctx, lessonID)
	if err != nil {
		return s.invalid(lessonID, fmt.Sprintf("lesson not found: %v", err))
	}

	// Step 1: idempotency check. An error defaults to not-completed so a
	// flaky check re-attempts completion instead of blocking the user.
	completed, err := s.progress.IsCompleted(ctx, userID, lessonID)
	if err != nil {
		log.Printf("completion check failed, assuming not completed: %v", err)
		completed = false
	}

	repair := false
	if completed {
		profile, err := s.profiles.GetProfile(ctx, userID)
		if err == nil && profile.XPPoints >= lesson.XPReward {
			metrics.ObserveCompletion(string(StatusAlreadyCompleted))
			return CompletionResult{
				Status:   StatusAlreadyCompleted,
				LessonID: lesson.ID,
				XPReward: lesson.XPReward,
				Award:    domain.AwardResult{Success: true, NewXP: profile.XPPoints, NewLevel: profile.Level},
			}
		}
		// Completion recorded but the award never landed (or the profile is
		// unreadable, which the original treats the same way): repair.
		log.Printf("missing xp for completed lesson, repairing: user=%s lesson=%s", userID, lessonID)
		repair = true
	}

	// Step 2: record completion. Skipped on repair, where the row already
	// exists; a write failure here leaves XP untouched by construction.
	if !repair {
		err := s.progress.UpsertCompleted(ctx, domain.LessonProgress{
			UserID:      userID,
			LessonID:    lesson.ID,
			CourseID:    lesson.CourseID,
			Completed:   true,
			CompletedAt: s.now(),
			Score:       score,
		})
		if err != nil {
			log.Printf("failed to record completion: %v", err)
			metrics.ObserveCompletion(string(StatusProgressFailed))
			return CompletionResult{
				Status:   StatusProgressFailed,
				LessonID: lesson.ID,
				XPReward: lesson.XPReward,
				Award:    domain.AwardResult{Reason: fmt.Sprintf("failed to save progress: %v", err)},
			}
		}
	}

	// Step 3: award. A failure after the upsert is partial success, not a
	// rollback; the repair branch picks it up on the next visit.
	award := s.ledger.Award(ctx, userID, lesson.XPReward)
	result := CompletionResult{
		Status:   StatusCompleted,
		LessonID: lesson.ID,
		XPReward: lesson.XPReward,
		Award:    award,
	}
	switch {
	case !award.Success:
		result.Status = StatusXPFailed
	case repair:
		result.Status = StatusRepaired
		metrics.ObserveRepair()
	}
	if award.Success {
		result.LeveledUp = domain.LevelForXP(award.NewXP-lesson.XPReward) < award.NewLevel
		metrics.ObserveAward(lesson.XPReward)
	}
	metrics.ObserveCompletion(string(result.Status))
	return result
}

func (s *ProgressService) invalid(lessonID, reason string) CompletionResult {
	metrics.ObserveCompletion(string(StatusInvalid))
	return CompletionResult{
		Status:   StatusInvalid,
		LessonID: lessonID,
		Award:    domain.AwardResult{NewLevel: 1, Reason: reason},
	}
}
