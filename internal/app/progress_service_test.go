package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"kodein-progress-service/internal/app"
	"kodein-progress-service/internal/domain"
	"kodein-progress-service/internal/infra/memory"
)

type fixture struct {
	service  *app.ProgressService
	profiles *memory.ProfileStore
	progress *memory.ProgressStore
	awarder  *memory.AtomicAwarder
}

func newFixture() *fixture {
	profiles := memory.NewProfileStore()
	seedProfile(profiles, "u1", 0)
	progress := memory.NewProgressStore()
	content := memory.NewContentStore(
		map[string]domain.Lesson{
			"l1": {ID: "l1", CourseID: "c1", Title: "Pengenalan Go", XPReward: 10, LessonOrder: 1},
		},
		map[string][]domain.QuizQuestion{
			"l1": fourQuestions(),
		},
	)
	awarder := memory.NewAtomicAwarder(profiles)
	ledger := app.NewXPLedger(profiles, awarder)
	service := app.NewProgressService(content, content, progress, profiles, ledger, 5*time.Second)
	return &fixture{service: service, profiles: profiles, progress: progress, awarder: awarder}
}

func TestQuizPassAwardsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	// 3 of 4 correct: 75%, gate passes (minimum is 3).
	result := f.service.FinishQuiz(ctx, "u1", "l1", 3, 4)
	if result.Status != app.StatusCompleted {
		t.Fatalf("expected completed, got %+v", result)
	}
	if result.Percentage != 75 || result.MinScore != 3 {
		t.Fatalf("unexpected quiz context: %+v", result)
	}
	if !result.Award.Success || result.Award.NewXP != 10 || result.Award.NewLevel != 1 {
		t.Fatalf("expected xp 0 -> 10 at level 1, got %+v", result.Award)
	}
	if result.LeveledUp {
		t.Fatalf("10 xp must not level up")
	}

	row, ok := f.progress.Get("u1", "l1")
	if !ok || !row.Completed || row.Score == nil || *row.Score != 3 {
		t.Fatalf("expected completed row with score 3, got %+v ok=%v", row, ok)
	}
}

func TestQuizFailMutatesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	// 2 of 4 correct: 50%, below the pass line.
	result := f.service.FinishQuiz(ctx, "u1", "l1", 2, 4)
	if result.Status != app.StatusQuizFailed {
		t.Fatalf("expected quiz_failed, got %v", result.Status)
	}
	if f.progress.Count() != 0 {
		t.Fatalf("failing quiz must not create a progress row")
	}
	profile, _ := f.profiles.GetProfile(ctx, "u1")
	if profile.XPPoints != 0 {
		t.Fatalf("failing quiz must not change xp, got %d", profile.XPPoints)
	}
}

func TestRepeatCompletionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	first := f.service.CompleteLesson(ctx, "u1", "l1", nil)
	if first.Status != app.StatusCompleted || first.Award.NewXP != 10 {
		t.Fatalf("first completion: %+v", first)
	}

	second := f.service.CompleteLesson(ctx, "u1", "l1", nil)
	if second.Status != app.StatusAlreadyCompleted {
		t.Fatalf("expected already_completed, got %v", second.Status)
	}
	if second.Award.NewXP != 10 {
		t.Fatalf("repeat completion must not re-award, got xp %d", second.Award.NewXP)
	}
	if f.progress.Count() != 1 {
		t.Fatalf("expected a single progress row, got %d", f.progress.Count())
	}
}

func TestRepairGrantsMissingXPOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	// Known inconsistent state: completion recorded, award never landed.
	if err := f.progress.UpsertCompleted(ctx, domain.LessonProgress{
		UserID: "u1", LessonID: "l1", CourseID: "c1", Completed: true, CompletedAt: time.Now(),
	}); err != nil {
		t.Fatalf("seed progress: %v", err)
	}

	repaired := f.service.CompleteLesson(ctx, "u1", "l1", nil)
	if repaired.Status != app.StatusRepaired {
		t.Fatalf("expected repaired, got %v", repaired.Status)
	}
	if repaired.Award.NewXP != 10 {
		t.Fatalf("expected xp raised to 10, got %d", repaired.Award.NewXP)
	}

	// A further retry must not accumulate.
	again := f.service.CompleteLesson(ctx, "u1", "l1", nil)
	if again.Status != app.StatusAlreadyCompleted || again.Award.NewXP != 10 {
		t.Fatalf("repair must not repeat: %+v", again)
	}
}

func TestProgressWriteFailureLeavesXPUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.progress.FailUpsert = errors.New("disk full")

	result := f.service.CompleteLesson(ctx, "u1", "l1", nil)
	if result.Status != app.StatusProgressFailed {
		t.Fatalf("expected progress_failed, got %v", result.Status)
	}
	profile, _ := f.profiles.GetProfile(ctx, "u1")
	if profile.XPPoints != 0 {
		t.Fatalf("xp must be untouched after progress failure, got %d", profile.XPPoints)
	}
}

func TestAwardFailureIsPartialSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.awarder.Err = errors.New("rpc timeout")
	f.profiles.FailUpdate = errors.New("write refused")

	result := f.service.CompleteLesson(ctx, "u1", "l1", nil)
	if result.Status != app.StatusXPFailed {
		t.Fatalf("expected xp_failed partial success, got %v", result.Status)
	}
	if result.Award.Reason == "" {
		t.Fatalf("partial failure must carry a reason")
	}
	// Progress is durably saved; the repair branch picks it up later.
	if f.progress.Count() != 1 {
		t.Fatalf("expected progress row to remain, got %d rows", f.progress.Count())
	}

	f.awarder.Err = nil
	f.profiles.FailUpdate = nil
	repaired := f.service.CompleteLesson(ctx, "u1", "l1", nil)
	if repaired.Status != app.StatusRepaired || repaired.Award.NewXP != 10 {
		t.Fatalf("expected later visit to repair, got %+v", repaired)
	}
}

func TestCompletionCheckErrorDefaultsToNotCompleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.progress.FailCheck = errors.New("timeout")

	result := f.service.CompleteLesson(ctx, "u1", "l1", nil)
	if result.Status != app.StatusCompleted {
		t.Fatalf("check error should re-attempt completion, got %v", result.Status)
	}
}

func TestContractViolationsSkipRemoteCalls(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if result := f.service.CompleteLesson(ctx, "", "l1", nil); result.Status != app.StatusInvalid {
		t.Fatalf("missing user should be invalid, got %v", result.Status)
	}
	if result := f.service.CompleteLesson(ctx, "u1", "", nil); result.Status != app.StatusInvalid {
		t.Fatalf("missing lesson should be invalid, got %v", result.Status)
	}
	if result := f.service.CompleteLesson(ctx, "u1", "nope", nil); result.Status != app.StatusInvalid {
		t.Fatalf("unknown lesson should be invalid, got %v", result.Status)
	}
	if f.progress.Count() != 0 {
		t.Fatalf("invalid requests must not write progress")
	}
}

func TestLevelUpDetection(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	seedProfile(f.profiles, "u1", 95)

	result := f.service.CompleteLesson(ctx, "u1", "l1", nil)
	if result.Status != app.StatusCompleted {
		t.Fatalf("expected completed, got %v", result.Status)
	}
	if result.Award.NewXP != 105 || result.Award.NewLevel != 2 {
		t.Fatalf("expected 105 xp at level 2, got %+v", result.Award)
	}
	if !result.LeveledUp {
		t.Fatalf("crossing 100 xp must report a level up")
	}
}

func TestStartQuizBuildsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	session, err := f.service.StartQuiz(ctx, "l1")
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	if session.Total() != 4 || session.ID() == "" {
		t.Fatalf("unexpected session: total=%d id=%q", session.Total(), session.ID())
	}

	if _, err := f.service.StartQuiz(ctx, "no-quiz"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}
