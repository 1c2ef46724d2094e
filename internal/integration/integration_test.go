package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"kodein-progress-service/internal/app"
	pgstore "kodein-progress-service/internal/infra/postgres"
	pgmigrations "kodein-progress-service/internal/infra/postgres/migrations"
	redisstore "kodein-progress-service/internal/infra/redis"
)

func TestCompletionFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedData(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	content := pgstore.NewContentStore(pool)
	profiles := pgstore.NewProfileStore(pool)
	progress := pgstore.NewProgressStore(pool)
	awarder := pgstore.NewAwarder(pool)
	quizzes := redisstore.NewQuizCache(redisClient, content, 5*time.Minute)

	ledger := app.NewXPLedger(profiles, awarder)
	service := app.NewProgressService(content, quizzes, progress, profiles, ledger, 10*time.Second)

	// Quiz content survives the typed decoding boundary, including the
	// doubly-encoded options row.
	questions, err := quizzes.GetQuiz(ctx, "lesson-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	for _, q := range questions {
		if len(q.Options) != 3 {
			t.Fatalf("question %s: expected 3 options, got %v", q.ID, q.Options)
		}
	}

	// 2 of 2 correct passes the gate; xp 0 -> 10, level stays 1.
	result := service.FinishQuiz(ctx, "user-1", "lesson-1", 2, 2)
	if result.Status != app.StatusCompleted {
		t.Fatalf("expected completed, got %+v", result)
	}
	if !result.Award.Success || result.Award.NewXP != 10 || result.Award.NewLevel != 1 {
		t.Fatalf("unexpected award: %+v", result.Award)
	}

	profile, err := profiles.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.XPPoints != 10 || profile.Level != 1 {
		t.Fatalf("profile not updated: %+v", profile)
	}

	// Repeat completion must not double-award.
	again := service.FinishQuiz(ctx, "user-1", "lesson-1", 2, 2)
	if again.Status != app.StatusAlreadyCompleted {
		t.Fatalf("expected already_completed, got %v", again.Status)
	}
	profile, _ = profiles.GetProfile(ctx, "user-1")
	if profile.XPPoints != 10 {
		t.Fatalf("repeat completion changed xp: %d", profile.XPPoints)
	}

	// Known inconsistent state: wipe the xp while the progress row stays.
	if err := profiles.UpdateXP(ctx, "user-1", 0, 1); err != nil {
		t.Fatalf("reset xp: %v", err)
	}
	repaired := service.CompleteLesson(ctx, "user-1", "lesson-1", nil)
	if repaired.Status != app.StatusRepaired || repaired.Award.NewXP != 10 {
		t.Fatalf("expected repair to 10 xp, got %+v", repaired)
	}
}

func TestLeaderboardEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	seedData(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	profiles := pgstore.NewProfileStore(pool)
	board := app.NewLeaderboard(profiles, 100)

	entries, err := board.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("top n: %v", err)
	}
	if len(entries) != 2 || entries[0].UserID != "user-2" || entries[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard: %+v", entries)
	}

	entry, err := board.RankFor(ctx, "user-1")
	if err != nil {
		t.Fatalf("rank for: %v", err)
	}
	if entry.Rank != 2 {
		t.Fatalf("expected rank 2, got %d", entry.Rank)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "kodein", "POSTGRES_PASSWORD": "kodeinpass", "POSTGRES_DB": "kodeindb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://kodein:kodeinpass@%s:%s/kodeindb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedData(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	stmts := []string{
		`INSERT INTO profiles (id, username, full_name, xp_points, level) VALUES
			('user-1', 'alice', 'Alice', 0, 1),
			('user-2', 'bob', 'Bob', 250, 2)
		 ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO lessons (id, course_id, title, xp_reward, lesson_order) VALUES
			('lesson-1', 'course-go', 'Pengenalan Go', 10, 1)
		 ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO quizzes (id, lesson_id, question, options, correct_answer, explanation) VALUES
			('q1', 'lesson-1', 'What is 2 + 2?', '["3", "4", "5"]'::jsonb, 1, NULL),
			('q2', 'lesson-1', 'What is 3 + 3?', '"[\"6\", \"7\", \"8\"]"'::jsonb, 0, 'tiga tambah tiga')
		 ON CONFLICT (id) DO NOTHING`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
