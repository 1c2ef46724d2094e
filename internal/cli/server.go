package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"kodein-progress-service/internal/app"
	"kodein-progress-service/internal/config"
	"kodein-progress-service/internal/infra/memory"
	pgstore "kodein-progress-service/internal/infra/postgres"
	redisstore "kodein-progress-service/internal/infra/redis"
	"kodein-progress-service/internal/metrics"
	transport "kodein-progress-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the progress service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	quizTTL := config.Duration(cfg.Cache.QuizTTL, 10*time.Minute)
	boardTTL := config.Duration(cfg.Cache.LeaderboardTTL, 10*time.Second)
	xpTimeout := config.Duration(cfg.XP.Timeout, 5*time.Second)

	var (
		lessons  app.LessonRepository
		quizzes  app.QuizRepository
		progress app.ProgressRepository
		profiles app.ProfileRepository
		awarder  app.AtomicAwarder
		board    app.LeaderboardSource
	)

	if pool != nil {
		content := pgstore.NewContentStore(pool)
		profileStore := pgstore.NewProfileStore(pool)
		lessons = content
		quizzes = content
		progress = pgstore.NewProgressStore(pool)
		profiles = profileStore
		awarder = pgstore.NewAwarder(pool)
		board = profileStore
		if redisClient != nil {
			quizzes = redisstore.NewQuizCache(redisClient, content, quizTTL)
			board = redisstore.NewLeaderboardCache(redisClient, profileStore, boardTTL)
		}
	} else {
		// Demo mode: in-memory backend seeded with sample content.
		log.Printf("postgres not configured, serving sample content from memory")
		content := memory.NewContentStore(sampleLessons(), sampleQuizzes())
		profileStore := memory.NewProfileStore()
		for _, profile := range sampleProfiles() {
			profileStore.Put(profile)
		}
		lessons = content
		quizzes = content
		progress = memory.NewProgressStore()
		profiles = profileStore
		awarder = memory.NewAtomicAwarder(profileStore)
		board = profileStore
	}

	ledger := app.NewXPLedger(profiles, awarder)
	service := app.NewProgressService(lessons, quizzes, progress, profiles, ledger, xpTimeout)
	leaderboard := app.NewLeaderboard(board, cfg.Leaderboard.Limit)

	wsHandler := transport.NewWSHandler(service)
	boardHandler := transport.NewLeaderboardHandler(leaderboard)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/leaderboard", boardHandler.HandleTop)
	mux.HandleFunc("/rank/", boardHandler.HandleRank)
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting progress service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
