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

	"quizbot/internal/app"
	"quizbot/internal/config"
	"quizbot/internal/domain"
	"quizbot/internal/infra/memory"
	pgstore "quizbot/internal/infra/postgres"
	redisrepo "quizbot/internal/infra/redis"
	transport "quizbot/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the bot server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz bot server",
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

	var loader memory.PoolLoader = memory.NewStaticPoolLoader(sampleQuestions())
	switch {
	case pool != nil:
		loader = pgstore.NewQuestionLoader(pool)
	case cfg.Questions.File != "":
		loader = memory.NewFilePoolLoader(cfg.Questions.File)
	}

	questionTTL := config.Duration(cfg.Questions.TTL, 10*time.Minute)
	var questions app.QuestionSource
	if redisClient != nil {
		questions = redisrepo.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, questionTTL)
	}

	var scores app.ScoreStore = memory.NewScoreStore()
	if pool != nil {
		scores = pgstore.NewScoreStore(pool)
	}

	hub := transport.NewHub()
	service := app.NewQuizService(app.Config{
		Questions: questions,
		Scores:    scores,
		Messenger: hub,
		Scheduler: app.NewTimerScheduler(),
		Timings: app.Timings{
			HintInterval:  config.Duration(cfg.Quiz.HintInterval, 8*time.Second),
			AnswerTimeout: config.Duration(cfg.Quiz.AnswerTimeout, 30*time.Second),
		},
	})
	wsHandler := transport.NewWSHandler(service, hub, cfg.Questions.Categories)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz bot on :%s", finalPort)
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

// sampleQuestions provides a minimal question bank; configure a questions
// file or Postgres for a real deployment.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{Text: "What is 2 + 2?", Answer: "4", Category: "Trivia"},
		{Text: "What is the capital of France?", Answer: "Paris", Category: "Trivia"},
		{Text: "Which planet is known as the Red Planet?", Answer: "Mars", Category: "Trivia"},
	}
}
