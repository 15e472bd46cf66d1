package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trivia-session-service/internal/app"
	"trivia-session-service/internal/config"
	"trivia-session-service/internal/history"
	"trivia-session-service/internal/infra/memory"
	pgbank "trivia-session-service/internal/infra/postgres"
	redisinfra "trivia-session-service/internal/infra/redis"
	"trivia-session-service/internal/profile"
	"trivia-session-service/internal/snapshot"
	transport "trivia-session-service/internal/transport/http"
	"trivia-session-service/internal/trivia"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia session server",
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 7*24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// Question source: the local bank when postgres is configured,
	// the public trivia API otherwise. Either way a TTL cache fronts it.
	var source trivia.Source
	if pool != nil {
		source = pgbank.NewQuestionBank(pool)
	} else {
		timeout := config.TTLDuration(cfg.Trivia.Timeout, 10*time.Second)
		source = trivia.NewClient(cfg.Trivia.URL, timeout)
	}
	cacheTTL := config.TTLDuration(cfg.Trivia.TTL, 10*time.Minute)
	source = memory.NewQuestionCache(source, cacheTTL)

	var store snapshot.Store
	var board app.LeaderboardStore
	if redisClient != nil {
		store = redisinfra.NewKVStore(redisClient, redisTTL)
		board = redisinfra.NewLeaderboard(redisClient)
	} else {
		store = memory.NewKVStore()
		board = memory.NewLeaderboard()
	}

	snapshots := snapshot.NewRepo(store)
	debounce := config.TTLDuration(cfg.Quiz.SnapshotDebounce, snapshot.DefaultQuietPeriod)
	saver := snapshot.NewSaver(snapshots, debounce)

	service := app.NewSessionService(app.Deps{
		Source:    source,
		Snapshots: snapshots,
		Saver:     saver,
		Archive:   history.NewArchive(store),
		Board:     board,
	}, app.Config{
		TotalTime:     cfg.Quiz.TotalTime,
		DefaultAmount: cfg.Quiz.Amount,
		FeedbackDelay: config.TTLDuration(cfg.Quiz.FeedbackDelay, 1500*time.Millisecond),
	})
	defer service.Shutdown()

	profileTTL := config.TTLDuration(cfg.Quiz.ProfileTTL, profile.DefaultTTL)
	profiles := profile.NewManager(store, profileTTL)

	wsHandler := transport.NewWSHandler(service)
	profileHandler := transport.NewProfileHandler(profiles)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	profileHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia session service on :%s", finalPort)
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
