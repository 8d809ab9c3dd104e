package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/config"
	fileslot "trivia-quiz-service/internal/infra/file"
	pgslot "trivia-quiz-service/internal/infra/postgres"
	redisslot "trivia-quiz-service/internal/infra/redis"
	"trivia-quiz-service/internal/leaderboard"
	"trivia-quiz-service/internal/opentdb"
	transport "trivia-quiz-service/internal/transport/http"
)

const defaultLeaderboardFile = "data/leaderboard.json"

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		log.Printf("config %s not found, using defaults", configPath)
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

	slot, cleanup, err := buildSlot(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	board := leaderboard.NewStore(slot)
	entries := board.Load(ctx)
	log.Printf("leaderboard loaded with %d entries", len(entries))

	provider := opentdb.NewClient(
		opentdb.WithBaseURL(cfg.Provider.URL),
		opentdb.WithTimeout(config.DurationOr(cfg.Provider.Timeout, 15*time.Second)),
	)
	catalog := opentdb.NewCatalog(
		config.DurationOr(cfg.Provider.CategoryTTL, 10*time.Minute),
		opentdb.WithCatalogURL(cfg.Provider.CategoryURL),
	)

	var sessionOpts []app.SessionOption
	if cfg.Quiz.SecondsPerQuestion > 0 {
		sessionOpts = append(sessionOpts, app.WithSecondsPerQuestion(cfg.Quiz.SecondsPerQuestion))
	}
	if cfg.Quiz.RevealDelay != "" {
		sessionOpts = append(sessionOpts, app.WithRevealDelay(config.DurationOr(cfg.Quiz.RevealDelay, 2*time.Second)))
	}

	wsHandler := transport.NewWSHandler(provider, board, catalog, sessionOpts...)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(board.Entries())
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia quiz service on :%s", finalPort)
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

// buildSlot picks the leaderboard backend: postgres when configured, then
// redis, then a JSON file on disk.
func buildSlot(ctx context.Context, cfg config.Config) (leaderboard.Slot, func(), error) {
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		return pgslot.NewSlot(pool, cfg.Leaderboard.Slot), pool.Close, nil
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return redisslot.NewSlot(client, cfg.Leaderboard.Slot), func() { _ = client.Close() }, nil
	}

	path := cfg.Leaderboard.File
	if path == "" {
		path = defaultLeaderboardFile
	}
	return fileslot.NewSlot(path), func() {}, nil
}
