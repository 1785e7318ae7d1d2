package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"fanfirst-engagement-service/internal/app"
	"fanfirst-engagement-service/internal/comfort"
	"fanfirst-engagement-service/internal/config"
	"fanfirst-engagement-service/internal/guard"
	"fanfirst-engagement-service/internal/infra/aiclient"
	"fanfirst-engagement-service/internal/infra/memory"
	pgloader "fanfirst-engagement-service/internal/infra/postgres"
	infraredis "fanfirst-engagement-service/internal/infra/redis"
	"fanfirst-engagement-service/internal/infra/sqlstore"
	"fanfirst-engagement-service/internal/scoring"
	transport "fanfirst-engagement-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the engagement server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

// store is everything the services persist through.
type store interface {
	app.QuizStore
	app.AttemptStore
	app.FandomStore
	memory.QuizLoader
}

func runServer(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	var (
		st      store
		cleanup []func()
	)
	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()

	if driver, dsn := databaseTarget(cfg); driver != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
		db, err := sqlstore.Open(driver, dsn)
		if err != nil {
			return err
		}
		cleanup = append(cleanup, func() { _ = db.Close() })
		st = sqlstore.NewStore(db)
	} else {
		logger.Warn("no database configured, data is kept in memory")
		st = memory.NewStore()
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cleanup = append(cleanup, func() { _ = redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var loader memory.QuizLoader = st
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		cleanup = append(cleanup, pool.Close)
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var (
		quizRepo app.QuizRepository
		sessions app.SessionRepository
		fandom   app.FandomStore = st
		ranks    app.RankIndex
	)
	if redisClient != nil {
		quizRepo = infraredis.NewQuizRepository(redisClient, loader, quizTTL)
		sessions = infraredis.NewSessionStore(redisClient, redisTTL)
		ranks = infraredis.NewRankIndex(redisClient, st, redisTTL)
		if _, inMemory := st.(*memory.Store); inMemory {
			// keep fandom totals across restarts when there is no database
			fandom = infraredis.NewFandomCounter(redisClient)
		}
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		sessions = memory.NewSessionStore()
	}

	var (
		escalator comfort.Escalator
		generator app.QuestionGenerator
	)
	aiTimeout := config.TTLDuration(cfg.AI.Timeout, 3*time.Second)
	if cfg.AI.BaseURL != "" {
		client := aiclient.New(cfg.AI.BaseURL, 2*aiTimeout)
		escalator = client
		generator = client
	}
	var limiter *rate.Limiter
	if cfg.AI.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.AI.RateLimit), max(cfg.AI.Burst, 1))
	}
	policy := func(service string) guard.Policy {
		p := guard.DefaultPolicy(service)
		p.Timeout = aiTimeout
		p.MaxAttempts = max(cfg.AI.MaxAttempts, 1)
		p.Limiter = limiter
		p.Logger = logger
		return p
	}

	weights := comfort.DefaultWeights()
	weights.NativeThreshold = cfg.Comfort.NativeThreshold
	weights.CuriousThreshold = cfg.Comfort.CuriousThreshold

	live := app.NewLiveService(sessions, quizRepo)
	attempts := app.NewAttemptService(quizRepo, st, fandom, scoring.NewEngine(cfg.ScoringConfig()), cfg.Bonus, logger).
		WithPublisher(live)
	if ranks != nil {
		attempts = attempts.WithRankIndex(ranks)
	}
	quizzes := app.NewQuizService(st, quizRepo, generator, policy("question-ai"), logger)

	if _, inMemory := st.(*memory.Store); inMemory {
		demo, err := quizzes.CreateQuiz(ctx, app.CreateQuizInput{ArtistID: "demo-artist", ArtistName: "Demo Artist"})
		if err != nil {
			return err
		}
		logger.Info("demo quiz ready", "quiz", demo.ID)
	}

	srv := transport.NewServer(transport.Services{
		Quizzes:     quizzes,
		Attempts:    attempts,
		Leaderboard: app.NewLeaderboardService(st),
		Fandom:      app.NewFandomService(fandom, logger),
		Live:        live,
		Comfort:     comfort.NewClassifier(comfort.NewEngine(weights), escalator, policy("comfort-ai"), logger),
	}, transport.ServerConfig{
		AllowedOrigins: cfg.Server.CORSOrigins,
		RequestTimeout: config.TTLDuration(cfg.Server.RequestTimeout, 15*time.Second),
		Logger:         logger,
	})

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting engagement service", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
