package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"fanfirst-engagement-service/internal/app"
	"fanfirst-engagement-service/internal/domain"
	pgloader "fanfirst-engagement-service/internal/infra/postgres"
	infraredis "fanfirst-engagement-service/internal/infra/redis"
	"fanfirst-engagement-service/internal/infra/sqlstore"
	"fanfirst-engagement-service/internal/infra/sqlstore/migrations"
	"fanfirst-engagement-service/internal/scoring"
)

func TestSubmitAttemptEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db, err := sqlstore.Open(sqlstore.DriverPostgres, pgURL)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := migrations.Apply(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := sqlstore.NewStore(db)
	if err := store.CreateQuiz(ctx, sampleQuiz()); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	quizRepo := infraredis.NewQuizRepository(redisClient, pgloader.NewQuizLoader(pool), 5*time.Minute)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	live := app.NewLiveService(sessions, quizRepo)
	attempts := app.NewAttemptService(quizRepo, store, store, scoring.NewEngine(scoring.DefaultConfig()), scoring.DefaultBonusConfig(), nil).
		WithRankIndex(infraredis.NewRankIndex(redisClient, store, 5*time.Minute)).
		WithPublisher(live)

	if _, err := live.Join(ctx, "quiz-1", "u1", "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := live.Join(ctx, "quiz-1", "u2", "Bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	slow, _, err := attempts.StartAttempt(ctx, "quiz-1", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := attempts.SubmitAttempt(ctx, slow.ID, []domain.ResponseInput{
		{QuestionID: "q1", Answer: "2015", ResponseTime: 6000},
		{QuestionID: "q2", Answer: "Michael", ResponseTime: 6500},
	}); err != nil {
		t.Fatalf("submit slow: %v", err)
	}

	fast, _, err := attempts.StartAttempt(ctx, "quiz-1", "u2")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := attempts.SubmitAttempt(ctx, fast.ID, []domain.ResponseInput{
		{QuestionID: "q1", Answer: "2016", ResponseTime: 1500},
		{QuestionID: "q2", Answer: "Michael", ResponseTime: 1800},
	})
	if err != nil {
		t.Fatalf("submit fast: %v", err)
	}
	if res.Rank != 1 || res.Attempt.FinalScore != 100 || res.FandomBonus != 20 {
		t.Fatalf("expected perfect first place, got rank=%d final=%.2f bonus=%d", res.Rank, res.Attempt.FinalScore, res.FandomBonus)
	}

	stored, err := store.GetAttempt(ctx, slow.ID)
	if err != nil || stored.Rank != 1 {
		t.Fatalf("expected slow attempt stored with its rank at the time, got %+v %v", stored, err)
	}
	if score, _ := store.GetFandomScore(ctx, "u2"); score != 20 {
		t.Fatalf("expected fandom 20, got %d", score)
	}

	ch, cancel, err := live.Subscribe(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	lb := <-ch
	if len(lb.Entries) != 2 || lb.Entries[0].UserID != "u2" {
		t.Fatalf("expected bob leading, got %+v", lb.Entries)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "fanfirst", "POSTGRES_PASSWORD": "fanfirst", "POSTGRES_DB": "fanfirst"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
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
	dsn := fmt.Sprintf("postgres://fanfirst:fanfirst@%s:%s/fanfirst?sslmode=disable", host, port.Port())
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

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:            "quiz-1",
		ArtistID:      "artist-1",
		ArtistName:    "Nova",
		Type:          domain.QuizLive,
		Status:        domain.QuizActive,
		Duration:      180,
		QuestionCount: 2,
		CreatedAt:     time.Now().UTC(),
		Questions: []domain.Question{
			{ID: "q1", QuizID: "quiz-1", Prompt: "Debut year?", Type: domain.QuestionMultipleChoice, Options: []string{"2015", "2016", "2017", "2018"}, CorrectAnswer: "2016", Difficulty: "easy", TimeLimit: 7, OrderIndex: 0},
			{ID: "q2", QuizID: "quiz-1", Prompt: "Real first name?", Type: domain.QuestionMultipleChoice, Options: []string{"Michael", "James", "David", "Robert"}, CorrectAnswer: "Michael", Difficulty: "easy", TimeLimit: 7, OrderIndex: 1},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
