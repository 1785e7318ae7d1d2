package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"fanfirst-engagement-service/internal/domain"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Open connects bun to Postgres (pgdriver) or SQLite (go-sqlite3).
func Open(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case DriverPostgres:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		return bun.NewDB(sqldb, pgdialect.New()), nil
	case DriverSQLite:
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, err
		}
		// one writer; also keeps an in-memory database on a single connection
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Store persists quizzes, attempts, responses and fandom scores through bun.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	row := toQuizRow(quiz)
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		if len(row.Questions) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&row.Questions).Exec(ctx); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
}

func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	row := new(quizRow)
	err := s.db.NewSelect().
		Model(row).
		Relation("Questions", orderQuestions).
		Where("q.id = ?", quizID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	var rows []*quizRow
	q := s.db.NewSelect().
		Model(&rows).
		Relation("Questions", orderQuestions).
		Order("q.created_at DESC")
	if filter.Status != "" {
		q = q.Where("q.status = ?", string(filter.Status))
	}
	if filter.Type != "" {
		q = q.Where("q.type = ?", string(filter.Type))
	}
	if filter.ArtistID != "" {
		q = q.Where("q.artist_id = ?", filter.ArtistID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]domain.Quiz, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *Store) CreateAttempt(ctx context.Context, attempt domain.QuizAttempt) error {
	if _, err := s.db.NewInsert().Model(toAttemptRow(attempt)).Exec(ctx); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *Store) GetAttempt(ctx context.Context, attemptID string) (domain.QuizAttempt, error) {
	row := new(attemptRow)
	err := s.db.NewSelect().Model(row).Where("a.id = ?", attemptID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizAttempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("get attempt: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) FindInProgress(ctx context.Context, quizID, userID string) (domain.QuizAttempt, bool, error) {
	row := new(attemptRow)
	err := s.db.NewSelect().
		Model(row).
		Where("a.quiz_id = ?", quizID).
		Where("a.user_id = ?", userID).
		Where("a.status = ?", string(domain.AttemptInProgress)).
		Order("a.started_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizAttempt{}, false, nil
	}
	if err != nil {
		return domain.QuizAttempt{}, false, fmt.Errorf("find attempt: %w", err)
	}
	return row.toDomain(), true, nil
}

// CompleteAttempt flips an in-progress attempt to its scored state and stores
// the responses in one transaction. The status guard in the UPDATE makes a
// second completion affect no rows.
func (s *Store) CompleteAttempt(ctx context.Context, attempt domain.QuizAttempt, responses []domain.QuizResponse) error {
	row := toAttemptRow(attempt)
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(row).
			Column("status", "total_questions", "correct_answers", "response_times", "streak", "max_streak",
				"avg_response_time", "response_time_std_dev", "final_score", "accuracy_score", "speed_score",
				"consistency_score", "completed_at").
			Where("a.id = ?", attempt.ID).
			Where("a.status = ?", string(domain.AttemptInProgress)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("complete attempt: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			exists, err := tx.NewSelect().Model((*attemptRow)(nil)).Where("a.id = ?", attempt.ID).Exists(ctx)
			if err != nil {
				return err
			}
			if !exists {
				return domain.ErrAttemptNotFound
			}
			return domain.ErrAttemptCompleted
		}
		if len(responses) == 0 {
			return nil
		}
		created := s.now().UTC()
		rows := make([]*responseRow, 0, len(responses))
		for _, r := range responses {
			rows = append(rows, &responseRow{
				ID:           r.ID,
				AttemptID:    attempt.ID,
				QuestionID:   r.QuestionID,
				Answer:       r.Answer,
				IsCorrect:    r.IsCorrect,
				ResponseTime: r.ResponseTime,
				CreatedAt:    created,
			})
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert responses: %w", err)
		}
		return nil
	})
}

func (s *Store) SetRank(ctx context.Context, attemptID string, rank int) error {
	res, err := s.db.NewUpdate().
		Model((*attemptRow)(nil)).
		Set("rank = ?", rank).
		Where("id = ?", attemptID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set rank: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

func (s *Store) CountHigherScores(ctx context.Context, quizID string, score float64) (int, error) {
	n, err := s.db.NewSelect().
		Model((*attemptRow)(nil)).
		Where("a.quiz_id = ?", quizID).
		Where("a.status = ?", string(domain.AttemptCompleted)).
		Where("a.final_score > ?", score).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count higher scores: %w", err)
	}
	return n, nil
}

func (s *Store) ListCompleted(ctx context.Context, filter domain.AttemptFilter) ([]domain.QuizAttempt, error) {
	var rows []*attemptRow
	q := s.db.NewSelect().
		Model(&rows).
		Where("a.status = ?", string(domain.AttemptCompleted)).
		Order("a.started_at ASC")
	if filter.QuizID != "" {
		q = q.Where("a.quiz_id = ?", filter.QuizID)
	}
	if filter.ArtistID != "" {
		q = q.Join("JOIN quizzes AS q ON q.id = a.quiz_id").Where("q.artist_id = ?", filter.ArtistID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.QuizAttempt, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// Responses returns the answers recorded for an attempt.
func (s *Store) Responses(ctx context.Context, attemptID string) ([]domain.QuizResponse, error) {
	var rows []*responseRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("r.attempt_id = ?", attemptID).
		Order("r.created_at ASC", "r.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	out := make([]domain.QuizResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.QuizResponse{
			ID:           r.ID,
			AttemptID:    r.AttemptID,
			QuestionID:   r.QuestionID,
			Answer:       r.Answer,
			IsCorrect:    r.IsCorrect,
			ResponseTime: r.ResponseTime,
		})
	}
	return out, nil
}

// IncrementFandomScore upserts the user row and adds delta in the database,
// so concurrent awards never overwrite each other.
func (s *Store) IncrementFandomScore(ctx context.Context, userID string, delta int) (int, error) {
	var total int
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&userRow{ID: userID, FandomScore: delta}).
			On("CONFLICT (id) DO UPDATE").
			Set("fandom_score = users.fandom_score + EXCLUDED.fandom_score").
			Exec(ctx)
		if err != nil {
			return err
		}
		return tx.NewSelect().Model((*userRow)(nil)).Column("fandom_score").Where("id = ?", userID).Scan(ctx, &total)
	})
	if err != nil {
		return 0, fmt.Errorf("increment fandom score: %w", err)
	}
	return total, nil
}

func (s *Store) GetFandomScore(ctx context.Context, userID string) (int, error) {
	var total int
	err := s.db.NewSelect().Model((*userRow)(nil)).Column("fandom_score").Where("id = ?", userID).Scan(ctx, &total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get fandom score: %w", err)
	}
	return total, nil
}

func orderQuestions(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Order("order_index ASC")
}
