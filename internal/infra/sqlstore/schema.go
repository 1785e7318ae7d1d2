package sqlstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

var tables = []interface{}{
	(*quizRow)(nil),
	(*questionRow)(nil),
	(*attemptRow)(nil),
	(*responseRow)(nil),
	(*userRow)(nil),
}

// CreateSchema creates the engagement tables and their lookup indexes.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	indexes := []struct {
		model   interface{}
		name    string
		columns []string
	}{
		{(*questionRow)(nil), "idx_quiz_questions_quiz", []string{"quiz_id"}},
		{(*attemptRow)(nil), "idx_quiz_attempts_quiz_user", []string{"quiz_id", "user_id"}},
		{(*attemptRow)(nil), "idx_quiz_attempts_quiz_score", []string{"quiz_id", "final_score"}},
		{(*responseRow)(nil), "idx_quiz_responses_attempt", []string{"attempt_id"}},
	}
	for _, idx := range indexes {
		if _, err := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// DropSchema removes everything CreateSchema made.
func DropSchema(ctx context.Context, db bun.IDB) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(tables[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return nil
}
