package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fanfirst-engagement-service/internal/domain"
)

// QuizLoader reads quizzes and their questions straight from Postgres with
// pgx. It sits behind the quiz cache, which only calls it on a miss.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

const quizQuery = `
SELECT id, artist_id, artist_name, event_id, type, status, duration, question_count, start_time, created_at
FROM quizzes WHERE id = $1`

const questionsQuery = `
SELECT id, question, type, options, correct_answer, difficulty, time_limit, order_index
FROM quiz_questions WHERE quiz_id = $1 ORDER BY order_index`

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		quiz      domain.Quiz
		quizType  string
		status    string
		startTime *time.Time
	)
	err := l.pool.QueryRow(ctx, quizQuery, quizID).Scan(
		&quiz.ID, &quiz.ArtistID, &quiz.ArtistName, &quiz.EventID, &quizType, &status,
		&quiz.Duration, &quiz.QuestionCount, &startTime, &quiz.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	quiz.Type = domain.QuizType(quizType)
	quiz.Status = domain.QuizStatus(status)
	quiz.StartTime = startTime

	rows, err := l.pool.Query(ctx, questionsQuery, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			q       domain.Question
			qType   string
			options []byte
		)
		if err := rows.Scan(&q.ID, &q.Prompt, &qType, &options, &q.CorrectAnswer, &q.Difficulty, &q.TimeLimit, &q.OrderIndex); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan question: %w", err)
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return domain.Quiz{}, fmt.Errorf("unmarshal options: %w", err)
			}
		}
		q.QuizID = quizID
		q.Type = domain.QuestionType(qType)
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	return quiz, nil
}
