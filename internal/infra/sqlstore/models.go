package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"fanfirst-engagement-service/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:q"`

	ID            string         `bun:"id,pk"`
	ArtistID      string         `bun:"artist_id,notnull"`
	ArtistName    string         `bun:"artist_name,notnull"`
	EventID       string         `bun:"event_id,notnull,default:''"`
	Type          string         `bun:"type,notnull"`
	Status        string         `bun:"status,notnull"`
	Duration      int            `bun:"duration,notnull"`
	QuestionCount int            `bun:"question_count,notnull"`
	StartTime     *time.Time     `bun:"start_time"`
	CreatedAt     time.Time      `bun:"created_at,notnull"`
	Questions     []*questionRow `bun:"rel:has-many,join:id=quiz_id"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:quiz_questions,alias:qq"`

	ID            string   `bun:"id,pk"`
	QuizID        string   `bun:"quiz_id,notnull"`
	Question      string   `bun:"question,notnull"`
	Type          string   `bun:"type,notnull"`
	Options       []string `bun:"options"`
	CorrectAnswer string   `bun:"correct_answer,notnull"`
	Difficulty    string   `bun:"difficulty,notnull"`
	TimeLimit     int      `bun:"time_limit,notnull"`
	OrderIndex    int      `bun:"order_index,notnull"`
}

type attemptRow struct {
	bun.BaseModel `bun:"table:quiz_attempts,alias:a"`

	ID                 string     `bun:"id,pk"`
	QuizID             string     `bun:"quiz_id,notnull"`
	UserID             string     `bun:"user_id,notnull"`
	Status             string     `bun:"status,notnull"`
	TotalQuestions     int        `bun:"total_questions,notnull"`
	CorrectAnswers     int        `bun:"correct_answers,notnull"`
	ResponseTimes      []int64    `bun:"response_times"`
	Streak             int        `bun:"streak,notnull"`
	MaxStreak          int        `bun:"max_streak,notnull"`
	AvgResponseTime    float64    `bun:"avg_response_time,notnull"`
	ResponseTimeStdDev float64    `bun:"response_time_std_dev,notnull"`
	FinalScore         float64    `bun:"final_score,notnull"`
	AccuracyScore      float64    `bun:"accuracy_score,notnull"`
	SpeedScore         float64    `bun:"speed_score,notnull"`
	ConsistencyScore   float64    `bun:"consistency_score,notnull"`
	Rank               int        `bun:"rank,notnull"`
	StartedAt          time.Time  `bun:"started_at,notnull"`
	CompletedAt        *time.Time `bun:"completed_at"`
}

type responseRow struct {
	bun.BaseModel `bun:"table:quiz_responses,alias:r"`

	ID           string    `bun:"id,pk"`
	AttemptID    string    `bun:"attempt_id,notnull"`
	QuestionID   string    `bun:"question_id,notnull"`
	Answer       string    `bun:"answer,notnull"`
	IsCorrect    bool      `bun:"is_correct,notnull"`
	ResponseTime int64     `bun:"response_time,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

// userRow holds the cumulative fandom score. The alias matches the table so
// upsert expressions read the same on every dialect.
type userRow struct {
	bun.BaseModel `bun:"table:users,alias:users"`

	ID          string `bun:"id,pk"`
	FandomScore int    `bun:"fandom_score,notnull"`
}

func toQuizRow(q domain.Quiz) *quizRow {
	row := &quizRow{
		ID:            q.ID,
		ArtistID:      q.ArtistID,
		ArtistName:    q.ArtistName,
		EventID:       q.EventID,
		Type:          string(q.Type),
		Status:        string(q.Status),
		Duration:      q.Duration,
		QuestionCount: q.QuestionCount,
		StartTime:     q.StartTime,
		CreatedAt:     q.CreatedAt,
	}
	for _, question := range q.Questions {
		row.Questions = append(row.Questions, &questionRow{
			ID:            question.ID,
			QuizID:        q.ID,
			Question:      question.Prompt,
			Type:          string(question.Type),
			Options:       question.Options,
			CorrectAnswer: question.CorrectAnswer,
			Difficulty:    question.Difficulty,
			TimeLimit:     question.TimeLimit,
			OrderIndex:    question.OrderIndex,
		})
	}
	return row
}

func (r *quizRow) toDomain() domain.Quiz {
	quiz := domain.Quiz{
		ID:            r.ID,
		ArtistID:      r.ArtistID,
		ArtistName:    r.ArtistName,
		EventID:       r.EventID,
		Type:          domain.QuizType(r.Type),
		Status:        domain.QuizStatus(r.Status),
		Duration:      r.Duration,
		QuestionCount: r.QuestionCount,
		StartTime:     r.StartTime,
		CreatedAt:     r.CreatedAt,
		Questions:     make([]domain.Question, 0, len(r.Questions)),
	}
	for _, q := range r.Questions {
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID:            q.ID,
			QuizID:        q.QuizID,
			Prompt:        q.Question,
			Type:          domain.QuestionType(q.Type),
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Difficulty:    q.Difficulty,
			TimeLimit:     q.TimeLimit,
			OrderIndex:    q.OrderIndex,
		})
	}
	return quiz
}

func toAttemptRow(a domain.QuizAttempt) *attemptRow {
	return &attemptRow{
		ID:                 a.ID,
		QuizID:             a.QuizID,
		UserID:             a.UserID,
		Status:             string(a.Status),
		TotalQuestions:     a.TotalQuestions,
		CorrectAnswers:     a.CorrectAnswers,
		ResponseTimes:      a.ResponseTimes,
		Streak:             a.Streak,
		MaxStreak:          a.MaxStreak,
		AvgResponseTime:    a.AvgResponseTime,
		ResponseTimeStdDev: a.ResponseTimeStdDev,
		FinalScore:         a.FinalScore,
		AccuracyScore:      a.AccuracyScore,
		SpeedScore:         a.SpeedScore,
		ConsistencyScore:   a.ConsistencyScore,
		Rank:               a.Rank,
		StartedAt:          a.StartedAt,
		CompletedAt:        a.CompletedAt,
	}
}

func (r *attemptRow) toDomain() domain.QuizAttempt {
	return domain.QuizAttempt{
		ID:                 r.ID,
		QuizID:             r.QuizID,
		UserID:             r.UserID,
		Status:             domain.AttemptStatus(r.Status),
		TotalQuestions:     r.TotalQuestions,
		CorrectAnswers:     r.CorrectAnswers,
		ResponseTimes:      r.ResponseTimes,
		Streak:             r.Streak,
		MaxStreak:          r.MaxStreak,
		AvgResponseTime:    r.AvgResponseTime,
		ResponseTimeStdDev: r.ResponseTimeStdDev,
		FinalScore:         r.FinalScore,
		AccuracyScore:      r.AccuracyScore,
		SpeedScore:         r.SpeedScore,
		ConsistencyScore:   r.ConsistencyScore,
		Rank:               r.Rank,
		StartedAt:          r.StartedAt,
		CompletedAt:        r.CompletedAt,
	}
}
