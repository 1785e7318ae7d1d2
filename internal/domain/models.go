package domain

import "time"

// AttemptStatus tracks where an attempt is in its lifecycle.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// QuizStatus gates whether attempts can be started.
type QuizStatus string

const (
	QuizPending   QuizStatus = "pending"
	QuizActive    QuizStatus = "active"
	QuizCompleted QuizStatus = "completed"
)

// QuizType distinguishes organizer-run live rounds from self-paced ones.
type QuizType string

const (
	QuizLive  QuizType = "live"
	QuizAsync QuizType = "async"
)

// QuestionType mirrors the kinds of questions the generator can produce.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionFillBlank      QuestionType = "fill_blank"
	QuestionOrder          QuestionType = "order"
	QuestionVisual         QuestionType = "visual"
	QuestionCreative       QuestionType = "creative"
)

// Question is a single trivia item. CorrectAnswer is compared with plain string equality.
type Question struct {
	ID            string       `json:"id"`
	QuizID        string       `json:"quizId,omitempty"`
	Prompt        string       `json:"question"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
	Difficulty    string       `json:"difficulty"`
	TimeLimit     int          `json:"timeLimit"` // seconds
	OrderIndex    int          `json:"orderIndex"`
}

// Quiz is an artist trivia round and its questions.
type Quiz struct {
	ID            string     `json:"id"`
	ArtistID      string     `json:"artistId"`
	ArtistName    string     `json:"artistName"`
	EventID       string     `json:"eventId,omitempty"`
	Type          QuizType   `json:"type"`
	Status        QuizStatus `json:"status"`
	Duration      int        `json:"duration"` // seconds
	QuestionCount int        `json:"questionCount"`
	StartTime     *time.Time `json:"startTime,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	Questions     []Question `json:"questions"`
}

// Public strips correct answers so the quiz can be sent to players.
func (q Quiz) Public() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.CorrectAnswer = ""
		out.Questions[i] = question
	}
	return out
}

// AcceptingAttempts reports whether attempts may start at now. A pending quiz
// opens once its start time has passed.
func (q Quiz) AcceptingAttempts(now time.Time) bool {
	switch q.Status {
	case QuizActive:
		return true
	case QuizPending:
		return q.StartTime != nil && !now.Before(*q.StartTime)
	}
	return false
}

// QuestionByID returns the question with the given id, if present.
func (q Quiz) QuestionByID(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// QuizAttempt is one user's pass through a quiz. Once Completed, only Rank may change.
type QuizAttempt struct {
	ID                 string        `json:"id"`
	QuizID             string        `json:"quizId"`
	UserID             string        `json:"userId"`
	TotalQuestions     int           `json:"totalQuestions"`
	CorrectAnswers     int           `json:"correctAnswers"`
	ResponseTimes      []int64       `json:"responseTimes"` // milliseconds
	Streak             int           `json:"streak"`
	MaxStreak          int           `json:"maxStreak"`
	Status             AttemptStatus `json:"status"`
	AvgResponseTime    float64       `json:"avgResponseTime"`
	ResponseTimeStdDev float64       `json:"responseTimeStdDev"`
	FinalScore         float64       `json:"finalScore"`
	AccuracyScore      float64       `json:"accuracyScore"`
	SpeedScore         float64       `json:"speedScore"`
	ConsistencyScore   float64       `json:"consistencyScore"`
	Rank               int           `json:"rank,omitempty"`
	StartedAt          time.Time     `json:"startedAt"`
	CompletedAt        *time.Time    `json:"completedAt,omitempty"`
}

// QuizResponse is one recorded answer within an attempt.
type QuizResponse struct {
	ID           string `json:"id"`
	AttemptID    string `json:"attemptId"`
	QuestionID   string `json:"questionId"`
	Answer       string `json:"answer"`
	IsCorrect    bool   `json:"isCorrect"`
	ResponseTime int64  `json:"responseTime"` // milliseconds
}

// ResponseInput is an answer as submitted by a client.
type ResponseInput struct {
	QuestionID   string `json:"questionId"`
	Answer       string `json:"answer"`
	ResponseTime int64  `json:"responseTime"`
}

// QuizFilter narrows quiz listings. Zero fields match everything.
type QuizFilter struct {
	Status   QuizStatus
	Type     QuizType
	ArtistID string
}

// AttemptFilter narrows completed-attempt listings.
type AttemptFilter struct {
	QuizID   string
	ArtistID string
}

// Participant represents a player in a live quiz room and their best final score.
type Participant struct {
	UserID      string
	DisplayName string
	Score       float64
	LastUpdated time.Time
}

// LeaderboardEntry is a snapshot-friendly view of a participant.
type LeaderboardEntry struct {
	UserID      string  `json:"userId"`
	DisplayName string  `json:"displayName"`
	Score       float64 `json:"score"`
}

// AttemptSummary announces a freshly completed attempt to a live room.
type AttemptSummary struct {
	AttemptID  string  `json:"attemptId"`
	UserID     string  `json:"userId"`
	FinalScore float64 `json:"finalScore"`
	Rank       int     `json:"rank"`
}

// Leaderboard captures the ordered scoreboard for a live quiz room.
type Leaderboard struct {
	QuizID    string             `json:"quizId"`
	Entries   []LeaderboardEntry `json:"entries"`
	Latest    *AttemptSummary    `json:"latest,omitempty"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// SubmitResult is what a caller gets back after submitting an attempt.
type SubmitResult struct {
	Attempt     QuizAttempt `json:"attempt"`
	FandomBonus int         `json:"fandomBonus"`
	Rank        int         `json:"rank"`
}
