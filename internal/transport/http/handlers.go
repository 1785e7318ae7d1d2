package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fanfirst-engagement-service/internal/app"
	"fanfirst-engagement-service/internal/domain"
)

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors to status codes. Unknown errors are logged
// and hidden behind a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, apiError{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUserIDRequired):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAttemptCompleted), errors.Is(err, domain.ErrQuizInactive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.InvalidInput("body", "malformed JSON body")
	}
	return nil
}

func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quizzes, err := s.svc.Quizzes.ListQuizzes(r.Context(), domain.QuizFilter{
		Status:   domain.QuizStatus(q.Get("status")),
		Type:     domain.QuizType(q.Get("type")),
		ArtistID: q.Get("artistId"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]domain.Quiz, 0, len(quizzes))
	for _, quiz := range quizzes {
		out = append(out, quiz.Public())
	}
	writeJSON(w, http.StatusOK, map[string]any{"quizzes": out})
}

func (s *Server) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var in app.CreateQuizInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	quiz, err := s.svc.Quizzes.CreateQuiz(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz.Public())
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := s.svc.Quizzes.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz.Public())
}

type startAttemptRequest struct {
	UserID string `json:"userId"`
}

type startAttemptResponse struct {
	Attempt domain.QuizAttempt `json:"attempt"`
	Created bool               `json:"created"`
}

func (s *Server) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	var req startAttemptRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	attempt, created, err := s.svc.Attempts.StartAttempt(r.Context(), chi.URLParam(r, "quizID"), req.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, startAttemptResponse{Attempt: attempt, Created: created})
}

func (s *Server) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := s.svc.Attempts.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

type submitRequest struct {
	Responses []domain.ResponseInput `json:"responses"`
}

func (s *Server) handleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Attempts.SubmitAttempt(r.Context(), chi.URLParam(r, "attemptID"), req.Responses)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, domain.InvalidInput("limit", "limit must be an integer"))
			return
		}
		limit = n
	}
	rows, err := s.svc.Leaderboard.Leaderboard(r.Context(), app.LeaderboardQuery{
		Type:     app.LeaderboardType(q.Get("type")),
		QuizID:   q.Get("quizId"),
		ArtistID: q.Get("artistId"),
		Limit:    limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": rows})
}

type classifyRequest struct {
	Signals domain.UserSignals `json:"signals"`
}

func (s *Server) handleClassifyComfort(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Comfort.Classify(r.Context(), req.Signals)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type generateRequest struct {
	ArtistName string `json:"artistName"`
	Count      int    `json:"count"`
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.ArtistName == "" {
		s.writeError(w, r, domain.InvalidInput("artistName", "artist name is required"))
		return
	}
	if req.Count == 0 {
		req.Count = app.DefaultQuestionCount
	}
	writeJSON(w, http.StatusOK, s.svc.Quizzes.GenerateQuestions(r.Context(), req.ArtistName, req.Count))
}

type fandomResponse struct {
	UserID      string `json:"userId"`
	FandomScore int    `json:"fandomScore"`
	Points      int    `json:"points,omitempty"`
}

func (s *Server) handleGetFandom(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	score, err := s.svc.Fandom.GetFandomScore(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fandomResponse{UserID: userID, FandomScore: score})
}

type actionRequest struct {
	Action       app.FandomAction `json:"action"`
	CustomPoints int              `json:"customPoints"`
}

func (s *Server) handleRecordAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	userID := chi.URLParam(r, "userID")
	points, total, err := s.svc.Fandom.RecordAction(r.Context(), userID, req.Action, req.CustomPoints)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fandomResponse{UserID: userID, FandomScore: total, Points: points})
}
