package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"fanfirst-engagement-service/internal/app"
	"fanfirst-engagement-service/internal/domain"
)

// WSHandler connects a player to a live quiz room. Players start and submit
// attempts over the socket and receive leaderboard updates as anyone in the
// room completes one.
type WSHandler struct {
	live     *app.LiveService
	attempts *app.AttemptService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(live *app.LiveService, attempts *app.AttemptService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		live:     live,
		attempts: attempts,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type submitPayload struct {
	AttemptID string                 `json:"attemptId"`
	Responses []domain.ResponseInput `json:"responses"`
}

type attemptStarted struct {
	Attempt domain.QuizAttempt `json:"attempt"`
	Created bool               `json:"created"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(msg string) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorPayload{Message: msg}}
}

// ServeWS upgrades HTTP requests to websockets and wires them into the live room.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if quizID == "" || userID == "" || displayName == "" {
		http.Error(w, "missing quizId, userId, or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	joined, err := h.live.Join(ctx, quizID, userID, displayName)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err.Error()))
		return
	}
	defer h.live.Leave(ctx, quizID, userID)

	updates, cancel, err := h.live.Subscribe(ctx, quizID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err.Error()))
		return
	}
	defer cancel()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer; gorilla connections do not allow concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write failed", "quiz", quizID, "user", userID, "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		first := true
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				// the join reply already carries the initial snapshot
				if first {
					first = false
					continue
				}
				select {
				case send <- outboundMessage{Type: "leaderboard", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage{Type: "joined", Payload: joined}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			attempt, created, err := h.attempts.StartAttempt(ctx, quizID, userID)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			send <- outboundMessage{Type: "attemptStarted", Payload: attemptStarted{Attempt: attempt, Created: created}}
		case "submit":
			var payload submitPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid submit payload")
				continue
			}
			res, err := h.submit(r, quizID, userID, payload)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			send <- outboundMessage{Type: "attemptResult", Payload: res}
		default:
			send <- errorMessage("unsupported message type")
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// submit only accepts attempts the connected player owns on this room's quiz.
func (h *WSHandler) submit(r *http.Request, quizID, userID string, payload submitPayload) (domain.SubmitResult, error) {
	attempt, err := h.attempts.GetAttempt(r.Context(), payload.AttemptID)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	if attempt.UserID != userID || attempt.QuizID != quizID {
		return domain.SubmitResult{}, domain.ErrAttemptNotFound
	}
	return h.attempts.SubmitAttempt(r.Context(), payload.AttemptID, payload.Responses)
}
