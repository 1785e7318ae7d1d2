package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"fanfirst-engagement-service/internal/app"
	"fanfirst-engagement-service/internal/comfort"
)

// Services bundles the use cases the HTTP layer exposes.
type Services struct {
	Quizzes     *app.QuizService
	Attempts    *app.AttemptService
	Leaderboard *app.LeaderboardService
	Fandom      *app.FandomService
	Live        *app.LiveService
	Comfort     *comfort.Classifier
}

// ServerConfig tunes the router.
type ServerConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

type Server struct {
	svc    Services
	cfg    ServerConfig
	logger *slog.Logger
	ws     *WSHandler
	router *chi.Mux
}

func NewServer(svc Services, cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
		ws:     NewWSHandler(svc.Live, svc.Attempts, logger),
	}
	s.setupRouter()
	return s
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	// websocket connections are long lived, so no request timeout here
	r.Get("/ws", s.ws.ServeWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))

		r.Route("/quizzes", func(r chi.Router) {
			r.Get("/", s.handleListQuizzes)
			r.Post("/", s.handleCreateQuiz)
			r.Route("/{quizID}", func(r chi.Router) {
				r.Get("/", s.handleGetQuiz)
				r.Post("/attempts", s.handleStartAttempt)
			})
		})
		r.Route("/attempts/{attemptID}", func(r chi.Router) {
			r.Get("/", s.handleGetAttempt)
			r.Post("/submit", s.handleSubmitAttempt)
		})
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Post("/comfort/classify", s.handleClassifyComfort)
		r.Post("/questions/generate", s.handleGenerateQuestions)
		r.Route("/users/{userID}/fandom", func(r chi.Router) {
			r.Get("/", s.handleGetFandom)
			r.Post("/actions", s.handleRecordAction)
		})
	})

	s.router = r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
