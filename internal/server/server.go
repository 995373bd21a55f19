package server

import (
	"net/http"
	"time"

	"letter-rush/internal/config"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type Server struct {
	store Store
	cfg   config.Config
	judge answerJudge
	sweep *scheduler
}

// New wires a Server against Postgres, or against the in-memory store when
// conn is nil.
func New(conn *gorm.DB, cfg config.Config) *Server {
	var store Store
	if conn != nil {
		store = newDBStore(conn)
	} else {
		store = newMemStore()
	}
	s := &Server{
		store: store,
		cfg:   cfg,
		judge: newOpenAIJudge(cfg),
	}
	s.sweep = newScheduler(s, time.Duration(cfg.SweepIntervalSeconds)*time.Second)
	return s
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/rooms", s.handleCreateRoom).Methods(http.MethodPost)
	r.HandleFunc("/api/rooms/join", s.handleJoinRoom).Methods(http.MethodPost)
	r.HandleFunc("/api/rooms/{code}", s.handleGetRoom).Methods(http.MethodGet)
	r.HandleFunc("/api/rooms/{code}/start", s.handleStartGame).Methods(http.MethodPost)
	r.HandleFunc("/api/rooms/{code}/submit", s.handleSubmitAnswers).Methods(http.MethodPost)
	r.HandleFunc("/api/rooms/{code}/round/finish", s.handleFinishRound).Methods(http.MethodPost)
	r.HandleFunc("/api/rooms/{code}/round/next", s.handleNextRound).Methods(http.MethodPost)
	r.HandleFunc("/api/rooms/{code}/answers/{answerID}/vote", s.handleVote).Methods(http.MethodPost)
	r.HandleFunc("/api/rooms/{code}/answers/{answerID}/reject", s.handleRejectAnswer).Methods(http.MethodPost)
	r.HandleFunc("/api/rooms/{code}/categories", s.handleUpdateCategories).Methods(http.MethodPost)
	r.HandleFunc("/api/rooms/{code}/settings", s.handleUpdateSettings).Methods(http.MethodPost)
	return r
}

// StartScheduler launches the round sweep; one per process.
func (s *Server) StartScheduler() {
	s.sweep.Start()
}

// StopScheduler stops the sweep and waits for the loop to exit.
func (s *Server) StopScheduler() {
	s.sweep.Stop()
}
