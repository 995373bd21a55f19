package server

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"letter-rush/internal/db"
)

type createRoomRequest struct {
	Name         string   `json:"name"`
	Rounds       int      `json:"rounds"`
	TimerSeconds *int     `json:"timer_seconds"`
	Categories   []string `json:"categories"`
}

type joinRoomRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type submitRequest struct {
	Answers map[string]string `json:"answers"`
}

type voteRequest struct {
	Accepted *bool `json:"accepted"`
}

type categoriesRequest struct {
	Categories []string `json:"categories"`
}

type settingsRequest struct {
	Rounds       int  `json:"rounds"`
	TimerSeconds *int `json:"timer_seconds"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	room, host, err := s.createRoom(req.Name, roomSettings{
		TotalRounds:  req.Rounds,
		TimerSeconds: req.TimerSeconds,
		Categories:   req.Categories,
	})
	if err != nil {
		writeAPIError(w, err)
		return
	}
	log.Printf("room created room=%s host=%s rounds=%d timer=%ds", room.Code, host.Name, room.TotalRounds, room.TimerSeconds)
	writeJSON(w, http.StatusCreated, map[string]any{
		"code":      room.Code,
		"player_id": host.ID,
		"token":     host.Token,
	})
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "code and name are required")
		return
	}
	room, player, err := s.joinRoom(req.Code, req.Name)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	log.Printf("player joined room=%s player_id=%d player_name=%s", room.Code, player.ID, player.Name)
	writeJSON(w, http.StatusOK, map[string]any{
		"code":      room.Code,
		"player_id": player.ID,
		"token":     player.Token,
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.roomFromRequest(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	var viewer *db.Player
	if token := bearerToken(r); token != "" {
		if player, err := s.store.PlayerByToken(token); err == nil && player.RoomID == room.ID {
			viewer = player
		}
	}
	state, err := s.roomState(room, viewer)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	room, err := s.roomFromRequest(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	player, err := s.playerFromRequest(r)
	if err != nil {
		writeAPIError(w, errHostOnly)
		return
	}
	if err := s.startGame(room, player); err != nil {
		writeAPIError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleSubmitAnswers(w http.ResponseWriter, r *http.Request) {
	room, err := s.roomFromRequest(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	player, err := s.playerFromRequest(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	var req submitRequest
	if err := readJSON(r.Body, &req); err != nil || len(req.Answers) == 0 {
		writeError(w, http.StatusBadRequest, "answers are required")
		return
	}
	if err := s.submitAnswers(room, player, req.Answers); err != nil {
		writeAPIError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleFinishRound(w http.ResponseWriter, r *http.Request) {
	room, err := s.roomFromRequest(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	player, err := s.playerFromRequest(r)
	if err != nil {
		writeAPIError(w, errHostOnly)
		return
	}
	if err := s.finishRound(room, player); err != nil {
		writeAPIError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleNextRound(w http.ResponseWriter, r *http.Request) {
	room, err := s.roomFromRequest(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	if _, err := s.nextRound(room); err != nil {
		writeAPIError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	room, err := s.roomFromRequest(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	answerID, err := answerIDFromRequest(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	player, err := s.playerFromRequest(r)
	if err != nil {
		writeAPIError(w, errForbidden)
		return
	}
	var req voteRequest
	if err := readJSON(r.Body, &req); err != nil || req.Accepted == nil {
		writeError(w, http.StatusBadRequest, "accepted is required")
		return
	}
	rejected, err := s.castVote(room, player, answerID, *req.Accepted)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	log.Printf("vote recorded room=%s answer_id=%d player_id=%d accepted=%t", room.Code, answerID, player.ID, *req.Accepted)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"rejected": rejected,
	})
}

func (s *Server) handleRejectAnswer(w http.ResponseWriter, r *http.Request) {
	room, err := s.roomFromRequest(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	answerID, err := answerIDFromRequest(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	player, err := s.playerFromRequest(r)
	if err != nil {
		writeAPIError(w, errHostOnly)
		return
	}
	if err := s.rejectAnswer(room, player, answerID); err != nil {
		writeAPIError(w, err)
		return
	}
	log.Printf("answer rejected by host room=%s answer_id=%d", room.Code, answerID)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"rejected": true,
	})
}

func (s *Server) handleUpdateCategories(w http.ResponseWriter, r *http.Request) {
	room, err := s.roomFromRequest(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	player, err := s.playerFromRequest(r)
	if err != nil || !player.IsHost || player.RoomID != room.ID {
		writeAPIError(w, errHostOnly)
		return
	}
	var req categoriesRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "categories are required")
		return
	}
	if err := s.updateCategories(room, req.Categories); err != nil {
		writeAPIError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	room, err := s.roomFromRequest(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	player, err := s.playerFromRequest(r)
	if err != nil || !player.IsHost || player.RoomID != room.ID {
		writeAPIError(w, errHostOnly)
		return
	}
	var req settingsRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "settings are required")
		return
	}
	if err := s.updateSettings(room, req.Rounds, req.TimerSeconds); err != nil {
		writeAPIError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) roomFromRequest(r *http.Request) (*db.Room, error) {
	code := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["code"]))
	if code == "" {
		return nil, errRoomNotFound
	}
	return s.store.RoomByCode(code)
}

// playerFromRequest resolves the caller from the bearer token. Tokens are
// opaque per-player values checked against the store; player IDs are never
// accepted as identity.
func (s *Server) playerFromRequest(r *http.Request) (*db.Player, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, errUnauthorized
	}
	player, err := s.store.PlayerByToken(token)
	if err != nil {
		return nil, errUnauthorized
	}
	return player, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	value, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func answerIDFromRequest(r *http.Request) (uint, error) {
	raw := mux.Vars(r)["answerID"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errAnswerNotFound
	}
	return uint(id), nil
}
