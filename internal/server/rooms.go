package server

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"letter-rush/internal/db"
)

func defaultCategories() []string {
	return []string{"city", "country", "river", "animal", "profession", "brand"}
}

type roomSettings struct {
	TotalRounds  int
	TimerSeconds *int
	Categories   []string
}

// createRoom builds a waiting room plus its host player. Zero-value settings
// fall back to the configured defaults.
func (s *Server) createRoom(hostName string, settings roomSettings) (*db.Room, *db.Player, error) {
	name, err := validateName(hostName)
	if err != nil {
		return nil, nil, err
	}
	totalRounds := settings.TotalRounds
	if totalRounds == 0 {
		totalRounds = s.cfg.DefaultTotalRounds
	}
	if totalRounds < 1 || totalRounds > s.cfg.MaxTotalRounds {
		return nil, nil, validationErrorf("rounds must be between 1 and %d", s.cfg.MaxTotalRounds)
	}
	timerSeconds := s.cfg.DefaultTimerSeconds
	if settings.TimerSeconds != nil {
		timerSeconds = *settings.TimerSeconds
	}
	if timerSeconds < 0 || timerSeconds > s.cfg.MaxTimerSeconds {
		return nil, nil, validationErrorf("timer must be between 0 and %d seconds", s.cfg.MaxTimerSeconds)
	}
	categories := settings.Categories
	if len(categories) == 0 {
		categories = defaultCategories()
	}
	categories, err = validateCategoryList(categories)
	if err != nil {
		return nil, nil, err
	}

	room := &db.Room{
		Code:         newRoomCode(),
		Status:       db.RoomStatusWaiting,
		TotalRounds:  totalRounds,
		TimerSeconds: timerSeconds,
		Categories:   datatypes.NewJSONSlice(categories),
	}
	host := &db.Player{
		Name:     name,
		Token:    uuid.NewString(),
		IsHost:   true,
		JoinedAt: timeNowUTC(),
	}
	if err := s.store.CreateRoom(room, host); err != nil {
		return nil, nil, err
	}
	return room, host, nil
}

// joinRoom adds a player to a waiting room. Joining after the game started is
// a conflict, as is a name already taken in the room.
func (s *Server) joinRoom(code, playerName string) (*db.Room, *db.Player, error) {
	name, err := validateName(playerName)
	if err != nil {
		return nil, nil, err
	}
	room, err := s.store.RoomByCode(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, nil, err
	}
	if room.Status != db.RoomStatusWaiting {
		return nil, nil, errGameStarted
	}
	player := &db.Player{
		RoomID:   room.ID,
		Name:     name,
		Token:    uuid.NewString(),
		JoinedAt: timeNowUTC(),
	}
	if err := s.store.AddPlayer(player); err != nil {
		return nil, nil, err
	}
	return room, player, nil
}

// updateSettings changes the round budget and timer; only while waiting.
func (s *Server) updateSettings(room *db.Room, totalRounds int, timerSeconds *int) error {
	if room.Status != db.RoomStatusWaiting {
		return validationErrorf("settings can only change while waiting")
	}
	if totalRounds != 0 {
		if totalRounds < 1 || totalRounds > s.cfg.MaxTotalRounds {
			return validationErrorf("rounds must be between 1 and %d", s.cfg.MaxTotalRounds)
		}
		room.TotalRounds = totalRounds
	}
	if timerSeconds != nil {
		if *timerSeconds < 0 || *timerSeconds > s.cfg.MaxTimerSeconds {
			return validationErrorf("timer must be between 0 and %d seconds", s.cfg.MaxTimerSeconds)
		}
		room.TimerSeconds = *timerSeconds
	}
	return s.store.UpdateRoom(room)
}

// updateCategories replaces the category list; only while waiting.
func (s *Server) updateCategories(room *db.Room, categories []string) error {
	if room.Status != db.RoomStatusWaiting {
		return validationErrorf("categories can only change while waiting")
	}
	clean, err := validateCategoryList(categories)
	if err != nil {
		return err
	}
	room.Categories = datatypes.NewJSONSlice(clean)
	return s.store.UpdateRoom(room)
}
