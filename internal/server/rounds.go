package server

import (
	"errors"
	"log"
	"strings"

	"letter-rush/internal/db"
)

// startGame moves a waiting room into play and opens round one. The round
// counter is reset before the first round is created.
func (s *Server) startGame(room *db.Room, player *db.Player) error {
	if !player.IsHost || player.RoomID != room.ID {
		return errHostOnly
	}
	if room.Status != db.RoomStatusWaiting {
		return validationErrorf("game already started")
	}
	room.CurrentRound = 0
	room.Status = db.RoomStatusPlaying
	if err := s.store.UpdateRoom(room); err != nil {
		return err
	}
	_, err := s.beginNextRound(room)
	return err
}

// beginNextRound draws an unused letter and opens a new active round. When
// the alphabet is exhausted the room finishes instead; the nil round signals
// that to callers.
func (s *Server) beginNextRound(room *db.Room) (*db.Round, error) {
	letter, ok := drawLetter(s.cfg.ExcludedLetters, room.UsedLetters)
	if !ok {
		room.Status = db.RoomStatusFinished
		if err := s.store.UpdateRoom(room); err != nil {
			return nil, err
		}
		log.Printf("letters exhausted, game finished room=%s", room.Code)
		return nil, nil
	}
	room.CurrentRound++
	room.UsedLetters += letter
	if err := s.store.UpdateRoom(room); err != nil {
		return nil, err
	}
	round := &db.Round{
		RoomID:    room.ID,
		Number:    room.CurrentRound,
		Letter:    letter,
		Status:    db.RoundStatusActive,
		StartedAt: timeNowUTC(),
	}
	if err := s.store.CreateRound(round); err != nil {
		return nil, err
	}
	log.Printf("round started room=%s round=%d letter=%s", room.Code, round.Number, letter)
	return round, nil
}

// nextRound opens the following round once the current one has completed.
func (s *Server) nextRound(room *db.Room) (*db.Round, error) {
	if room.Status == db.RoomStatusFinished {
		return nil, validationErrorf("game is finished")
	}
	if room.Status != db.RoomStatusPlaying {
		return nil, validationErrorf("game has not started")
	}
	if _, err := s.store.ActiveRound(room.ID); err == nil {
		return nil, validationErrorf("round still in progress")
	} else if !errors.Is(err, errNoActiveRound) {
		return nil, err
	}
	if room.CurrentRound >= room.TotalRounds {
		return nil, validationErrorf("game is finished")
	}
	return s.beginNextRound(room)
}

// submitAnswers replaces the player's answer set for the active round and
// runs the completion checks: everyone submitted, or no timer configured.
// Completion failures are logged, not surfaced; the sweep retries them.
func (s *Server) submitAnswers(room *db.Room, player *db.Player, raw map[string]string) error {
	if player.RoomID != room.ID {
		return errUnauthorized
	}
	if room.Status != db.RoomStatusPlaying {
		return validationErrorf("game is not in progress")
	}
	round, err := s.store.ActiveRound(room.ID)
	if err != nil {
		if errors.Is(err, errNoActiveRound) {
			return validationErrorf("no active round")
		}
		return err
	}

	canonical := make(map[string]string, len(room.Categories))
	for _, category := range room.Categories {
		canonical[strings.ToLower(category)] = category
	}
	answers := make([]db.Answer, 0, len(raw))
	for category, word := range raw {
		cleanCategory, err := validateCategory(category)
		if err != nil {
			return err
		}
		name, ok := canonical[strings.ToLower(cleanCategory)]
		if !ok {
			return validationErrorf("unknown category %q", cleanCategory)
		}
		cleanWord, err := validateWord(word)
		if err != nil {
			return err
		}
		if cleanWord == "" {
			continue
		}
		answers = append(answers, db.Answer{Category: name, Word: cleanWord})
	}
	if len(answers) == 0 {
		return validationErrorf("at least one answer is required")
	}
	if err := s.store.ReplaceAnswers(round.ID, player.ID, answers); err != nil {
		return err
	}
	if round.FirstSubmissionAt == nil {
		if err := s.store.SetFirstSubmission(round.ID, timeNowUTC()); err != nil {
			log.Printf("first submission stamp failed room=%s round=%d error=%v", room.Code, round.Number, err)
		}
	}
	log.Printf("answers submitted room=%s round=%d player_id=%d count=%d", room.Code, round.Number, player.ID, len(answers))

	if room.TimerSeconds == 0 {
		_, _ = s.completeRound(room, round)
		return nil
	}
	players, err := s.store.PlayersByRoom(room.ID)
	if err != nil {
		return nil
	}
	all, err := s.store.AnswersByRound(round.ID)
	if err != nil {
		return nil
	}
	if distinctSubmitters(all) >= len(players) {
		_, _ = s.completeRound(room, round)
	}
	return nil
}

// finishRound lets the host end the active round early.
func (s *Server) finishRound(room *db.Room, player *db.Player) error {
	if !player.IsHost || player.RoomID != room.ID {
		return errHostOnly
	}
	round, err := s.store.ActiveRound(room.ID)
	if err != nil {
		if errors.Is(err, errNoActiveRound) {
			return validationErrorf("no active round")
		}
		return err
	}
	_, err = s.completeRound(room, round)
	return err
}

// completeRound performs the single active -> completed transition. The store
// resolves the race; only the winner finishes the room (when the round budget
// is spent) and kicks off validation. Validation runs out of band so the
// caller never waits on the judge.
func (s *Server) completeRound(room *db.Room, round *db.Round) (bool, error) {
	won, err := s.store.CompleteRound(round.ID, timeNowUTC())
	if err != nil {
		log.Printf("round completion failed room=%s round=%d error=%v", room.Code, round.Number, err)
		return false, err
	}
	if !won {
		return false, nil
	}
	log.Printf("round completed room=%s round=%d letter=%s", room.Code, round.Number, round.Letter)
	if room.CurrentRound >= room.TotalRounds {
		room.Status = db.RoomStatusFinished
		if err := s.store.UpdateRoom(room); err != nil {
			log.Printf("room finish failed room=%s error=%v", room.Code, err)
		} else {
			log.Printf("game finished room=%s rounds=%d", room.Code, room.TotalRounds)
		}
	}
	go s.validateRound(round.ID)
	return true, nil
}

func distinctSubmitters(answers []db.Answer) int {
	seen := make(map[uint]struct{}, len(answers))
	for _, answer := range answers {
		seen[answer.PlayerID] = struct{}{}
	}
	return len(seen)
}
