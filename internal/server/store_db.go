package server

import (
	"errors"
	"time"

	"letter-rush/internal/db"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dbStore backs the Store interface with Postgres. All race-sensitive
// transitions are conditional UPDATEs so the row's current status decides the
// winner, not in-process state.
type dbStore struct {
	db *gorm.DB
}

func newDBStore(conn *gorm.DB) *dbStore {
	return &dbStore{db: conn}
}

func (s *dbStore) CreateRoom(room *db.Room, host *db.Player) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		host.RoomID = room.ID
		return tx.Create(host).Error
	})
}

func (s *dbStore) RoomByCode(code string) (*db.Room, error) {
	var room db.Room
	if err := s.db.Where("code = ?", code).First(&room).Error; err != nil {
		return nil, notFoundOr(err, errRoomNotFound)
	}
	return &room, nil
}

func (s *dbStore) RoomByID(id uint) (*db.Room, error) {
	var room db.Room
	if err := s.db.First(&room, id).Error; err != nil {
		return nil, notFoundOr(err, errRoomNotFound)
	}
	return &room, nil
}

func (s *dbStore) UpdateRoom(room *db.Room) error {
	return s.db.Model(&db.Room{}).Where("id = ?", room.ID).Updates(map[string]any{
		"status":        room.Status,
		"current_round": room.CurrentRound,
		"total_rounds":  room.TotalRounds,
		"timer_seconds": room.TimerSeconds,
		"categories":    room.Categories,
		"used_letters":  room.UsedLetters,
	}).Error
}

func (s *dbStore) AddPlayer(player *db.Player) error {
	if err := s.db.Create(player).Error; err != nil {
		if isUniqueViolation(err) {
			return errNameTaken
		}
		return err
	}
	return nil
}

func (s *dbStore) PlayersByRoom(roomID uint) ([]db.Player, error) {
	var players []db.Player
	if err := s.db.Where("room_id = ?", roomID).Order("id asc").Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (s *dbStore) PlayerByID(id uint) (*db.Player, error) {
	var player db.Player
	if err := s.db.First(&player, id).Error; err != nil {
		return nil, notFoundOr(err, errPlayerNotFound)
	}
	return &player, nil
}

func (s *dbStore) PlayerByToken(token string) (*db.Player, error) {
	var player db.Player
	if err := s.db.Where("token = ?", token).First(&player).Error; err != nil {
		return nil, notFoundOr(err, errPlayerNotFound)
	}
	return &player, nil
}

func (s *dbStore) AwardPoints(playerID uint, delta int) error {
	return s.db.Model(&db.Player{}).
		Where("id = ?", playerID).
		Update("score", gorm.Expr("score + ?", delta)).Error
}

func (s *dbStore) CreateRound(round *db.Round) error {
	return s.db.Create(round).Error
}

func (s *dbStore) RoundByID(id uint) (*db.Round, error) {
	var round db.Round
	if err := s.db.First(&round, id).Error; err != nil {
		return nil, notFoundOr(err, errNoActiveRound)
	}
	return &round, nil
}

func (s *dbStore) ActiveRound(roomID uint) (*db.Round, error) {
	var round db.Round
	err := s.db.Where("room_id = ? AND status = ?", roomID, db.RoundStatusActive).First(&round).Error
	if err != nil {
		return nil, notFoundOr(err, errNoActiveRound)
	}
	return &round, nil
}

func (s *dbStore) LatestRound(roomID uint) (*db.Round, error) {
	var round db.Round
	err := s.db.Where("room_id = ?", roomID).Order("number desc").First(&round).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &round, nil
}

func (s *dbStore) ActiveRounds() ([]db.Round, error) {
	var rounds []db.Round
	err := s.db.Preload("Room").
		Where("status = ?", db.RoundStatusActive).
		Find(&rounds).Error
	if err != nil {
		return nil, err
	}
	return rounds, nil
}

func (s *dbStore) SetFirstSubmission(roundID uint, at time.Time) error {
	return s.db.Model(&db.Round{}).
		Where("id = ? AND first_submission_at IS NULL", roundID).
		Update("first_submission_at", at).Error
}

func (s *dbStore) CompleteRound(roundID uint, endedAt time.Time) (bool, error) {
	res := s.db.Model(&db.Round{}).
		Where("id = ? AND status = ?", roundID, db.RoundStatusActive).
		Updates(map[string]any{
			"status":   db.RoundStatusCompleted,
			"ended_at": endedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *dbStore) MarkRoundValidated(roundID uint, at time.Time) (bool, error) {
	res := s.db.Model(&db.Round{}).
		Where("id = ? AND validated_at IS NULL", roundID).
		Update("validated_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *dbStore) ReplaceAnswers(roundID, playerID uint, answers []db.Answer) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("round_id = ? AND player_id = ?", roundID, playerID).
			Delete(&db.Answer{}).Error; err != nil {
			return err
		}
		if len(answers) == 0 {
			return nil
		}
		for i := range answers {
			answers[i].RoundID = roundID
			answers[i].PlayerID = playerID
		}
		return tx.Create(&answers).Error
	})
}

func (s *dbStore) AnswersByRound(roundID uint) ([]db.Answer, error) {
	var answers []db.Answer
	if err := s.db.Where("round_id = ?", roundID).Order("id asc").Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (s *dbStore) AnswerByID(id uint) (*db.Answer, error) {
	var answer db.Answer
	if err := s.db.First(&answer, id).Error; err != nil {
		return nil, notFoundOr(err, errAnswerNotFound)
	}
	return &answer, nil
}

func (s *dbStore) SaveAnswerResult(answerID uint, valid bool, points int, reason string) error {
	return s.db.Model(&db.Answer{}).Where("id = ?", answerID).Updates(map[string]any{
		"valid":  valid,
		"points": points,
		"reason": reason,
	}).Error
}

func (s *dbStore) SetCommunityRejected(answerID uint, rejected bool) error {
	return s.db.Model(&db.Answer{}).
		Where("id = ?", answerID).
		Update("community_rejected", rejected).Error
}

func (s *dbStore) UpsertVote(vote *db.Vote) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "answer_id"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"accepted", "updated_at"}),
	}).Create(vote).Error
}

func (s *dbStore) VotesByAnswer(answerID uint) ([]db.Vote, error) {
	var votes []db.Vote
	if err := s.db.Where("answer_id = ?", answerID).Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

func (s *dbStore) VotesByRound(roundID uint) ([]db.Vote, error) {
	var votes []db.Vote
	err := s.db.
		Joins("JOIN answers ON answers.id = votes.answer_id").
		Where("answers.round_id = ?", roundID).
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func notFoundOr(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
