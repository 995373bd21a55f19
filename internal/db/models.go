package db

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoomStatusWaiting  = "waiting"
	RoomStatusPlaying  = "playing"
	RoomStatusFinished = "finished"
)

const (
	RoundStatusActive    = "active"
	RoundStatusCompleted = "completed"
)

type Room struct {
	ID           uint                         `gorm:"primaryKey"`
	Code         string                       `gorm:"size:12;uniqueIndex;not null"`
	Status       string                       `gorm:"size:32;not null"`
	CurrentRound int                          `gorm:"not null;default:0"`
	TotalRounds  int                          `gorm:"not null"`
	TimerSeconds int                          `gorm:"not null"`
	Categories   datatypes.JSONSlice[string]  `gorm:"not null"`
	UsedLetters  string                       `gorm:"size:32;not null;default:''"`
	CreatedAt    time.Time                    `gorm:"not null"`
	UpdatedAt    time.Time                    `gorm:"not null"`
	Players      []Player
	Rounds       []Round
}

type Player struct {
	ID        uint      `gorm:"primaryKey"`
	RoomID    uint      `gorm:"index;not null;uniqueIndex:idx_players_room_name"`
	Name      string    `gorm:"size:64;not null;uniqueIndex:idx_players_room_name"`
	Token     string    `gorm:"size:64;uniqueIndex;not null"`
	Score     int       `gorm:"not null;default:0"`
	IsHost    bool      `gorm:"not null;default:false"`
	JoinedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Answers   []Answer
	Votes     []Vote
}

type Round struct {
	ID                uint       `gorm:"primaryKey"`
	RoomID            uint       `gorm:"index;not null;uniqueIndex:idx_rounds_room_number"`
	Number            int        `gorm:"not null;uniqueIndex:idx_rounds_room_number"`
	Letter            string     `gorm:"size:1;not null"`
	Status            string     `gorm:"size:32;not null"`
	FirstSubmissionAt *time.Time `gorm:"index"`
	StartedAt         time.Time  `gorm:"not null"`
	EndedAt           *time.Time
	ValidatedAt       *time.Time
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
	Room              Room
	Answers           []Answer
}

type Answer struct {
	ID                uint   `gorm:"primaryKey"`
	RoundID           uint   `gorm:"index;not null;uniqueIndex:idx_answers_round_player_category"`
	PlayerID          uint   `gorm:"index;not null;uniqueIndex:idx_answers_round_player_category"`
	Category          string `gorm:"size:32;not null;uniqueIndex:idx_answers_round_player_category"`
	Word              string `gorm:"size:64;not null"`
	Valid             *bool
	Points            int       `gorm:"not null;default:0"`
	Reason            string    `gorm:"size:280;not null;default:''"`
	CommunityRejected bool      `gorm:"not null;default:false"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
	Votes             []Vote
}

type Vote struct {
	ID        uint      `gorm:"primaryKey"`
	AnswerID  uint      `gorm:"index;not null;uniqueIndex:idx_votes_answer_player"`
	PlayerID  uint      `gorm:"index;not null;uniqueIndex:idx_votes_answer_player"`
	Accepted  bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
