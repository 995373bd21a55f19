package server

import (
	"slices"
	"sync"
	"time"

	"letter-rush/internal/db"
)

// Store is the session store consumed by the round lifecycle. Round
// completion and the validation marker are conditional transitions resolved
// by the store itself (not by in-process flags), so concurrent submitters and
// the sweep agree on a single winner even across process instances. The
// in-memory implementation mirrors those semantics under one mutex and is
// used when no database is configured.
type Store interface {
	CreateRoom(room *db.Room, host *db.Player) error
	RoomByCode(code string) (*db.Room, error)
	RoomByID(id uint) (*db.Room, error)
	UpdateRoom(room *db.Room) error

	AddPlayer(player *db.Player) error
	PlayersByRoom(roomID uint) ([]db.Player, error)
	PlayerByID(id uint) (*db.Player, error)
	PlayerByToken(token string) (*db.Player, error)
	AwardPoints(playerID uint, delta int) error

	CreateRound(round *db.Round) error
	RoundByID(id uint) (*db.Round, error)
	ActiveRound(roomID uint) (*db.Round, error)
	// LatestRound returns the highest-numbered round for the room, or nil
	// when the game has not started.
	LatestRound(roomID uint) (*db.Round, error)
	// ActiveRounds returns every active round across all rooms with the
	// owning Room populated; the sweep works from this list.
	ActiveRounds() ([]db.Round, error)
	// SetFirstSubmission stamps the round's first-submission time only if it
	// is still unset.
	SetFirstSubmission(roundID uint, at time.Time) error
	// CompleteRound transitions active -> completed and reports whether this
	// call won the transition. Already-completed rounds are a no-op false.
	CompleteRound(roundID uint, endedAt time.Time) (bool, error)
	// MarkRoundValidated claims the one validation pass for a round.
	MarkRoundValidated(roundID uint, at time.Time) (bool, error)

	ReplaceAnswers(roundID, playerID uint, answers []db.Answer) error
	AnswersByRound(roundID uint) ([]db.Answer, error)
	AnswerByID(id uint) (*db.Answer, error)
	SaveAnswerResult(answerID uint, valid bool, points int, reason string) error
	SetCommunityRejected(answerID uint, rejected bool) error

	UpsertVote(vote *db.Vote) error
	VotesByAnswer(answerID uint) ([]db.Vote, error)
	VotesByRound(roundID uint) ([]db.Vote, error)
}

type memStore struct {
	mu           sync.Mutex
	nextRoomID   uint
	nextPlayerID uint
	nextRoundID  uint
	nextAnswerID uint
	nextVoteID   uint
	rooms        map[uint]*db.Room
	players      map[uint]*db.Player
	rounds       map[uint]*db.Round
	answers      map[uint]*db.Answer
	votes        map[uint]*db.Vote
}

func newMemStore() *memStore {
	return &memStore{
		nextRoomID:   1,
		nextPlayerID: 1,
		nextRoundID:  1,
		nextAnswerID: 1,
		nextVoteID:   1,
		rooms:        make(map[uint]*db.Room),
		players:      make(map[uint]*db.Player),
		rounds:       make(map[uint]*db.Round),
		answers:      make(map[uint]*db.Answer),
		votes:        make(map[uint]*db.Vote),
	}
}

func (s *memStore) CreateRoom(room *db.Room, host *db.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room.ID = s.nextRoomID
	s.nextRoomID++
	room.CreatedAt = timeNowUTC()
	room.UpdatedAt = room.CreatedAt
	s.rooms[room.ID] = cloneRoom(room)

	host.ID = s.nextPlayerID
	s.nextPlayerID++
	host.RoomID = room.ID
	host.CreatedAt = room.CreatedAt
	host.UpdatedAt = room.CreatedAt
	s.players[host.ID] = clonePlayer(host)
	return nil
}

func (s *memStore) RoomByCode(code string) (*db.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, room := range s.rooms {
		if room.Code == code {
			return cloneRoom(room), nil
		}
	}
	return nil, errRoomNotFound
}

func (s *memStore) RoomByID(id uint) (*db.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, errRoomNotFound
	}
	return cloneRoom(room), nil
}

func (s *memStore) UpdateRoom(room *db.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; !ok {
		return errRoomNotFound
	}
	room.UpdatedAt = timeNowUTC()
	s.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (s *memStore) AddPlayer(player *db.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[player.RoomID]; !ok {
		return errRoomNotFound
	}
	for _, existing := range s.players {
		if existing.RoomID == player.RoomID && existing.Name == player.Name {
			return errNameTaken
		}
	}
	player.ID = s.nextPlayerID
	s.nextPlayerID++
	player.CreatedAt = timeNowUTC()
	player.UpdatedAt = player.CreatedAt
	s.players[player.ID] = clonePlayer(player)
	return nil
}

func (s *memStore) PlayersByRoom(roomID uint) ([]db.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Player, 0)
	for _, player := range s.players {
		if player.RoomID == roomID {
			out = append(out, *clonePlayer(player))
		}
	}
	slices.SortFunc(out, func(a, b db.Player) int {
		return int(a.ID) - int(b.ID)
	})
	return out, nil
}

func (s *memStore) PlayerByID(id uint) (*db.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return nil, errPlayerNotFound
	}
	return clonePlayer(player), nil
}

func (s *memStore) PlayerByToken(token string) (*db.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, player := range s.players {
		if player.Token == token {
			return clonePlayer(player), nil
		}
	}
	return nil, errPlayerNotFound
}

func (s *memStore) AwardPoints(playerID uint, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[playerID]
	if !ok {
		return errPlayerNotFound
	}
	player.Score += delta
	player.UpdatedAt = timeNowUTC()
	return nil
}

func (s *memStore) CreateRound(round *db.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[round.RoomID]; !ok {
		return errRoomNotFound
	}
	round.ID = s.nextRoundID
	s.nextRoundID++
	round.CreatedAt = timeNowUTC()
	round.UpdatedAt = round.CreatedAt
	s.rounds[round.ID] = cloneRound(round)
	return nil
}

func (s *memStore) RoundByID(id uint) (*db.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[id]
	if !ok {
		return nil, errNoActiveRound
	}
	return cloneRound(round), nil
}

func (s *memStore) ActiveRound(roomID uint) (*db.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, round := range s.rounds {
		if round.RoomID == roomID && round.Status == db.RoundStatusActive {
			return cloneRound(round), nil
		}
	}
	return nil, errNoActiveRound
}

func (s *memStore) LatestRound(roomID uint) (*db.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *db.Round
	for _, round := range s.rounds {
		if round.RoomID != roomID {
			continue
		}
		if latest == nil || round.Number > latest.Number {
			latest = round
		}
	}
	if latest == nil {
		return nil, nil
	}
	return cloneRound(latest), nil
}

func (s *memStore) ActiveRounds() ([]db.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Round, 0)
	for _, round := range s.rounds {
		if round.Status != db.RoundStatusActive {
			continue
		}
		clone := cloneRound(round)
		if room, ok := s.rooms[round.RoomID]; ok {
			clone.Room = *cloneRoom(room)
		}
		out = append(out, *clone)
	}
	return out, nil
}

func (s *memStore) SetFirstSubmission(roundID uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[roundID]
	if !ok {
		return errNoActiveRound
	}
	if round.FirstSubmissionAt != nil {
		return nil
	}
	stamp := at
	round.FirstSubmissionAt = &stamp
	round.UpdatedAt = timeNowUTC()
	return nil
}

func (s *memStore) CompleteRound(roundID uint, endedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[roundID]
	if !ok {
		return false, errNoActiveRound
	}
	if round.Status != db.RoundStatusActive {
		return false, nil
	}
	round.Status = db.RoundStatusCompleted
	stamp := endedAt
	round.EndedAt = &stamp
	round.UpdatedAt = timeNowUTC()
	return true, nil
}

func (s *memStore) MarkRoundValidated(roundID uint, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[roundID]
	if !ok {
		return false, errNoActiveRound
	}
	if round.ValidatedAt != nil {
		return false, nil
	}
	stamp := at
	round.ValidatedAt = &stamp
	round.UpdatedAt = timeNowUTC()
	return true, nil
}

func (s *memStore) ReplaceAnswers(roundID, playerID uint, answers []db.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[roundID]; !ok {
		return errNoActiveRound
	}
	for id, answer := range s.answers {
		if answer.RoundID == roundID && answer.PlayerID == playerID {
			delete(s.answers, id)
		}
	}
	now := timeNowUTC()
	for i := range answers {
		answer := answers[i]
		answer.ID = s.nextAnswerID
		s.nextAnswerID++
		answer.RoundID = roundID
		answer.PlayerID = playerID
		answer.CreatedAt = now
		answer.UpdatedAt = now
		s.answers[answer.ID] = &answer
	}
	return nil
}

func (s *memStore) AnswersByRound(roundID uint) ([]db.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Answer, 0)
	for _, answer := range s.answers {
		if answer.RoundID == roundID {
			out = append(out, *cloneAnswer(answer))
		}
	}
	slices.SortFunc(out, func(a, b db.Answer) int {
		return int(a.ID) - int(b.ID)
	})
	return out, nil
}

func (s *memStore) AnswerByID(id uint) (*db.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, ok := s.answers[id]
	if !ok {
		return nil, errAnswerNotFound
	}
	return cloneAnswer(answer), nil
}

func (s *memStore) SaveAnswerResult(answerID uint, valid bool, points int, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, ok := s.answers[answerID]
	if !ok {
		return errAnswerNotFound
	}
	verdict := valid
	answer.Valid = &verdict
	answer.Points = points
	answer.Reason = reason
	answer.UpdatedAt = timeNowUTC()
	return nil
}

func (s *memStore) SetCommunityRejected(answerID uint, rejected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, ok := s.answers[answerID]
	if !ok {
		return errAnswerNotFound
	}
	answer.CommunityRejected = rejected
	answer.UpdatedAt = timeNowUTC()
	return nil
}

func (s *memStore) UpsertVote(vote *db.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.answers[vote.AnswerID]; !ok {
		return errAnswerNotFound
	}
	now := timeNowUTC()
	for _, existing := range s.votes {
		if existing.AnswerID == vote.AnswerID && existing.PlayerID == vote.PlayerID {
			existing.Accepted = vote.Accepted
			existing.UpdatedAt = now
			vote.ID = existing.ID
			return nil
		}
	}
	vote.ID = s.nextVoteID
	s.nextVoteID++
	vote.CreatedAt = now
	vote.UpdatedAt = now
	copied := *vote
	s.votes[vote.ID] = &copied
	return nil
}

func (s *memStore) VotesByAnswer(answerID uint) ([]db.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Vote, 0)
	for _, vote := range s.votes {
		if vote.AnswerID == answerID {
			out = append(out, *vote)
		}
	}
	return out, nil
}

func (s *memStore) VotesByRound(roundID uint) ([]db.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Vote, 0)
	for _, vote := range s.votes {
		answer, ok := s.answers[vote.AnswerID]
		if ok && answer.RoundID == roundID {
			out = append(out, *vote)
		}
	}
	return out, nil
}

func cloneRoom(room *db.Room) *db.Room {
	clone := *room
	clone.Categories = slices.Clone(room.Categories)
	clone.Players = nil
	clone.Rounds = nil
	return &clone
}

func clonePlayer(player *db.Player) *db.Player {
	clone := *player
	clone.Answers = nil
	clone.Votes = nil
	return &clone
}

func cloneRound(round *db.Round) *db.Round {
	clone := *round
	clone.FirstSubmissionAt = cloneTime(round.FirstSubmissionAt)
	clone.EndedAt = cloneTime(round.EndedAt)
	clone.ValidatedAt = cloneTime(round.ValidatedAt)
	clone.Room = db.Room{}
	clone.Answers = nil
	return &clone
}

func cloneAnswer(answer *db.Answer) *db.Answer {
	clone := *answer
	if answer.Valid != nil {
		verdict := *answer.Valid
		clone.Valid = &verdict
	}
	clone.Votes = nil
	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	stamp := *t
	return &stamp
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
