package server

import (
	"letter-rush/internal/db"
)

// castVote records a player's accept/reject vote on a peer answer; a repeat
// vote overwrites the earlier one. Voting opens once the answer's round has
// completed. Returns whether the answer now counts as rejected.
func (s *Server) castVote(room *db.Room, voter *db.Player, answerID uint, accepted bool) (bool, error) {
	answer, round, err := s.answerInRoom(room, answerID)
	if err != nil {
		return false, err
	}
	if round.Status != db.RoundStatusCompleted {
		return false, validationErrorf("voting opens when the round completes")
	}
	if voter.RoomID != room.ID {
		return false, errForbidden
	}
	if answer.PlayerID == voter.ID {
		return false, validationErrorf("cannot vote on your own answer")
	}
	vote := &db.Vote{
		AnswerID: answerID,
		PlayerID: voter.ID,
		Accepted: accepted,
	}
	if err := s.store.UpsertVote(vote); err != nil {
		return false, err
	}
	return s.answerRejected(answer, room.ID)
}

// rejectAnswer sets the persistent community-rejected flag; host moderation
// only. This marker is independent of the live vote majority.
func (s *Server) rejectAnswer(room *db.Room, host *db.Player, answerID uint) error {
	if !host.IsHost || host.RoomID != room.ID {
		return errHostOnly
	}
	answer, _, err := s.answerInRoom(room, answerID)
	if err != nil {
		return err
	}
	return s.store.SetCommunityRejected(answer.ID, true)
}

// answerRejected reports the display-facing rejection state: the persisted
// flag, or a live majority of reject votes (strictly more than half the
// room's players).
func (s *Server) answerRejected(answer *db.Answer, roomID uint) (bool, error) {
	if answer.CommunityRejected {
		return true, nil
	}
	votes, err := s.store.VotesByAnswer(answer.ID)
	if err != nil {
		return false, err
	}
	players, err := s.store.PlayersByRoom(roomID)
	if err != nil {
		return false, err
	}
	return rejectMajority(votes, len(players)), nil
}

func rejectMajority(votes []db.Vote, playerCount int) bool {
	rejects := 0
	for _, vote := range votes {
		if !vote.Accepted {
			rejects++
		}
	}
	return rejects*2 > playerCount
}

// answerInRoom resolves an answer and its round, confirming both belong to
// the given room.
func (s *Server) answerInRoom(room *db.Room, answerID uint) (*db.Answer, *db.Round, error) {
	answer, err := s.store.AnswerByID(answerID)
	if err != nil {
		return nil, nil, err
	}
	round, err := s.store.RoundByID(answer.RoundID)
	if err != nil {
		return nil, nil, err
	}
	if round.RoomID != room.ID {
		return nil, nil, errAnswerNotFound
	}
	return answer, round, nil
}
