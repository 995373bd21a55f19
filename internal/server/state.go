package server

import (
	"letter-rush/internal/db"
)

// roomState builds the poll payload for GET /api/rooms/:code. During an
// active round the viewer only sees their own answers; once the round
// completes everyone's answers, verdicts and votes are exposed. Validity is a
// tri-state (null until the pipeline has run).
func (s *Server) roomState(room *db.Room, viewer *db.Player) (map[string]any, error) {
	players, err := s.store.PlayersByRoom(room.ID)
	if err != nil {
		return nil, err
	}
	sortLeaderboard(players)
	playerViews := make([]map[string]any, 0, len(players))
	for _, player := range players {
		playerViews = append(playerViews, map[string]any{
			"id":      player.ID,
			"name":    player.Name,
			"score":   player.Score,
			"is_host": player.IsHost,
		})
	}
	state := map[string]any{
		"room": map[string]any{
			"code":          room.Code,
			"status":        room.Status,
			"current_round": room.CurrentRound,
			"total_rounds":  room.TotalRounds,
			"timer_seconds": room.TimerSeconds,
			"categories":    []string(room.Categories),
			"used_letters":  room.UsedLetters,
		},
		"players":       playerViews,
		"current_round": nil,
	}

	round, err := s.store.LatestRound(room.ID)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return state, nil
	}
	state["current_round"] = map[string]any{
		"number":              round.Number,
		"letter":              round.Letter,
		"status":              round.Status,
		"started_at":          round.StartedAt,
		"first_submission_at": round.FirstSubmissionAt,
		"ended_at":            round.EndedAt,
		"validated":           round.ValidatedAt != nil,
	}

	answers, err := s.store.AnswersByRound(round.ID)
	if err != nil {
		return nil, err
	}
	if round.Status == db.RoundStatusActive {
		if viewer != nil {
			mine := make(map[string]string)
			for _, answer := range answers {
				if answer.PlayerID == viewer.ID {
					mine[answer.Category] = answer.Word
				}
			}
			state["my_answers"] = mine
		}
		return state, nil
	}

	votes, err := s.store.VotesByRound(round.ID)
	if err != nil {
		return nil, err
	}
	votesByAnswer := make(map[uint][]db.Vote, len(votes))
	for _, vote := range votes {
		votesByAnswer[vote.AnswerID] = append(votesByAnswer[vote.AnswerID], vote)
	}
	names := make(map[uint]string, len(players))
	for _, player := range players {
		names[player.ID] = player.Name
	}

	answerViews := make([]map[string]any, 0, len(answers))
	for _, answer := range answers {
		rejected := answer.CommunityRejected || rejectMajority(votesByAnswer[answer.ID], len(players))
		answerViews = append(answerViews, map[string]any{
			"id":          answer.ID,
			"player_id":   answer.PlayerID,
			"player_name": names[answer.PlayerID],
			"category":    answer.Category,
			"word":        answer.Word,
			"valid":       answer.Valid,
			"points":      answer.Points,
			"reason":      answer.Reason,
			"rejected":    rejected,
		})
	}
	state["all_answers"] = answerViews

	voteViews := make([]map[string]any, 0, len(votes))
	for _, vote := range votes {
		voteViews = append(voteViews, map[string]any{
			"answer_id": vote.AnswerID,
			"player_id": vote.PlayerID,
			"accepted":  vote.Accepted,
		})
	}
	state["votes"] = voteViews
	return state, nil
}
