package server

import (
	"slices"

	"letter-rush/internal/db"
)

const (
	pointsUnique = 10
	pointsShared = 5
)

// answerPoints applies the scoring rule: 10 for a valid answer unique within
// its category, 5 when more than one player submitted the same word (every
// duplicate gets 5), 0 for invalid answers.
func answerPoints(valid, shared bool) int {
	if !valid {
		return 0
	}
	if shared {
		return pointsShared
	}
	return pointsUnique
}

// awardPoints applies a positive delta to the player's running total. The
// store performs the increment atomically, so awards for different players in
// the same round can run concurrently.
func (s *Server) awardPoints(playerID uint, delta int) error {
	if delta <= 0 {
		return nil
	}
	return s.store.AwardPoints(playerID, delta)
}

// sortLeaderboard orders players by score, ties broken by join order.
func sortLeaderboard(players []db.Player) {
	slices.SortStableFunc(players, func(a, b db.Player) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return int(a.ID) - int(b.ID)
	})
}
