package server

import (
	"context"
	"log"
	"time"

	"letter-rush/internal/db"
)

// validateRound judges and scores a completed round. It claims the round's
// single validation pass first, so a re-triggered validation (or a second
// process) is a no-op and points are never awarded twice. Judge failures
// switch the whole batch to the fallback rule; a partially judged round never
// mixes criteria.
func (s *Server) validateRound(roundID uint) {
	won, err := s.store.MarkRoundValidated(roundID, timeNowUTC())
	if err != nil {
		log.Printf("validation claim failed round_id=%d error=%v", roundID, err)
		return
	}
	if !won {
		return
	}
	round, err := s.store.RoundByID(roundID)
	if err != nil {
		log.Printf("validation load round failed round_id=%d error=%v", roundID, err)
		return
	}
	room, err := s.store.RoomByID(round.RoomID)
	if err != nil {
		log.Printf("validation load room failed round_id=%d error=%v", roundID, err)
		return
	}
	answers, err := s.store.AnswersByRound(roundID)
	if err != nil {
		log.Printf("validation load answers failed round_id=%d error=%v", roundID, err)
		return
	}
	if len(answers) == 0 {
		return
	}

	verdicts := s.judgeAnswers(round.Letter, room.Categories, answers)
	shared := duplicateCounts(answers)
	for _, answer := range answers {
		key := judgeKey(answer.Category, answer.Word)
		verdict := verdicts[key]
		points := answerPoints(verdict.IsValid, shared[key] > 1)
		if err := s.store.SaveAnswerResult(answer.ID, verdict.IsValid, points, verdict.Reason); err != nil {
			log.Printf("answer result persist failed answer_id=%d error=%v", answer.ID, err)
			continue
		}
		if points > 0 {
			if err := s.awardPoints(answer.PlayerID, points); err != nil {
				log.Printf("point award failed player_id=%d answer_id=%d error=%v", answer.PlayerID, answer.ID, err)
			}
		}
	}
	log.Printf("round validated room=%s round=%d answers=%d", room.Code, round.Number, len(answers))
}

// judgeAnswers builds the deduplicated batch and asks the external judge once.
// Any failure, including a response that misses pairs, applies the fallback
// rule to the entire batch.
func (s *Server) judgeAnswers(letter string, categories []string, answers []db.Answer) map[string]judgeVerdict {
	batch := judgeBatch{
		Letter:     letter,
		Categories: categories,
		Entries:    uniqueEntries(answers),
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.JudgeTimeoutSeconds)*time.Second)
	defer cancel()

	verdicts, err := s.judge.Judge(ctx, batch)
	if err == nil {
		for _, entry := range batch.Entries {
			if _, ok := verdicts[judgeKey(entry.Category, entry.Word)]; !ok {
				err = errIncompleteVerdicts
				break
			}
		}
	}
	if err != nil {
		log.Printf("judge unavailable, applying fallback letter=%s entries=%d error=%v", letter, len(batch.Entries), err)
		verdicts, _ = fallbackJudge{}.Judge(ctx, batch)
	}
	return verdicts
}

// uniqueEntries deduplicates (category, word) pairs to keep the judge batch
// minimal; duplicate submissions across players share one verdict.
func uniqueEntries(answers []db.Answer) []judgeEntry {
	seen := make(map[string]struct{}, len(answers))
	entries := make([]judgeEntry, 0, len(answers))
	for _, answer := range answers {
		key := judgeKey(answer.Category, answer.Word)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		entries = append(entries, judgeEntry{Category: answer.Category, Word: answer.Word})
	}
	return entries
}

// duplicateCounts counts how many players submitted each (category, word)
// pair, lower-cased.
func duplicateCounts(answers []db.Answer) map[string]int {
	counts := make(map[string]int, len(answers))
	for _, answer := range answers {
		counts[judgeKey(answer.Category, answer.Word)]++
	}
	return counts
}
