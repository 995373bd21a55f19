package server

import (
	"context"
	"testing"

	"letter-rush/internal/config"
	"letter-rush/internal/db"
)

// judgeFunc lets tests swap in a scripted judge.
type judgeFunc func(ctx context.Context, batch judgeBatch) (map[string]judgeVerdict, error)

func (f judgeFunc) Judge(ctx context.Context, batch judgeBatch) (map[string]judgeVerdict, error) {
	return f(ctx, batch)
}

func TestFallbackScoringSharedAndUnique(t *testing.T) {
	srv := New(nil, config.Default())
	room, players, round := setupCompletedRound(t, srv, "B", map[string]string{
		"Ada":   "Berlin",
		"Grace": "Berlin",
		"Linus": "Boston",
	})

	srv.validateRound(round.ID)

	answers := answersByWord(t, srv, round.ID)
	for _, word := range []string{"Berlin", "Boston"} {
		answer := answers[word]
		if answer.Valid == nil || !*answer.Valid {
			t.Fatalf("expected %s to be valid", word)
		}
	}
	if answers["Berlin"].Points != pointsShared {
		t.Fatalf("expected shared answer to score %d, got %d", pointsShared, answers["Berlin"].Points)
	}
	if answers["Boston"].Points != pointsUnique {
		t.Fatalf("expected unique answer to score %d, got %d", pointsUnique, answers["Boston"].Points)
	}

	scores := playerScores(t, srv, room.ID)
	if scores[players["Ada"].ID] != pointsShared || scores[players["Grace"].ID] != pointsShared {
		t.Fatalf("expected both Berlin players to score %d, got %v", pointsShared, scores)
	}
	if scores[players["Linus"].ID] != pointsUnique {
		t.Fatalf("expected the Boston player to score %d, got %v", pointsUnique, scores)
	}
}

func TestFallbackRejectsWrongLetter(t *testing.T) {
	srv := New(nil, config.Default())
	_, players, round := setupCompletedRound(t, srv, "B", map[string]string{
		"Ada": "Paris",
	})

	srv.validateRound(round.ID)

	answer := answersByWord(t, srv, round.ID)["Paris"]
	if answer.Valid == nil || *answer.Valid {
		t.Fatal("expected a wrong-letter word to be invalid")
	}
	if answer.Points != 0 {
		t.Fatalf("expected no points, got %d", answer.Points)
	}
	if answer.Reason != "fallback" {
		t.Fatalf("expected fallback reason, got %q", answer.Reason)
	}
	if playerScores(t, srv, round.RoomID)[players["Ada"].ID] != 0 {
		t.Fatal("expected no score for an invalid answer")
	}
}

func TestJudgeVerdictsApplied(t *testing.T) {
	srv := New(nil, config.Default())
	_, _, round := setupCompletedRound(t, srv, "B", map[string]string{
		"Ada":   "Berlin",
		"Grace": "Bxqzt",
	})
	srv.judge = judgeFunc(func(_ context.Context, batch judgeBatch) (map[string]judgeVerdict, error) {
		return map[string]judgeVerdict{
			judgeKey("city", "Berlin"): {IsValid: true, Reason: "capital of Germany"},
			judgeKey("city", "Bxqzt"):  {IsValid: false, Reason: "not a real city"},
		}, nil
	})

	srv.validateRound(round.ID)

	answers := answersByWord(t, srv, round.ID)
	if answers["Berlin"].Points != pointsUnique {
		t.Fatalf("expected valid unique answer to score %d, got %d", pointsUnique, answers["Berlin"].Points)
	}
	if answers["Berlin"].Reason != "capital of Germany" {
		t.Fatalf("expected the judge's reason, got %q", answers["Berlin"].Reason)
	}
	if answers["Bxqzt"].Points != 0 {
		t.Fatalf("expected invalid answer to score 0, got %d", answers["Bxqzt"].Points)
	}
	if answers["Bxqzt"].Valid == nil || *answers["Bxqzt"].Valid {
		t.Fatal("expected the judge's rejection to stick")
	}
}

func TestIncompleteJudgeResponseFallsBack(t *testing.T) {
	srv := New(nil, config.Default())
	_, _, round := setupCompletedRound(t, srv, "B", map[string]string{
		"Ada":   "Berlin",
		"Grace": "Boston",
	})
	srv.judge = judgeFunc(func(_ context.Context, batch judgeBatch) (map[string]judgeVerdict, error) {
		return map[string]judgeVerdict{
			judgeKey("city", "Berlin"): {IsValid: true, Reason: "looks right"},
		}, nil
	})

	srv.validateRound(round.ID)

	for word, answer := range answersByWord(t, srv, round.ID) {
		if answer.Reason != "fallback" {
			t.Fatalf("expected the whole batch to fall back, got reason %q for %s", answer.Reason, word)
		}
	}
}

func TestJudgeErrorFallsBack(t *testing.T) {
	srv := New(nil, config.Default())
	_, _, round := setupCompletedRound(t, srv, "B", map[string]string{
		"Ada": "Berlin",
	})
	srv.judge = judgeFunc(func(_ context.Context, _ judgeBatch) (map[string]judgeVerdict, error) {
		return nil, errIncompleteVerdicts
	})

	srv.validateRound(round.ID)

	answer := answersByWord(t, srv, round.ID)["Berlin"]
	if answer.Reason != "fallback" {
		t.Fatalf("expected fallback reason, got %q", answer.Reason)
	}
	if answer.Valid == nil || !*answer.Valid {
		t.Fatal("expected the fallback to accept a matching-letter word")
	}
}

func TestValidationRunsOnce(t *testing.T) {
	srv := New(nil, config.Default())
	_, players, round := setupCompletedRound(t, srv, "B", map[string]string{
		"Ada": "Berlin",
	})
	calls := 0
	srv.judge = judgeFunc(func(_ context.Context, batch judgeBatch) (map[string]judgeVerdict, error) {
		calls++
		return fallbackJudge{}.Judge(context.Background(), batch)
	})

	srv.validateRound(round.ID)
	srv.validateRound(round.ID)

	if calls != 1 {
		t.Fatalf("expected a single judge call, got %d", calls)
	}
	if score := playerScores(t, srv, round.RoomID)[players["Ada"].ID]; score != pointsUnique {
		t.Fatalf("expected points awarded exactly once, got score %d", score)
	}
}

func TestParseVerdicts(t *testing.T) {
	raw := "```json\n{\"city:berlin\": {\"isValid\": true, \"reason\": \"ok\"}}\n```"
	verdicts, err := parseVerdicts(raw)
	if err != nil {
		t.Fatalf("parse fenced verdicts: %v", err)
	}
	verdict, ok := verdicts["city:berlin"]
	if !ok || !verdict.IsValid {
		t.Fatalf("expected a valid verdict for city:berlin, got %v", verdicts)
	}

	if _, err := parseVerdicts("{\"CITY:Berlin\": {\"isValid\": false, \"reason\": \"no\"}}"); err != nil {
		t.Fatalf("parse mixed-case keys: %v", err)
	}
	if _, err := parseVerdicts("not json"); err == nil {
		t.Fatal("expected an error for malformed verdicts")
	}
	if _, err := parseVerdicts("{}"); err == nil {
		t.Fatal("expected an error for an empty verdict object")
	}
}

func TestDuplicateCountsIgnoreCase(t *testing.T) {
	counts := duplicateCounts([]db.Answer{
		{Category: "city", Word: "Berlin"},
		{Category: "City", Word: "berlin"},
		{Category: "city", Word: "Boston"},
	})
	if counts[judgeKey("city", "Berlin")] != 2 {
		t.Fatalf("expected case-insensitive duplicate count 2, got %d", counts[judgeKey("city", "Berlin")])
	}
	if counts[judgeKey("city", "Boston")] != 1 {
		t.Fatalf("expected count 1, got %d", counts[judgeKey("city", "Boston")])
	}
}

// setupCompletedRound builds a room with one player per entry, a completed
// round with the given letter, and one city answer per player. Validation has
// not run yet.
func setupCompletedRound(t *testing.T, srv *Server, letter string, words map[string]string) (*db.Room, map[string]*db.Player, *db.Round) {
	t.Helper()
	names := make([]string, 0, len(words))
	for name := range words {
		names = append(names, name)
	}
	room, host, err := srv.createRoom(names[0], roomSettings{})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	players := map[string]*db.Player{names[0]: host}
	for _, name := range names[1:] {
		_, player, err := srv.joinRoom(room.Code, name)
		if err != nil {
			t.Fatalf("join room: %v", err)
		}
		players[name] = player
	}

	round := &db.Round{
		RoomID:    room.ID,
		Number:    1,
		Letter:    letter,
		Status:    db.RoundStatusActive,
		StartedAt: timeNowUTC(),
	}
	if err := srv.store.CreateRound(round); err != nil {
		t.Fatalf("create round: %v", err)
	}
	for name, word := range words {
		answers := []db.Answer{{Category: "city", Word: word}}
		if err := srv.store.ReplaceAnswers(round.ID, players[name].ID, answers); err != nil {
			t.Fatalf("store answers: %v", err)
		}
	}
	if _, err := srv.store.CompleteRound(round.ID, timeNowUTC()); err != nil {
		t.Fatalf("complete round: %v", err)
	}
	return room, players, round
}

func answersByWord(t *testing.T, srv *Server, roundID uint) map[string]db.Answer {
	t.Helper()
	answers, err := srv.store.AnswersByRound(roundID)
	if err != nil {
		t.Fatalf("answers by round: %v", err)
	}
	out := make(map[string]db.Answer, len(answers))
	for _, answer := range answers {
		out[answer.Word] = answer
	}
	return out
}

func playerScores(t *testing.T, srv *Server, roomID uint) map[uint]int {
	t.Helper()
	players, err := srv.store.PlayersByRoom(roomID)
	if err != nil {
		t.Fatalf("players by room: %v", err)
	}
	out := make(map[uint]int, len(players))
	for _, player := range players {
		out[player.ID] = player.Score
	}
	return out
}
