package server

import (
	"errors"
	"testing"

	"letter-rush/internal/config"
	"letter-rush/internal/db"
)

func TestVoteMajorityRejects(t *testing.T) {
	srv := New(nil, config.Default())
	room, players, answer := setupVotingRoom(t, srv, "Ada", "Grace", "Linus", "Marie")

	rejected, err := srv.castVote(room, players["Grace"], answer.ID, false)
	if err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if rejected {
		t.Fatal("one reject out of four players is not a majority")
	}
	rejected, err = srv.castVote(room, players["Linus"], answer.ID, false)
	if err != nil {
		t.Fatalf("second vote: %v", err)
	}
	if rejected {
		t.Fatal("two rejects out of four players is not a strict majority")
	}
	rejected, err = srv.castVote(room, players["Marie"], answer.ID, false)
	if err != nil {
		t.Fatalf("third vote: %v", err)
	}
	if !rejected {
		t.Fatal("three rejects out of four players must reject the answer")
	}
}

func TestRepeatVoteOverwrites(t *testing.T) {
	srv := New(nil, config.Default())
	room, players, answer := setupVotingRoom(t, srv, "Ada", "Grace", "Linus", "Marie")

	for _, name := range []string{"Grace", "Linus", "Marie"} {
		if _, err := srv.castVote(room, players[name], answer.ID, false); err != nil {
			t.Fatalf("vote by %s: %v", name, err)
		}
	}
	rejected, err := srv.castVote(room, players["Marie"], answer.ID, true)
	if err != nil {
		t.Fatalf("changed vote: %v", err)
	}
	if rejected {
		t.Fatal("a changed vote must drop the reject majority")
	}

	votes, err := srv.store.VotesByAnswer(answer.ID)
	if err != nil {
		t.Fatalf("votes by answer: %v", err)
	}
	if len(votes) != 3 {
		t.Fatalf("expected one vote per player, got %d", len(votes))
	}
}

func TestVoteOnOwnAnswer(t *testing.T) {
	srv := New(nil, config.Default())
	room, players, answer := setupVotingRoom(t, srv, "Ada", "Grace")

	if _, err := srv.castVote(room, players["Ada"], answer.ID, false); !errors.Is(err, errValidation) {
		t.Fatalf("expected self-vote to be rejected, got %v", err)
	}
}

func TestVoteBeforeRoundCompletes(t *testing.T) {
	srv := New(nil, config.Default())
	room, players, round := setupPlayingRoom(t, srv, "Ada", "Grace")

	if err := srv.submitAnswers(room, players[0], map[string]string{"city": roundWord(round, "erlin")}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	answers, err := srv.store.AnswersByRound(round.ID)
	if err != nil {
		t.Fatalf("answers by round: %v", err)
	}
	if _, err := srv.castVote(room, players[1], answers[0].ID, false); !errors.Is(err, errValidation) {
		t.Fatalf("expected voting on an active round to fail, got %v", err)
	}
}

func TestVoteFromOutsideRoom(t *testing.T) {
	srv := New(nil, config.Default())
	room, _, answer := setupVotingRoom(t, srv, "Ada", "Grace")
	_, stranger, err := srv.createRoom("Eve", roomSettings{})
	if err != nil {
		t.Fatalf("create second room: %v", err)
	}

	if _, err := srv.castVote(room, stranger, answer.ID, false); !errors.Is(err, errForbidden) {
		t.Fatalf("expected a vote from outside the room to be forbidden, got %v", err)
	}
}

func TestVoteOnAnswerFromAnotherRoom(t *testing.T) {
	srv := New(nil, config.Default())
	_, players, answer := setupVotingRoom(t, srv, "Ada", "Grace")
	otherRoom, _, _ := setupVotingRoom(t, srv, "Eve", "Mallory")

	if _, err := srv.castVote(otherRoom, players["Grace"], answer.ID, false); !errors.Is(err, errAnswerNotFound) {
		t.Fatalf("expected an answer outside the room to be unresolvable, got %v", err)
	}
}

func TestHostRejectAnswer(t *testing.T) {
	srv := New(nil, config.Default())
	room, players, answer := setupVotingRoom(t, srv, "Ada", "Grace", "Linus")

	if err := srv.rejectAnswer(room, players["Grace"], answer.ID); !errors.Is(err, errHostOnly) {
		t.Fatalf("expected non-host rejection to fail, got %v", err)
	}
	if err := srv.rejectAnswer(room, players["Ada"], answer.ID); err != nil {
		t.Fatalf("host rejection: %v", err)
	}

	stored, err := srv.store.AnswerByID(answer.ID)
	if err != nil {
		t.Fatalf("load answer: %v", err)
	}
	rejected, err := srv.answerRejected(stored, room.ID)
	if err != nil {
		t.Fatalf("answer rejected: %v", err)
	}
	if !rejected {
		t.Fatal("a host-rejected answer must stay rejected without any votes")
	}
}

func TestRejectMajority(t *testing.T) {
	reject := db.Vote{Accepted: false}
	accept := db.Vote{Accepted: true}

	if rejectMajority([]db.Vote{reject, reject}, 4) {
		t.Fatal("two rejects of four players is not a strict majority")
	}
	if !rejectMajority([]db.Vote{reject, reject, reject}, 4) {
		t.Fatal("three rejects of four players is a strict majority")
	}
	if rejectMajority([]db.Vote{reject, accept, accept}, 3) {
		t.Fatal("one reject of three players is not a majority")
	}
	if !rejectMajority([]db.Vote{reject, reject}, 3) {
		t.Fatal("two rejects of three players is a strict majority")
	}
}

// setupVotingRoom builds a room where the host's single city answer sits in a
// completed, unvalidated round; voting is open.
func setupVotingRoom(t *testing.T, srv *Server, names ...string) (*db.Room, map[string]*db.Player, *db.Answer) {
	t.Helper()
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
		Letter:    "B",
		Status:    db.RoundStatusActive,
		StartedAt: timeNowUTC(),
	}
	if err := srv.store.CreateRound(round); err != nil {
		t.Fatalf("create round: %v", err)
	}
	answers := []db.Answer{{Category: "city", Word: "Berlin"}}
	if err := srv.store.ReplaceAnswers(round.ID, host.ID, answers); err != nil {
		t.Fatalf("store answers: %v", err)
	}
	if _, err := srv.store.CompleteRound(round.ID, timeNowUTC()); err != nil {
		t.Fatalf("complete round: %v", err)
	}
	stored, err := srv.store.AnswersByRound(round.ID)
	if err != nil {
		t.Fatalf("answers by round: %v", err)
	}
	return room, players, &stored[0]
}
