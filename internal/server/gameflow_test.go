package server

import (
	"net/http"
	"strconv"
	"testing"
	"time"
)

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// Full round trip over HTTP: create, join, start, everyone submits, the round
// completes, fallback validation scores it, and voting plus host moderation
// act on the published answers.
func TestGameFlow(t *testing.T) {
	ts := newTestServer(t)

	room := createRoom(t, ts, "Ada")
	guest := joinPlayer(t, ts, room.Code, "Grace")
	startGameRequest(t, ts, room.Code, room.Token)

	state := getState(t, ts, room.Code, "")
	letter := state["current_round"].(map[string]any)["letter"].(string)

	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+room.Code+"/submit", room.Token, map[string]any{
		"answers": map[string]string{"city": letter + "erlin"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("host submit: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+room.Code+"/submit", guest.Token, map[string]any{
		"answers": map[string]string{"city": letter + "oston"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("guest submit: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	// The second submission completed the round; validation runs out of band.
	waitFor(t, 2*time.Second, func() bool {
		state = getState(t, ts, room.Code, room.Token)
		round, _ := state["current_round"].(map[string]any)
		return round != nil && round["validated"] == true
	})

	answers, ok := state["all_answers"].([]any)
	if !ok || len(answers) != 2 {
		t.Fatalf("expected both answers published, got %v", state["all_answers"])
	}
	var guestAnswerID uint
	for _, entry := range answers {
		answer := entry.(map[string]any)
		if answer["valid"] != true {
			t.Fatalf("expected answer %v to be valid under the fallback rule", answer["word"])
		}
		if answer["points"].(float64) != float64(pointsUnique) {
			t.Fatalf("expected unique answer to score %d, got %v", pointsUnique, answer["points"])
		}
		if uint(answer["player_id"].(float64)) == guest.PlayerID {
			guestAnswerID = uint(answer["id"].(float64))
		}
	}
	if guestAnswerID == 0 {
		t.Fatal("guest answer missing from published answers")
	}

	// One reject out of two players is not a majority.
	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+room.Code+"/answers/"+itoa(guestAnswerID)+"/vote", room.Token, map[string]any{
		"accepted": false,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("vote: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	voteBody := decodeBody(t, resp)
	if voteBody["rejected"] != false {
		t.Fatalf("expected a single reject to leave the answer standing, got %v", voteBody["rejected"])
	}

	// Host moderation rejects outright.
	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+room.Code+"/answers/"+itoa(guestAnswerID)+"/reject", room.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reject: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	state = getState(t, ts, room.Code, room.Token)
	for _, entry := range state["all_answers"].([]any) {
		answer := entry.(map[string]any)
		if uint(answer["id"].(float64)) == guestAnswerID && answer["rejected"] != true {
			t.Fatal("expected the host-rejected answer to show as rejected")
		}
	}

	// Advance to round two; the letter must be fresh.
	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+room.Code+"/round/next", room.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("next round: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	state = getState(t, ts, room.Code, "")
	round := state["current_round"].(map[string]any)
	if round["number"].(float64) != 2 {
		t.Fatalf("expected round 2, got %v", round["number"])
	}
	if round["letter"].(string) == letter {
		t.Fatalf("expected a fresh letter, %s was already used", letter)
	}
}

func TestHostFinishRoundEndpoint(t *testing.T) {
	ts := newTestServer(t)

	room := createRoom(t, ts, "Ada")
	guest := joinPlayer(t, ts, room.Code, "Grace")
	startGameRequest(t, ts, room.Code, room.Token)

	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+room.Code+"/round/finish", guest.Token, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status %d for non-host finish, got %d", http.StatusForbidden, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+room.Code+"/round/finish", room.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	state := getState(t, ts, room.Code, "")
	round := state["current_round"].(map[string]any)
	if round["status"] != "completed" {
		t.Fatalf("expected round completed, got %v", round["status"])
	}
}

func TestVoteRequiresAcceptedField(t *testing.T) {
	ts := newTestServer(t)

	room := createRoom(t, ts, "Ada")
	startGameRequest(t, ts, room.Code, room.Token)
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+room.Code+"/answers/1/vote", room.Token, map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}
