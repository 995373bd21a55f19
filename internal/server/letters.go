package server

import (
	"crypto/rand"
	"strings"
)

const letterAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func newRoomCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "AAAAAA"
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}

// availableLetters returns the alphabet minus configured exclusions and the
// letters already drawn this game.
func availableLetters(excluded, used string) []string {
	excluded = strings.ToUpper(excluded)
	used = strings.ToUpper(used)
	out := make([]string, 0, len(letterAlphabet))
	for _, r := range letterAlphabet {
		letter := string(r)
		if strings.Contains(excluded, letter) {
			continue
		}
		if strings.Contains(used, letter) {
			continue
		}
		out = append(out, letter)
	}
	return out
}

// drawLetter picks a remaining letter at random. The second return value is
// false when the game has exhausted the alphabet.
func drawLetter(excluded, used string) (string, bool) {
	remaining := availableLetters(excluded, used)
	if len(remaining) == 0 {
		return "", false
	}
	buf := make([]byte, 1)
	if _, err := rand.Read(buf); err != nil {
		return remaining[0], true
	}
	return remaining[int(buf[0])%len(remaining)], true
}
