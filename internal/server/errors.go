package server

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy surfaced to HTTP clients. Store and game logic return these
// (or wrap errValidation); handlers map them to status codes in one place.
var (
	errRoomNotFound   = errors.New("room not found")
	errPlayerNotFound = errors.New("player not found")
	errAnswerNotFound = errors.New("answer not found")
	errNoActiveRound  = errors.New("no active round")
	errNameTaken      = errors.New("name already taken")
	errGameStarted    = errors.New("game already started")
	errUnauthorized   = errors.New("invalid player token")
	errHostOnly       = errors.New("host action required")
	errForbidden      = errors.New("not allowed")
	errValidation     = errors.New("invalid request")

	// internal only: the judge replied but skipped pairs.
	errIncompleteVerdicts = errors.New("judge response missing verdicts")
)

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errValidation, fmt.Sprintf(format, args...))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, errValidation):
		return http.StatusBadRequest
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errHostOnly), errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, errRoomNotFound), errors.Is(err, errAnswerNotFound), errors.Is(err, errPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNameTaken), errors.Is(err, errGameStarted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeAPIError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeError(w, status, message)
}
