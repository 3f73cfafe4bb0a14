package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/chess-arbiter/internal/domain/chess"
	"github.com/randomtoy/chess-arbiter/internal/domain/game"
	"github.com/randomtoy/chess-arbiter/internal/ports"
	"github.com/randomtoy/chess-arbiter/internal/usecase"
)

const errBase = "https://errors.chess-arbiter.local"

// Problem is an RFC 7807 problem document with a stable machine code.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

type problemMapping struct {
	err    error
	status int
	code   string
	detail string
}

// problems is matched in order with errors.Is.
var problems = []problemMapping{
	{usecase.ErrRateLimited, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Try again later."},
	{ports.ErrSessionNotFound, http.StatusNotFound, "session_not_found", "Session not found."},
	{ports.ErrArchiveNotFound, http.StatusNotFound, "session_not_found", "No archived game with this id."},
	{game.ErrSessionFaulted, http.StatusInternalServerError, "internal_consistency", "The session hit an internal consistency error and was stopped."},
	{chess.ErrInconsistentBoard, http.StatusInternalServerError, "internal_consistency", "The session hit an internal consistency error and was stopped."},
	{game.ErrNotParticipant, http.StatusForbidden, "not_participant", "Player is not part of this session."},
	{game.ErrNotYourTurn, http.StatusConflict, "not_your_turn", "It is the opponent's turn."},
	{game.ErrGameOver, http.StatusUnprocessableEntity, "game_over", "The game is over."},
	{game.ErrIllegalMove, http.StatusUnprocessableEntity, "illegal_move", "Move is not legal in the current position."},
	{chess.ErrInvalidSquare, http.StatusUnprocessableEntity, "invalid_square", "Square is not on the board."},
	{chess.ErrInvalidFEN, http.StatusBadRequest, "bad_request", "Start position is not valid FEN."},
	{game.ErrInvalidPlayers, http.StatusBadRequest, "bad_request", "White and black must be two different non-empty players."},
	{game.ErrInvalidStart, http.StatusBadRequest, "bad_request", "Start position is already finished."},
	{errMissingPlayer, http.StatusBadRequest, "bad_request", "X-Player-Id header is required."},
}

var errMissingPlayer = errors.New("missing player id")

// writeErr maps a domain/usecase error to the correct HTTP response.
func writeErr(c echo.Context, err error) error {
	for _, p := range problems {
		if errors.Is(err, p.err) {
			if p.status == http.StatusTooManyRequests {
				c.Response().Header().Set("Retry-After", "2")
			}
			return c.JSON(p.status, newProblem(p.status, p.code, p.detail))
		}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		return c.JSON(he.Code, newProblem(he.Code, "bad_request", "Malformed request."))
	}
	return c.JSON(http.StatusInternalServerError, newProblem(http.StatusInternalServerError, "internal", "Unexpected error."))
}

func newProblem(status int, code, detail string) Problem {
	return Problem{
		Type:   errBase + "/" + code,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Code:   code,
	}
}
