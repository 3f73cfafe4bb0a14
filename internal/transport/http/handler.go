package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/randomtoy/chess-arbiter/internal/domain/chess"
	"github.com/randomtoy/chess-arbiter/internal/domain/game"
	"github.com/randomtoy/chess-arbiter/internal/ports"
	"github.com/randomtoy/chess-arbiter/internal/usecase"
)

const (
	headerClientToken = "X-Client-Token"
	headerPlayerID    = "X-Player-Id"
)

// boardJSON is the wire snapshot of a board. Board lists the 64 squares
// from a8 to h1, "" for empty, FEN letters otherwise.
type boardJSON struct {
	FEN            string     `json:"fen"`
	Moved          string     `json:"moved"`
	Board          [64]string `json:"board"`
	SideToMove     string     `json:"side_to_move"`
	Castling       string     `json:"castling"`
	EnPassant      *string    `json:"en_passant"`
	HalfmoveClock  int        `json:"halfmove_clock"`
	FullmoveNumber int        `json:"fullmove_number"`
}

// plyJSON is the wire representation of a single move in history.
type plyJSON struct {
	Ply      int       `json:"ply"`
	Color    string    `json:"color"`
	UCI      string    `json:"uci"`
	SAN      string    `json:"san"`
	FENAfter string    `json:"fen_after"`
	PlayedAt time.Time `json:"played_at"`
}

// sessionJSON is the wire representation of game.View.
type sessionJSON struct {
	SessionID  string     `json:"session_id"`
	WhiteID    string     `json:"white_id"`
	BlackID    string     `json:"black_id"`
	Status     string     `json:"status"`
	InCheck    *string    `json:"in_check"`
	Winner     *string    `json:"winner"`
	Result     string     `json:"result"`
	Board      boardJSON  `json:"board"`
	History    []plyJSON  `json:"history"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

func toBoardJSON(b chess.Board) boardJSON {
	snap := b.Snapshot()
	out := boardJSON{
		FEN:            snap.FEN,
		Moved:          snap.Moved,
		SideToMove:     b.Turn().String(),
		Castling:       b.Castling().String(),
		HalfmoveClock:  b.HalfmoveClock(),
		FullmoveNumber: b.FullmoveNumber(),
	}
	for i := range out.Board {
		sq, _ := chess.NewSquare(i%8, 7-i/8)
		if p, ok := b.Occupant(sq); ok {
			out.Board[i] = string(p.FENLetter())
		}
	}
	if ep, ok := b.EnPassant(); ok {
		s := ep.String()
		out.EnPassant = &s
	}
	return out
}

func toPlyJSON(p game.Ply) plyJSON {
	return plyJSON{
		Ply:      p.Number,
		Color:    p.Color.String(),
		UCI:      p.UCI,
		SAN:      p.SAN,
		FENAfter: p.FENAfter,
		PlayedAt: p.At,
	}
}

func toSessionJSON(v game.View) sessionJSON {
	out := sessionJSON{
		SessionID:  v.ID.String(),
		WhiteID:    v.White,
		BlackID:    v.Black,
		Status:     v.Status.Kind.String(),
		Result:     v.Status.Result(),
		Board:      toBoardJSON(v.Board),
		History:    make([]plyJSON, len(v.History)),
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
		FinishedAt: v.FinishedAt,
	}
	if v.Status.Kind == chess.StatusCheck {
		c := v.Status.Color.String()
		out.InCheck = &c
	}
	if w, ok := v.Status.Winner(); ok {
		c := w.String()
		out.Winner = &c
	}
	for i, p := range v.History {
		out.History[i] = toPlyJSON(p)
	}
	return out
}

// recordJSON is the wire representation of an archived game.Record.
type recordJSON struct {
	SessionID  string         `json:"session_id"`
	WhiteID    string         `json:"white_id"`
	BlackID    string         `json:"black_id"`
	Status     string         `json:"status"`
	Winner     *string        `json:"winner"`
	Result     string         `json:"result"`
	StartFEN   string         `json:"start_fen"`
	Final      chess.Snapshot `json:"final"`
	Moves      []plyJSON      `json:"moves"`
	PGN        string         `json:"pgn"`
	CreatedAt  time.Time      `json:"created_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

func toRecordJSON(rec game.Record) recordJSON {
	out := recordJSON{
		SessionID:  rec.ID.String(),
		WhiteID:    rec.White,
		BlackID:    rec.Black,
		Status:     rec.Status,
		Winner:     rec.Winner,
		Result:     rec.Result,
		StartFEN:   rec.StartFEN,
		Final:      rec.Final,
		Moves:      make([]plyJSON, len(rec.Moves)),
		PGN:        rec.PGN,
		CreatedAt:  rec.CreatedAt,
		FinishedAt: rec.FinishedAt,
	}
	for i, m := range rec.Moves {
		out.Moves[i] = plyJSON{Ply: m.Ply, Color: m.Color, UCI: m.UCI, SAN: m.SAN, FENAfter: m.FENAfter, PlayedAt: m.PlayedAt}
	}
	return out
}

// Handlers holds all usecase dependencies.
type Handlers struct {
	creator   *usecase.SessionCreator
	getter    *usecase.SessionGetter
	submitter *usecase.MoveSubmitter
	ender     *usecase.Terminator
	lister    *usecase.BindingLister
	archive   *usecase.ArchiveReader
}

func NewHandlers(
	creator *usecase.SessionCreator,
	getter *usecase.SessionGetter,
	submitter *usecase.MoveSubmitter,
	ender *usecase.Terminator,
	lister *usecase.BindingLister,
	archive *usecase.ArchiveReader,
) *Handlers {
	return &Handlers{
		creator:   creator,
		getter:    getter,
		submitter: submitter,
		ender:     ender,
		lister:    lister,
		archive:   archive,
	}
}

// caller returns the rate-limit key parts of the request.
func caller(c echo.Context) (ip, token string) {
	return c.RealIP(), c.Request().Header.Get(headerClientToken)
}

// playerID reads the identity set by the authentication collaborator.
func playerID(c echo.Context) (string, error) {
	id := c.Request().Header.Get(headerPlayerID)
	if id == "" {
		return "", errMissingPlayer
	}
	return id, nil
}

// sessionID parses a session id; malformed ids are simply unknown sessions.
func sessionID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ports.ErrSessionNotFound
	}
	return id, nil
}

func (h *Handlers) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) handleCreateSession(c echo.Context) error {
	ip, token := caller(c)

	var body struct {
		WhiteID string `json:"white_id"`
		BlackID string `json:"black_id"`
		FEN     string `json:"fen"`
	}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, err)
	}

	v, err := h.creator.CreateSession(c.Request().Context(), ip, token, usecase.CreateSessionRequest{
		WhiteID: body.WhiteID,
		BlackID: body.BlackID,
		FEN:     body.FEN,
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, toSessionJSON(v))
}

func (h *Handlers) handleGetSession(c echo.Context) error {
	ip, token := caller(c)
	id, err := sessionID(c.Param("session_id"))
	if err != nil {
		return writeErr(c, err)
	}

	v, err := h.getter.GetSession(c.Request().Context(), ip, token, id)
	if err != nil {
		return writeErr(c, err)
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, toSessionJSON(v))
}

type moveBody struct {
	// Single UCI string.
	UCI string `json:"uci"`
	// Or from/to/promotion.
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion"`
}

func (h *Handlers) handleSubmitMove(c echo.Context) error {
	id, err := sessionID(c.Param("session_id"))
	if err != nil {
		return writeErr(c, err)
	}
	var body moveBody
	if err := c.Bind(&body); err != nil {
		return writeErr(c, err)
	}
	return h.submit(c, id, body)
}

// handleLegacyMove serves the browser client's {session_id, from, to,
// promotion} form.
func (h *Handlers) handleLegacyMove(c echo.Context) error {
	var body struct {
		SessionID string `json:"session_id"`
		moveBody
	}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, err)
	}
	id, err := sessionID(body.SessionID)
	if err != nil {
		return writeErr(c, err)
	}
	return h.submit(c, id, body.moveBody)
}

func (h *Handlers) submit(c echo.Context, id uuid.UUID, body moveBody) error {
	ip, token := caller(c)
	player, err := playerID(c)
	if err != nil {
		return writeErr(c, err)
	}

	res, err := h.submitter.SubmitMove(c.Request().Context(), ip, token, id, player, usecase.SubmitMoveRequest{
		UCI:       body.UCI,
		From:      body.From,
		To:        body.To,
		Promotion: body.Promotion,
	})
	if err != nil {
		return writeErr(c, err)
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, map[string]any{
		"accepted": true,
		"move":     toPlyJSON(res.Result.Ply),
		"session":  toSessionJSON(res.View),
	})
}

func (h *Handlers) handleResign(c echo.Context) error {
	return h.terminate(c, h.ender.Resign)
}

func (h *Handlers) handleAbort(c echo.Context) error {
	return h.terminate(c, h.ender.Abort)
}

func (h *Handlers) terminate(
	c echo.Context,
	end func(ctx context.Context, ip, token string, id uuid.UUID, identity string) (game.View, error),
) error {
	ip, token := caller(c)
	id, err := sessionID(c.Param("session_id"))
	if err != nil {
		return writeErr(c, err)
	}
	player, err := playerID(c)
	if err != nil {
		return writeErr(c, err)
	}

	v, err := end(c.Request().Context(), ip, token, id, player)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toSessionJSON(v))
}

func (h *Handlers) handleLegalMoves(c echo.Context) error {
	ip, token := caller(c)
	id, err := sessionID(c.Param("session_id"))
	if err != nil {
		return writeErr(c, err)
	}

	moves, err := h.getter.LegalMoves(c.Request().Context(), ip, token, id)
	if err != nil {
		return writeErr(c, err)
	}
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, map[string]any{
		"session_id": id.String(),
		"moves":      out,
	})
}

func (h *Handlers) handlePGN(c echo.Context) error {
	ip, token := caller(c)
	id, err := sessionID(c.Param("session_id"))
	if err != nil {
		return writeErr(c, err)
	}

	pgn, err := h.getter.PGN(c.Request().Context(), ip, token, id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.Blob(http.StatusOK, "application/x-chess-pgn", []byte(pgn))
}

func (h *Handlers) handleListBindings(c echo.Context) error {
	ip, token := caller(c)
	player := c.Param("player_id")

	bindings, err := h.lister.ListBindings(c.Request().Context(), ip, token, player)
	if err != nil {
		return writeErr(c, err)
	}

	type bindingJSON struct {
		SessionID string `json:"session_id"`
		Color     string `json:"color"`
		Status    string `json:"status"`
	}
	out := make([]bindingJSON, len(bindings))
	for i, b := range bindings {
		out[i] = bindingJSON{
			SessionID: b.SessionID.String(),
			Color:     b.Color.String(),
			Status:    b.Status.Kind.String(),
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"player_id": player,
		"sessions":  out,
	})
}

func (h *Handlers) handleGetArchived(c echo.Context) error {
	ip, token := caller(c)
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		return writeErr(c, ports.ErrArchiveNotFound)
	}

	rec, err := h.archive.GetArchived(c.Request().Context(), ip, token, id)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, toRecordJSON(rec))
}
