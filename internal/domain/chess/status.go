package chess

// StatusKind enumerates game states. Everything from StatusCheckmate on
// is terminal.
type StatusKind uint8

const (
	StatusInProgress StatusKind = iota
	StatusCheck
	StatusCheckmate
	StatusStalemate
	StatusDrawFiftyMove
	StatusDrawRepetition
	StatusDrawInsufficientMaterial
	StatusResigned
	StatusAborted
)

var statusNames = [...]string{
	StatusInProgress:               "in_progress",
	StatusCheck:                    "check",
	StatusCheckmate:                "checkmate",
	StatusStalemate:                "stalemate",
	StatusDrawFiftyMove:            "draw_fifty_move",
	StatusDrawRepetition:           "draw_repetition",
	StatusDrawInsufficientMaterial: "draw_insufficient_material",
	StatusResigned:                 "resigned",
	StatusAborted:                  "aborted",
}

func (k StatusKind) String() string {
	if int(k) < len(statusNames) {
		return statusNames[k]
	}
	return "unknown"
}

// GameStatus is a status kind plus the color it refers to: the side in
// check for StatusCheck, the winner for StatusCheckmate and StatusResigned.
// Color is meaningless for the other kinds.
type GameStatus struct {
	Kind  StatusKind
	Color Color
}

// Terminal reports whether no further moves are accepted.
func (s GameStatus) Terminal() bool { return s.Kind >= StatusCheckmate }

// IsDraw reports a drawn terminal status.
func (s GameStatus) IsDraw() bool {
	switch s.Kind {
	case StatusStalemate, StatusDrawFiftyMove, StatusDrawRepetition, StatusDrawInsufficientMaterial:
		return true
	}
	return false
}

// Winner returns the winning color of a decisive game.
func (s GameStatus) Winner() (Color, bool) {
	switch s.Kind {
	case StatusCheckmate, StatusResigned:
		return s.Color, true
	}
	return White, false
}

// Result returns the PGN result token.
func (s GameStatus) Result() string {
	if w, ok := s.Winner(); ok {
		if w == White {
			return "1-0"
		}
		return "0-1"
	}
	if s.IsDraw() {
		return "1/2-1/2"
	}
	return "*"
}

func (s GameStatus) String() string {
	switch s.Kind {
	case StatusCheck, StatusCheckmate, StatusResigned:
		return s.Kind.String() + "(" + s.Color.String() + ")"
	}
	return s.Kind.String()
}
