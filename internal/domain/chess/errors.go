package chess

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the board model and codecs.
var (
	ErrInvalidSquare     = errors.New("invalid square")
	ErrInvalidFEN        = errors.New("invalid FEN")
	ErrMalformedMove     = errors.New("malformed move")
	ErrInconsistentBoard = errors.New("inconsistent board")
)

// ConsistencyError reports a broken board invariant (king count, occupancy).
// It is never a user error: a session that observes one is unusable.
type ConsistencyError struct {
	Reason string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInconsistentBoard, e.Reason)
}

func (e *ConsistencyError) Unwrap() error { return ErrInconsistentBoard }

func inconsistent(format string, args ...any) error {
	return &ConsistencyError{Reason: fmt.Sprintf(format, args...)}
}
