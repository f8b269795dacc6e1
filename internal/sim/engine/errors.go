package engine

import (
	"errors"
	"fmt"
)

// GameError is a recoverable failure surfaced to the offending robot's logic.
// It never affects other robots or the round.
type GameError struct {
	Code string
	Msg  string
}

func (e *GameError) Error() string {
	if e.Msg == "" {
		return e.Code
	}
	return e.Code + ": " + e.Msg
}

func gameErr(code, format string, args ...any) *GameError {
	return &GameError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// ErrCode extracts the protocol error code from a recoverable game error,
// or "" if err is not one.
func ErrCode(err error) string {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// Host-facing errors.
var (
	ErrMatchOver = errors.New("match already terminated")
	ErrNotFound  = errors.New("no object with that id")
)

// fatalError wraps an engine invariant violation raised inside player-driven
// code paths. The scheduler converts it into a match abort; it is never
// surfaced to player logic.
type fatalError struct {
	err error
}

func (f fatalError) Error() string { return f.err.Error() }

func fatalf(format string, args ...any) fatalError {
	return fatalError{err: fmt.Errorf(format, args...)}
}
