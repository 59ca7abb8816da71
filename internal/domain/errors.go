package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrRoomExists   = errors.New("room already exists")
	ErrRoomFull     = errors.New("room is full")
	ErrRoomNotFound = errors.New("room not found")
	ErrInternal     = errors.New("internal error")

	// ErrAlreadySeated is returned when a push connection already holds a slot.
	ErrAlreadySeated = errors.New("connection already seated in a room")
	ErrNotSeated     = errors.New("not seated in room")
)

var (
	ErrCodeEmpty   = fmt.Errorf("%w: room code required", ErrInvalidInput)
	ErrCodeTooLong = fmt.Errorf("%w: room code too long", ErrInvalidInput)
	ErrNameEmpty   = fmt.Errorf("%w: player name required", ErrInvalidInput)
	ErrNameTooLong = fmt.Errorf("%w: player name too long", ErrInvalidInput)
	ErrStateEmpty  = fmt.Errorf("%w: game state required", ErrInvalidInput)
	ErrStateJSON   = fmt.Errorf("%w: game state must be valid JSON", ErrInvalidInput)
)

// ErrorKind is the stable, transport-facing name of an error class.
type ErrorKind string

const (
	KindInvalidInput  ErrorKind = "InvalidInput"
	KindRoomExists    ErrorKind = "RoomExists"
	KindRoomFull      ErrorKind = "RoomFull"
	KindRoomNotFound  ErrorKind = "RoomNotFound"
	KindAlreadySeated ErrorKind = "AlreadySeated"
	KindNotSeated     ErrorKind = "NotSeated"
	KindInternal      ErrorKind = "Internal"
)

// KindOf classifies err. Anything unrecognised is Internal.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrRoomExists):
		return KindRoomExists
	case errors.Is(err, ErrRoomFull):
		return KindRoomFull
	case errors.Is(err, ErrRoomNotFound):
		return KindRoomNotFound
	case errors.Is(err, ErrAlreadySeated):
		return KindAlreadySeated
	case errors.Is(err, ErrNotSeated):
		return KindNotSeated
	default:
		return KindInternal
	}
}

// PublicMessage is what may be shown to a client. Internal failures never
// leak their detail.
func PublicMessage(err error) string {
	if KindOf(err) == KindInternal {
		return ErrInternal.Error()
	}
	return err.Error()
}
