package poker

import "errors"

var (
	ErrHandInProgress  = errors.New("hand already in progress")
	ErrNotEnoughPlayers = errors.New("fewer than two non-spectator players")
	ErrUnknownPlayer   = errors.New("player not in room")
	ErrSeatTaken       = errors.New("seat already occupied")
	ErrOutOfTurn       = errors.New("action out of turn")
	ErrIllegalAction   = errors.New("action not legal in current state")
	ErrRoomClosed      = errors.New("room closed")
)

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid room state: " + string(e) }

func errInvalidState(msg string) error { return InvalidStateError(msg) }
