package lobby

import (
	"fmt"

	"github.com/lox/liarsdice/internal/game"
)

// Room errors wrap the engine's error kinds so the gateway maps both with the
// same table.
var (
	ErrRoomNotFound = fmt.Errorf("room %w", game.ErrNotFound)
	ErrNotMember    = fmt.Errorf("room member %w", game.ErrNotFound)
	ErrRoomFull     = fmt.Errorf("%w: room is full", game.ErrInvalidAction)
	ErrGameActive   = fmt.Errorf("%w: room already has an active game", game.ErrInvalidAction)
	ErrInvalidRoom  = fmt.Errorf("%w: invalid room", game.ErrInvalidAction)
	ErrBadPassword  = fmt.Errorf("%w: invalid room password", game.ErrPermission)
	ErrNotOwner     = fmt.Errorf("%w: only the room owner can do that", game.ErrPermission)
)
