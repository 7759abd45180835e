package server

import (
	"errors"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/protocol"
)

// ErrorCode maps an engine or lobby error to the code sent to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrPermission):
		return protocol.CodePermissionDenied
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return protocol.CodeNotEnoughPlayers
	case errors.Is(err, game.ErrWrongTurn):
		return protocol.CodeWrongTurn
	case errors.Is(err, game.ErrInvalidAction):
		return protocol.CodeInvalidAction
	case errors.Is(err, game.ErrNotFound):
		return protocol.CodeNotFound
	default:
		return protocol.CodeInternal
	}
}
