// Package protocol defines the JSON messages exchanged over the websocket. Every
// message is an Envelope whose Data holds one of the payload types below.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/lobby"
)

// MessageType identifies the payload of an envelope.
type MessageType string

const (
	// Client to server
	TypeHello      MessageType = "hello"
	TypeListRooms  MessageType = "list_rooms"
	TypeCreateRoom MessageType = "create_room"
	TypeJoinRoom   MessageType = "join_room"
	TypeLeaveRoom  MessageType = "leave_room"
	TypeDeleteRoom MessageType = "delete_room"
	TypeStartGame  MessageType = "start_game"
	TypeBid        MessageType = "bid"
	TypeChallenge  MessageType = "challenge"
	TypeGetState   MessageType = "get_state"
	TypeGetHistory MessageType = "get_history"

	// Server to client
	TypeWelcome     MessageType = "welcome"
	TypeRoomList    MessageType = "room_list"
	TypeRoomUpdate  MessageType = "room_update"
	TypeRoomLeft    MessageType = "room_left"
	TypeGameStarted MessageType = "game_started"
	TypeGameState   MessageType = "game_state"
	TypeGameHistory MessageType = "game_history"
	TypeError       MessageType = "error"
)

func (t MessageType) String() string {
	return string(t)
}

// Error codes carried by ErrorData.
const (
	CodePermissionDenied = "permission_denied"
	CodeNotEnoughPlayers = "not_enough_players"
	CodeWrongTurn        = "wrong_turn"
	CodeInvalidAction    = "invalid_action"
	CodeNotFound         = "not_found"
	CodeBadRequest       = "bad_request"
	CodeNotAuthenticated = "not_authenticated"
	CodeUnknownMessage   = "unknown_message"
	CodeNameTaken        = "name_taken"
	CodeInternal         = "internal_error"
)

// Envelope is the frame around every message.
type Envelope struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewEnvelope encodes data into an envelope stamped with the current time.
func NewEnvelope(t MessageType, data any) (*Envelope, error) {
	env := &Envelope{Type: t, Timestamp: time.Now()}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", t, err)
		}
		env.Data = b
	}
	return env, nil
}

// Decode unmarshals the payload into v.
func (e *Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s message has no data", e.Type)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", e.Type, err)
	}
	return nil
}

// Client to server payloads

type HelloData struct {
	PlayerName string `json:"playerName"`
}

type CreateRoomData struct {
	Name       string `json:"name"`
	Password   string `json:"password,omitempty"`
	MaxPlayers int    `json:"maxPlayers,omitempty"`
}

type JoinRoomData struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password,omitempty"`
}

// RoomRefData names a room for leave_room, delete_room and start_game.
type RoomRefData struct {
	RoomID string `json:"roomId"`
}

// GameRefData names a game for challenge, get_state and get_history.
type GameRefData struct {
	GameID string `json:"gameId"`
}

type BidData struct {
	GameID    string `json:"gameId"`
	Quantity  int    `json:"quantity"`
	FaceValue int    `json:"faceValue"`
}

// Server to client payloads

type WelcomeData struct {
	PlayerID string `json:"playerId"`
}

type RoomListData struct {
	Rooms []lobby.Room `json:"rooms"`
}

type RoomUpdateData struct {
	Room lobby.Room `json:"room"`
}

type GameStartedData struct {
	RoomID string `json:"roomId"`
	GameID string `json:"gameId"`
}

// GameStateData is a player's filtered view of a game.
type GameStateData = game.View

type GameHistoryData struct {
	GameID string          `json:"gameId"`
	Moves  []game.MoveView `json:"moves"`
	Result *game.Result    `json:"result,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ErrorData) Error() string {
	return e.Code + ": " + e.Message
}
