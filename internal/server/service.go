package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/history"
	"github.com/lox/liarsdice/internal/lobby"
	"github.com/lox/liarsdice/internal/protocol"
)

const historyTimeout = 5 * time.Second

// Session is one client's side of the conversation.
type Session interface {
	Subscriber
	Player() string
	SetPlayer(string)
}

// Service routes client messages to the lobby and the games it owns. Replies
// and errors go only to the session that sent the request; game state reaches
// players through the Hub.
type Service struct {
	lobby  *lobby.Manager
	hub    *Hub
	store  history.Store
	logger *log.Logger
}

// NewService wires a service. store may be nil, in which case history is only
// available for games still held by the lobby.
func NewService(rooms *lobby.Manager, hub *Hub, store history.Store, logger *log.Logger) *Service {
	return &Service{
		lobby:  rooms,
		hub:    hub,
		store:  store,
		logger: logger.WithPrefix("service"),
	}
}

// GameCreated is installed as the lobby's game-created hook. It tells the hub
// who is playing and announces the game to the room before the first update.
func (s *Service) GameCreated(roomID string, g *game.Game, roster game.Roster) {
	s.hub.Track(g.ID(), roster.Players)
	env, err := protocol.NewEnvelope(protocol.TypeGameStarted, protocol.GameStartedData{RoomID: roomID, GameID: g.ID()})
	if err != nil {
		s.logger.Error("Failed to encode game_started", "error", err)
		return
	}
	s.hub.SendToPlayers(roster.Players, env)
}

// Disconnect forgets a closed session.
func (s *Service) Disconnect(sess Session) {
	if player := sess.Player(); player != "" {
		s.hub.Unregister(player, sess)
		s.logger.Info("Player disconnected", "player", player)
	}
}

// Handle implements Handler.
func (s *Service) Handle(sess Session, env *protocol.Envelope) {
	if env.Type == protocol.TypeHello {
		s.handleHello(sess, env)
		return
	}
	player := sess.Player()
	if player == "" {
		s.replyError(sess, env, protocol.CodeNotAuthenticated, "say hello first")
		return
	}

	var err error
	switch env.Type {
	case protocol.TypeListRooms:
		err = s.reply(sess, env, protocol.TypeRoomList, protocol.RoomListData{Rooms: s.lobby.List()})
	case protocol.TypeCreateRoom:
		err = s.handleCreateRoom(sess, env, player)
	case protocol.TypeJoinRoom:
		err = s.handleJoinRoom(sess, env, player)
	case protocol.TypeLeaveRoom:
		err = s.handleLeaveRoom(sess, env, player)
	case protocol.TypeDeleteRoom:
		err = s.handleDeleteRoom(sess, env, player)
	case protocol.TypeStartGame:
		err = s.handleStartGame(env, player)
	case protocol.TypeBid:
		err = s.handleBid(env, player)
	case protocol.TypeChallenge:
		err = s.handleChallenge(env, player)
	case protocol.TypeGetState:
		err = s.handleGetState(sess, env, player)
	case protocol.TypeGetHistory:
		err = s.handleGetHistory(sess, env)
	default:
		s.replyError(sess, env, protocol.CodeUnknownMessage, "unknown message type: "+env.Type.String())
		return
	}

	if err != nil {
		var bad badRequest
		if errors.As(err, &bad) {
			s.replyError(sess, env, protocol.CodeBadRequest, bad.Error())
			return
		}
		s.logger.Debug("Request failed", "type", env.Type, "player", player, "error", err)
		s.replyError(sess, env, ErrorCode(err), err.Error())
	}
}

type badRequest struct{ error }

func decode(env *protocol.Envelope, v any) error {
	if err := env.Decode(v); err != nil {
		return badRequest{err}
	}
	return nil
}

func (s *Service) handleHello(sess Session, env *protocol.Envelope) {
	var data protocol.HelloData
	if err := decode(env, &data); err != nil || data.PlayerName == "" {
		s.replyError(sess, env, protocol.CodeBadRequest, "player name required")
		return
	}
	if current := sess.Player(); current != "" && current != data.PlayerName {
		s.replyError(sess, env, protocol.CodeBadRequest, "already connected as "+current)
		return
	}

	// a live connection keeps its name; the dice it sees go to it alone
	if !s.hub.Claim(data.PlayerName, sess) {
		s.replyError(sess, env, protocol.CodeNameTaken, data.PlayerName+" is already connected")
		return
	}
	sess.SetPlayer(data.PlayerName)
	s.logger.Info("Player connected", "player", data.PlayerName)
	_ = s.reply(sess, env, protocol.TypeWelcome, protocol.WelcomeData{PlayerID: data.PlayerName})
}

func (s *Service) handleCreateRoom(sess Session, env *protocol.Envelope, player string) error {
	var data protocol.CreateRoomData
	if err := decode(env, &data); err != nil {
		return err
	}
	room, err := s.lobby.CreateRoom(player, data.Name, data.Password, data.MaxPlayers)
	if err != nil {
		return err
	}
	return s.reply(sess, env, protocol.TypeRoomUpdate, protocol.RoomUpdateData{Room: room})
}

func (s *Service) handleJoinRoom(sess Session, env *protocol.Envelope, player string) error {
	var data protocol.JoinRoomData
	if err := decode(env, &data); err != nil {
		return err
	}
	room, err := s.lobby.Join(data.RoomID, player, data.Password)
	if err != nil {
		return err
	}
	if err := s.reply(sess, env, protocol.TypeRoomUpdate, protocol.RoomUpdateData{Room: room}); err != nil {
		return err
	}
	s.broadcastRoom(room, player)
	return nil
}

func (s *Service) handleLeaveRoom(sess Session, env *protocol.Envelope, player string) error {
	var data protocol.RoomRefData
	if err := decode(env, &data); err != nil {
		return err
	}
	if err := s.lobby.Leave(data.RoomID, player); err != nil {
		return err
	}
	if err := s.reply(sess, env, protocol.TypeRoomLeft, data); err != nil {
		return err
	}
	if room, err := s.lobby.Get(data.RoomID); err == nil {
		s.broadcastRoom(room, player)
	}
	return nil
}

func (s *Service) handleDeleteRoom(sess Session, env *protocol.Envelope, player string) error {
	var data protocol.RoomRefData
	if err := decode(env, &data); err != nil {
		return err
	}
	room, err := s.lobby.Get(data.RoomID)
	if err != nil {
		return err
	}
	if err := s.lobby.Delete(data.RoomID, player); err != nil {
		return err
	}
	if err := s.reply(sess, env, protocol.TypeRoomLeft, data); err != nil {
		return err
	}
	left, err := protocol.NewEnvelope(protocol.TypeRoomLeft, data)
	if err != nil {
		return err
	}
	s.hub.SendToPlayers(others(room.Members, player), left)
	return nil
}

func (s *Service) handleStartGame(env *protocol.Envelope, player string) error {
	var data protocol.RoomRefData
	if err := decode(env, &data); err != nil {
		return err
	}
	// game_started and the first game_state reach every member through the hub
	_, err := s.lobby.StartGame(data.RoomID, player)
	return err
}

func (s *Service) handleBid(env *protocol.Envelope, player string) error {
	var data protocol.BidData
	if err := decode(env, &data); err != nil {
		return err
	}
	g, err := s.lobby.Game(data.GameID)
	if err != nil {
		return err
	}
	return g.Apply(player, game.BidAction(data.Quantity, data.FaceValue))
}

func (s *Service) handleChallenge(env *protocol.Envelope, player string) error {
	var data protocol.GameRefData
	if err := decode(env, &data); err != nil {
		return err
	}
	g, err := s.lobby.Game(data.GameID)
	if err != nil {
		return err
	}
	return g.Apply(player, game.ChallengeAction())
}

// handleGetState answers with the caller's view. Callers outside the game get
// the public view and are subscribed to it as spectators.
func (s *Service) handleGetState(sess Session, env *protocol.Envelope, player string) error {
	var data protocol.GameRefData
	if err := decode(env, &data); err != nil {
		return err
	}
	g, err := s.lobby.Game(data.GameID)
	if err != nil {
		return err
	}
	view, err := g.ViewFor(player)
	if errors.Is(err, game.ErrNotFound) {
		view = g.PublicView()
		s.hub.Watch(g.ID(), sess)
	} else if err != nil {
		return err
	}
	return s.reply(sess, env, protocol.TypeGameState, view)
}

func (s *Service) handleGetHistory(sess Session, env *protocol.Envelope) error {
	var data protocol.GameRefData
	if err := decode(env, &data); err != nil {
		return err
	}
	hist, err := s.History(context.Background(), data.GameID)
	if err != nil {
		return err
	}
	return s.reply(sess, env, protocol.TypeGameHistory, hist)
}

// History returns a game's moves, from the lobby while it still holds the game,
// otherwise from the history store.
func (s *Service) History(ctx context.Context, gameID string) (protocol.GameHistoryData, error) {
	if g, err := s.lobby.Game(gameID); err == nil {
		out := protocol.GameHistoryData{GameID: gameID, Moves: moveViews(g.History())}
		if rec, err := s.load(ctx, gameID); err == nil {
			out.Result = rec.Result
		}
		return out, nil
	}

	rec, err := s.load(ctx, gameID)
	if err != nil {
		return protocol.GameHistoryData{}, err
	}
	return protocol.GameHistoryData{GameID: gameID, Moves: moveViews(rec.Moves), Result: rec.Result}, nil
}

func (s *Service) load(ctx context.Context, gameID string) (history.Record, error) {
	if s.store == nil {
		return history.Record{}, fmt.Errorf("%w: %s", history.ErrNotFound, gameID)
	}
	ctx, cancel := context.WithTimeout(ctx, historyTimeout)
	defer cancel()
	rec, err := s.store.Load(ctx, gameID)
	if err != nil && !errors.Is(err, history.ErrNotFound) {
		s.logger.Warn("History lookup failed", "game", gameID, "error", err)
	}
	return rec, err
}

func moveViews(moves []game.Move) []game.MoveView {
	out := make([]game.MoveView, len(moves))
	for i, m := range moves {
		out[i] = game.NewMoveView(m)
	}
	return out
}

func (s *Service) broadcastRoom(room lobby.Room, except string) {
	env, err := protocol.NewEnvelope(protocol.TypeRoomUpdate, protocol.RoomUpdateData{Room: room})
	if err != nil {
		s.logger.Error("Failed to encode room_update", "error", err)
		return
	}
	s.hub.SendToPlayers(others(room.Members, except), env)
}

func others(members []string, except string) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m != except {
			out = append(out, m)
		}
	}
	return out
}

func (s *Service) reply(sess Session, req *protocol.Envelope, t protocol.MessageType, data any) error {
	env, err := protocol.NewEnvelope(t, data)
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	env.RequestID = req.RequestID
	return sess.Send(env)
}

func (s *Service) replyError(sess Session, req *protocol.Envelope, code, message string) {
	env, err := protocol.NewEnvelope(protocol.TypeError, protocol.ErrorData{Code: code, Message: message})
	if err != nil {
		s.logger.Error("Failed to create error message", "error", err)
		return
	}
	env.RequestID = req.RequestID
	_ = sess.Send(env)
}
