// Package client is a websocket client for the liarsdice server, used by the
// terminal UI and the bot.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/lobby"
	"github.com/lox/liarsdice/internal/protocol"
)

const (
	writeWait    = 10 * time.Second
	pingPeriod   = 54 * time.Second
	bufferSize   = 256
	closeTimeout = time.Second
)

// ErrClosed is returned once the connection has gone away.
var ErrClosed = errors.New("client closed")

// Client represents a WebSocket connection to a liarsdice server. Replies to
// requests are matched by request id; everything else (pushed game states,
// room updates, errors for fire-and-forget messages) arrives on Events in the
// order the server sent it.
type Client struct {
	serverURL string
	conn      *websocket.Conn
	send      chan *protocol.Envelope
	events    chan *protocol.Envelope
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	nextID    atomic.Uint64

	mu      sync.Mutex
	pending map[string]chan *protocol.Envelope
	player  string
}

// New creates a client for serverURL. http(s) URLs are converted to ws(s).
func New(serverURL string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		serverURL: serverURL,
		send:      make(chan *protocol.Envelope, bufferSize),
		events:    make(chan *protocol.Envelope, bufferSize),
		logger:    logger.WithPrefix("client"),
		ctx:       ctx,
		cancel:    cancel,
		pending:   make(map[string]chan *protocol.Envelope),
	}
}

// WebSocketURL converts a server URL into its websocket endpoint.
func WebSocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	return u.String(), nil
}

// Connect establishes a WebSocket connection to the server
func (c *Client) Connect(ctx context.Context) error {
	wsURL, err := WebSocketURL(c.serverURL)
	if err != nil {
		return err
	}
	c.logger.Info("Connecting to server", "url", wsURL)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	c.conn = conn

	go c.readPump()
	go c.writePump()

	c.logger.Info("Connected to server")
	return nil
}

// Close disconnects from the server. Events is closed once the read loop exits.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			deadline := time.Now().Add(closeTimeout)
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			_ = c.conn.Close()
		}
		c.logger.Info("Disconnected from server")
	})
	return nil
}

// Done is closed when the client has shut down.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Events delivers every message that is not a reply to a pending request.
func (c *Client) Events() <-chan *protocol.Envelope {
	return c.events
}

// Player returns the name the client said hello with.
func (c *Client) Player() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player
}

// Send queues a message without waiting for a reply.
func (c *Client) Send(t protocol.MessageType, data any) error {
	env, err := protocol.NewEnvelope(t, data)
	if err != nil {
		return err
	}
	return c.enqueue(env)
}

func (c *Client) enqueue(env *protocol.Envelope) error {
	select {
	case <-c.ctx.Done():
		return ErrClosed
	default:
	}
	select {
	case c.send <- env:
		return nil
	case <-c.ctx.Done():
		return ErrClosed
	default:
		return fmt.Errorf("send buffer full")
	}
}

// Request sends a message and waits for the reply carrying its request id. An
// error reply is returned as a protocol.ErrorData error.
func (c *Client) Request(ctx context.Context, t protocol.MessageType, data any) (*protocol.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", t, err)
	}
	env, err := protocol.NewEnvelope(t, data)
	if err != nil {
		return nil, err
	}
	env.RequestID = strconv.FormatUint(c.nextID.Add(1), 10)

	reply := make(chan *protocol.Envelope, 1)
	c.mu.Lock()
	c.pending[env.RequestID] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, env.RequestID)
		c.mu.Unlock()
	}()

	if err := c.enqueue(env); err != nil {
		return nil, err
	}

	select {
	case resp := <-reply:
		if resp.Type == protocol.TypeError {
			var e protocol.ErrorData
			if err := resp.Decode(&e); err != nil {
				return nil, err
			}
			return nil, e
		}
		return resp, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for reply to %s: %w", t, ctx.Err())
	case <-c.ctx.Done():
		return nil, ErrClosed
	}
}

func (c *Client) requestInto(ctx context.Context, t protocol.MessageType, data, out any) error {
	resp, err := c.Request(ctx, t, data)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

// Hello identifies the connection as player.
func (c *Client) Hello(ctx context.Context, player string) error {
	var welcome protocol.WelcomeData
	if err := c.requestInto(ctx, protocol.TypeHello, protocol.HelloData{PlayerName: player}, &welcome); err != nil {
		return err
	}
	c.mu.Lock()
	c.player = welcome.PlayerID
	c.mu.Unlock()
	return nil
}

// ListRooms returns every open room.
func (c *Client) ListRooms(ctx context.Context) ([]lobby.Room, error) {
	var data protocol.RoomListData
	err := c.requestInto(ctx, protocol.TypeListRooms, nil, &data)
	return data.Rooms, err
}

// CreateRoom opens a room owned by this player. maxPlayers of zero takes the
// server default.
func (c *Client) CreateRoom(ctx context.Context, name, password string, maxPlayers int) (lobby.Room, error) {
	var data protocol.RoomUpdateData
	err := c.requestInto(ctx, protocol.TypeCreateRoom,
		protocol.CreateRoomData{Name: name, Password: password, MaxPlayers: maxPlayers}, &data)
	return data.Room, err
}

// JoinRoom joins a room, with its password if it has one.
func (c *Client) JoinRoom(ctx context.Context, roomID, password string) (lobby.Room, error) {
	var data protocol.RoomUpdateData
	err := c.requestInto(ctx, protocol.TypeJoinRoom, protocol.JoinRoomData{RoomID: roomID, Password: password}, &data)
	return data.Room, err
}

// LeaveRoom leaves a room.
func (c *Client) LeaveRoom(ctx context.Context, roomID string) error {
	return c.requestInto(ctx, protocol.TypeLeaveRoom, protocol.RoomRefData{RoomID: roomID}, nil)
}

// DeleteRoom closes a room this player owns.
func (c *Client) DeleteRoom(ctx context.Context, roomID string) error {
	return c.requestInto(ctx, protocol.TypeDeleteRoom, protocol.RoomRefData{RoomID: roomID}, nil)
}

// State fetches the current view of a game.
func (c *Client) State(ctx context.Context, gameID string) (game.View, error) {
	var v game.View
	err := c.requestInto(ctx, protocol.TypeGetState, protocol.GameRefData{GameID: gameID}, &v)
	return v, err
}

// History fetches the moves of a game.
func (c *Client) History(ctx context.Context, gameID string) (protocol.GameHistoryData, error) {
	var h protocol.GameHistoryData
	err := c.requestInto(ctx, protocol.TypeGetHistory, protocol.GameRefData{GameID: gameID}, &h)
	return h, err
}

// StartGame asks the server to start the room's game. Success is announced
// with game_started on Events; failures arrive there as errors.
func (c *Client) StartGame(roomID string) error {
	return c.Send(protocol.TypeStartGame, protocol.RoomRefData{RoomID: roomID})
}

// Bid places a bid. The resulting game state arrives on Events.
func (c *Client) Bid(gameID string, quantity, face int) error {
	return c.Send(protocol.TypeBid, protocol.BidData{GameID: gameID, Quantity: quantity, FaceValue: face})
}

// Challenge calls the standing bid.
func (c *Client) Challenge(gameID string) error {
	return c.Send(protocol.TypeChallenge, protocol.GameRefData{GameID: gameID})
}

// readPump handles incoming messages from the server
func (c *Client) readPump() {
	defer func() {
		close(c.events)
		_ = c.Close()
	}()

	for {
		var env protocol.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.logger.Debug("Received message", "type", env.Type, "request", env.RequestID)

		if env.RequestID != "" {
			c.mu.Lock()
			reply, ok := c.pending[env.RequestID]
			c.mu.Unlock()
			if ok {
				reply <- &env
				continue
			}
		}

		select {
		case c.events <- &env:
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump handles outgoing messages to the server
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case env := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				_ = c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}
