// Package tui is the terminal client: a Bubble Tea program that shows the
// player's dice, the table and the game log, and takes commands at a prompt.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/lobby"
	"github.com/lox/liarsdice/internal/protocol"
)

// Backend is the server connection the model drives. *client.Client
// satisfies it.
type Backend interface {
	Player() string
	Events() <-chan *protocol.Envelope
	ListRooms(ctx context.Context) ([]lobby.Room, error)
	CreateRoom(ctx context.Context, name, password string, maxPlayers int) (lobby.Room, error)
	JoinRoom(ctx context.Context, roomID, password string) (lobby.Room, error)
	LeaveRoom(ctx context.Context, roomID string) error
	DeleteRoom(ctx context.Context, roomID string) error
	History(ctx context.Context, gameID string) (protocol.GameHistoryData, error)
	StartGame(roomID string) error
	Bid(gameID string, quantity, face int) error
	Challenge(gameID string) error
}

// Model represents the Bubble Tea model for a liarsdice session
type Model struct {
	backend Backend
	logger  *log.Logger
	ctx     context.Context
	timeout time.Duration

	// UI components
	logViewport viewport.Model
	input       textinput.Model

	// State
	gameLog     []string
	room        *lobby.Room
	gameID      string
	view        *game.View
	lastSeq     int
	quitting    bool
	focusedPane int // 0 = log, 1 = input

	// Dimensions
	width       int
	height      int
	initialized bool
}

type eventMsg struct{ env *protocol.Envelope }

type disconnectedMsg struct{}

// resultMsg carries the outcome of a command run off the update loop.
type resultMsg struct {
	lines []string
	err   error
	room  *lobby.Room
	left  bool
}

// New creates the model. Requests time out after timeout.
func New(ctx context.Context, backend Backend, logger *log.Logger, timeout time.Duration) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Type a command, or help"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &Model{
		backend:     backend,
		logger:      logger.WithPrefix("tui"),
		ctx:         ctx,
		timeout:     timeout,
		logViewport: vp,
		input:       ti,
		focusedPane: 1,
	}
	m.addLog(HeaderStyle.Render(fmt.Sprintf(" Liar's Dice: playing as %s ", backend.Player())))
	m.addLog(InfoStyle.Render("Type help for commands"))
	return m
}

// Run starts the program and blocks until the player quits or ctx ends.
func Run(ctx context.Context, backend Backend, logger *log.Logger, timeout time.Duration) error {
	p := tea.NewProgram(New(ctx, backend, logger, timeout), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.backend.Events()))
}

func waitForEvent(events <-chan *protocol.Envelope) tea.Cmd {
	return func() tea.Msg {
		env, ok := <-events
		if !ok {
			return disconnectedMsg{}
		}
		return eventMsg{env}
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case eventMsg:
		m.handleEvent(msg.env)
		cmds = append(cmds, waitForEvent(m.backend.Events()))

	case disconnectedMsg:
		m.addLog(ErrorStyle.Render("Disconnected from server"))

	case resultMsg:
		m.handleResult(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.input.Focus()
			} else {
				m.focusedPane = 0
				m.input.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				line := strings.TrimSpace(m.input.Value())
				m.input.SetValue("")
				if cmd := m.submit(line); cmd != nil {
					cmds = append(cmds, cmd)
				}
				if m.quitting {
					return m, tea.Quit
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit runs one prompt line. Requests run as commands so the UI never
// waits on the network.
func (m *Model) submit(line string) tea.Cmd {
	c, err := ParseCommand(line)
	if err != nil {
		m.addLog(ErrorStyle.Render(err.Error()))
		return nil
	}

	switch c.Kind {
	case CmdNone:
		return nil
	case CmdHelp:
		for _, l := range strings.Split(helpText, "\n") {
			m.addLog(InfoStyle.Render(l))
		}
		return nil
	case CmdQuit:
		m.quitting = true
		return nil
	case CmdRooms:
		return m.request(func(ctx context.Context) resultMsg {
			rooms, err := m.backend.ListRooms(ctx)
			if err != nil {
				return resultMsg{err: err}
			}
			if len(rooms) == 0 {
				return resultMsg{lines: []string{"No rooms yet, create one"}}
			}
			lines := make([]string, 0, len(rooms))
			for _, r := range rooms {
				lines = append(lines, describeRoom(r))
			}
			return resultMsg{lines: lines}
		})
	case CmdCreate:
		return m.request(func(ctx context.Context) resultMsg {
			r, err := m.backend.CreateRoom(ctx, c.Name, c.Password, c.MaxPlayers)
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{room: &r, lines: []string{"Created " + describeRoom(r)}}
		})
	case CmdJoin:
		return m.request(func(ctx context.Context) resultMsg {
			r, err := m.backend.JoinRoom(ctx, c.RoomID, c.Password)
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{room: &r, lines: []string{"Joined " + describeRoom(r)}}
		})
	case CmdHistory:
		gameID := m.gameID
		if gameID == "" {
			m.addLog(ErrorStyle.Render("No game yet"))
			return nil
		}
		return m.request(func(ctx context.Context) resultMsg {
			h, err := m.backend.History(ctx, gameID)
			if err != nil {
				return resultMsg{err: err}
			}
			lines := []string{fmt.Sprintf("History of %s:", gameID)}
			for _, mv := range h.Moves {
				lines = append(lines, fmt.Sprintf("  round %d: %s", mv.Round, mv.DisplayText))
			}
			return resultMsg{lines: lines}
		})
	}

	// everything else needs a room, and bids need a game
	if m.room == nil {
		m.addLog(ErrorStyle.Render("Join or create a room first"))
		return nil
	}
	roomID := m.room.ID
	switch c.Kind {
	case CmdLeave:
		return m.request(func(ctx context.Context) resultMsg {
			return resultMsg{err: m.backend.LeaveRoom(ctx, roomID), left: true, lines: []string{"Left the room"}}
		})
	case CmdDelete:
		return m.request(func(ctx context.Context) resultMsg {
			return resultMsg{err: m.backend.DeleteRoom(ctx, roomID), left: true, lines: []string{"Room deleted"}}
		})
	case CmdStart:
		m.report(m.backend.StartGame(roomID))
		return nil
	}

	if m.gameID == "" {
		m.addLog(ErrorStyle.Render("No game in progress"))
		return nil
	}
	switch c.Kind {
	case CmdBid:
		m.report(m.backend.Bid(m.gameID, c.Quantity, c.Face))
	case CmdChallenge:
		m.report(m.backend.Challenge(m.gameID))
	}
	return nil
}

func (m *Model) request(fn func(ctx context.Context) resultMsg) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()
		return fn(ctx)
	}
}

func (m *Model) report(err error) {
	if err != nil {
		m.addLog(ErrorStyle.Render(err.Error()))
	}
}

func (m *Model) handleResult(res resultMsg) {
	if res.err != nil {
		m.addLog(ErrorStyle.Render(res.err.Error()))
		return
	}
	if res.room != nil {
		m.room = res.room
	}
	if res.left {
		m.room = nil
	}
	for _, l := range res.lines {
		m.addLog(l)
	}
}

// handleEvent applies a message pushed by the server.
func (m *Model) handleEvent(env *protocol.Envelope) {
	m.logger.Debug("Event", "type", env.Type)

	switch env.Type {
	case protocol.TypeRoomUpdate:
		var data protocol.RoomUpdateData
		if err := env.Decode(&data); err != nil {
			m.logger.Error("Bad room update", "error", err)
			return
		}
		if m.room == nil || m.room.ID != data.Room.ID {
			return
		}
		for _, p := range data.Room.Members {
			if !slices.Contains(m.room.Members, p) {
				m.addLog(SuccessStyle.Render(p + " joined the room"))
			}
		}
		for _, p := range m.room.Members {
			if !slices.Contains(data.Room.Members, p) {
				m.addLog(WarningStyle.Render(p + " left the room"))
			}
		}
		m.room = &data.Room

	case protocol.TypeRoomLeft:
		var data protocol.RoomRefData
		if err := env.Decode(&data); err == nil && m.room != nil && m.room.ID == data.RoomID {
			m.addLog(WarningStyle.Render("The room was closed"))
			m.room = nil
		}

	case protocol.TypeGameStarted:
		var data protocol.GameStartedData
		if err := env.Decode(&data); err != nil {
			m.logger.Error("Bad game_started", "error", err)
			return
		}
		m.gameID = data.GameID
		m.view = nil
		m.lastSeq = 0
		m.addLog(HeaderStyle.Render(" New game "))

	case protocol.TypeGameState:
		var v game.View
		if err := env.Decode(&v); err != nil {
			m.logger.Error("Bad game_state", "error", err)
			return
		}
		m.applyView(v)

	case protocol.TypeError:
		var data protocol.ErrorData
		if err := env.Decode(&data); err == nil {
			m.addLog(ErrorStyle.Render(data.Message))
		}
	}
}

func (m *Model) applyView(v game.View) {
	if m.gameID == "" {
		m.gameID = v.GameID
	}
	if v.GameID != m.gameID {
		return
	}
	prevRound := 0
	if m.view != nil {
		prevRound = m.view.RoundNumber
	}
	m.view = &v

	for _, mv := range v.History {
		if mv.Seq <= m.lastSeq {
			continue
		}
		m.lastSeq = mv.Seq
		style := GameLogStyle
		if mv.Outcome != nil {
			style = WarningStyle
		}
		m.addLog(style.Render(mv.DisplayText))
	}

	me := m.backend.Player()
	switch v.Status {
	case game.InProgress:
		if v.RoundNumber != prevRound {
			m.addLog(InfoStyle.Render(fmt.Sprintf("Round %d: %d dice on the table", v.RoundNumber, v.TotalDice)))
		}
		if v.CurrentPlayerID == me {
			m.addLog(CurrentPlayerStyle.Render("Your turn. " + BidHint(v)))
		}
	case game.Finished:
		if v.WinnerID == me {
			m.addLog(SuccessStyle.Render("You win!"))
		} else {
			m.addLog(WarningStyle.Render(v.WinnerID + " wins the game"))
		}
	case game.Cancelled:
		m.addLog(WarningStyle.Render("The game was cancelled"))
	}
}

// BidHint describes the lowest bid that may be placed next.
func BidHint(v game.View) string {
	var current game.Bid
	if v.CurrentBid != nil {
		current = game.Bid{Quantity: v.CurrentBid.Quantity, Face: v.CurrentBid.FaceValue}
	}
	next := current.Next()
	if v.CurrentBid == nil {
		return fmt.Sprintf("Open with any bid, lowest is %s", next)
	}
	return fmt.Sprintf("Raise to at least %s, or call liar", next)
}

func describeRoom(r lobby.Room) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %q (%d/%d) owner %s", r.ID, r.Name, len(r.Members), r.MaxPlayers, r.Owner)
	if r.HasPassword {
		b.WriteString(" [password]")
	}
	if r.GameStatus == game.InProgress.String() {
		b.WriteString(" [playing]")
	}
	return b.String()
}

// addLog adds an entry to the game log and scrolls to it.
func (m *Model) addLog(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(max(m.width-2, 1)).
		Render(actionContent)

	sidebarContent := m.renderSidebar()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 25)
	paneHeight := max(m.height-actionHeight-4, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	logWidth := max(m.width-sidebarWidth-4, 1)
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(logWidth).
		Height(paneHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

// renderSidebar lists the room and the players at the table.
func (m *Model) renderSidebar() string {
	var b strings.Builder
	if m.room == nil {
		b.WriteString(InfoStyle.Render("Not in a room"))
		return b.String()
	}
	b.WriteString(WarningStyle.Render(m.room.Name))
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(m.room.ID))
	b.WriteString("\n\n")

	if m.view == nil || len(m.view.Players) == 0 {
		for _, p := range m.room.Members {
			line := "  " + p
			if p == m.room.Owner {
				line += " (owner)"
			}
			b.WriteString(PlayerInfoStyle.Render(line))
			b.WriteString("\n")
		}
		return b.String()
	}

	fmt.Fprintf(&b, "Round %d, %d dice\n", m.view.RoundNumber, m.view.TotalDice)
	for _, p := range m.view.Players {
		line := fmt.Sprintf("  %s: %d", p.ID, p.DieCount)
		switch {
		case !p.Active:
			b.WriteString(EliminatedStyle.Render(line))
		case p.ID == m.view.CurrentPlayerID:
			b.WriteString(CurrentPlayerStyle.Render("> " + strings.TrimPrefix(line, "  ")))
		default:
			b.WriteString(PlayerInfoStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderActionPane shows the player's dice, the bid and the prompt.
func (m *Model) renderActionPane() string {
	var b strings.Builder
	me := m.backend.Player()

	if v := m.view; v != nil && v.Status == game.InProgress {
		if p, ok := v.Player(me); ok {
			b.WriteString("Your dice: ")
			b.WriteString(FormatDice(p.Dice))
			b.WriteString("\n")
		}
		if v.CurrentBid != nil {
			b.WriteString(BidStyle.Render(fmt.Sprintf("Bid: %d x %d by %s", v.CurrentBid.Quantity, v.CurrentBid.FaceValue, v.CurrentBid.PlayerID)))
			b.WriteString("\n")
		}
		if v.CurrentPlayerID == me {
			b.WriteString(CurrentPlayerStyle.Render(BidHint(*v)))
		} else {
			b.WriteString(InfoStyle.Render("Waiting for " + v.CurrentPlayerID))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.focusedPane == 0 {
		b.WriteString(InfoStyle.Render("Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"))
	} else {
		b.WriteString(InfoStyle.Render("Tab to scroll log • Enter to submit • Ctrl+C to quit"))
	}
	return b.String()
}

var faceGlyphs = [...]string{"⚀", "⚁", "⚂", "⚃", "⚄", "⚅"}

// FormatDice renders faces as die glyphs followed by their values.
func FormatDice(faces []int) string {
	if len(faces) == 0 {
		return InfoStyle.Render("none")
	}
	out := make([]string, len(faces))
	for i, f := range faces {
		glyph := "?"
		if f >= 1 && f <= len(faceGlyphs) {
			glyph = faceGlyphs[f-1]
		}
		out[i] = DiceStyle.Render(fmt.Sprintf("%s %d", glyph, f))
	}
	return strings.Join(out, "  ")
}
