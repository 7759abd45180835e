package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/liarsdice/internal/dice"
)

// CommandKind is a verb typed at the prompt.
type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdHelp
	CmdRooms
	CmdCreate
	CmdJoin
	CmdLeave
	CmdDelete
	CmdStart
	CmdBid
	CmdChallenge
	CmdHistory
	CmdQuit
)

// Command is a parsed prompt line.
type Command struct {
	Kind       CommandKind
	Name       string
	RoomID     string
	Password   string
	MaxPlayers int
	Quantity   int
	Face       int
}

const helpText = `Commands:
  rooms                          list rooms
  create <name> [max] [password] open a room (you own it)
  join <room> [password]         join a room
  leave | delete                 leave the room, or close it if you own it
  start                          start the game (owner only)
  bid <quantity> <face>          raise the bid, e.g. "bid 3 5" or just "3 5"
  liar                           challenge the standing bid
  history                        show every move of the game
  quit`

// ParseCommand parses one line typed at the prompt.
func ParseCommand(input string) (Command, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return Command{Kind: CmdNone}, nil
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	// a bare "<quantity> <face>" is a bid
	if _, err := strconv.Atoi(verb); err == nil {
		return parseBid(fields)
	}

	switch verb {
	case "help", "?":
		return Command{Kind: CmdHelp}, nil
	case "rooms", "list", "ls":
		return Command{Kind: CmdRooms}, nil
	case "create", "new":
		if len(args) == 0 || len(args) > 3 {
			return Command{}, fmt.Errorf("usage: create <name> [max] [password]")
		}
		c := Command{Kind: CmdCreate, Name: args[0]}
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return Command{}, fmt.Errorf("max players must be a number, got %q", args[1])
			}
			c.MaxPlayers = n
		}
		if len(args) > 2 {
			c.Password = args[2]
		}
		return c, nil
	case "join":
		if len(args) == 0 || len(args) > 2 {
			return Command{}, fmt.Errorf("usage: join <room> [password]")
		}
		c := Command{Kind: CmdJoin, RoomID: args[0]}
		if len(args) == 2 {
			c.Password = args[1]
		}
		return c, nil
	case "leave":
		return Command{Kind: CmdLeave}, nil
	case "delete":
		return Command{Kind: CmdDelete}, nil
	case "start":
		return Command{Kind: CmdStart}, nil
	case "bid", "raise", "b":
		return parseBid(args)
	case "liar", "challenge", "call", "l":
		return Command{Kind: CmdChallenge}, nil
	case "history", "log":
		return Command{Kind: CmdHistory}, nil
	case "quit", "exit", "q":
		return Command{Kind: CmdQuit}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q, type help", verb)
}

func parseBid(args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, fmt.Errorf("usage: bid <quantity> <face>")
	}
	q, err := strconv.Atoi(args[0])
	if err != nil || q < 1 {
		return Command{}, fmt.Errorf("quantity must be a positive number, got %q", args[0])
	}
	f, err := strconv.Atoi(args[1])
	if err != nil || !dice.ValidFace(f) {
		return Command{}, fmt.Errorf("face must be between %d and %d, got %q", dice.MinFace, dice.MaxFace, args[1])
	}
	return Command{Kind: CmdBid, Quantity: q, Face: f}, nil
}
