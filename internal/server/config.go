package server

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/history"
)

// Config represents the complete server configuration
type Config struct {
	Server  ServerSettings  `hcl:"server,block"`
	Rules   *RulesConfig    `hcl:"rules,block"`
	History *history.Config `hcl:"history,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// RulesConfig sets the rules for every game the server runs
type RulesConfig struct {
	StartingDice int  `hcl:"starting_dice,optional"`
	WildFace     *int `hcl:"wild_face,optional"`
	MaxPlayers   int  `hcl:"max_players,optional"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	wild := game.DefaultWildFace
	hist := history.DefaultConfig()
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Rules: &RulesConfig{
			StartingDice: game.DefaultStartingDice,
			WildFace:     &wild,
			MaxPlayers:   game.DefaultMaxPlayers,
		},
		History: &hist,
	}
}

// LoadConfig loads server configuration from an HCL file. A missing file yields
// the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Server.Address == "" {
		c.Server.Address = defaults.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = defaults.Server.LogLevel
	}

	if c.Rules == nil {
		c.Rules = defaults.Rules
	}
	if c.Rules.StartingDice == 0 {
		c.Rules.StartingDice = defaults.Rules.StartingDice
	}
	if c.Rules.WildFace == nil {
		c.Rules.WildFace = defaults.Rules.WildFace
	}
	if c.Rules.MaxPlayers == 0 {
		c.Rules.MaxPlayers = defaults.Rules.MaxPlayers
	}

	if c.History == nil {
		c.History = defaults.History
	}
	if c.History.Driver == "" {
		c.History.Driver = history.DriverNone
	}
	if c.History.QueueSize == 0 {
		c.History.QueueSize = history.DefaultQueueSize
	}
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(strings.ToLower(c.Server.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", c.Server.LogLevel)
	}
	if err := c.GameRules().Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if c.Rules != nil && c.Rules.MaxPlayers > game.DefaultMaxPlayers {
		return fmt.Errorf("rules: max players must be at most %d", game.DefaultMaxPlayers)
	}
	if c.History != nil {
		if err := c.History.Validate(); err != nil {
			return fmt.Errorf("history: %w", err)
		}
	}
	return nil
}

// Addr returns the address to listen on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GameRules converts the rules block for the engine
func (c *Config) GameRules() game.Rules {
	rules := game.DefaultRules()
	if c.Rules == nil {
		return rules
	}
	if c.Rules.StartingDice != 0 {
		rules.StartingDice = c.Rules.StartingDice
	}
	if c.Rules.WildFace != nil {
		rules.WildFace = *c.Rules.WildFace
	}
	if c.Rules.MaxPlayers != 0 {
		rules.MaxPlayers = c.Rules.MaxPlayers
	}
	return rules
}

// HistoryConfig returns the history block, or the default when absent
func (c *Config) HistoryConfig() history.Config {
	if c.History == nil {
		return history.DefaultConfig()
	}
	return *c.History
}
