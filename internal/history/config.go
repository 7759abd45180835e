package history

import "fmt"

// Storage drivers.
const (
	DriverNone   = "none"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// DefaultQueueSize is how many writes Async buffers before dropping.
const DefaultQueueSize = 1024

// Config is the history block of the server configuration.
type Config struct {
	Driver    string `hcl:"driver,optional"`
	Path      string `hcl:"path,optional"`
	QueueSize int    `hcl:"queue_size,optional"`
}

// DefaultConfig records nothing.
func DefaultConfig() Config {
	return Config{Driver: DriverNone, QueueSize: DefaultQueueSize}
}

// Validate checks the driver is known and has a path when it needs one.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverNone:
		return nil
	case DriverFile, DriverSQLite:
		if c.Path == "" {
			return fmt.Errorf("history driver %q requires a path", c.Driver)
		}
	default:
		return fmt.Errorf("unknown history driver %q (want none, file or sqlite)", c.Driver)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("history queue_size must not be negative, got %d", c.QueueSize)
	}
	return nil
}
