// Package gameid generates the ids used for rooms and games: UUIDv7 values
// encoded as 26 lowercase Crockford base32 characters, so ids sort by creation
// time.
package gameid

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Crockford's base32, lowercase
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the length of every encoded id.
const Length = 26

var encoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// Generator creates ids from a source of random bytes.
type Generator struct {
	random io.Reader
}

// NewGenerator returns a generator reading randomness from r, or crypto/rand if r
// is nil.
func NewGenerator(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}
	return &Generator{random: r}
}

// Generate creates a new id using crypto/rand.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new id.
func (g *Generator) Generate() string {
	id, err := uuid.NewV7FromReader(g.random)
	if err != nil {
		panic("gameid: failed to generate uuid: " + err.Error())
	}
	return Encode(id)
}

// Encode renders a UUID in the id alphabet.
func Encode(id uuid.UUID) string {
	return encoding.EncodeToString(id[:])
}

// Parse decodes an id back into its UUID.
func Parse(id string) (uuid.UUID, error) {
	if len(id) != Length {
		return uuid.Nil, fmt.Errorf("id must be exactly %d characters, got %d", Length, len(id))
	}
	b, err := encoding.DecodeString(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", id, err)
	}
	return uuid.FromBytes(b)
}

// Validate checks that id is a well-formed UUIDv7 id.
func Validate(id string) error {
	u, err := Parse(id)
	if err != nil {
		return err
	}
	if u.Version() != 7 {
		return fmt.Errorf("id %q is not a version 7 uuid (got version %d)", id, u.Version())
	}
	return nil
}
