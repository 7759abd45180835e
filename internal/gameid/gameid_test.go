package gameid

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerate(t *testing.T) {
	id := Generate()

	if len(id) != Length {
		t.Errorf("expected %d characters, got %d", Length, len(id))
	}

	if err := Validate(id); err != nil {
		t.Errorf("generated ID failed validation: %v", err)
	}
}

func TestGenerateUnique(t *testing.T) {
	ids := make(map[string]bool)

	for i := 0; i < 100; i++ {
		id := Generate()
		if ids[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		ids[id] = true
	}
}

func TestGenerateTimeSorted(t *testing.T) {
	var ids []string

	for i := 0; i < 10; i++ {
		ids = append(ids, Generate())
		time.Sleep(2 * time.Millisecond)
	}

	for i := 1; i < len(ids); i++ {
		if strings.Compare(ids[i-1], ids[i]) >= 0 {
			t.Errorf("IDs not sorted: %s >= %s", ids[i-1], ids[i])
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	u := uuid.Must(uuid.NewV7())
	id := Encode(u)

	got, err := Parse(id)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got != u {
		t.Errorf("round trip mismatch: got %s, want %s", got, u)
	}
}

func TestValidate(t *testing.T) {
	valid := Generate()

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "valid ID", id: valid},
		{name: "too short", id: valid[:20], wantErr: true},
		{name: "too long", id: valid + "00", wantErr: true},
		{name: "invalid character", id: valid[:25] + "u", wantErr: true},
		{name: "uppercase not allowed", id: strings.ToUpper(valid), wantErr: true},
		{name: "not version 7", id: Encode(uuid.New()), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestAlphabet(t *testing.T) {
	if len(alphabet) != 32 {
		t.Errorf("alphabet should have 32 characters, got %d", len(alphabet))
	}

	seen := make(map[rune]bool)
	for _, char := range alphabet {
		if seen[char] {
			t.Errorf("duplicate character in alphabet: %c", char)
		}
		seen[char] = true
	}

	for _, char := range "ilou" {
		if strings.ContainsRune(alphabet, char) {
			t.Errorf("alphabet should not contain %c", char)
		}
	}
}

func TestGeneratorWithReader(t *testing.T) {
	gen := NewGenerator(bytes.NewReader(bytes.Repeat([]byte{0xab}, 64)))

	id := gen.Generate()
	if err := Validate(id); err != nil {
		t.Fatalf("generated ID failed validation: %v", err)
	}
}
