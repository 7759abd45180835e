// Package dice implements the concealed dice pool each player holds during a
// round of Liar's Dice.
//
// A Pool is an immutable, ordered sequence of face values. Pools are produced by
// Roll from an injected Source so that tests can supply exact faces:
//
//	pool := dice.Roll(dice.Scripted(4, 4, 1, 6, 2), 5)
//	pool.FaceCounts() // map[1:1 2:1 4:2 6:1]
package dice

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinFace and MaxFace bound the values a die can show.
	MinFace = 1
	MaxFace = 6
	// Faces is the number of sides on a die.
	Faces = MaxFace - MinFace + 1
)

// Source is the randomness used to roll dice. *rand.Rand from math/rand/v2
// satisfies it.
type Source interface {
	IntN(n int) int
}

// Pool is the set of dice a single player holds. The zero value is an empty pool.
type Pool struct {
	faces []int
}

// Roll produces n independent uniform faces in [MinFace, MaxFace].
func Roll(src Source, n int) Pool {
	if src == nil {
		panic("dice: source is required")
	}
	if n < 0 {
		panic("dice: negative dice count")
	}
	faces := make([]int, n)
	for i := range faces {
		faces[i] = MinFace + src.IntN(Faces)
	}
	return Pool{faces: faces}
}

// Of builds a pool from explicit faces. It returns an error if any face is out of range.
func Of(faces ...int) (Pool, error) {
	for i, f := range faces {
		if !ValidFace(f) {
			return Pool{}, fmt.Errorf("dice: face %d at index %d out of range", f, i)
		}
	}
	return Pool{faces: append([]int(nil), faces...)}, nil
}

// MustOf is like Of but panics on invalid faces.
func MustOf(faces ...int) Pool {
	p, err := Of(faces...)
	if err != nil {
		panic(err)
	}
	return p
}

// ValidFace reports whether f is a face a die can show.
func ValidFace(f int) bool {
	return f >= MinFace && f <= MaxFace
}

// Len returns the number of dice in the pool.
func (p Pool) Len() int {
	return len(p.faces)
}

// Faces returns a copy of the faces in roll order.
func (p Pool) Faces() []int {
	return append([]int(nil), p.faces...)
}

// Count returns how many dice show face.
func (p Pool) Count(face int) int {
	n := 0
	for _, f := range p.faces {
		if f == face {
			n++
		}
	}
	return n
}

// FaceCounts maps every face value to the number of dice showing it. Faces that
// do not appear are present with a zero count.
func (p Pool) FaceCounts() map[int]int {
	counts := make(map[int]int, Faces)
	for f := MinFace; f <= MaxFace; f++ {
		counts[f] = 0
	}
	for _, f := range p.faces {
		counts[f]++
	}
	return counts
}

func (p Pool) String() string {
	parts := make([]string, len(p.faces))
	for i, f := range p.faces {
		parts[i] = strconv.Itoa(f)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
