package dice

// ScriptedSource replays a fixed list of faces. Once the script is exhausted it
// starts again from the beginning.
type ScriptedSource struct {
	faces []int
	next  int
}

// Scripted returns a Source whose rolls produce exactly the given faces, in order.
// Use it in tests to decide the outcome of a challenge up front.
func Scripted(faces ...int) *ScriptedSource {
	if len(faces) == 0 {
		panic("dice: scripted source needs at least one face")
	}
	for _, f := range faces {
		if !ValidFace(f) {
			panic("dice: scripted face out of range")
		}
	}
	return &ScriptedSource{faces: append([]int(nil), faces...)}
}

// IntN implements Source. Only n == Faces is meaningful for dice; other values are
// reduced modulo n.
func (s *ScriptedSource) IntN(n int) int {
	f := s.faces[s.next%len(s.faces)]
	s.next++
	return (f - MinFace) % n
}

// Rolled returns how many faces have been consumed.
func (s *ScriptedSource) Rolled() int {
	return s.next
}
