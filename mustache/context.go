package mustache

import (
	"slices"
	"strings"
)

// stack is the chain of context frames a template renders against. The
// last frame is innermost and searched first.
type stack struct {
	frames []Value
}

func newStack(root Value) *stack {
	return &stack{frames: []Value{root}}
}

func (s *stack) push(v Value) { s.frames = append(s.frames, v) }

func (s *stack) pop() { s.frames = s.frames[:len(s.frames)-1] }

// top returns the innermost frame.
func (s *stack) top() Value {
	if len(s.frames) == 0 {
		return Value{}
	}

	return s.frames[len(s.frames)-1]
}

// snapshot returns an independent copy of s. Pushes onto either stack are
// invisible to the other.
func (s *stack) snapshot() *stack {
	return &stack{frames: slices.Clone(s.frames)}
}

// resolve looks up name. "." is the innermost frame. A bare name is
// searched from the innermost frame outward, and the first map frame that
// holds the key wins even if its value is null. In a dotted name only the
// first segment is searched that way; each later segment is a member lookup
// on the previous result. Anything unresolved is absent.
func (s *stack) resolve(name string) Value {
	if name == "." {
		return s.top()
	}

	head, rest, dotted := strings.Cut(name, ".")

	v, ok := s.lookup(head)
	if !ok {
		return Value{}
	}

	for dotted {
		var key string

		key, rest, dotted = strings.Cut(rest, ".")

		if v, ok = v.Lookup(key); !ok {
			return Value{}
		}
	}

	return v
}

func (s *stack) lookup(key string) (Value, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i].Lookup(key); ok {
			return v, true
		}
	}

	return Value{}, false
}
