package rng

import "sync"

// Scripted replays a fixed sequence of raw Intn results, cycling when exhausted.
// Values are clamped into [0, n) so a script written for one range stays valid
// for another.
//
// Scripted is safe for concurrent use.
type Scripted struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewScripted returns a Source that yields values in order.
//
// Precondition: len(values) > 0.
func NewScripted(values ...int) *Scripted {
	if len(values) == 0 {
		panic("rng.NewScripted: values must not be empty")
	}
	return &Scripted{values: values}
}

// Fixed returns a Source whose Int(src, min, max) always yields want, for any
// range that contains want.
func Fixed(min, want int) *Scripted {
	return NewScripted(want - min)
}

// Intn returns the next scripted value clamped into [0, n).
func (s *Scripted) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next%len(s.values)]
	s.next++
	switch {
	case v < 0:
		return 0
	case v >= n:
		return n - 1
	default:
		return v
	}
}
