package testutil

import "sync"

// Sequence is a thread-safe monotonic counter for deterministic ids in
// tests.
//
// The first call to Next returns 1.
type Sequence struct {
	mu sync.Mutex
	n  int64
}

// NewSequence creates a sequence starting at 0.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next increments and returns the next value.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

// Current returns the current value without incrementing.
func (s *Sequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Reset sets the sequence back to 0.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n = 0
}
