// Package store provides bounded retention of recent matches.
package store

import (
	"sync"

	"github.com/logwarden/logwarden/pkg/types"
)

// MatchStore retains the most recent matches up to a fixed capacity.
//
// Append beyond capacity evicts the oldest entry (FIFO). The store is a
// ring buffer, so appends never reallocate once the buffer is full.
// ToList returns a point-in-time copy, never the live structure, so
// export never races with ongoing appends. Counting is the aggregator's
// job; retention here is bounded while totals elsewhere are not.
type MatchStore struct {
	mu       sync.Mutex
	buf      []types.Match
	capacity int
	head     int // index of the oldest entry
	size     int
}

// NewMatchStore creates a store holding at most capacity matches.
// A capacity below one is treated as one.
func NewMatchStore(capacity int) *MatchStore {
	if capacity < 1 {
		capacity = 1
	}
	return &MatchStore{
		buf:      make([]types.Match, capacity),
		capacity: capacity,
	}
}

// Append adds a match, evicting the oldest entry if the store is full.
func (s *MatchStore) Append(match types.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size < s.capacity {
		s.buf[(s.head+s.size)%s.capacity] = match
		s.size++
		return
	}

	// Full: overwrite the oldest slot and advance the head.
	s.buf[s.head] = match
	s.head = (s.head + 1) % s.capacity
}

// ToList returns a copy of the retained matches in append order,
// oldest first.
func (s *MatchStore) ToList() []types.Match {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Match, s.size)
	for i := 0; i < s.size; i++ {
		out[i] = s.buf[(s.head+i)%s.capacity]
	}
	return out
}

// Last returns a copy of the n most recent matches, oldest first.
// If fewer than n are retained, all of them are returned.
func (s *MatchStore) Last(n int) []types.Match {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n > s.size {
		n = s.size
	}
	if n <= 0 {
		return nil
	}

	out := make([]types.Match, n)
	start := s.size - n
	for i := 0; i < n; i++ {
		out[i] = s.buf[(s.head+start+i)%s.capacity]
	}
	return out
}

// Len returns the number of retained matches.
func (s *MatchStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Capacity returns the maximum number of retained matches.
func (s *MatchStore) Capacity() int {
	return s.capacity
}
