package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// ActivityCheckerStub answers IsActive from a fixed table and counts the lookups per reader.
// Readers missing from the table are inactive.
type ActivityCheckerStub struct {
	active map[string]bool
	calls  map[string]int
	mu     sync.Mutex
}

// NewActivityCheckerStub creates a stub that considers the given readers active.
func NewActivityCheckerStub(activeReaderIDs ...string) *ActivityCheckerStub {
	s := &ActivityCheckerStub{
		active: make(map[string]bool),
		calls:  make(map[string]int),
	}

	for _, readerID := range activeReaderIDs {
		s.active[readerID] = true
	}

	return s
}

// SetActive changes the answer for readerID.
func (s *ActivityCheckerStub) SetActive(readerID string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active[readerID] = active
}

// IsActive implements lending.ActivityChecker.
func (s *ActivityCheckerStub) IsActive(_ context.Context, readerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[readerID]++

	return s.active[readerID]
}

// CallCount returns how often IsActive was asked about readerID.
func (s *ActivityCheckerStub) CallCount(readerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[readerID]
}

// TotalCallCount returns the number of IsActive calls for all readers.
func (s *ActivityCheckerStub) TotalCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.calls {
		total += n
	}

	return total
}

var _ lending.ActivityChecker = (*ActivityCheckerStub)(nil)
