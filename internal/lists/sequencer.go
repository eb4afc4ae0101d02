package lists

import "sync"

// Sequencer hands out increasing purchase-order numbers.
// It is derived from list contents and never persisted on its own.
type Sequencer struct {
	mu      sync.Mutex
	counter int
}

// InitFrom sets the counter to the largest purchase order found in lists
// (0 if none) and returns it.
func (s *Sequencer) InitFrom(lists map[string][]*CardEntry) int {
	max := 0
	for _, entries := range lists {
		for _, e := range entries {
			if e.PurchaseOrder != nil && *e.PurchaseOrder > max {
				max = *e.PurchaseOrder
			}
		}
	}

	s.mu.Lock()
	s.counter = max
	s.mu.Unlock()
	return max
}

// Next increments the counter and returns the new value.
func (s *Sequencer) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return s.counter
}

// Current returns the last value handed out.
func (s *Sequencer) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}
