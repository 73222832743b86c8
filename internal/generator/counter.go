package generator

import "sync/atomic"

// EventCounter hands out event IDs in strictly increasing order.
//
// Safe for concurrent use, so several generators producing into the same
// output can share one counter and still get unique IDs.
type EventCounter struct {
	seq atomic.Int64
}

// NewEventCounter creates a counter whose first ID is 1.
func NewEventCounter() *EventCounter {
	return &EventCounter{}
}

// NewEventCounterAt creates a counter whose first ID is start+1.
// Used to continue numbering when appending to an existing store.
func NewEventCounterAt(start int64) *EventCounter {
	c := &EventCounter{}
	c.seq.Store(start)
	return c
}

// Next returns the next event ID.
func (c *EventCounter) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last ID handed out, or the start value.
func (c *EventCounter) Current() int64 {
	return c.seq.Load()
}
