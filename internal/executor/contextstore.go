package executor

import (
	"sort"
	"sync"
	"time"
)

// DefaultMaxHistory caps the snapshot history when no limit is
// configured
const DefaultMaxHistory = 100

// Key identifies a context value. Steps and callers share one
// namespace, so prefix keys by concern ("build.scheme", "deploy.host").
type Key string

// ValueKind discriminates context payload variants
type ValueKind string

// Context payload kinds. The set is closed so readers never downcast
// arbitrary types.
const (
	ValueText   ValueKind = "text"
	ValueNumber ValueKind = "number"
	ValueFlag   ValueKind = "flag"
	ValueData   ValueKind = "data"
)

// Value is a tagged context payload. Exactly one payload field is
// meaningful, matching Kind.
type Value struct {
	Kind   ValueKind `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Number float64   `json:"number,omitempty"`
	Flag   bool      `json:"flag,omitempty"`
	Data   []byte    `json:"data,omitempty"`
}

// TextValue wraps a string payload
func TextValue(s string) Value { return Value{Kind: ValueText, Text: s} }

// NumberValue wraps a numeric payload
func NumberValue(n float64) Value { return Value{Kind: ValueNumber, Number: n} }

// FlagValue wraps a boolean payload
func FlagValue(b bool) Value { return Value{Kind: ValueFlag, Flag: b} }

// DataValue wraps an opaque byte payload
func DataValue(b []byte) Value { return Value{Kind: ValueData, Data: b} }

// ContextSnapshot is a timestamped copy of the store taken by
// Snapshot(). Values are copied by value; Data payloads share their
// backing arrays.
type ContextSnapshot struct {
	TakenAt time.Time     `json:"taken_at"`
	Values  map[Key]Value `json:"values"`
}

// ContextStore is a mutable key/value store with a bounded snapshot
// history. Exceeding the history limit triggers immediate decimation:
// index 0, the last index, and every 10th index survive, the rest are
// dropped. Lossy, but the first and most recent snapshots always
// remain.
type ContextStore struct {
	mu         sync.RWMutex
	values     map[Key]Value
	history    []ContextSnapshot
	maxHistory int
}

// NewContextStore creates a context store. A maxHistory of zero or less
// means DefaultMaxHistory.
func NewContextStore(maxHistory int) *ContextStore {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &ContextStore{
		values:     make(map[Key]Value),
		maxHistory: maxHistory,
	}
}

// Set stores a value under key, replacing any previous value
func (c *ContextStore) Set(key Key, v Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = v
}

// Get returns the value for key and whether it was present
func (c *ContextStore) Get(key Key) (Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Delete removes key from the store
func (c *ContextStore) Delete(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}

// Keys returns all stored keys in sorted order
func (c *ContextStore) Keys() []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]Key, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Len returns the number of stored values
func (c *ContextStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Snapshot appends a timestamped copy of the current values to the
// history and returns it, decimating the history first when it has
// grown past the limit
func (c *ContextStore) Snapshot() ContextSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	values := make(map[Key]Value, len(c.values))
	for k, v := range c.values {
		values[k] = v
	}
	snap := ContextSnapshot{TakenAt: time.Now(), Values: values}

	c.history = append(c.history, snap)
	if len(c.history) > c.maxHistory {
		c.history = decimate(c.history)
	}

	return snap
}

// History returns a copy of the retained snapshots, oldest first
func (c *ContextStore) History() []ContextSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ContextSnapshot, len(c.history))
	copy(out, c.history)
	return out
}

// HistoryLen returns the number of retained snapshots
func (c *ContextStore) HistoryLen() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.history)
}

// Clear drops all values and the snapshot history
func (c *ContextStore) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[Key]Value)
	c.history = nil
}

// decimate keeps index 0, the last index, and every 10th index
func decimate(history []ContextSnapshot) []ContextSnapshot {
	last := len(history) - 1
	kept := make([]ContextSnapshot, 0, len(history)/10+2)
	for i := range history {
		if i == 0 || i == last || i%10 == 0 {
			kept = append(kept, history[i])
		}
	}
	return kept
}
