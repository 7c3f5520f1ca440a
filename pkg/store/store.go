// Package store provides the fixed-capacity persistent buffer of the
// echo-back device.
package store

// Sentinel is the value of a slot that has never been written, matching
// the erased state of the EEPROM it models.
const Sentinel byte = 0xff

// DefaultCapacity is the buffer size of the reference device.
const DefaultCapacity = 1000

// Store is a fixed-capacity byte store addressed by index.
//
// Writes beyond capacity are dropped silently; that is the contract, not an
// error. The number of dropped writes is kept as a diagnostic. Store is not
// safe for concurrent use: the engine serializes all access on its event
// goroutine.
type Store struct {
	slots   []byte
	dropped uint64
}

// New creates a Store with the given capacity, cleared to Sentinel.
// A capacity <= 0 falls back to DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Store{slots: make([]byte, capacity)}
	s.Clear()
	return s
}

// Capacity returns the fixed slot count.
func (s *Store) Capacity() int {
	return len(s.slots)
}

// Write stores b at index. Out-of-range writes are dropped and counted.
func (s *Store) Write(index int, b byte) {
	if index < 0 || index >= len(s.slots) {
		s.dropped++
		return
	}
	s.slots[index] = b
}

// Read returns the byte at index, or Sentinel if the index is out of range.
// A slot never written also reads back as Sentinel.
func (s *Store) Read(index int) byte {
	if index < 0 || index >= len(s.slots) {
		return Sentinel
	}
	return s.slots[index]
}

// Dropped returns the number of writes lost to truncation since the last Clear.
func (s *Store) Dropped() uint64 {
	return s.dropped
}

// Clear resets every slot to Sentinel and zeroes the dropped counter.
// Called at startup and after every session flush.
func (s *Store) Clear() {
	for i := range s.slots {
		s.slots[i] = Sentinel
	}
	s.dropped = 0
}
