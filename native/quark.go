package native

import "sync"

// Quark is an interned detail string. The zero Quark means "no detail":
// a handler connected with detail 0 matches every emission of its signal,
// while a nonzero Quark matches only emissions carrying the same Quark.
type Quark uint32

// NoDetail is the zero Quark.
const NoDetail Quark = 0

// QuarkTable interns detail strings to numeric IDs for fast comparison.
//
// Details are the "::changed"-style suffixes of detailed signal names.
// By converting them to numeric IDs at connect/emit time, detail matching
// during emission is a single integer comparison instead of a string
// comparison per handler.
//
// The table is append-only and thread-safe for concurrent reads after
// initial population. New details can be added concurrently. ID 0 is
// reserved for the empty detail and is never handed out for a name.
type QuarkTable struct {
	mu     sync.RWMutex
	byName map[string]Quark
	byID   []string // index 0 is the reserved empty entry
}

// NewQuarkTable creates a new empty quark table.
func NewQuarkTable() *QuarkTable {
	return &QuarkTable{
		byName: make(map[string]Quark),
		byID:   make([]string, 1, 64), // slot 0 reserved for NoDetail
	}
}

// Intern returns the Quark for a detail string, creating a new ID if
// needed. Interning the empty string returns NoDetail.
func (qt *QuarkTable) Intern(name string) Quark {
	if name == "" {
		return NoDetail
	}

	// Fast path: read-only lookup
	qt.mu.RLock()
	if q, ok := qt.byName[name]; ok {
		qt.mu.RUnlock()
		return q
	}
	qt.mu.RUnlock()

	// Slow path: need to add new detail
	qt.mu.Lock()
	defer qt.mu.Unlock()

	// Double-check after acquiring write lock
	if q, ok := qt.byName[name]; ok {
		return q
	}

	q := Quark(len(qt.byID))
	qt.byName[name] = q
	qt.byID = append(qt.byID, name)
	return q
}

// Lookup returns the Quark for a detail string without creating new
// entries, or NoDetail and false if the string was never interned.
func (qt *QuarkTable) Lookup(name string) (Quark, bool) {
	if name == "" {
		return NoDetail, true
	}

	qt.mu.RLock()
	defer qt.mu.RUnlock()

	q, ok := qt.byName[name]
	return q, ok
}

// Name returns the detail string for a Quark, or "" for NoDetail and
// unknown IDs.
func (qt *QuarkTable) Name(q Quark) string {
	if q == NoDetail {
		return ""
	}

	qt.mu.RLock()
	defer qt.mu.RUnlock()

	if int(q) >= len(qt.byID) {
		return ""
	}
	return qt.byID[q]
}

// Len returns the number of interned details, not counting NoDetail.
func (qt *QuarkTable) Len() int {
	qt.mu.RLock()
	defer qt.mu.RUnlock()
	return len(qt.byID) - 1
}
