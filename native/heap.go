package native

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Heap: tracked storage for strings, arrays, and out-cells
// ---------------------------------------------------------------------------

// Heap owns every string, array, and out-cell reachable from a Word.
//
// Each allocation gets a fresh 48-bit ID; IDs are never reused, so a
// released word can be told apart from a live one for the lifetime of
// the heap. Every allocation must be released exactly once: releasing
// twice, or touching a released entry, panics. Live counts per kind
// make leaks observable in tests.
type Heap struct {
	strings   map[uint64]string
	stringsMu sync.RWMutex
	stringID  atomic.Uint64

	arrays   map[uint64][]Word
	arraysMu sync.RWMutex
	arrayID  atomic.Uint64

	cells   map[uint64]Word
	cellsMu sync.RWMutex
	cellID  atomic.Uint64
}

// NewHeap creates a new empty heap.
func NewHeap() *Heap {
	h := &Heap{
		strings: make(map[uint64]string),
		arrays:  make(map[uint64][]Word),
		cells:   make(map[uint64]Word),
	}
	// Start IDs at 1 (0 could be confused with nil/uninitialized)
	h.stringID.Store(1)
	h.arrayID.Store(1)
	h.cellID.Store(1)
	return h
}

// ---------------------------------------------------------------------------
// String storage
// ---------------------------------------------------------------------------

// NewString allocates a string on the heap and returns its Word.
func (h *Heap) NewString(s string) Word {
	id := h.stringID.Add(1) - 1

	h.stringsMu.Lock()
	h.strings[id] = s
	h.stringsMu.Unlock()

	return wordFromID(tagString, id)
}

// StringValue returns the contents of a heap string.
// Panics if w does not refer to a live string.
func (h *Heap) StringValue(w Word) string {
	id := w.StringID()

	h.stringsMu.RLock()
	defer h.stringsMu.RUnlock()

	s, ok := h.strings[id]
	if !ok {
		panic(fmt.Sprintf("Heap.StringValue: string %d not alive", id))
	}
	return s
}

// ReleaseString frees a heap string.
// Panics if w was already released or never allocated here.
func (h *Heap) ReleaseString(w Word) {
	id := w.StringID()

	h.stringsMu.Lock()
	defer h.stringsMu.Unlock()

	if _, ok := h.strings[id]; !ok {
		panic(fmt.Sprintf("Heap.ReleaseString: string %d already released", id))
	}
	delete(h.strings, id)
}

// LiveStrings returns the number of unreleased strings.
func (h *Heap) LiveStrings() int {
	h.stringsMu.RLock()
	defer h.stringsMu.RUnlock()
	return len(h.strings)
}

// ---------------------------------------------------------------------------
// Array storage
// ---------------------------------------------------------------------------

// NewArray allocates an array on the heap and returns its Word.
// The element slice is copied; the caller keeps ownership of elems.
func (h *Heap) NewArray(elems []Word) Word {
	id := h.arrayID.Add(1) - 1

	stored := make([]Word, len(elems))
	copy(stored, elems)

	h.arraysMu.Lock()
	h.arrays[id] = stored
	h.arraysMu.Unlock()

	return wordFromID(tagArray, id)
}

// ArrayElems returns a copy of the array's elements.
// Panics if w does not refer to a live array.
func (h *Heap) ArrayElems(w Word) []Word {
	id := w.ArrayID()

	h.arraysMu.RLock()
	defer h.arraysMu.RUnlock()

	elems, ok := h.arrays[id]
	if !ok {
		panic(fmt.Sprintf("Heap.ArrayElems: array %d not alive", id))
	}
	out := make([]Word, len(elems))
	copy(out, elems)
	return out
}

// ArrayLen returns the element count of a live array.
// Panics if w does not refer to a live array.
func (h *Heap) ArrayLen(w Word) int {
	id := w.ArrayID()

	h.arraysMu.RLock()
	defer h.arraysMu.RUnlock()

	elems, ok := h.arrays[id]
	if !ok {
		panic(fmt.Sprintf("Heap.ArrayLen: array %d not alive", id))
	}
	return len(elems)
}

// ReleaseArray frees a heap array. Elements are not released; the
// caller decides per its transfer rules whether to release them first.
// Panics if w was already released or never allocated here.
func (h *Heap) ReleaseArray(w Word) {
	id := w.ArrayID()

	h.arraysMu.Lock()
	defer h.arraysMu.Unlock()

	if _, ok := h.arrays[id]; !ok {
		panic(fmt.Sprintf("Heap.ReleaseArray: array %d already released", id))
	}
	delete(h.arrays, id)
}

// LiveArrays returns the number of unreleased arrays.
func (h *Heap) LiveArrays() int {
	h.arraysMu.RLock()
	defer h.arraysMu.RUnlock()
	return len(h.arrays)
}

// ---------------------------------------------------------------------------
// Out-cell storage
// ---------------------------------------------------------------------------

// NewCell allocates an out-cell holding an initial word. Callers pass
// cells for out and inout parameters; the callee writes results back
// through CellSet before returning.
func (h *Heap) NewCell(initial Word) Word {
	id := h.cellID.Add(1) - 1

	h.cellsMu.Lock()
	h.cells[id] = initial
	h.cellsMu.Unlock()

	return wordFromID(tagCell, id)
}

// CellGet reads the current word in an out-cell.
// Panics if w does not refer to a live cell.
func (h *Heap) CellGet(w Word) Word {
	id := w.CellID()

	h.cellsMu.RLock()
	defer h.cellsMu.RUnlock()

	v, ok := h.cells[id]
	if !ok {
		panic(fmt.Sprintf("Heap.CellGet: cell %d not alive", id))
	}
	return v
}

// CellSet writes a word into an out-cell.
// Panics if w does not refer to a live cell.
func (h *Heap) CellSet(w Word, v Word) {
	id := w.CellID()

	h.cellsMu.Lock()
	defer h.cellsMu.Unlock()

	if _, ok := h.cells[id]; !ok {
		panic(fmt.Sprintf("Heap.CellSet: cell %d not alive", id))
	}
	h.cells[id] = v
}

// ReleaseCell frees an out-cell.
// Panics if w was already released or never allocated here.
func (h *Heap) ReleaseCell(w Word) {
	id := w.CellID()

	h.cellsMu.Lock()
	defer h.cellsMu.Unlock()

	if _, ok := h.cells[id]; !ok {
		panic(fmt.Sprintf("Heap.ReleaseCell: cell %d already released", id))
	}
	delete(h.cells, id)
}

// LiveCells returns the number of unreleased cells.
func (h *Heap) LiveCells() int {
	h.cellsMu.RLock()
	defer h.cellsMu.RUnlock()
	return len(h.cells)
}

// ---------------------------------------------------------------------------
// Aggregate stats
// ---------------------------------------------------------------------------

// Stats returns live counts of all heap kinds.
func (h *Heap) Stats() map[string]int {
	return map[string]int{
		"strings": h.LiveStrings(),
		"arrays":  h.LiveArrays(),
		"cells":   h.LiveCells(),
	}
}
