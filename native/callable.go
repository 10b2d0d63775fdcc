package native

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Callable handles
// ---------------------------------------------------------------------------

// NativeFunc is the Go shape of code invokable through a callable word.
//
// em is non-nil only during signal dispatch; direct calls pass nil.
// args carry the declared parameters of the callable. The emitter of a
// signal is not part of args; it rides on the Emission.
type NativeFunc func(sys *System, em *Emission, args []Word) Word

// Emission describes the signal emission a handler is running under.
type Emission struct {
	Emitter Word
	Signal  string
	Detail  Quark
}

// CallableRegistry maps callable IDs to Go functions.
//
// Registration hands out a fresh ID; the ID stays valid until released.
// Releasing twice, or invoking a released callable, panics: a callable
// word outliving its registration is a bug on whichever side kept it.
type CallableRegistry struct {
	mu     sync.RWMutex
	fns    map[uint64]NativeFunc
	nextID atomic.Uint64
}

// NewCallableRegistry creates a new empty callable registry.
func NewCallableRegistry() *CallableRegistry {
	cr := &CallableRegistry{
		fns: make(map[uint64]NativeFunc),
	}
	cr.nextID.Store(1)
	return cr
}

// Register adds a function to the registry and returns its callable word.
func (cr *CallableRegistry) Register(fn NativeFunc) Word {
	if fn == nil {
		panic("CallableRegistry.Register: nil function")
	}
	id := cr.nextID.Add(1) - 1

	cr.mu.Lock()
	cr.fns[id] = fn
	cr.mu.Unlock()

	return wordFromID(tagCallable, id)
}

// get returns the function behind a callable word.
// Panics if the callable was released.
func (cr *CallableRegistry) get(w Word) NativeFunc {
	id := w.CallableID()

	cr.mu.RLock()
	defer cr.mu.RUnlock()

	fn, ok := cr.fns[id]
	if !ok {
		panic(fmt.Sprintf("CallableRegistry: callable %d already released", id))
	}
	return fn
}

// Release removes a callable from the registry.
// Panics if w was already released or never registered here.
func (cr *CallableRegistry) Release(w Word) {
	id := w.CallableID()

	cr.mu.Lock()
	defer cr.mu.Unlock()

	if _, ok := cr.fns[id]; !ok {
		panic(fmt.Sprintf("CallableRegistry.Release: callable %d already released", id))
	}
	delete(cr.fns, id)
}

// Alive reports whether w still refers to a registered callable.
func (cr *CallableRegistry) Alive(w Word) bool {
	id := w.CallableID()

	cr.mu.RLock()
	defer cr.mu.RUnlock()

	_, ok := cr.fns[id]
	return ok
}

// Live returns the number of registered callables.
func (cr *CallableRegistry) Live() int {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return len(cr.fns)
}
