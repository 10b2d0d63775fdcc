package native

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// System: one self-contained object world
// ---------------------------------------------------------------------------

// System aggregates a heap, a callable registry, a quark table, an
// object registry, and the class namespace. Words from one System are
// meaningless in another; tests build a fresh System each.
type System struct {
	Heap      *Heap
	Callables *CallableRegistry
	Quarks    *QuarkTable
	Objects   *ObjectRegistry

	classesMu sync.RWMutex
	classes   map[string]*Class

	handlerID atomic.Uint64
}

// NewSystem creates an empty system.
func NewSystem() *System {
	s := &System{
		Heap:      NewHeap(),
		Callables: NewCallableRegistry(),
		Quarks:    NewQuarkTable(),
		Objects:   NewObjectRegistry(),
		classes:   make(map[string]*Class),
	}
	s.handlerID.Store(1)
	return s
}

// DefineClass creates and registers a class under its name.
// Panics on duplicate names.
func (s *System) DefineClass(name string, parent *Class) *Class {
	s.classesMu.Lock()
	defer s.classesMu.Unlock()

	if _, ok := s.classes[name]; ok {
		panic(fmt.Sprintf("System.DefineClass: duplicate class %q", name))
	}
	c := NewClass(name, parent)
	s.classes[name] = c
	return c
}

// LookupClass returns a registered class, or nil if unknown.
func (s *System) LookupClass(name string) *Class {
	s.classesMu.RLock()
	defer s.classesMu.RUnlock()
	return s.classes[name]
}

// NewObject allocates an instance and returns its handle word.
// The caller holds the initial reference.
func (s *System) NewObject(class *Class) Word {
	return s.Objects.New(class).Word()
}

// Call invokes a callable word directly, outside any emission.
func (s *System) Call(fn Word, args []Word) Word {
	return s.Callables.get(fn)(s, nil, args)
}

// Stats returns live counts across the system's registries.
func (s *System) Stats() map[string]int {
	stats := s.Heap.Stats()
	stats["callables"] = s.Callables.Live()
	stats["objects"] = s.Objects.Live()
	return stats
}
