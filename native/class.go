package native

import (
	"fmt"
	"sync"
)

// ---------------------------------------------------------------------------
// Classes and signal declarations
// ---------------------------------------------------------------------------

// SignalSpec declares a signal on a class.
//
// ParamCount is the number of payload words an emission carries; the
// emitter itself is not counted. Detailed signals accept a "::detail"
// suffix at connect and emit time. Default, when non-nil, is the class
// default handler, run between before- and after-handlers.
type SignalSpec struct {
	Name       string
	ParamCount int
	Detailed   bool
	Default    NativeFunc
}

// Class is a named type in the object system. Signal declarations are
// inherited: an instance of a subclass can connect to and emit any
// signal declared on an ancestor.
type Class struct {
	Name   string
	Parent *Class

	mu      sync.RWMutex
	signals map[string]*SignalSpec
}

// NewClass creates a class. Parent may be nil for a root class.
func NewClass(name string, parent *Class) *Class {
	return &Class{
		Name:    name,
		Parent:  parent,
		signals: make(map[string]*SignalSpec),
	}
}

// AddSignal declares a signal on the class.
// Panics if the class already declares a signal of that name; shadowing
// an ancestor's signal is allowed and the subclass declaration wins.
func (c *Class) AddSignal(spec *SignalSpec) {
	if spec == nil || spec.Name == "" {
		panic("Class.AddSignal: empty signal spec")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.signals[spec.Name]; ok {
		panic(fmt.Sprintf("Class.AddSignal: duplicate signal %q on %s", spec.Name, c.Name))
	}
	c.signals[spec.Name] = spec
}

// FindSignal resolves a signal name against the class and its ancestors.
// Returns nil if no class in the chain declares it.
func (c *Class) FindSignal(name string) *SignalSpec {
	for cls := c; cls != nil; cls = cls.Parent {
		cls.mu.RLock()
		spec, ok := cls.signals[name]
		cls.mu.RUnlock()
		if ok {
			return spec
		}
	}
	return nil
}

// DescendsFrom reports whether c is other or a subclass of other.
func (c *Class) DescendsFrom(other *Class) bool {
	for cls := c; cls != nil; cls = cls.Parent {
		if cls == other {
			return true
		}
	}
	return false
}

// SignalNames returns the names of signals declared directly on c,
// not counting inherited ones.
func (c *Class) SignalNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.signals))
	for name := range c.signals {
		names = append(names, name)
	}
	return names
}
