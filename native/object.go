package native

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Instances and the object registry
// ---------------------------------------------------------------------------

// Object is a reference-counted instance of a Class.
//
// An object is born with one reference. Ref and Unref move the count;
// when it reaches zero the object leaves the registry and every word
// referring to it becomes invalid. The connected-handler list dies with
// the object, but callables held by handlers are not released here;
// whoever registered a callable owns its release.
type Object struct {
	id    uint64
	class *Class
	refs  atomic.Int32

	handlersMu sync.RWMutex
	handlers   []*handlerEntry
}

// ID returns the object's registry ID.
func (o *Object) ID() uint64 { return o.id }

// Class returns the object's class.
func (o *Object) Class() *Class { return o.class }

// Word returns the handle word for this object.
func (o *Object) Word() Word { return wordFromID(tagObject, o.id) }

// RefCount returns the current reference count.
func (o *Object) RefCount() int32 { return o.refs.Load() }

// ObjectRegistry tracks live instances by ID.
type ObjectRegistry struct {
	mu      sync.RWMutex
	objects map[uint64]*Object
	nextID  atomic.Uint64
}

// NewObjectRegistry creates a new empty object registry.
func NewObjectRegistry() *ObjectRegistry {
	or := &ObjectRegistry{
		objects: make(map[uint64]*Object),
	}
	or.nextID.Store(1)
	return or
}

// New allocates an instance of class with a reference count of one.
func (or *ObjectRegistry) New(class *Class) *Object {
	if class == nil {
		panic("ObjectRegistry.New: nil class")
	}
	id := or.nextID.Add(1) - 1
	obj := &Object{id: id, class: class}
	obj.refs.Store(1)

	or.mu.Lock()
	or.objects[id] = obj
	or.mu.Unlock()

	return obj
}

// Get returns the instance behind an object word.
// Panics if the object died.
func (or *ObjectRegistry) Get(w Word) *Object {
	obj, ok := or.lookup(w)
	if !ok {
		panic(fmt.Sprintf("ObjectRegistry: object %d not alive", w.ObjectID()))
	}
	return obj
}

func (or *ObjectRegistry) lookup(w Word) (*Object, bool) {
	id := w.ObjectID()

	or.mu.RLock()
	defer or.mu.RUnlock()

	obj, ok := or.objects[id]
	return obj, ok
}

// Ref takes an additional reference on a live object.
func (or *ObjectRegistry) Ref(w Word) {
	or.Get(w).refs.Add(1)
}

// Unref drops a reference. When the count reaches zero the object is
// removed from the registry and its handler list is discarded.
// Panics if the object is already dead or the count underflows.
func (or *ObjectRegistry) Unref(w Word) {
	obj := or.Get(w)

	n := obj.refs.Add(-1)
	switch {
	case n < 0:
		panic(fmt.Sprintf("ObjectRegistry.Unref: refcount underflow on object %d", obj.id))
	case n == 0:
		or.mu.Lock()
		delete(or.objects, obj.id)
		or.mu.Unlock()

		obj.handlersMu.Lock()
		obj.handlers = nil
		obj.handlersMu.Unlock()
	}
}

// Alive reports whether w still refers to a live object.
func (or *ObjectRegistry) Alive(w Word) bool {
	id := w.ObjectID()

	or.mu.RLock()
	defer or.mu.RUnlock()

	_, ok := or.objects[id]
	return ok
}

// Live returns the number of live objects.
func (or *ObjectRegistry) Live() int {
	or.mu.RLock()
	defer or.mu.RUnlock()
	return len(or.objects)
}
