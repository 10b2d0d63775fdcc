package marshal

import (
	"fmt"
	"sync/atomic"

	"github.com/chazu/giro/gi"
	"github.com/chazu/giro/native"
)

// ---------------------------------------------------------------------------
// Signal connection
// ---------------------------------------------------------------------------

// Connection is one handler attached to one object's signal. It owns
// the wrapper backing the handler and releases it on Disconnect.
type Connection struct {
	sys     *native.System
	obj     native.Word
	id      native.HandlerID
	wrapper *Wrapper
	done    atomic.Bool
}

// Connect resolves a detailed signal name against the namespace
// metadata, builds a persistent wrapper for the handler, and attaches
// it to run before the class default. The signal is looked up on the
// object's class and its ancestors.
func Connect(sys *native.System, ns *gi.Namespace, obj native.Word, detailed string, h Handler, opts ...BuildOption) (*Connection, error) {
	return connect(sys, ns, obj, detailed, h, false, opts)
}

// ConnectAfter is Connect with the handler scheduled after the class
// default.
func ConnectAfter(sys *native.System, ns *gi.Namespace, obj native.Word, detailed string, h Handler, opts ...BuildOption) (*Connection, error) {
	return connect(sys, ns, obj, detailed, h, true, opts)
}

func connect(sys *native.System, ns *gi.Namespace, obj native.Word, detailed string, h Handler, after bool, opts []BuildOption) (*Connection, error) {
	class := sys.Objects.Get(obj).Class().Name
	name, detail := native.SplitDetailedName(detailed)

	sig, err := ns.ResolveSignal(class, name)
	if err != nil {
		return nil, fmt.Errorf("marshal: connect %q on %s: %w", detailed, class, err)
	}
	if detail != "" && !sig.Detailed {
		return nil, fmt.Errorf("marshal: connect %q on %s: %w", detailed, class, native.ErrDetailNotAllowed)
	}
	if sig.Throws {
		return nil, &UnsupportedError{Callable: sig.Name, Reason: ErrThrowsNotSupported}
	}

	// Signal handlers stay connected until Disconnect, whatever scope
	// the metadata declares; the connection is the releasing party.
	c := sig.Callable
	c.Scope = gi.ScopeNotified

	w, err := Build(sys, &c, h, opts...)
	if err != nil {
		w.Release()
		return nil, err
	}

	var id native.HandlerID
	if after {
		id, err = sys.ConnectAfter(obj, detailed, w.Word())
	} else {
		id, err = sys.Connect(obj, detailed, w.Word())
	}
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("marshal: connect %q on %s: %w", detailed, class, err)
	}

	return &Connection{sys: sys, obj: obj, id: id, wrapper: w}, nil
}

// HandlerID returns the native handler registration.
func (c *Connection) HandlerID() native.HandlerID { return c.id }

// Active reports whether the connection still has a live registration.
func (c *Connection) Active() bool {
	if c.done.Load() {
		return false
	}
	return c.sys.Connected(c.obj, c.id)
}

// Disconnect detaches the handler and releases its wrapper. It is
// idempotent, and it tolerates an object that already died: the
// registration went down with the object, but the wrapper still needs
// its single release.
func (c *Connection) Disconnect() {
	if !c.done.CompareAndSwap(false, true) {
		return
	}
	_ = c.sys.Disconnect(c.obj, c.id)
	c.wrapper.Release()
}
