package marshal

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chazu/giro/gi"
	"github.com/chazu/giro/native"
)

// ---------------------------------------------------------------------------
// Wrapper builder
// ---------------------------------------------------------------------------

// Wrapper binds a Go handler to a registered native callable. Release
// semantics follow the callable's scope:
//
//	call      the caller releases after the outbound call returns
//	async     the wrapper releases itself after its first invocation
//	notified  whoever runs the destroy notifier calls Release
//
// Whatever the scope, exactly one party releases, exactly once; a
// second Release panics.
type Wrapper struct {
	sys     *native.System
	plan    *wrapperPlan
	handler Handler
	name    string
	word    native.Word

	released  atomic.Bool
	mu        sync.Mutex
	retained  []func()
	onRelease func()
}

type buildOptions struct {
	exposeClosures bool
	onRelease      func()
}

// BuildOption adjusts how Build shapes a wrapper.
type BuildOption func(*buildOptions)

// WithClosureContext exposes the callable's closure context word to
// the handler via Invocation.Closure. Without it the adapter drops the
// context, matching handlers that carry their state in Go instead.
func WithClosureContext() BuildOption {
	return func(o *buildOptions) { o.exposeClosures = true }
}

// WithReleaseHook runs fn when the wrapper is released, whichever
// party triggers it. This is where a notified-scope destroy notifier
// belongs.
func WithReleaseHook(fn func()) BuildOption {
	return func(o *buildOptions) { o.onRelease = fn }
}

// Build registers a native callable that converts arguments, runs the
// handler, and converts outputs back. For callable shapes the
// classifier refuses, Build still registers a wrapper and returns it
// alongside the error, but its callable is a placeholder that panics
// with the refusal reason when invoked. A refused shape is loud at
// call time, never a silent half-marshalled call.
func Build(sys *native.System, c *gi.Callable, h Handler, opts ...BuildOption) (*Wrapper, error) {
	if h == nil {
		panic(fmt.Sprintf("marshal: Build: nil handler for %s", c.Name))
	}

	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	w := &Wrapper{
		sys:       sys,
		handler:   h,
		name:      c.Name,
		onRelease: o.onRelease,
	}

	p, err := plan(c)
	if err != nil {
		w.word = sys.Callables.Register(placeholder(c.Name, err))
		return w, err
	}
	w.plan = p

	oneShot := c.Scope == gi.ScopeAsync
	closures := o.exposeClosures && p.closureIdx >= 0
	w.word = sys.Callables.Register(w.adapter(oneShot, closures))
	return w, nil
}

// adapter picks from the closed set of generated variants. Each
// combination of release policy and closure handling is its own named
// adapter; there is no open-ended composition beyond these four.
func (w *Wrapper) adapter(oneShot, closures bool) native.NativeFunc {
	switch {
	case oneShot && closures:
		return w.invokeOneShotClosures
	case oneShot:
		return w.invokeOneShot
	case closures:
		return w.invokePersistentClosures
	default:
		return w.invokePersistent
	}
}

func (w *Wrapper) invokePersistent(sys *native.System, em *native.Emission, args []native.Word) native.Word {
	return w.invoke(sys, em, args, false, false)
}

func (w *Wrapper) invokePersistentClosures(sys *native.System, em *native.Emission, args []native.Word) native.Word {
	return w.invoke(sys, em, args, false, true)
}

func (w *Wrapper) invokeOneShot(sys *native.System, em *native.Emission, args []native.Word) native.Word {
	return w.invoke(sys, em, args, true, false)
}

func (w *Wrapper) invokeOneShotClosures(sys *native.System, em *native.Emission, args []native.Word) native.Word {
	return w.invoke(sys, em, args, true, true)
}

// Word returns the registered callable word. Pass it to native
// connect or call sites.
func (w *Wrapper) Word() native.Word { return w.word }

// Name returns the wrapped callable's name.
func (w *Wrapper) Name() string { return w.name }

// Released reports whether the wrapper has been released.
func (w *Wrapper) Released() bool { return w.released.Load() }

// Release unregisters the callable and frees every transfer-none
// allocation the wrapper retained on the native side. Exactly one
// party may call it; a second call panics.
func (w *Wrapper) Release() {
	if !w.released.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("marshal: wrapper %s: released twice", w.name))
	}
	w.sys.Callables.Release(w.word)

	w.mu.Lock()
	funcs := w.retained
	w.retained = nil
	w.mu.Unlock()
	for _, f := range funcs {
		f()
	}

	if w.onRelease != nil {
		w.onRelease()
	}
}

func (w *Wrapper) addRetained(funcs []func()) {
	if len(funcs) == 0 {
		return
	}
	w.mu.Lock()
	w.retained = append(w.retained, funcs...)
	w.mu.Unlock()
}

// invoke is the shared adapter core: prepare inputs, run the handler,
// write back outputs, convert the return. args is the raw native
// argument vector, one word per declared argument, with out and inout
// positions holding cells.
func (w *Wrapper) invoke(sys *native.System, em *native.Emission, args []native.Word, oneShot, closures bool) native.Word {
	c := w.plan.callable
	if len(args) != len(c.Args) {
		panic(fmt.Sprintf("marshal: %s: native call has %d arguments, want %d", c.Name, len(args), len(c.Args)))
	}

	var retained []func()
	inv := &Invocation{
		sys:    sys,
		em:     em,
		plan:   w.plan,
		ins:    make([]any, w.plan.numIns),
		outs:   make([]any, w.plan.numOuts),
		outSet: make([]bool, w.plan.numOuts),
	}

	for _, p := range w.plan.prepare {
		if p.arg.Direction == gi.DirOut {
			panic(fmt.Sprintf("marshal: %s: out argument %q in the prepare path", c.Name, p.arg.Name))
		}
		raw := args[p.index]
		if p.arg.Direction == gi.DirInOut {
			raw = sys.Heap.CellGet(raw)
		}
		if raw.IsNull() {
			if !p.arg.Nullable {
				panic(fmt.Sprintf("marshal: %s: null for non-nullable argument %q", c.Name, p.arg.Name))
			}
			continue
		}
		inv.ins[p.inSlot] = wordToGo(sys, raw, p.arg.Type, p.arg.Transfer, w.lengthAt(sys, args, p))
	}

	if closures && w.plan.closureIdx >= 0 {
		inv.closure = args[w.plan.closureIdx]
		inv.hasCtx = true
	}

	w.handler(inv)

	for _, p := range w.plan.writeback {
		if p.arg.Direction == gi.DirInOut && !inv.outSet[p.outSlot] {
			continue
		}
		cell := args[p.index]
		v := inv.outs[p.outSlot]
		if v == nil {
			if !p.arg.Nullable {
				if !inv.outSet[p.outSlot] {
					panic(fmt.Sprintf("marshal: %s: handler left non-nullable output %q unset", c.Name, p.arg.Name))
				}
				panic(fmt.Sprintf("marshal: %s: nil for non-nullable output %q", c.Name, p.arg.Name))
			}
			sys.Heap.CellSet(cell, native.Null)
			if p.lengthIdx >= 0 {
				w.writeLength(sys, args, p, 0)
			}
			continue
		}
		sys.Heap.CellSet(cell, goToWord(sys, v, p.arg.Type, p.arg.Transfer, &retained))
		if p.lengthIdx >= 0 {
			w.writeLength(sys, args, p, len(v.([]any)))
		}
	}

	ret := w.convertReturn(sys, inv, &retained)

	w.addRetained(retained)
	if oneShot {
		w.Release()
	}
	return ret
}

// lengthAt reads the element count for an array argument from its
// companion length parameter, unwrapping the cell when the length
// travels inout. Returns -1 when bounds come from a terminator or
// fixed size.
func (w *Wrapper) lengthAt(sys *native.System, args []native.Word, p argPlan) int {
	if p.lengthIdx < 0 {
		return -1
	}
	lw := args[p.lengthIdx]
	if w.plan.callable.Args[p.lengthIdx].Direction == gi.DirInOut {
		lw = sys.Heap.CellGet(lw)
	}
	n := lw.Int()
	if n < 0 {
		panic(fmt.Sprintf("marshal: %s: negative length %d for argument %q", w.plan.callable.Name, n, p.arg.Name))
	}
	return int(n)
}

// writeLength stores an out array's element count into its companion
// length parameter when that parameter is itself written back.
func (w *Wrapper) writeLength(sys *native.System, args []native.Word, p argPlan, n int) {
	dir := w.plan.callable.Args[p.lengthIdx].Direction
	if dir == gi.DirOut || dir == gi.DirInOut {
		sys.Heap.CellSet(args[p.lengthIdx], native.FromInt(int64(n)))
	}
}

func (w *Wrapper) convertReturn(sys *native.System, inv *Invocation, retained *[]func()) native.Word {
	c := w.plan.callable
	if !c.HasReturn() {
		if inv.retSet && inv.ret != nil {
			panic(fmt.Sprintf("marshal: %s: handler returned a value for a void callable", c.Name))
		}
		return native.Null
	}
	if !inv.retSet || inv.ret == nil {
		if !c.MayReturnNull {
			if !inv.retSet {
				panic(fmt.Sprintf("marshal: %s: handler returned no value", c.Name))
			}
			panic(fmt.Sprintf("marshal: %s: nil return for a callable that may not return null", c.Name))
		}
		return native.Null
	}
	return goToWord(sys, inv.ret, c.Return, c.ReturnTransfer, retained)
}

// placeholder is the callable registered for a refused shape. It
// panics with the refusal reason on invocation so a miscompiled
// binding fails at the call site instead of corrupting state.
func placeholder(name string, reason error) native.NativeFunc {
	return func(*native.System, *native.Emission, []native.Word) native.Word {
		panic(fmt.Sprintf("marshal: %s: no wrapper generated (%v)", name, reason))
	}
}
