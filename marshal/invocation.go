package marshal

import (
	"fmt"

	"github.com/chazu/giro/native"
)

// ---------------------------------------------------------------------------
// Handler-facing invocation view
// ---------------------------------------------------------------------------

// Handler is a Go callback invoked through a generated wrapper. It
// reads inputs and writes outputs through the Invocation; there is no
// error return because error-reporting callables never get wrappers.
type Handler func(inv *Invocation)

// Invocation is one call crossing the native boundary, with arguments
// already converted to their Go representations. Inputs and outputs
// are indexed by caller-visible position: hidden arguments (closure
// context, destroy notifiers, array length parameters) do not appear.
type Invocation struct {
	sys     *native.System
	em      *native.Emission
	plan    *wrapperPlan
	ins     []any
	outs    []any
	outSet  []bool
	closure native.Word
	hasCtx  bool
	ret     any
	retSet  bool
}

// System returns the runtime the invocation is crossing into.
func (inv *Invocation) System() *native.System { return inv.sys }

// Name returns the callable's name.
func (inv *Invocation) Name() string { return inv.plan.callable.Name }

// NumArgs returns the number of caller-visible inputs.
func (inv *Invocation) NumArgs() int { return len(inv.ins) }

// Arg returns the i-th caller-visible input. A nullable argument the
// caller passed as null arrives as nil.
func (inv *Invocation) Arg(i int) any {
	if i < 0 || i >= len(inv.ins) {
		panic(fmt.Sprintf("Invocation.Arg: index %d out of range [0,%d)", i, len(inv.ins)))
	}
	return inv.ins[i]
}

// Args returns a copy of the caller-visible inputs.
func (inv *Invocation) Args() []any {
	out := make([]any, len(inv.ins))
	copy(out, inv.ins)
	return out
}

// SetOut records the i-th caller-visible output. Passing nil writes
// null, which only a nullable output accepts. An out slot left unset
// becomes null when nullable and a panic otherwise; an inout slot left
// unset keeps the value the caller passed in.
func (inv *Invocation) SetOut(i int, v any) {
	if i < 0 || i >= len(inv.outs) {
		panic(fmt.Sprintf("Invocation.SetOut: index %d out of range [0,%d)", i, len(inv.outs)))
	}
	inv.outs[i] = v
	inv.outSet[i] = true
}

// Return records the return value. Passing nil returns null, which
// only a may-return-null callable accepts.
func (inv *Invocation) Return(v any) {
	inv.ret = v
	inv.retSet = true
}

// Closure returns the raw closure context word when the wrapper
// exposes one. Wrappers built without WithClosureContext, and
// callables with no closure argument, report false.
func (inv *Invocation) Closure() (native.Word, bool) {
	return inv.closure, inv.hasCtx
}

// Emitter returns the emitting object during signal dispatch, nil for
// direct calls. The handle does not own a reference.
func (inv *Invocation) Emitter() *Object {
	if inv.em == nil {
		return nil
	}
	return &Object{sys: inv.sys, word: inv.em.Emitter}
}

// Detail returns the emission detail, "" for detail-less emissions and
// direct calls.
func (inv *Invocation) Detail() string {
	if inv.em == nil {
		return ""
	}
	return inv.sys.Quarks.Name(inv.em.Detail)
}
