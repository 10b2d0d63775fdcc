package native

import (
	"errors"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Signal connection and emission
// ---------------------------------------------------------------------------

// HandlerID identifies one signal connection on one object.
type HandlerID uint64

// Sentinel errors for connection and emission failures.
var (
	ErrNoSuchSignal     = errors.New("no such signal")
	ErrDetailNotAllowed = errors.New("signal does not accept a detail")
	ErrArityMismatch    = errors.New("wrong number of emission arguments")
	ErrNoSuchHandler    = errors.New("no such handler")
)

// handlerEntry is one connection in an object's handler list.
type handlerEntry struct {
	id     HandlerID
	signal string
	detail Quark
	after  bool
	fn     Word
}

// SplitDetailedName splits a "name::detail" signal reference.
// Without a "::" the whole string is the name and detail is empty.
func SplitDetailedName(detailed string) (name, detail string) {
	if i := strings.Index(detailed, "::"); i >= 0 {
		return detailed[:i], detailed[i+2:]
	}
	return detailed, ""
}

// Connect registers fn to run before the signal's default handler.
// The detailed name may carry a "::detail" suffix on detailed signals.
// The callable is only borrowed: connecting does not transfer its
// ownership, and disconnecting does not release it.
func (s *System) Connect(obj Word, detailed string, fn Word) (HandlerID, error) {
	return s.connect(obj, detailed, fn, false)
}

// ConnectAfter registers fn to run after the signal's default handler.
func (s *System) ConnectAfter(obj Word, detailed string, fn Word) (HandlerID, error) {
	return s.connect(obj, detailed, fn, true)
}

func (s *System) connect(obj Word, detailed string, fn Word, after bool) (HandlerID, error) {
	inst := s.Objects.Get(obj)

	name, detailStr := SplitDetailedName(detailed)
	spec := inst.class.FindSignal(name)
	if spec == nil {
		return 0, fmt.Errorf("connect %q on %s: %w", name, inst.class.Name, ErrNoSuchSignal)
	}
	if detailStr != "" && !spec.Detailed {
		return 0, fmt.Errorf("connect %q on %s: %w", detailed, inst.class.Name, ErrDetailNotAllowed)
	}

	// Fail now rather than at first emission if fn is already gone.
	s.Callables.get(fn)

	entry := &handlerEntry{
		id:     HandlerID(s.handlerID.Add(1) - 1),
		signal: name,
		detail: s.Quarks.Intern(detailStr),
		after:  after,
		fn:     fn,
	}

	inst.handlersMu.Lock()
	inst.handlers = append(inst.handlers, entry)
	inst.handlersMu.Unlock()

	return entry.id, nil
}

// Disconnect removes a connection by handler ID. The handler's callable
// is not released; its registrar still owns it. Unlike Emit and Connect,
// Disconnect tolerates a dead object so teardown can run in any order.
func (s *System) Disconnect(obj Word, id HandlerID) error {
	inst, ok := s.Objects.lookup(obj)
	if !ok {
		return fmt.Errorf("disconnect handler %d: object gone: %w", id, ErrNoSuchHandler)
	}

	inst.handlersMu.Lock()
	defer inst.handlersMu.Unlock()

	for i, entry := range inst.handlers {
		if entry.id == id {
			inst.handlers = append(inst.handlers[:i], inst.handlers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("disconnect handler %d: %w", id, ErrNoSuchHandler)
}

// Connected reports whether a handler ID is still registered on obj.
// Handlers of a dead object are gone by definition.
func (s *System) Connected(obj Word, id HandlerID) bool {
	inst, ok := s.Objects.lookup(obj)
	if !ok {
		return false
	}

	inst.handlersMu.RLock()
	defer inst.handlersMu.RUnlock()

	for _, entry := range inst.handlers {
		if entry.id == id {
			return true
		}
	}
	return false
}

// Emit runs a signal emission on obj.
//
// Order is fixed: before-handlers in connection order, then the class
// default handler, then after-handlers in connection order. A handler
// connected with a detail runs only when the emission carries the same
// detail; a handler connected without one runs for every emission of
// its signal. The handler list is snapshotted at entry, so handlers
// that connect or disconnect others during dispatch take effect from
// the next emission on.
//
// The returned word is the return of the last handler that ran, or
// Null if none matched.
func (s *System) Emit(obj Word, detailed string, args []Word) (Word, error) {
	inst := s.Objects.Get(obj)

	name, detailStr := SplitDetailedName(detailed)
	spec := inst.class.FindSignal(name)
	if spec == nil {
		return Null, fmt.Errorf("emit %q on %s: %w", name, inst.class.Name, ErrNoSuchSignal)
	}
	if detailStr != "" && !spec.Detailed {
		return Null, fmt.Errorf("emit %q on %s: %w", detailed, inst.class.Name, ErrDetailNotAllowed)
	}
	if len(args) != spec.ParamCount {
		return Null, fmt.Errorf("emit %q on %s: want %d args, got %d: %w",
			name, inst.class.Name, spec.ParamCount, len(args), ErrArityMismatch)
	}

	em := &Emission{
		Emitter: obj,
		Signal:  name,
		Detail:  s.Quarks.Intern(detailStr),
	}

	inst.handlersMu.RLock()
	snapshot := make([]*handlerEntry, len(inst.handlers))
	copy(snapshot, inst.handlers)
	inst.handlersMu.RUnlock()

	matches := func(entry *handlerEntry) bool {
		if entry.signal != name {
			return false
		}
		return entry.detail == NoDetail || entry.detail == em.Detail
	}

	ret := Null
	for _, entry := range snapshot {
		if !entry.after && matches(entry) {
			ret = s.Callables.get(entry.fn)(s, em, args)
		}
	}
	if spec.Default != nil {
		ret = spec.Default(s, em, args)
	}
	for _, entry := range snapshot {
		if entry.after && matches(entry) {
			ret = s.Callables.get(entry.fn)(s, em, args)
		}
	}
	return ret, nil
}
