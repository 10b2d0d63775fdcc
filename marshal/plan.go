package marshal

import (
	"errors"
	"fmt"

	"github.com/chazu/giro/gi"
)

// ---------------------------------------------------------------------------
// Argument direction classifier
// ---------------------------------------------------------------------------

// Unsupported-combination sentinels. These mark callable shapes the
// builder deliberately refuses, not deferred features.
var (
	// ErrThrowsNotSupported: the native contract leaves the return value
	// on an error path undefined, so no handler-to-native wrapper exists
	// for error-reporting callables. Permanent boundary, not a TODO.
	ErrThrowsNotSupported = errors.New("error-reporting callables have no handler-to-native wrapper")

	// ErrNoLengthSource: an array argument with no companion length
	// parameter, no terminator, and no fixed size cannot be bounded.
	ErrNoLengthSource = errors.New("array argument has no length source")

	// ErrNoElementType: an array type without an element type cannot be
	// converted in either direction.
	ErrNoElementType = errors.New("array type has no element type")

	// ErrNestedLengthParam: a length parameter names a position in the
	// callable's argument list, which an element type cannot see.
	ErrNestedLengthParam = errors.New("element array cannot reference a length parameter")

	// ErrAsyncBorrowedOutput: a one-shot wrapper frees what it retained
	// as soon as it self-releases after the call, so a borrowed return
	// or out value would be dead before the native caller could read
	// it. Async callable outputs must transfer ownership.
	ErrAsyncBorrowedOutput = errors.New("async callable output must transfer ownership")
)

// UnsupportedError reports a callable the builder refused, naming it
// and the refusal reason. Matches the sentinel via errors.Is.
type UnsupportedError struct {
	Callable string
	Detail   string
	Reason   error
}

func (e *UnsupportedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("marshal: %s: %s: %v", e.Callable, e.Detail, e.Reason)
	}
	return fmt.Sprintf("marshal: %s: %v", e.Callable, e.Reason)
}

func (e *UnsupportedError) Unwrap() error { return e.Reason }

// argPlan is the classified view of one argument.
//
// index addresses the native argument vector; inSlot/outSlot address
// the caller-visible input and output sequences (-1 when the argument
// does not surface there). lengthIdx is the native index of an array's
// companion length argument, -1 if bounds come from elsewhere.
type argPlan struct {
	index     int
	arg       *gi.Arg
	lengthIdx int
	inSlot    int
	outSlot   int
}

// wrapperPlan partitions a callable's arguments into the sequence
// prepared before the handler runs (in, inout) and the sequence written
// back after it returns (out, inout). Closure context, destroy
// notifiers, and consumed length parameters are hidden: they never get
// caller-visible slots.
type wrapperPlan struct {
	callable   *gi.Callable
	prepare    []argPlan
	writeback  []argPlan
	hidden     map[int]bool
	closureIdx int
	numIns     int
	numOuts    int
}

// plan classifies a callable. Shapes the builder refuses come back as
// *UnsupportedError; a nil error means Build can produce a real
// adapter for this callable.
func plan(c *gi.Callable) (*wrapperPlan, error) {
	if c.Throws {
		return nil, &UnsupportedError{Callable: c.Name, Reason: ErrThrowsNotSupported}
	}

	p := &wrapperPlan{
		callable:   c,
		hidden:     c.ClosureIndexes(),
		closureIdx: -1,
	}

	for i := range c.Args {
		a := &c.Args[i]
		if a.Closure >= 0 && p.closureIdx < 0 {
			p.closureIdx = a.Closure
		}
		if a.Type.Tag == gi.TagArray {
			if !a.Type.HasLengthSource() {
				return nil, &UnsupportedError{
					Callable: c.Name,
					Detail:   fmt.Sprintf("argument %q", a.Name),
					Reason:   ErrNoLengthSource,
				}
			}
			if ue := checkElems(c, fmt.Sprintf("argument %q", a.Name), &a.Type); ue != nil {
				return nil, ue
			}
			if lp := a.Type.LengthParam; lp >= 0 {
				p.hidden[lp] = true
			}
		}
		if c.Scope == gi.ScopeAsync && a.Direction != gi.DirIn && borrows(a.Type, a.Transfer) {
			return nil, &UnsupportedError{
				Callable: c.Name,
				Detail:   fmt.Sprintf("argument %q", a.Name),
				Reason:   ErrAsyncBorrowedOutput,
			}
		}
	}
	if c.Return.Tag == gi.TagArray {
		if !c.Return.HasLengthSource() {
			return nil, &UnsupportedError{
				Callable: c.Name,
				Detail:   "return value",
				Reason:   ErrNoLengthSource,
			}
		}
		if ue := checkElems(c, "return value", &c.Return); ue != nil {
			return nil, ue
		}
	}
	if c.Scope == gi.ScopeAsync && c.HasReturn() && borrows(c.Return, c.ReturnTransfer) {
		return nil, &UnsupportedError{
			Callable: c.Name,
			Detail:   "return value",
			Reason:   ErrAsyncBorrowedOutput,
		}
	}

	for i := range c.Args {
		a := &c.Args[i]
		if p.hidden[i] {
			continue
		}

		ap := argPlan{
			index:     i,
			arg:       a,
			lengthIdx: -1,
			inSlot:    -1,
			outSlot:   -1,
		}
		if a.Type.Tag == gi.TagArray && a.Type.LengthParam >= 0 {
			ap.lengthIdx = a.Type.LengthParam
		}

		switch a.Direction {
		case gi.DirIn:
			ap.inSlot = p.numIns
			p.numIns++
			p.prepare = append(p.prepare, ap)
		case gi.DirInOut:
			ap.inSlot = p.numIns
			p.numIns++
			ap.outSlot = p.numOuts
			p.numOuts++
			p.prepare = append(p.prepare, ap)
			p.writeback = append(p.writeback, ap)
		case gi.DirOut:
			ap.outSlot = p.numOuts
			p.numOuts++
			p.writeback = append(p.writeback, ap)
		default:
			panic(fmt.Sprintf("plan: %s: argument %q has direction %d", c.Name, a.Name, a.Direction))
		}
	}

	return p, nil
}

// checkElems walks an array's element chain. Element arrays can only
// be bounded by a terminator or a fixed size; there is no argument
// list for a nested length parameter to index.
func checkElems(c *gi.Callable, what string, t *gi.TypeInfo) *UnsupportedError {
	if t.Elem == nil {
		return &UnsupportedError{Callable: c.Name, Detail: what, Reason: ErrNoElementType}
	}
	e := t.Elem
	if e.Tag != gi.TagArray {
		return nil
	}
	what += " element"
	if e.LengthParam >= 0 {
		return &UnsupportedError{Callable: c.Name, Detail: what, Reason: ErrNestedLengthParam}
	}
	if !e.ZeroTerminated && e.FixedSize <= 0 {
		return &UnsupportedError{Callable: c.Name, Detail: what, Reason: ErrNoLengthSource}
	}
	return checkElems(c, what, e)
}

// borrows reports whether converting a handler-produced value of this
// type and transfer leaves storage retained by the wrapper.
func borrows(t gi.TypeInfo, tr gi.Transfer) bool {
	switch {
	case t.Tag.IsStringy():
		return tr == gi.TransferNone
	case t.Tag == gi.TagArray:
		switch tr {
		case gi.TransferEverything:
			return false
		case gi.TransferContainer:
			return t.Elem != nil && borrows(*t.Elem, gi.TransferNone)
		default:
			return true
		}
	default:
		return false
	}
}
