package marshal

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/chazu/giro/gi"
)

func scalar(tag gi.TypeTag) gi.TypeInfo {
	return gi.TypeInfo{Tag: tag, LengthParam: -1}
}

func arg(name string, t gi.TypeInfo, dir gi.Direction, tr gi.Transfer) gi.Arg {
	return gi.Arg{Name: name, Type: t, Direction: dir, Transfer: tr, Closure: -1, Destroy: -1}
}

func wantPanic(t *testing.T, substr string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("no panic, want panic containing %q", substr)
		}
		if !strings.Contains(fmt.Sprint(r), substr) {
			t.Errorf("panic %q, want substring %q", r, substr)
		}
	}()
	fn()
}

func TestPlanPartition(t *testing.T) {
	c := &gi.Callable{
		Name: "transform",
		Args: []gi.Arg{
			arg("count", scalar(gi.TagInt32), gi.DirIn, gi.TransferNone),
			arg("msg", scalar(gi.TagUTF8), gi.DirOut, gi.TransferEverything),
			arg("scale", scalar(gi.TagDouble), gi.DirInOut, gi.TransferNone),
		},
		Return: gi.VoidType,
	}

	p, err := plan(c)
	if err != nil {
		t.Fatalf("plan() error: %v", err)
	}

	if p.numIns != 2 || p.numOuts != 2 {
		t.Errorf("numIns, numOuts = %d, %d, want 2, 2", p.numIns, p.numOuts)
	}
	if len(p.prepare) != 2 || len(p.writeback) != 2 {
		t.Fatalf("prepare, writeback lengths = %d, %d, want 2, 2", len(p.prepare), len(p.writeback))
	}

	if p.prepare[0].arg.Name != "count" || p.prepare[0].inSlot != 0 {
		t.Errorf("prepare[0] = %q slot %d, want count slot 0", p.prepare[0].arg.Name, p.prepare[0].inSlot)
	}
	if p.prepare[1].arg.Name != "scale" || p.prepare[1].inSlot != 1 {
		t.Errorf("prepare[1] = %q slot %d, want scale slot 1", p.prepare[1].arg.Name, p.prepare[1].inSlot)
	}
	if p.writeback[0].arg.Name != "msg" || p.writeback[0].outSlot != 0 {
		t.Errorf("writeback[0] = %q slot %d, want msg slot 0", p.writeback[0].arg.Name, p.writeback[0].outSlot)
	}
	if p.writeback[1].arg.Name != "scale" || p.writeback[1].outSlot != 1 {
		t.Errorf("writeback[1] = %q slot %d, want scale slot 1", p.writeback[1].arg.Name, p.writeback[1].outSlot)
	}
	if len(p.hidden) != 0 {
		t.Errorf("hidden = %v, want empty", p.hidden)
	}
	if p.closureIdx != -1 {
		t.Errorf("closureIdx = %d, want -1", p.closureIdx)
	}
}

func TestPlanHidesClosureArgs(t *testing.T) {
	value := arg("value", scalar(gi.TagDouble), gi.DirIn, gi.TransferNone)
	value.Closure = 1
	value.Destroy = 2

	c := &gi.Callable{
		Name: "NotifyFunc",
		Args: []gi.Arg{
			value,
			arg("user_data", scalar(gi.TagVoid), gi.DirIn, gi.TransferNone),
			arg("on_destroy", scalar(gi.TagVoid), gi.DirIn, gi.TransferNone),
		},
		Return: gi.VoidType,
	}

	p, err := plan(c)
	if err != nil {
		t.Fatalf("plan() error: %v", err)
	}

	if !p.hidden[1] || !p.hidden[2] {
		t.Errorf("hidden = %v, want indexes 1 and 2", p.hidden)
	}
	if p.closureIdx != 1 {
		t.Errorf("closureIdx = %d, want 1", p.closureIdx)
	}
	if p.numIns != 1 || len(p.prepare) != 1 || p.prepare[0].arg.Name != "value" {
		t.Errorf("prepare = %d args (numIns %d), want just value", len(p.prepare), p.numIns)
	}
	if p.numOuts != 0 {
		t.Errorf("numOuts = %d, want 0", p.numOuts)
	}
}

func TestPlanHidesLengthParams(t *testing.T) {
	items := gi.TypeInfo{Tag: gi.TagArray, LengthParam: 1}
	elem := scalar(gi.TagUTF8)
	items.Elem = &elem

	c := &gi.Callable{
		Name: "consume",
		Args: []gi.Arg{
			arg("items", items, gi.DirIn, gi.TransferNone),
			arg("n_items", scalar(gi.TagUInt32), gi.DirIn, gi.TransferNone),
		},
		Return: gi.VoidType,
	}

	p, err := plan(c)
	if err != nil {
		t.Fatalf("plan() error: %v", err)
	}

	if !p.hidden[1] {
		t.Errorf("hidden = %v, want index 1", p.hidden)
	}
	if len(p.prepare) != 1 || p.prepare[0].lengthIdx != 1 {
		t.Fatalf("prepare = %+v, want single entry with lengthIdx 1", p.prepare)
	}
	if p.numIns != 1 {
		t.Errorf("numIns = %d, want 1", p.numIns)
	}
}

func TestPlanRefusals(t *testing.T) {
	boundless := gi.TypeInfo{Tag: gi.TagArray, LengthParam: -1}
	elem := scalar(gi.TagInt32)
	boundless.Elem = &elem

	noElem := gi.TypeInfo{Tag: gi.TagArray, LengthParam: -1, ZeroTerminated: true}
	rows := gi.TypeInfo{Tag: gi.TagArray, LengthParam: -1, ZeroTerminated: true, Elem: &boundless}
	inner := gi.TypeInfo{Tag: gi.TagArray, LengthParam: 1, ZeroTerminated: true, Elem: &elem}
	nested := gi.TypeInfo{Tag: gi.TagArray, LengthParam: -1, ZeroTerminated: true, Elem: &inner}

	tests := []struct {
		name     string
		callable gi.Callable
		sentinel error
		detail   string
	}{
		{
			name:     "throws",
			callable: gi.Callable{Name: "Failing", Throws: true, Return: gi.VoidType},
			sentinel: ErrThrowsNotSupported,
		},
		{
			name: "array argument without length source",
			callable: gi.Callable{
				Name:   "Eat",
				Args:   []gi.Arg{arg("data", boundless, gi.DirIn, gi.TransferNone)},
				Return: gi.VoidType,
			},
			sentinel: ErrNoLengthSource,
			detail:   `argument "data"`,
		},
		{
			name: "return array without length source",
			callable: gi.Callable{
				Name:   "Produce",
				Return: boundless,
			},
			sentinel: ErrNoLengthSource,
			detail:   "return value",
		},
		{
			name: "array argument without element type",
			callable: gi.Callable{
				Name:   "Blob",
				Args:   []gi.Arg{arg("data", noElem, gi.DirIn, gi.TransferNone)},
				Return: gi.VoidType,
			},
			sentinel: ErrNoElementType,
			detail:   `argument "data"`,
		},
		{
			name: "element array without length source",
			callable: gi.Callable{
				Name:   "Grid",
				Args:   []gi.Arg{arg("rows", rows, gi.DirIn, gi.TransferNone)},
				Return: gi.VoidType,
			},
			sentinel: ErrNoLengthSource,
			detail:   `argument "rows" element`,
		},
		{
			name: "element array with length param",
			callable: gi.Callable{
				Name:   "Table",
				Args:   []gi.Arg{arg("cells", nested, gi.DirIn, gi.TransferNone)},
				Return: gi.VoidType,
			},
			sentinel: ErrNestedLengthParam,
			detail:   `argument "cells" element`,
		},
		{
			name: "return element array without length source",
			callable: gi.Callable{
				Name:   "Matrix",
				Return: rows,
			},
			sentinel: ErrNoLengthSource,
			detail:   "return value element",
		},
		{
			name: "async return without transfer",
			callable: gi.Callable{
				Name:   "Fetch",
				Scope:  gi.ScopeAsync,
				Return: scalar(gi.TagUTF8),
			},
			sentinel: ErrAsyncBorrowedOutput,
			detail:   "return value",
		},
		{
			name: "async out without transfer",
			callable: gi.Callable{
				Name:   "Report",
				Scope:  gi.ScopeAsync,
				Args:   []gi.Arg{arg("msg", scalar(gi.TagUTF8), gi.DirOut, gi.TransferNone)},
				Return: gi.VoidType,
			},
			sentinel: ErrAsyncBorrowedOutput,
			detail:   `argument "msg"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := plan(&tt.callable)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("plan() error = %v, want %v", err, tt.sentinel)
			}
			var ue *UnsupportedError
			if !errors.As(err, &ue) {
				t.Fatalf("plan() error type = %T, want *UnsupportedError", err)
			}
			if ue.Callable != tt.callable.Name {
				t.Errorf("Callable = %q, want %q", ue.Callable, tt.callable.Name)
			}
			if tt.detail != "" && !strings.Contains(err.Error(), tt.detail) {
				t.Errorf("error %q does not mention %q", err, tt.detail)
			}
		})
	}
}

func TestPlanAcceptsTerminatedAndFixedArrays(t *testing.T) {
	elem := scalar(gi.TagUTF8)
	zt := gi.TypeInfo{Tag: gi.TagArray, LengthParam: -1, ZeroTerminated: true, Elem: &elem}
	fixed := gi.TypeInfo{Tag: gi.TagArray, LengthParam: -1, FixedSize: 4, Elem: &elem}
	grid := gi.TypeInfo{Tag: gi.TagArray, LengthParam: -1, ZeroTerminated: true, Elem: &fixed}

	c := &gi.Callable{
		Name: "shapes",
		Args: []gi.Arg{
			arg("names", zt, gi.DirIn, gi.TransferNone),
			arg("quad", fixed, gi.DirIn, gi.TransferNone),
			arg("grid", grid, gi.DirIn, gi.TransferNone),
		},
		Return: gi.VoidType,
	}

	p, err := plan(c)
	if err != nil {
		t.Fatalf("plan() error: %v", err)
	}
	for _, ap := range p.prepare {
		if ap.lengthIdx != -1 {
			t.Errorf("argument %q lengthIdx = %d, want -1", ap.arg.Name, ap.lengthIdx)
		}
	}
}

func TestPlanAcceptsAsyncTransferredOutputs(t *testing.T) {
	c := &gi.Callable{
		Name:  "Fetch",
		Scope: gi.ScopeAsync,
		Args: []gi.Arg{
			arg("url", scalar(gi.TagUTF8), gi.DirIn, gi.TransferNone),
			arg("etag", scalar(gi.TagUTF8), gi.DirOut, gi.TransferEverything),
		},
		Return:         scalar(gi.TagUTF8),
		ReturnTransfer: gi.TransferEverything,
	}

	if _, err := plan(c); err != nil {
		t.Fatalf("plan() error: %v", err)
	}
}
