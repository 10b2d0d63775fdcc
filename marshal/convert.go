package marshal

import (
	"fmt"

	"github.com/chazu/giro/gi"
	"github.com/chazu/giro/native"
)

// ---------------------------------------------------------------------------
// Value conversion
// ---------------------------------------------------------------------------

// Go-side representations, by tag:
//
//	boolean              bool
//	int8..uint64         int64
//	float, double        float64
//	utf8, filename       string
//	array                []any
//	object               *Object
//
// Null never reaches a converter. Callers check IsNull first and map it
// to Go nil (or reject it, per nullability); both converters panic if
// handed a null anyway.

// Object is an owned handle to a native object. owned records whether
// the holder carries a reference it must drop; handles built from
// transfer-none words observe without owning.
type Object struct {
	sys   *native.System
	word  native.Word
	owned bool
}

// Word returns the native word for the object.
func (o *Object) Word() native.Word { return o.word }

// Owned reports whether this handle carries its own reference.
func (o *Object) Owned() bool { return o.owned }

// Class returns the object's class name.
func (o *Object) Class() string {
	return o.sys.Objects.Get(o.word).Class().Name
}

// Ref takes an additional reference and returns an owning handle.
func (o *Object) Ref() *Object {
	o.sys.Objects.Ref(o.word)
	return &Object{sys: o.sys, word: o.word, owned: true}
}

// Unref drops the handle's reference. Panics on a non-owning handle;
// observers have nothing to drop.
func (o *Object) Unref() {
	if !o.owned {
		panic("Object.Unref: handle does not own a reference")
	}
	o.owned = false
	o.sys.Objects.Unref(o.word)
}

// wordToGo converts one native word to its Go representation and
// applies the transfer rule: everything releases the transferred
// storage once the value is copied out, container releases an array
// spine but not its elements, none leaves ownership with the caller.
//
// length is the element count read from a companion length parameter,
// -1 when bounds come from a terminator or fixed size instead.
func wordToGo(sys *native.System, w native.Word, t gi.TypeInfo, tr gi.Transfer, length int) any {
	if w.IsNull() {
		panic("marshal: wordToGo: null word reached the converter")
	}

	switch {
	case t.Tag == gi.TagBoolean:
		return w.Bool()
	case t.Tag.IsInteger():
		return w.Int()
	case t.Tag == gi.TagFloat || t.Tag == gi.TagDouble:
		return w.Float64()
	case t.Tag.IsStringy():
		s := sys.Heap.StringValue(w)
		if tr == gi.TransferEverything {
			sys.Heap.ReleaseString(w)
		}
		return s
	case t.Tag == gi.TagObject:
		return &Object{sys: sys, word: w, owned: tr == gi.TransferEverything}
	case t.Tag == gi.TagArray:
		return arrayToGo(sys, w, t, tr, length)
	default:
		panic(fmt.Sprintf("marshal: wordToGo: no conversion for %s", t.Tag))
	}
}

func arrayToGo(sys *native.System, w native.Word, t gi.TypeInfo, tr gi.Transfer, length int) []any {
	elems := sys.Heap.ArrayElems(w)
	switch {
	case length >= 0:
		if length > len(elems) {
			panic(fmt.Sprintf("marshal: declared length %d exceeds native array length %d", length, len(elems)))
		}
		elems = elems[:length]
	case t.ZeroTerminated:
		for i, e := range elems {
			if e.IsNull() {
				elems = elems[:i]
				break
			}
		}
	case t.FixedSize > 0:
		if t.FixedSize > len(elems) {
			panic(fmt.Sprintf("marshal: fixed size %d exceeds native array length %d", t.FixedSize, len(elems)))
		}
		elems = elems[:t.FixedSize]
	default:
		panic("marshal: array without length source reached the converter")
	}

	elemTr := gi.TransferNone
	if tr == gi.TransferEverything {
		elemTr = gi.TransferEverything
	}

	out := make([]any, len(elems))
	for i, e := range elems {
		if e.IsNull() {
			continue
		}
		out[i] = wordToGo(sys, e, *t.Elem, elemTr, -1)
	}

	if tr == gi.TransferContainer || tr == gi.TransferEverything {
		sys.Heap.ReleaseArray(w)
	}
	return out
}

// goToWord converts a Go value to a freshly allocated native word and
// applies the transfer rule from the receiver's viewpoint: everything
// hands ownership of the new storage to the native side, none keeps
// ownership with the wrapper, which appends a release closure to
// retain for each retained allocation. Container hands over an array
// spine while the wrapper retains the element storage.
func goToWord(sys *native.System, v any, t gi.TypeInfo, tr gi.Transfer, retain *[]func()) native.Word {
	if v == nil {
		panic("marshal: goToWord: nil value reached the converter")
	}

	switch {
	case t.Tag == gi.TagBoolean:
		return native.FromBool(mustBe[bool](v, t))
	case t.Tag.IsInteger():
		switch n := v.(type) {
		case int64:
			return native.FromInt(n)
		case int:
			return native.FromInt(int64(n))
		case int32:
			return native.FromInt(int64(n))
		default:
			panic(fmt.Sprintf("marshal: goToWord: %s value is %T, want int64", t.Tag, v))
		}
	case t.Tag == gi.TagFloat || t.Tag == gi.TagDouble:
		return native.FromFloat64(mustBe[float64](v, t))
	case t.Tag.IsStringy():
		w := sys.Heap.NewString(mustBe[string](v, t))
		if tr == gi.TransferNone {
			*retain = append(*retain, func() { sys.Heap.ReleaseString(w) })
		}
		return w
	case t.Tag == gi.TagObject:
		o := mustBe[*Object](v, t)
		if tr == gi.TransferEverything {
			o.sys.Objects.Ref(o.word)
		}
		return o.word
	case t.Tag == gi.TagArray:
		return arrayToWord(sys, mustBe[[]any](v, t), t, tr, retain)
	default:
		panic(fmt.Sprintf("marshal: goToWord: no conversion for %s", t.Tag))
	}
}

func arrayToWord(sys *native.System, vs []any, t gi.TypeInfo, tr gi.Transfer, retain *[]func()) native.Word {
	elemTr := gi.TransferNone
	if tr == gi.TransferEverything {
		elemTr = gi.TransferEverything
	}

	n := len(vs)
	if t.ZeroTerminated {
		n++
	}
	elems := make([]native.Word, 0, n)
	for _, v := range vs {
		if v == nil {
			elems = append(elems, native.Null)
			continue
		}
		elems = append(elems, goToWord(sys, v, *t.Elem, elemTr, retain))
	}
	if t.ZeroTerminated {
		elems = append(elems, native.Null)
	}

	w := sys.Heap.NewArray(elems)
	if tr == gi.TransferNone {
		*retain = append(*retain, func() { sys.Heap.ReleaseArray(w) })
	}
	return w
}

func mustBe[T any](v any, t gi.TypeInfo) T {
	x, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("marshal: goToWord: %s value is %T, want %T", t.Tag, v, x))
	}
	return x
}
