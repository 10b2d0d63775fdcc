package native

import "math"

// Word is the native calling convention's machine word, encoded with
// NaN-boxing.
//
// All words are 64-bit IEEE 754 doubles. Non-float values are encoded in
// the quiet-NaN space using tag bits to distinguish kinds. Reference kinds
// (strings, arrays, cells, callables, objects) carry a heap or registry ID
// in the payload rather than a raw pointer, so a Word is meaningful only
// together with the System that issued it.
//
// Encoding scheme:
//   - Float: native IEEE 754 double (any non-NaN, plus real NaNs/Infs)
//   - Int: quiet NaN + tagInt + 48-bit signed payload
//   - Special: quiet NaN + tagSpecial + null/true/false ID
//   - String/Array/Cell/Callable/Object: quiet NaN + kind tag + ID payload
type Word uint64

// NaN-boxing constants
const (
	// Quiet NaN prefix: exponent all 1s, quiet bit set, sign bit 0
	nanBits uint64 = 0x7FF8000000000000

	// Tag mask: 3 bits within the NaN mantissa space
	tagMask uint64 = 0x0007000000000000

	// Payload mask: 48 bits for IDs and small integers
	payloadMask uint64 = 0x0000FFFFFFFFFFFF

	// Tag values (shifted into position)
	tagObject   uint64 = 0x0001000000000000 // object handle ID
	tagInt      uint64 = 0x0002000000000000 // 48-bit signed integer
	tagSpecial  uint64 = 0x0003000000000000 // null, true, false
	tagString   uint64 = 0x0004000000000000 // heap string ID
	tagArray    uint64 = 0x0005000000000000 // heap array ID
	tagCell     uint64 = 0x0006000000000000 // heap out-cell ID
	tagCallable uint64 = 0x0007000000000000 // registered callable ID

	// Sign bit for 48-bit integer sign extension
	intSignBit uint64 = 0x0000800000000000

	// Mask for sign extension
	intSignExtend uint64 = 0xFFFF000000000000
)

// Special value payloads
const (
	specialNull  uint64 = 0
	specialTrue  uint64 = 1
	specialFalse uint64 = 2
)

// Pre-defined special words. Null is the null sentinel of the whole
// system: a nullable value crossing the boundary is either Null or a
// fully valid word of its declared kind, never anything in between.
const (
	Null  Word = Word(nanBits | tagSpecial | specialNull)
	True  Word = Word(nanBits | tagSpecial | specialTrue)
	False Word = Word(nanBits | tagSpecial | specialFalse)
)

// Int range (48-bit signed)
const (
	MaxInt int64 = (1 << 47) - 1
	MinInt int64 = -(1 << 47)
)

// ---------------------------------------------------------------------------
// Kind checking
// ---------------------------------------------------------------------------

// IsFloat returns true if w represents a float64 value.
// Real NaNs and infinities count as floats; tagged words do not.
func (w Word) IsFloat() bool {
	bits := uint64(w)

	if (bits & 0x7FF0000000000000) != 0x7FF0000000000000 {
		// Exponent is not all 1s, so it's a regular float.
		return true
	}

	mantissa := bits & 0x000FFFFFFFFFFFFF
	if mantissa == 0 {
		// +Inf or -Inf
		return true
	}

	if (bits & nanBits) != nanBits {
		// Signaling NaN, treat as float
		return true
	}

	// Quiet NaN with no tag bits is a real NaN.
	return bits&tagMask == 0
}

func (w Word) hasTag(tag uint64) bool {
	return (uint64(w) & (nanBits | tagMask)) == (nanBits | tag)
}

// IsInt returns true if w represents a small integer.
func (w Word) IsInt() bool { return w.hasTag(tagInt) }

// IsObject returns true if w is an object handle.
func (w Word) IsObject() bool { return w.hasTag(tagObject) }

// IsString returns true if w is a heap string reference.
func (w Word) IsString() bool { return w.hasTag(tagString) }

// IsArray returns true if w is a heap array reference.
func (w Word) IsArray() bool { return w.hasTag(tagArray) }

// IsCell returns true if w is an out-cell reference.
func (w Word) IsCell() bool { return w.hasTag(tagCell) }

// IsCallable returns true if w is a registered callable handle.
func (w Word) IsCallable() bool { return w.hasTag(tagCallable) }

// IsNull returns true if w is the null sentinel.
func (w Word) IsNull() bool { return w == Null }

// IsBool returns true if w is True or False.
func (w Word) IsBool() bool { return w == True || w == False }

// IsSpecial returns true if w is Null, True, or False.
func (w Word) IsSpecial() bool { return w.hasTag(tagSpecial) }

// ---------------------------------------------------------------------------
// Float operations
// ---------------------------------------------------------------------------

// Float64 returns w as a float64.
// Panics if w is not a float.
func (w Word) Float64() float64 {
	if !w.IsFloat() {
		panic("Word.Float64: not a float")
	}
	return math.Float64frombits(uint64(w))
}

// FromFloat64 creates a Word from a float64.
func FromFloat64(f float64) Word {
	return Word(math.Float64bits(f))
}

// ---------------------------------------------------------------------------
// Int operations
// ---------------------------------------------------------------------------

// Int returns w as an int64.
// Panics if w is not an integer.
func (w Word) Int() int64 {
	if !w.IsInt() {
		panic("Word.Int: not an integer")
	}
	payload := uint64(w) & payloadMask

	// Sign extend from 48 bits to 64 bits
	if (payload & intSignBit) != 0 {
		payload |= intSignExtend
	}
	return int64(payload)
}

// FromInt creates a Word from an int64.
// Panics if n is outside the 48-bit range.
func FromInt(n int64) Word {
	if n > MaxInt || n < MinInt {
		panic("FromInt: value out of range")
	}
	return Word(nanBits | tagInt | (uint64(n) & payloadMask))
}

// TryFromInt creates a Word from an int64, returning false if out of range.
func TryFromInt(n int64) (Word, bool) {
	if n > MaxInt || n < MinInt {
		return Null, false
	}
	return Word(nanBits | tagInt | (uint64(n) & payloadMask)), true
}

// ---------------------------------------------------------------------------
// Boolean operations
// ---------------------------------------------------------------------------

// Bool returns w as a bool.
// Panics if w is not True or False.
func (w Word) Bool() bool {
	switch w {
	case True:
		return true
	case False:
		return false
	default:
		panic("Word.Bool: not a boolean")
	}
}

// FromBool creates a Word from a bool.
func FromBool(b bool) Word {
	if b {
		return True
	}
	return False
}

// ---------------------------------------------------------------------------
// Reference ID operations
// ---------------------------------------------------------------------------

func (w Word) refID(tag uint64, what string) uint64 {
	if !w.hasTag(tag) {
		panic("Word." + what + ": wrong kind")
	}
	return uint64(w) & payloadMask
}

// ObjectID returns the object handle ID.
// Panics if w is not an object handle.
func (w Word) ObjectID() uint64 { return w.refID(tagObject, "ObjectID") }

// StringID returns the heap string ID.
// Panics if w is not a string reference.
func (w Word) StringID() uint64 { return w.refID(tagString, "StringID") }

// ArrayID returns the heap array ID.
// Panics if w is not an array reference.
func (w Word) ArrayID() uint64 { return w.refID(tagArray, "ArrayID") }

// CellID returns the out-cell ID.
// Panics if w is not a cell reference.
func (w Word) CellID() uint64 { return w.refID(tagCell, "CellID") }

// CallableID returns the registered callable ID.
// Panics if w is not a callable handle.
func (w Word) CallableID() uint64 { return w.refID(tagCallable, "CallableID") }

func wordFromID(tag uint64, id uint64) Word {
	if id > payloadMask {
		panic("wordFromID: ID exceeds 48-bit payload")
	}
	return Word(nanBits | tag | id)
}

// Kind returns a short human-readable kind name for diagnostics.
func (w Word) Kind() string {
	switch {
	case w.IsNull():
		return "null"
	case w.IsBool():
		return "bool"
	case w.IsInt():
		return "int"
	case w.IsFloat():
		return "float"
	case w.IsObject():
		return "object"
	case w.IsString():
		return "string"
	case w.IsArray():
		return "array"
	case w.IsCell():
		return "cell"
	case w.IsCallable():
		return "callable"
	default:
		return "?"
	}
}
