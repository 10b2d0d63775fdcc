// Package gi models introspection metadata: the typed descriptions of
// callables, signals, and objects that drive callback marshalling.
//
// Descriptors are value types derived once from a metadata file and
// never mutated afterwards. The marshalling layer trusts them as
// accurate; Validate catches structural lies (dangling length-parameter
// or closure indices, bad enum values) at load time so the wrapper
// builder never has to.
package gi

import "fmt"

// ---------------------------------------------------------------------------
// Type system
// ---------------------------------------------------------------------------

// TypeTag identifies the fundamental kind of a value.
type TypeTag int

const (
	TagVoid TypeTag = iota
	TagBoolean
	TagInt8
	TagUInt8
	TagInt16
	TagUInt16
	TagInt32
	TagUInt32
	TagInt64
	TagUInt64
	TagFloat
	TagDouble
	TagUTF8
	TagFilename
	TagArray
	TagObject
)

var tagNames = map[TypeTag]string{
	TagVoid:     "void",
	TagBoolean:  "boolean",
	TagInt8:     "int8",
	TagUInt8:    "uint8",
	TagInt16:    "int16",
	TagUInt16:   "uint16",
	TagInt32:    "int32",
	TagUInt32:   "uint32",
	TagInt64:    "int64",
	TagUInt64:   "uint64",
	TagFloat:    "float",
	TagDouble:   "double",
	TagUTF8:     "utf8",
	TagFilename: "filename",
	TagArray:    "array",
	TagObject:   "object",
}

func (t TypeTag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TypeTag(%d)", int(t))
}

// IsInteger reports whether the tag is one of the integer kinds.
func (t TypeTag) IsInteger() bool {
	return t >= TagInt8 && t <= TagUInt64
}

// IsStringy reports whether the tag is a string kind.
func (t TypeTag) IsStringy() bool {
	return t == TagUTF8 || t == TagFilename
}

// TypeInfo describes one semantic type.
//
// Array types carry their element type plus whichever bounds source the
// native ABI provides: a companion length parameter (LengthParam is its
// index in the callable's argument list, -1 if none), zero termination,
// or a fixed size. Object types name their class.
type TypeInfo struct {
	Tag            TypeTag
	Elem           *TypeInfo
	LengthParam    int
	ZeroTerminated bool
	FixedSize      int
	ClassName      string
}

// VoidType is the absent-return type.
var VoidType = TypeInfo{Tag: TagVoid, LengthParam: -1}

// HasLengthSource reports whether an array type carries any way to
// recover its bounds.
func (t TypeInfo) HasLengthSource() bool {
	if t.Tag != TagArray {
		return false
	}
	return t.LengthParam >= 0 || t.ZeroTerminated || t.FixedSize > 0
}

func (t TypeInfo) String() string {
	switch t.Tag {
	case TagArray:
		if t.Elem != nil {
			return "array of " + t.Elem.String()
		}
		return "array"
	case TagObject:
		if t.ClassName != "" {
			return "object " + t.ClassName
		}
		return "object"
	default:
		return t.Tag.String()
	}
}

// ---------------------------------------------------------------------------
// Directions, transfer modes, scopes
// ---------------------------------------------------------------------------

// Direction says which way a parameter's value flows.
type Direction int

const (
	DirIn Direction = iota
	DirOut
	DirInOut
)

func (d Direction) String() string {
	switch d {
	case DirIn:
		return "in"
	case DirOut:
		return "out"
	case DirInOut:
		return "inout"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Transfer says who owns a value's storage after it crosses the
// boundary: the receiver takes nothing, the container only, or the full
// value including contents.
type Transfer int

const (
	TransferNone Transfer = iota
	TransferContainer
	TransferEverything
)

func (t Transfer) String() string {
	switch t {
	case TransferNone:
		return "none"
	case TransferContainer:
		return "container"
	case TransferEverything:
		return "everything"
	}
	return fmt.Sprintf("Transfer(%d)", int(t))
}

// Scope selects the release policy of a registered callable handle.
//
// Call-scoped callables live for one native call and are released by
// the caller afterwards. Async callables are one-shot: the wrapper
// releases its own handle after the first invocation. Notified
// callables stay alive until their destroy notifier runs.
type Scope int

const (
	ScopeCall Scope = iota
	ScopeAsync
	ScopeNotified
)

func (s Scope) String() string {
	switch s {
	case ScopeCall:
		return "call"
	case ScopeAsync:
		return "async"
	case ScopeNotified:
		return "notified"
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

// ---------------------------------------------------------------------------
// Callables, signals, objects, namespaces
// ---------------------------------------------------------------------------

// Arg describes one parameter of a Callable.
//
// Closure and Destroy are indices into the same argument list: Closure
// names the user-data parameter threaded through for this argument's
// benefit, Destroy the notifier invoked when the callable is released.
// Both are -1 when absent.
type Arg struct {
	Name      string
	Type      TypeInfo
	Direction Direction
	Transfer  Transfer
	Nullable  bool
	Closure   int
	Destroy   int
}

// Callable describes one callback or signal handler signature.
type Callable struct {
	Name           string
	Args           []Arg
	Return         TypeInfo
	ReturnTransfer Transfer
	MayReturnNull  bool
	Throws         bool
	Scope          Scope
}

// HasReturn reports whether the callable returns a value.
func (c *Callable) HasReturn() bool {
	return c.Return.Tag != TagVoid
}

// ClosureIndexes returns the set of argument indices hidden from the
// caller-visible signature because they carry closure context or
// destroy notifiers.
func (c *Callable) ClosureIndexes() map[int]bool {
	hidden := make(map[int]bool)
	for _, a := range c.Args {
		if a.Closure >= 0 {
			hidden[a.Closure] = true
		}
		if a.Destroy >= 0 {
			hidden[a.Destroy] = true
		}
	}
	return hidden
}

// Signal is a Callable emitted by an object class. The emitting
// instance is not one of Args; handlers reach it through the
// invocation context instead.
type Signal struct {
	Callable
	Detailed bool
	RunLast  bool
	Owner    string
}

// Object describes a class: its parent (within the same namespace) and
// the signals it declares.
type Object struct {
	Name    string
	Parent  string
	Signals []Signal
}

// Signal returns the signal declared directly on o with the given
// name, or nil.
func (o *Object) Signal(name string) *Signal {
	for i := range o.Signals {
		if o.Signals[i].Name == name {
			return &o.Signals[i]
		}
	}
	return nil
}

// Namespace is one loaded metadata unit: a named, versioned set of
// objects and standalone callbacks, with semver-constrained
// dependencies on other namespaces.
type Namespace struct {
	Name         string
	Version      string
	Dependencies map[string]string
	Objects      []Object
	Callbacks    []Callable
}

// Object returns the object with the given name, or nil.
func (ns *Namespace) Object(name string) *Object {
	for i := range ns.Objects {
		if ns.Objects[i].Name == name {
			return &ns.Objects[i]
		}
	}
	return nil
}

// Callback returns the standalone callback with the given name, or nil.
func (ns *Namespace) Callback(name string) *Callable {
	for i := range ns.Callbacks {
		if ns.Callbacks[i].Name == name {
			return &ns.Callbacks[i]
		}
	}
	return nil
}

// ResolveSignal finds a signal on a class or any of its ancestors
// within the namespace.
func (ns *Namespace) ResolveSignal(class, signal string) (*Signal, error) {
	seen := make(map[string]bool)
	for name := class; name != ""; {
		if seen[name] {
			return nil, fmt.Errorf("gi: resolve %s::%s: parent cycle at %q", class, signal, name)
		}
		seen[name] = true

		obj := ns.Object(name)
		if obj == nil {
			return nil, fmt.Errorf("gi: resolve %s::%s: %w", class, signal, ErrObjectNotFound)
		}
		if sig := obj.Signal(signal); sig != nil {
			return sig, nil
		}
		name = obj.Parent
	}
	return nil, fmt.Errorf("gi: resolve %s::%s: %w", class, signal, ErrSignalNotFound)
}
