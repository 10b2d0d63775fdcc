package gi

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ---------------------------------------------------------------------------
// Metadata file loading (*.gir.toml)
// ---------------------------------------------------------------------------

// Raw TOML shapes. Index-valued fields are pointers because 0 is a
// valid argument index; absent means "none".

type tomlNamespace struct {
	Name         string            `toml:"name"`
	Version      string            `toml:"version"`
	Dependencies map[string]string `toml:"dependencies"`
	Objects      []tomlObject      `toml:"objects"`
	Callbacks    []tomlCallable    `toml:"callbacks"`
}

type tomlObject struct {
	Name    string       `toml:"name"`
	Parent  string       `toml:"parent"`
	Signals []tomlSignal `toml:"signals"`
}

type tomlSignal struct {
	Name           string    `toml:"name"`
	Args           []tomlArg `toml:"args"`
	Return         *tomlType `toml:"return"`
	ReturnTransfer string    `toml:"return_transfer"`
	MayReturnNull  bool      `toml:"may_return_null"`
	Throws         bool      `toml:"throws"`
	Scope          string    `toml:"scope"`
	Detailed       bool      `toml:"detailed"`
	RunLast        *bool     `toml:"run_last"`
}

type tomlCallable struct {
	Name           string    `toml:"name"`
	Args           []tomlArg `toml:"args"`
	Return         *tomlType `toml:"return"`
	ReturnTransfer string    `toml:"return_transfer"`
	MayReturnNull  bool      `toml:"may_return_null"`
	Throws         bool      `toml:"throws"`
	Scope          string    `toml:"scope"`
}

type tomlArg struct {
	Name      string   `toml:"name"`
	Type      tomlType `toml:"type"`
	Direction string   `toml:"direction"`
	Transfer  string   `toml:"transfer"`
	Nullable  bool     `toml:"nullable"`
	Closure   *int     `toml:"closure"`
	Destroy   *int     `toml:"destroy"`
}

type tomlType struct {
	Tag            string    `toml:"tag"`
	Elem           *tomlType `toml:"elem"`
	LengthParam    *int      `toml:"length_param"`
	ZeroTerminated bool      `toml:"zero_terminated"`
	FixedSize      int       `toml:"fixed_size"`
	Class          string    `toml:"class"`
}

// LoadNamespace reads and parses a metadata file.
func LoadNamespace(path string) (*Namespace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gi: cannot read %s: %w", path, err)
	}
	ns, err := ParseNamespace(data)
	if err != nil {
		return nil, fmt.Errorf("gi: load %s: %w", path, err)
	}
	return ns, nil
}

// ParseNamespace parses metadata from TOML bytes. The raw document is
// schema-checked first, then decoded, defaulted, and structurally
// validated.
func ParseNamespace(data []byte) (*Namespace, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	var raw tomlNamespace
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	ns, err := buildNamespace(&raw)
	if err != nil {
		return nil, err
	}
	if err := ns.Validate(); err != nil {
		return nil, err
	}
	return ns, nil
}

func buildNamespace(raw *tomlNamespace) (*Namespace, error) {
	ns := &Namespace{
		Name:         raw.Name,
		Version:      raw.Version,
		Dependencies: raw.Dependencies,
	}
	if ns.Dependencies == nil {
		ns.Dependencies = make(map[string]string)
	}

	for _, ro := range raw.Objects {
		obj := Object{Name: ro.Name, Parent: ro.Parent}
		for _, rs := range ro.Signals {
			sig, err := buildSignal(&rs, ro.Name)
			if err != nil {
				return nil, fmt.Errorf("object %s: %w", ro.Name, err)
			}
			obj.Signals = append(obj.Signals, sig)
		}
		ns.Objects = append(ns.Objects, obj)
	}

	for _, rc := range raw.Callbacks {
		c, err := buildCallable(rc.Name, rc.Args, rc.Return, rc.ReturnTransfer,
			rc.MayReturnNull, rc.Throws, rc.Scope)
		if err != nil {
			return nil, err
		}
		ns.Callbacks = append(ns.Callbacks, c)
	}

	return ns, nil
}

func buildSignal(raw *tomlSignal, owner string) (Signal, error) {
	c, err := buildCallable(raw.Name, raw.Args, raw.Return, raw.ReturnTransfer,
		raw.MayReturnNull, raw.Throws, raw.Scope)
	if err != nil {
		return Signal{}, err
	}

	// Default handling runs after before-handlers unless stated otherwise.
	runLast := true
	if raw.RunLast != nil {
		runLast = *raw.RunLast
	}

	return Signal{
		Callable: c,
		Detailed: raw.Detailed,
		RunLast:  runLast,
		Owner:    owner,
	}, nil
}

func buildCallable(name string, args []tomlArg, ret *tomlType, retTransfer string,
	mayNull, throws bool, scope string) (Callable, error) {

	c := Callable{
		Name:          name,
		Return:        VoidType,
		MayReturnNull: mayNull,
		Throws:        throws,
	}

	var err error
	if c.Scope, err = parseScope(scope); err != nil {
		return Callable{}, fmt.Errorf("callable %s: %w", name, err)
	}
	if ret != nil {
		if c.Return, err = buildType(ret); err != nil {
			return Callable{}, fmt.Errorf("callable %s: return: %w", name, err)
		}
	}
	if c.ReturnTransfer, err = parseTransfer(retTransfer); err != nil {
		return Callable{}, fmt.Errorf("callable %s: return: %w", name, err)
	}

	for i, ra := range args {
		a, err := buildArg(&ra)
		if err != nil {
			return Callable{}, fmt.Errorf("callable %s: arg %d (%s): %w", name, i, ra.Name, err)
		}
		c.Args = append(c.Args, a)
	}
	return c, nil
}

func buildArg(raw *tomlArg) (Arg, error) {
	a := Arg{
		Name:     raw.Name,
		Nullable: raw.Nullable,
		Closure:  -1,
		Destroy:  -1,
	}

	var err error
	if a.Type, err = buildType(&raw.Type); err != nil {
		return Arg{}, err
	}
	if a.Direction, err = parseDirection(raw.Direction); err != nil {
		return Arg{}, err
	}
	if a.Transfer, err = parseTransfer(raw.Transfer); err != nil {
		return Arg{}, err
	}
	if raw.Closure != nil {
		a.Closure = *raw.Closure
	}
	if raw.Destroy != nil {
		a.Destroy = *raw.Destroy
	}
	return a, nil
}

func buildType(raw *tomlType) (TypeInfo, error) {
	t := TypeInfo{
		LengthParam:    -1,
		ZeroTerminated: raw.ZeroTerminated,
		FixedSize:      raw.FixedSize,
		ClassName:      raw.Class,
	}

	var err error
	if t.Tag, err = parseTag(raw.Tag); err != nil {
		return TypeInfo{}, err
	}
	if raw.LengthParam != nil {
		t.LengthParam = *raw.LengthParam
	}
	if raw.Elem != nil {
		elem, err := buildType(raw.Elem)
		if err != nil {
			return TypeInfo{}, fmt.Errorf("element: %w", err)
		}
		t.Elem = &elem
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// Enum string parsing
// ---------------------------------------------------------------------------

var tagValues map[string]TypeTag

func init() {
	tagValues = make(map[string]TypeTag, len(tagNames))
	for tag, name := range tagNames {
		tagValues[name] = tag
	}
}

func parseTag(s string) (TypeTag, error) {
	tag, ok := tagValues[s]
	if !ok {
		return TagVoid, fmt.Errorf("unknown type tag %q", s)
	}
	return tag, nil
}

func parseDirection(s string) (Direction, error) {
	switch s {
	case "", "in":
		return DirIn, nil
	case "out":
		return DirOut, nil
	case "inout":
		return DirInOut, nil
	}
	return DirIn, fmt.Errorf("unknown direction %q", s)
}

func parseTransfer(s string) (Transfer, error) {
	switch s {
	case "", "none":
		return TransferNone, nil
	case "container":
		return TransferContainer, nil
	case "everything":
		return TransferEverything, nil
	}
	return TransferNone, fmt.Errorf("unknown transfer mode %q", s)
}

func parseScope(s string) (Scope, error) {
	switch s {
	case "", "call":
		return ScopeCall, nil
	case "async":
		return ScopeAsync, nil
	case "notified":
		return ScopeNotified, nil
	}
	return ScopeCall, fmt.Errorf("unknown scope %q", s)
}
