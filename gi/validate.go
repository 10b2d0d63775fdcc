package gi

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
)

// ---------------------------------------------------------------------------
// Schema validation (CUE)
// ---------------------------------------------------------------------------

// namespaceSchema constrains the raw metadata document before decoding:
// required fields, enum spellings, index sanity. Definitions are closed,
// so unknown keys are rejected too.
const namespaceSchema = `
#Namespace: {
	name:    string
	version: string
	dependencies?: {[string]: string}
	objects?: [...#Object]
	callbacks?: [...#Callable]
}

#Object: {
	name:    string
	parent?: string
	signals?: [...#Signal]
}

#Signal: {
	#Callable
	detailed?: bool
	run_last?: bool
}

#Callable: {
	name: string
	args?: [...#Arg]
	return?: #Type
	return_transfer?: #Transfer
	may_return_null?: bool
	throws?: bool
	scope?: "call" | "async" | "notified"
}

#Arg: {
	name:       string
	type:       #Type
	direction?: "in" | "out" | "inout"
	transfer?:  #Transfer
	nullable?:  bool
	closure?:   int & >=0
	destroy?:   int & >=0
}

#Transfer: "none" | "container" | "everything"

#Type: {
	tag: "void" | "boolean" | "int8" | "uint8" | "int16" | "uint16" |
		"int32" | "uint32" | "int64" | "uint64" | "float" | "double" |
		"utf8" | "filename" | "array" | "object"
	elem?:            #Type
	length_param?:    int & >=0
	zero_terminated?: bool
	fixed_size?:      int & >=1
	class?:           string
}
`

var schemaValue cue.Value

func init() {
	ctx := cuecontext.New()
	v := ctx.CompileString(namespaceSchema)
	if err := v.Err(); err != nil {
		panic(fmt.Sprintf("gi: compiling namespace schema: %v", err))
	}
	schemaValue = v.LookupPath(cue.ParsePath("#Namespace"))
	if err := schemaValue.Err(); err != nil {
		panic(fmt.Sprintf("gi: namespace schema has no #Namespace: %v", err))
	}
}

// ValidateSchema checks raw TOML metadata against the namespace schema.
func ValidateSchema(data []byte) error {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	doc := schemaValue.Context().Encode(raw)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("schema: encode: %w", err)
	}
	if err := schemaValue.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Structural validation
// ---------------------------------------------------------------------------

// Validate checks cross-references the schema cannot see: index ranges,
// length-parameter typing, duplicate names, parent links, version syntax.
func (ns *Namespace) Validate() error {
	if ns.Name == "" {
		return fmt.Errorf("namespace without a name")
	}
	if _, err := semver.NewVersion(ns.Version); err != nil {
		return fmt.Errorf("namespace %s: bad version %q: %w", ns.Name, ns.Version, err)
	}
	for dep, constraint := range ns.Dependencies {
		if _, err := semver.NewConstraint(constraint); err != nil {
			return fmt.Errorf("namespace %s: dependency %s: bad constraint %q: %w",
				ns.Name, dep, constraint, err)
		}
	}

	objects := make(map[string]bool, len(ns.Objects))
	for i := range ns.Objects {
		obj := &ns.Objects[i]
		if obj.Name == "" {
			return fmt.Errorf("namespace %s: object without a name", ns.Name)
		}
		if objects[obj.Name] {
			return fmt.Errorf("namespace %s: duplicate object %q", ns.Name, obj.Name)
		}
		objects[obj.Name] = true
	}

	for i := range ns.Objects {
		obj := &ns.Objects[i]
		if obj.Parent != "" && !objects[obj.Parent] {
			return fmt.Errorf("object %s: unknown parent %q", obj.Name, obj.Parent)
		}

		signals := make(map[string]bool, len(obj.Signals))
		for j := range obj.Signals {
			sig := &obj.Signals[j]
			if signals[sig.Name] {
				return fmt.Errorf("object %s: duplicate signal %q", obj.Name, sig.Name)
			}
			signals[sig.Name] = true

			where := obj.Name + "::" + sig.Name
			if err := validateCallable(&sig.Callable, where); err != nil {
				return err
			}
		}
	}

	callbacks := make(map[string]bool, len(ns.Callbacks))
	for i := range ns.Callbacks {
		c := &ns.Callbacks[i]
		if callbacks[c.Name] {
			return fmt.Errorf("namespace %s: duplicate callback %q", ns.Name, c.Name)
		}
		callbacks[c.Name] = true

		if err := validateCallable(c, c.Name); err != nil {
			return err
		}
	}

	return nil
}

func validateCallable(c *Callable, where string) error {
	n := len(c.Args)

	for i := range c.Args {
		a := &c.Args[i]

		if err := validateType(&a.Type, where, "arg "+a.Name); err != nil {
			return err
		}

		if a.Type.Tag == TagArray {
			if lp := a.Type.LengthParam; lp >= 0 {
				if lp >= n {
					return fmt.Errorf("%s: arg %s: length parameter %d out of range", where, a.Name, lp)
				}
				if lp == i {
					return fmt.Errorf("%s: arg %s: length parameter refers to the array itself", where, a.Name)
				}
				length := &c.Args[lp]
				if !length.Type.Tag.IsInteger() {
					return fmt.Errorf("%s: arg %s: length parameter %s is %s, not an integer",
						where, a.Name, length.Name, length.Type.Tag)
				}
				if (a.Direction == DirIn || a.Direction == DirInOut) && length.Direction == DirOut {
					return fmt.Errorf("%s: arg %s: in-array length parameter %s is out-only",
						where, a.Name, length.Name)
				}
			}
		}

		if a.Closure >= n {
			return fmt.Errorf("%s: arg %s: closure index %d out of range", where, a.Name, a.Closure)
		}
		if a.Destroy >= n {
			return fmt.Errorf("%s: arg %s: destroy index %d out of range", where, a.Name, a.Destroy)
		}
		if a.Destroy >= 0 && a.Closure < 0 {
			return fmt.Errorf("%s: arg %s: destroy notifier without closure context", where, a.Name)
		}
	}

	if err := validateType(&c.Return, where, "return"); err != nil {
		return err
	}
	if c.Return.Tag == TagArray && c.Return.LengthParam >= 0 {
		return fmt.Errorf("%s: return: arrays returned by handlers may not reference a length parameter", where)
	}

	return nil
}

// validateType checks a type tree. A length parameter names a position
// in the callable's argument list, which an element type cannot see, so
// element arrays can only be bounded by a terminator or a fixed size.
func validateType(t *TypeInfo, where, what string) error {
	switch t.Tag {
	case TagArray:
		if t.Elem == nil {
			return fmt.Errorf("%s: %s: array without element type", where, what)
		}
		if e := t.Elem; e.Tag == TagArray {
			if e.LengthParam >= 0 {
				return fmt.Errorf("%s: %s: element array may not reference a length parameter", where, what)
			}
			if !e.ZeroTerminated && e.FixedSize <= 0 {
				return fmt.Errorf("%s: %s: element array has no terminator or fixed size", where, what)
			}
		}
		return validateType(t.Elem, where, what)
	case TagObject:
		if t.ClassName == "" {
			return fmt.Errorf("%s: %s: object type without a class", where, what)
		}
	}
	return nil
}
