package marshal

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/giro/gi"
	"github.com/chazu/giro/native"
)

var log = commonlog.GetLogger("giro.marshal")

// ---------------------------------------------------------------------------
// Batch building and linting
// ---------------------------------------------------------------------------

// Diagnostic names one callable the builder refused and why.
type Diagnostic struct {
	Callable string
	Err      error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %v", d.Callable, d.Err)
}

// BuildAll builds wrappers for every namespace callback that has a
// handler. A refused callable does not stop the batch: its placeholder
// wrapper still lands in the result so call sites fail loudly, and the
// refusal is recorded as a diagnostic. Callbacks without handlers are
// skipped.
func BuildAll(sys *native.System, ns *gi.Namespace, handlers map[string]Handler, opts ...BuildOption) (map[string]*Wrapper, []Diagnostic) {
	wrappers := make(map[string]*Wrapper, len(handlers))
	var diags []Diagnostic

	for i := range ns.Callbacks {
		cb := &ns.Callbacks[i]
		h, ok := handlers[cb.Name]
		if !ok {
			continue
		}
		w, err := Build(sys, cb, h, opts...)
		if err != nil {
			diags = append(diags, Diagnostic{Callable: cb.Name, Err: err})
			log.Warningf("callable %s: %v", cb.Name, err)
		}
		wrappers[cb.Name] = w
	}
	return wrappers, diags
}

// Lint dry-plans every callback and signal in the namespace and
// reports the shapes the builder would refuse. It allocates nothing on
// the native side.
func Lint(ns *gi.Namespace) []Diagnostic {
	var diags []Diagnostic

	for i := range ns.Callbacks {
		cb := &ns.Callbacks[i]
		if _, err := plan(cb); err != nil {
			diags = append(diags, Diagnostic{Callable: cb.Name, Err: err})
		}
	}
	for i := range ns.Objects {
		obj := &ns.Objects[i]
		for j := range obj.Signals {
			sig := &obj.Signals[j]
			if _, err := plan(&sig.Callable); err != nil {
				diags = append(diags, Diagnostic{
					Callable: fmt.Sprintf("%s::%s", obj.Name, sig.Name),
					Err:      err,
				})
			}
		}
	}
	return diags
}
