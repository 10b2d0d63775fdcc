package gi

import (
	"strings"
	"testing"
)

const demoMetadata = `
name = "Demo"
version = "1.2.0"

[dependencies]
Core = "^1.0"

[[objects]]
name = "Widget"

[[objects.signals]]
name = "activate"

[[objects.signals.args]]
name = "count"
direction = "in"
[objects.signals.args.type]
tag = "int32"

[objects.signals.return]
tag = "boolean"

[[objects]]
name = "Button"
parent = "Widget"

[[objects.signals]]
name = "notify"
detailed = true
run_last = false

[[objects.signals.args]]
name = "data"
nullable = true
transfer = "everything"
[objects.signals.args.type]
tag = "utf8"

[[callbacks]]
name = "ReadyCallback"
scope = "async"

[[callbacks.args]]
name = "items"
transfer = "container"
[callbacks.args.type]
tag = "array"
length_param = 1
[callbacks.args.type.elem]
tag = "utf8"

[[callbacks.args]]
name = "n_items"
[callbacks.args.type]
tag = "uint32"

[[callbacks]]
name = "NotifyFunc"
scope = "notified"

[[callbacks.args]]
name = "value"
[callbacks.args.type]
tag = "double"

[[callbacks.args]]
name = "user_data"
closure = 1
destroy = 2
[callbacks.args.type]
tag = "void"

[[callbacks.args]]
name = "on_destroy"
[callbacks.args.type]
tag = "void"
`

func TestParseNamespace(t *testing.T) {
	ns, err := ParseNamespace([]byte(demoMetadata))
	if err != nil {
		t.Fatalf("ParseNamespace: %v", err)
	}

	if ns.Name != "Demo" || ns.Version != "1.2.0" {
		t.Errorf("namespace = %s %s, want Demo 1.2.0", ns.Name, ns.Version)
	}
	if got := ns.Dependencies["Core"]; got != "^1.0" {
		t.Errorf("Dependencies[Core] = %q, want ^1.0", got)
	}

	widget := ns.Object("Widget")
	if widget == nil {
		t.Fatal("Object(Widget) = nil")
	}
	activate := widget.Signal("activate")
	if activate == nil {
		t.Fatal("Signal(activate) = nil")
	}
	if !activate.RunLast {
		t.Error("run_last default = false, want true")
	}
	if activate.Detailed {
		t.Error("activate.Detailed = true, want false")
	}
	if activate.Owner != "Widget" {
		t.Errorf("activate.Owner = %q, want Widget", activate.Owner)
	}
	if len(activate.Args) != 1 {
		t.Fatalf("activate has %d args, want 1", len(activate.Args))
	}
	arg := activate.Args[0]
	if arg.Name != "count" || arg.Direction != DirIn || arg.Type.Tag != TagInt32 {
		t.Errorf("activate arg = %+v, want count/in/int32", arg)
	}
	if arg.Transfer != TransferNone {
		t.Errorf("default transfer = %v, want none", arg.Transfer)
	}
	if arg.Closure != -1 || arg.Destroy != -1 {
		t.Errorf("default closure/destroy = %d/%d, want -1/-1", arg.Closure, arg.Destroy)
	}
	if !activate.HasReturn() || activate.Return.Tag != TagBoolean {
		t.Errorf("activate return = %v, want boolean", activate.Return)
	}

	button := ns.Object("Button")
	if button == nil || button.Parent != "Widget" {
		t.Fatalf("Button parent = %v, want Widget", button)
	}
	notify := button.Signal("notify")
	if notify == nil || !notify.Detailed || notify.RunLast {
		t.Fatalf("notify = %+v, want detailed, run_last=false", notify)
	}
	data := notify.Args[0]
	if !data.Nullable || data.Transfer != TransferEverything || data.Type.Tag != TagUTF8 {
		t.Errorf("notify arg = %+v, want nullable/everything/utf8", data)
	}
	if notify.HasReturn() {
		t.Error("notify.HasReturn = true, want false")
	}

	ready := ns.Callback("ReadyCallback")
	if ready == nil || ready.Scope != ScopeAsync {
		t.Fatalf("ReadyCallback = %+v, want async scope", ready)
	}
	items := ready.Args[0]
	if items.Type.Tag != TagArray || items.Type.LengthParam != 1 {
		t.Errorf("items type = %+v, want array with length_param 1", items.Type)
	}
	if items.Type.Elem == nil || items.Type.Elem.Tag != TagUTF8 {
		t.Errorf("items elem = %+v, want utf8", items.Type.Elem)
	}
	if !items.Type.HasLengthSource() {
		t.Error("items.HasLengthSource = false, want true")
	}

	nf := ns.Callback("NotifyFunc")
	if nf == nil || nf.Scope != ScopeNotified {
		t.Fatalf("NotifyFunc = %+v, want notified scope", nf)
	}
	if nf.Args[1].Closure != 1 || nf.Args[1].Destroy != 2 {
		t.Errorf("NotifyFunc closure/destroy = %d/%d, want 1/2",
			nf.Args[1].Closure, nf.Args[1].Destroy)
	}
	hidden := nf.ClosureIndexes()
	if !hidden[1] || !hidden[2] || hidden[0] {
		t.Errorf("ClosureIndexes = %v, want {1, 2}", hidden)
	}
}

func TestResolveSignalThroughParent(t *testing.T) {
	ns, err := ParseNamespace([]byte(demoMetadata))
	if err != nil {
		t.Fatalf("ParseNamespace: %v", err)
	}

	sig, err := ns.ResolveSignal("Button", "activate")
	if err != nil {
		t.Fatalf("ResolveSignal(Button, activate): %v", err)
	}
	if sig.Owner != "Widget" {
		t.Errorf("resolved owner = %q, want Widget", sig.Owner)
	}
}

func TestParseNamespaceRejects(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{
			name: "missing version",
			toml: `name = "X"`,
			want: "schema",
		},
		{
			name: "bad direction",
			toml: `
name = "X"
version = "1.0.0"
[[callbacks]]
name = "F"
[[callbacks.args]]
name = "a"
direction = "sideways"
[callbacks.args.type]
tag = "int32"
`,
			want: "schema",
		},
		{
			name: "unknown key",
			toml: `
name = "X"
version = "1.0.0"
colour = "red"
`,
			want: "schema",
		},
		{
			name: "bad type tag",
			toml: `
name = "X"
version = "1.0.0"
[[callbacks]]
name = "F"
[[callbacks.args]]
name = "a"
[callbacks.args.type]
tag = "quaternion"
`,
			want: "schema",
		},
		{
			name: "length param out of range",
			toml: `
name = "X"
version = "1.0.0"
[[callbacks]]
name = "F"
[[callbacks.args]]
name = "items"
[callbacks.args.type]
tag = "array"
length_param = 5
[callbacks.args.type.elem]
tag = "int32"
`,
			want: "out of range",
		},
		{
			name: "length param not integer",
			toml: `
name = "X"
version = "1.0.0"
[[callbacks]]
name = "F"
[[callbacks.args]]
name = "items"
[callbacks.args.type]
tag = "array"
length_param = 1
[callbacks.args.type.elem]
tag = "int32"
[[callbacks.args]]
name = "n"
[callbacks.args.type]
tag = "utf8"
`,
			want: "not an integer",
		},
		{
			name: "destroy without closure",
			toml: `
name = "X"
version = "1.0.0"
[[callbacks]]
name = "F"
[[callbacks.args]]
name = "a"
destroy = 1
[callbacks.args.type]
tag = "void"
[[callbacks.args]]
name = "d"
[callbacks.args.type]
tag = "void"
`,
			want: "destroy notifier without closure",
		},
		{
			name: "unknown parent",
			toml: `
name = "X"
version = "1.0.0"
[[objects]]
name = "A"
parent = "Missing"
`,
			want: "unknown parent",
		},
		{
			name: "duplicate object",
			toml: `
name = "X"
version = "1.0.0"
[[objects]]
name = "A"
[[objects]]
name = "A"
`,
			want: "duplicate object",
		},
		{
			name: "object arg without class",
			toml: `
name = "X"
version = "1.0.0"
[[callbacks]]
name = "F"
[[callbacks.args]]
name = "a"
[callbacks.args.type]
tag = "object"
`,
			want: "without a class",
		},
		{
			name: "element array without bounds",
			toml: `
name = "X"
version = "1.0.0"
[[callbacks]]
name = "F"
[[callbacks.args]]
name = "rows"
[callbacks.args.type]
tag = "array"
zero_terminated = true
[callbacks.args.type.elem]
tag = "array"
[callbacks.args.type.elem.elem]
tag = "int32"
`,
			want: "no terminator or fixed size",
		},
		{
			name: "element array with length param",
			toml: `
name = "X"
version = "1.0.0"
[[callbacks]]
name = "F"
[[callbacks.args]]
name = "rows"
[callbacks.args.type]
tag = "array"
zero_terminated = true
[callbacks.args.type.elem]
tag = "array"
length_param = 0
[callbacks.args.type.elem.elem]
tag = "int32"
`,
			want: "may not reference a length parameter",
		},
		{
			name: "inner array without element type",
			toml: `
name = "X"
version = "1.0.0"
[[callbacks]]
name = "F"
[[callbacks.args]]
name = "rows"
[callbacks.args.type]
tag = "array"
zero_terminated = true
[callbacks.args.type.elem]
tag = "array"
zero_terminated = true
`,
			want: "without element type",
		},
		{
			name: "object element without class",
			toml: `
name = "X"
version = "1.0.0"
[[callbacks]]
name = "F"
[[callbacks.args]]
name = "owners"
[callbacks.args.type]
tag = "array"
zero_terminated = true
[callbacks.args.type.elem]
tag = "object"
`,
			want: "without a class",
		},
		{
			name: "bad semver",
			toml: `
name = "X"
version = "not-a-version"
`,
			want: "bad version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNamespace([]byte(tt.toml))
			if err == nil {
				t.Fatal("ParseNamespace accepted invalid metadata")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}
