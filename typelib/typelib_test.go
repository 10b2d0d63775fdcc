package typelib

import (
	"bytes"
	"errors"
	"testing"

	"github.com/chazu/giro/gi"
)

func demoNamespace() *gi.Namespace {
	return &gi.Namespace{
		Name:         "Demo",
		Version:      "2.0.1",
		Dependencies: map[string]string{"Core": "^1.0"},
		Objects: []gi.Object{
			{
				Name: "Widget",
				Signals: []gi.Signal{{
					Callable: gi.Callable{
						Name: "activate",
						Args: []gi.Arg{{
							Name:      "count",
							Type:      gi.TypeInfo{Tag: gi.TagInt32, LengthParam: -1},
							Direction: gi.DirIn,
							Closure:   -1,
							Destroy:   -1,
						}},
						Return: gi.TypeInfo{Tag: gi.TagBoolean, LengthParam: -1},
					},
					RunLast: true,
					Owner:   "Widget",
				}},
			},
		},
		Callbacks: []gi.Callable{{
			Name:  "NotifyFunc",
			Scope: gi.ScopeNotified,
			Args: []gi.Arg{
				{
					Name:    "value",
					Type:    gi.TypeInfo{Tag: gi.TagDouble, LengthParam: -1},
					Closure: -1, Destroy: -1,
				},
				{
					Name:    "user_data",
					Type:    gi.TypeInfo{Tag: gi.TagVoid, LengthParam: -1},
					Closure: 1, Destroy: -1,
				},
			},
			Return: gi.VoidType,
		}},
	}
}

func TestCompileLoadRoundTrip(t *testing.T) {
	ns := demoNamespace()

	blob, err := Compile(ns)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	loaded, err := Load(blob)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Name != ns.Name || loaded.Version != ns.Version {
		t.Errorf("loaded = %s %s, want %s %s", loaded.Name, loaded.Version, ns.Name, ns.Version)
	}
	if got := loaded.Dependencies["Core"]; got != "^1.0" {
		t.Errorf("Dependencies[Core] = %q, want ^1.0", got)
	}

	widget := loaded.Object("Widget")
	if widget == nil {
		t.Fatal("loaded blob lost object Widget")
	}
	sig := widget.Signal("activate")
	if sig == nil {
		t.Fatal("loaded blob lost signal activate")
	}
	if sig.Return.Tag != gi.TagBoolean || !sig.RunLast {
		t.Errorf("signal = %+v, want boolean return, run_last", sig)
	}
	if len(sig.Args) != 1 || sig.Args[0].Type.Tag != gi.TagInt32 {
		t.Errorf("signal args = %+v, want one int32", sig.Args)
	}

	nf := loaded.Callback("NotifyFunc")
	if nf == nil {
		t.Fatal("loaded blob lost callback NotifyFunc")
	}
	if nf.Scope != gi.ScopeNotified || nf.Args[1].Closure != 1 {
		t.Errorf("callback = %+v, want notified scope, closure 1", nf)
	}
}

func TestCompileDeterministic(t *testing.T) {
	a, err := Compile(demoNamespace())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compile(demoNamespace())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("two compilations of the same namespace differ")
	}
}

func TestCompileRejectsInvalid(t *testing.T) {
	ns := demoNamespace()
	ns.Version = "not-semver"
	if _, err := Compile(ns); err == nil {
		t.Error("Compile accepted an invalid namespace")
	}
}

func TestLoadRejectsTampering(t *testing.T) {
	blob, err := Compile(demoNamespace())
	if err != nil {
		t.Fatal(err)
	}

	t.Run("payload flip", func(t *testing.T) {
		bad := bytes.Clone(blob)
		bad[len(bad)-1] ^= 0xFF
		if _, err := Load(bad); !errors.Is(err, ErrDigestMismatch) {
			t.Errorf("Load = %v, want ErrDigestMismatch", err)
		}
	})

	t.Run("magic flip", func(t *testing.T) {
		bad := bytes.Clone(blob)
		bad[0] = 'X'
		if _, err := Load(bad); !errors.Is(err, ErrBadMagic) {
			t.Errorf("Load = %v, want ErrBadMagic", err)
		}
	})

	t.Run("version bump", func(t *testing.T) {
		bad := bytes.Clone(blob)
		bad[magicLen] = 0xFF
		if _, err := Load(bad); !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("Load = %v, want ErrUnsupportedVersion", err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		if _, err := Load(blob[:headerLen-1]); !errors.Is(err, ErrTruncated) {
			t.Errorf("Load = %v, want ErrTruncated", err)
		}
	})
}

func TestDigest(t *testing.T) {
	blob, err := Compile(demoNamespace())
	if err != nil {
		t.Fatal(err)
	}

	d1, err := Digest(blob)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	var zero [digestLen]byte
	if d1 == zero {
		t.Error("Digest returned all zeros")
	}

	other, err := Compile(func() *gi.Namespace {
		ns := demoNamespace()
		ns.Version = "2.0.2"
		return ns
	}())
	if err != nil {
		t.Fatal(err)
	}
	d2, err := Digest(other)
	if err != nil {
		t.Fatal(err)
	}
	if d1 == d2 {
		t.Error("different namespaces share a digest")
	}

	if _, err := Digest([]byte("short")); !errors.Is(err, ErrTruncated) {
		t.Errorf("Digest(short) = %v, want ErrTruncated", err)
	}
}
