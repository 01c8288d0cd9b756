package backends

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"typeidx/internal/inventory"
)

func ids(mods []inventory.Module) []string {
	out := make([]string, 0, len(mods))
	for _, m := range mods {
		out = append(out, m.ID())
	}
	return out
}

func TestChain_PreferFirst(t *testing.T) {
	first := inventory.NewMemory().
		AddModule("Acme.Core", "Widget").
		AddModule("Acme.Extras", "Sprocket")
	second := inventory.NewMemory().
		AddModule("Acme.Core", "Impostor").
		AddModule("Globex", "Rotor")

	chain := NewChain(nil, first, second)
	mods := chain.LoadedModules()

	if diff := cmp.Diff([]string{"Acme.Core", "Acme.Extras", "Globex"}, ids(mods)); diff != "" {
		t.Fatalf("LoadedModules() mismatch (-want +got):\n%s", diff)
	}

	core := chain.Types(mods[0])
	if len(core.Types) != 1 || core.Types[0].Name() != "Widget" {
		t.Errorf("Acme.Core types = %v, want the first source's Widget", core.Types)
	}
	globex := chain.Types(mods[2])
	if len(globex.Types) != 1 || globex.Types[0].Name() != "Rotor" {
		t.Errorf("Globex types = %v", globex.Types)
	}
	if second.Scans() != 1 {
		t.Errorf("second source scanned %d times, want 1", second.Scans())
	}
}

func TestChain_UnwrappedModules(t *testing.T) {
	src := inventory.NewMemory().AddModule("Acme", "Widget")
	chain := NewChain(nil, src)
	chain.LoadedModules()

	list := chain.Types(inventory.NewUnit("Acme"))
	if len(list.Types) != 1 {
		t.Errorf("Types(unwrapped) = %+v", list)
	}

	unknown := chain.Types(inventory.NewUnit("Nowhere"))
	if !unknown.Partial() {
		t.Fatal("Types(unknown) should report a failure")
	}
	var le *inventory.LoadError
	if !errors.As(unknown.Failures[0], &le) || le.Module != "Nowhere" {
		t.Errorf("failure = %v", unknown.Failures[0])
	}
}

func TestChain_KeepsVersions(t *testing.T) {
	src := inventory.NewMemory().Add(&inventory.Unit{Identifier: "Acme", Version: "1.4.2"})
	mods := NewChain(nil, src).LoadedModules()

	v, ok := mods[0].(inventory.Versioned)
	if !ok || v.ModuleVersion() != "1.4.2" {
		t.Errorf("chained module lost its version: %#v", mods[0])
	}
	if u, ok := mods[0].(interface{ Unwrap() inventory.Module }); !ok || u.Unwrap().ID() != "Acme" {
		t.Error("chained module does not unwrap")
	}
}

type closer struct {
	*inventory.Memory
	closed bool
	err    error
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestChain_Close(t *testing.T) {
	a := &closer{Memory: inventory.NewMemory()}
	b := &closer{Memory: inventory.NewMemory(), err: errors.New("boom")}
	chain := NewChain(nil, a, inventory.NewMemory(), b)

	err := chain.Close()
	if !a.closed || !b.closed {
		t.Error("Close() skipped a source")
	}
	if err == nil || err.Error() != "boom" {
		t.Errorf("Close() error = %v, want boom", err)
	}
}
