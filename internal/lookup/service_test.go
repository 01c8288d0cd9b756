package lookup

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"typeidx/internal/errors"
	"typeidx/internal/inventory"
	"typeidx/internal/logging"
)

// newFixture returns an inventory with three Acme modules and one that only
// shares a case-insensitive prefix with the scope.
func newFixture() *inventory.Memory {
	return inventory.NewMemory().
		AddModule("Acme.Core", "Widget", "Gadget").
		AddModule("Globex.Engine", "Rotor", "Widget").
		AddModule("Acme.Extras", "Sprocket", "widget").
		AddModule("acme.lower", "Lowercase").
		AddModule("AcmeTools", "Hammer")
}

func ids(mods []inventory.Module) []string {
	out := make([]string, 0, len(mods))
	for _, m := range mods {
		out = append(out, m.ID())
	}
	return out
}

func qualified(t inventory.Type) string {
	if t == nil {
		return "<nil>"
	}
	return inventory.QualifiedNameOf(t)
}

func TestTypeByNameCached_Idempotent(t *testing.T) {
	src := newFixture()
	svc := NewService(src)

	first, ok, err := svc.TypeByNameCached("Gadget", "Acme")
	if err != nil || !ok {
		t.Fatalf("first lookup = (%v, %v, %v), want a hit", first, ok, err)
	}
	scans := src.Scans()

	second, ok, err := svc.TypeByNameCached("Gadget", "Acme")
	if err != nil || !ok {
		t.Fatalf("second lookup = (%v, %v, %v), want a hit", second, ok, err)
	}
	if first != second {
		t.Errorf("second lookup returned %s, want the same descriptor %s", qualified(second), qualified(first))
	}
	if src.Scans() != scans {
		t.Errorf("second lookup scanned modules again: %d -> %d", scans, src.Scans())
	}
	if got := svc.Stats().IndexBuilds; got != 1 {
		t.Errorf("IndexBuilds = %d, want 1", got)
	}
	if got := svc.Stats().Hits; got != 2 {
		t.Errorf("Hits = %d, want 2", got)
	}
}

func TestModulesForScopeCached_MatchesUncached(t *testing.T) {
	for _, scope := range []string{"Acme", "Acme.", "acme", "Globex.Engine", "Initech", "A"} {
		t.Run(scope, func(t *testing.T) {
			src := newFixture()
			svc := NewService(src)

			want, err := ModulesForScope(src, scope)
			if err != nil {
				t.Fatalf("ModulesForScope() error = %v", err)
			}
			got, err := svc.ModulesForScopeCached(scope)
			if err != nil {
				t.Fatalf("ModulesForScopeCached() error = %v", err)
			}
			if diff := cmp.Diff(ids(want), ids(got)); diff != "" {
				t.Errorf("cached module set differs (-uncached +cached):\n%s", diff)
			}
		})
	}
}

func TestModulesForScope_OrdinalPrefix(t *testing.T) {
	src := newFixture()

	got, err := ModulesForScope(src, "Acme")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Acme.Core", "Acme.Extras", "AcmeTools"}
	if diff := cmp.Diff(want, ids(got)); diff != "" {
		t.Errorf("ModulesForScope(Acme) mismatch (-want +got):\n%s", diff)
	}

	none, err := ModulesForScope(src, "Initech")
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("ModulesForScope(Initech) = %#v, want empty non-nil slice", none)
	}
}

func TestModulesForScopeCached_ResolvesOnce(t *testing.T) {
	src := newFixture()
	svc := NewService(src)

	for i := 0; i < 3; i++ {
		if _, err := svc.ModulesForScopeCached("Acme"); err != nil {
			t.Fatal(err)
		}
	}
	if got := src.Enumerations(); got != 1 {
		t.Errorf("Enumerations = %d, want 1", got)
	}
	if got := svc.Stats().ModuleSetBuilds; got != 1 {
		t.Errorf("ModuleSetBuilds = %d, want 1", got)
	}
}

func TestModulesForScopeCached_ReturnsCopy(t *testing.T) {
	svc := NewService(newFixture())

	first, _ := svc.ModulesForScopeCached("Acme")
	first[0] = inventory.NewUnit("Tampered")
	_ = append(first[:1], inventory.NewUnit("Appended"))

	second, _ := svc.ModulesForScopeCached("Acme")
	want := []string{"Acme.Core", "Acme.Extras", "AcmeTools"}
	if diff := cmp.Diff(want, ids(second)); diff != "" {
		t.Errorf("stored module set was mutated (-want +got):\n%s", diff)
	}
}

func TestTypeByNameCached_CaseInsensitive(t *testing.T) {
	svc := NewService(newFixture())

	var found []inventory.Type
	for _, name := range []string{"Widget", "widget", "WIDGET", "wIdGeT"} {
		typ, ok, err := svc.TypeByNameCached(name, "Acme")
		if err != nil || !ok {
			t.Fatalf("TypeByNameCached(%q) = (%v, %v, %v), want hit", name, typ, ok, err)
		}
		found = append(found, typ)
	}
	for i, typ := range found {
		if typ != found[0] {
			t.Errorf("lookup %d returned %s, want %s", i, qualified(typ), qualified(found[0]))
		}
	}
	if got := qualified(found[0]); got != "Acme.Core.Widget" {
		t.Errorf("resolved %s, want Acme.Core.Widget", got)
	}
}

func TestTypeByNameCached_UnicodeFolding(t *testing.T) {
	src := inventory.NewMemory().AddModule("Acme", "Ωmega", "Äpfel")
	svc := NewService(src)

	for _, name := range []string{"ωMEGA", "äPFEL"} {
		if _, ok, err := svc.TypeByNameCached(name, "Acme"); err != nil || !ok {
			t.Errorf("TypeByNameCached(%q) = (%v, %v), want hit", name, ok, err)
		}
	}
}

func TestTypeByNameCached_FullCaseFolding(t *testing.T) {
	src := inventory.NewMemory().AddModule("Acme", "Straße")
	svc := NewService(src)

	for _, name := range []string{"STRASSE", "strasse", "STRAßE"} {
		typ, ok, err := svc.TypeByNameCached(name, "Acme")
		if err != nil || !ok {
			t.Fatalf("TypeByNameCached(%q) = (%v, %v), want hit", name, ok, err)
		}
		if got := typ.Name(); got != "Straße" {
			t.Errorf("TypeByNameCached(%q) resolved %q", name, got)
		}
	}
	if _, ok, _ := TypeByName(src, "STRASSE", "Acme"); !ok {
		t.Error("TypeByName(STRASSE) missed, want the same folding as the cached path")
	}
}

func TestTypeByNameCached_EmptyScopeMissIsRemembered(t *testing.T) {
	src := newFixture()
	svc := NewService(src)

	mods, err := svc.ModulesForScopeCached("Initech")
	if err != nil {
		t.Fatalf("ModulesForScopeCached() error = %v", err)
	}
	if mods == nil || len(mods) != 0 {
		t.Fatalf("ModulesForScopeCached(Initech) = %#v, want empty non-nil", mods)
	}

	for i := 0; i < 3; i++ {
		typ, ok, err := svc.TypeByNameCached("Widget", "Initech")
		if err != nil || ok || typ != nil {
			t.Fatalf("lookup %d = (%v, %v, %v), want not found", i, typ, ok, err)
		}
	}
	enumerations := src.Enumerations()
	if _, ok, _ := svc.TypeByNameCached("WIDGET", "Initech"); ok {
		t.Fatal("folded lookup found a type in an empty scope")
	}

	st := svc.Stats()
	if st.Misses != 1 || st.NegativeHits != 3 {
		t.Errorf("misses/negative hits = %d/%d, want 1/3", st.Misses, st.NegativeHits)
	}
	if st.ModuleSetBuilds != 1 || st.IndexBuilds != 1 {
		t.Errorf("module set/index builds = %d/%d, want 1/1", st.ModuleSetBuilds, st.IndexBuilds)
	}
	if src.Enumerations() != enumerations || src.Scans() != 0 {
		t.Errorf("remembered miss consulted the source: enumerations %d -> %d, scans %d",
			enumerations, src.Enumerations(), src.Scans())
	}
}

func TestTypeByNameCached_NegativeMemoization(t *testing.T) {
	src := newFixture()
	svc := NewService(src)

	typ, ok, err := svc.TypeByNameCached("DoesNotExist", "Acme")
	if err != nil || ok || typ != nil {
		t.Fatalf("first lookup = (%v, %v, %v), want not found", typ, ok, err)
	}
	scans, enumerations := src.Scans(), src.Enumerations()

	typ, ok, err = svc.TypeByNameCached("DoesNotExist", "Acme")
	if err != nil || ok || typ != nil {
		t.Fatalf("second lookup = (%v, %v, %v), want not found", typ, ok, err)
	}
	// differently cased spelling of the same missing name is also remembered
	if _, ok, _ := svc.TypeByNameCached("DOESNOTEXIST", "Acme"); ok {
		t.Fatal("folded lookup found a missing type")
	}
	if src.Scans() != scans || src.Enumerations() != enumerations {
		t.Errorf("repeated misses consulted the source: scans %d -> %d, enumerations %d -> %d",
			scans, src.Scans(), enumerations, src.Enumerations())
	}

	stats := svc.Stats()
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.NegativeHits != 2 {
		t.Errorf("NegativeHits = %d, want 2", stats.NegativeHits)
	}
}

func TestTypeByNameCached_NegativeCacheIsPerScope(t *testing.T) {
	svc := NewService(newFixture())

	if _, ok, _ := svc.TypeByNameCached("Rotor", "Acme"); ok {
		t.Fatal("Rotor should not resolve in Acme")
	}
	typ, ok, err := svc.TypeByNameCached("Rotor", "Globex")
	if err != nil || !ok {
		t.Fatalf("Rotor in Globex = (%v, %v, %v), want hit", typ, ok, err)
	}
}

func TestTypeByNameCached_ExplicitModulesBypass(t *testing.T) {
	src := newFixture()
	svc := NewService(src)
	globex, _ := src.Module("Globex.Engine")

	typ, ok, err := svc.TypeByNameCached("widget", "Acme", globex)
	if err != nil || !ok {
		t.Fatalf("explicit lookup = (%v, %v, %v), want hit", typ, ok, err)
	}
	if got := qualified(typ); got != "Globex.Engine.Widget" {
		t.Errorf("explicit lookup resolved %s, want Globex.Engine.Widget", got)
	}
	if svc.Warmed("Acme") {
		t.Error("explicit lookup built a scope index")
	}
	if src.Enumerations() != 0 {
		t.Errorf("explicit lookup enumerated loaded modules %d times", src.Enumerations())
	}
	stats := svc.Stats()
	if stats.ModuleSetBuilds != 0 || stats.IndexBuilds != 0 {
		t.Errorf("explicit lookup touched scope caches: %+v", stats)
	}

	// explicit results ignore what the scope caches hold
	if _, ok, _ := svc.TypeByNameCached("Rotor", "Acme"); ok {
		t.Fatal("Rotor should not resolve in Acme")
	}
	if _, ok, _ := svc.TypeByNameCached("Rotor", "Acme", globex); !ok {
		t.Error("explicit lookup was answered from the negative cache")
	}
	core, _ := src.Module("Acme.Core")
	if _, ok, _ := svc.TypeByNameCached("Hammer", "Acme", core); ok {
		t.Error("explicit lookup looked beyond the supplied modules")
	}
	if got := svc.Stats().Misses; got != 1 {
		t.Errorf("explicit misses were recorded: Misses = %d, want 1", got)
	}
}

func TestTypeByNameCached_PartialLoad(t *testing.T) {
	src := newFixture().Fail("Acme.Extras", "type Broken: missing dependency", "type Other: bad metadata")
	var buf bytes.Buffer
	svc := NewService(src, WithLogger(logging.NewLogger(logging.Config{
		Format: logging.JSONFormat,
		Level:  logging.DebugLevel,
		Output: &buf,
	})))

	typ, ok, err := svc.TypeByNameCached("Sprocket", "Acme")
	if err != nil || !ok {
		t.Fatalf("lookup in partially loaded module = (%v, %v, %v), want hit", typ, ok, err)
	}
	if got := qualified(typ); got != "Acme.Extras.Sprocket" {
		t.Errorf("resolved %s", got)
	}
	if _, ok, _ := svc.TypeByNameCached("Hammer", "Acme"); !ok {
		t.Error("modules after the partial one were not indexed")
	}
	if got := svc.Stats().LoadFailures; got != 2 {
		t.Errorf("LoadFailures = %d, want 2", got)
	}
	if !strings.Contains(buf.String(), "Module loaded partially") {
		t.Errorf("partial load was not logged:\n%s", buf.String())
	}
}

func TestTypeByNameCached_Preconditions(t *testing.T) {
	svc := NewService(newFixture())
	tests := []struct {
		name, className, scope, param string
	}{
		{"empty class", "", "Acme", "className"},
		{"blank scope", "Widget", "   ", "scopeName"},
		{"blank class", "\t\n", "Acme", "className"},
		{"empty scope", "Widget", "", "scopeName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.TypeByNameCached(tt.className, tt.scope)
			if !errors.IsCode(err, errors.InvalidArgument) {
				t.Fatalf("TypeByNameCached(%q, %q) error = %v, want INVALID_ARGUMENT", tt.className, tt.scope, err)
			}
			details, _ := err.(*errors.TypeIdxError).Details.(map[string]string)
			if details["parameter"] != tt.param {
				t.Errorf("parameter = %q, want %q", details["parameter"], tt.param)
			}

			if _, _, err := TypeByName(svc.Source(), tt.className, tt.scope); !errors.IsCode(err, errors.InvalidArgument) {
				t.Errorf("TypeByName error = %v, want INVALID_ARGUMENT", err)
			}
		})
	}

	if _, err := svc.ModulesForScopeCached(" "); !errors.IsCode(err, errors.InvalidArgument) {
		t.Errorf("ModulesForScopeCached error = %v, want INVALID_ARGUMENT", err)
	}
	if _, err := ModulesForScope(svc.Source(), ""); !errors.IsCode(err, errors.InvalidArgument) {
		t.Errorf("ModulesForScope error = %v, want INVALID_ARGUMENT", err)
	}
	if got := svc.Stats().Lookups; got != 0 {
		t.Errorf("rejected calls were counted as lookups: %d", got)
	}
}

func TestTypeByNameCached_CollisionFirstSeenWins(t *testing.T) {
	build := func() *inventory.Memory {
		return inventory.NewMemory().
			AddModule("Acme.A", "Shared", "Other").
			AddModule("Acme.B", "shared", "Shared").
			AddModule("Acme.A", "SHARED")
	}

	for i := 0; i < 3; i++ {
		svc := NewService(build())
		typ, ok, err := svc.TypeByNameCached("Shared", "Acme")
		if err != nil || !ok {
			t.Fatalf("build %d: lookup = (%v, %v, %v)", i, typ, ok, err)
		}
		d := typ.(*inventory.Descriptor)
		if d.Module != "Acme.A" || d.Simple != "Shared" {
			t.Errorf("build %d: kept %s/%s, want Acme.A/Shared", i, d.Module, d.Simple)
		}
		if got := svc.Stats().Collisions; got != 3 {
			t.Errorf("build %d: Collisions = %d, want 3", i, got)
		}
	}
}

func TestTypeByNameCached_StaleAfterBuild(t *testing.T) {
	src := newFixture()
	svc := NewService(src)

	if _, ok, _ := svc.TypeByNameCached("Widget", "Acme"); !ok {
		t.Fatal("Widget not found")
	}
	src.AddModule("Acme.Late", "Latecomer")

	if _, ok, _ := svc.TypeByNameCached("Latecomer", "Acme"); ok {
		t.Error("built index picked up a module loaded later")
	}
	mods, _ := svc.ModulesForScopeCached("Acme")
	if len(mods) != 3 {
		t.Errorf("cached module set grew to %d", len(mods))
	}

	// a fresh instance sees the new module
	if _, ok, _ := NewService(src).TypeByNameCached("Latecomer", "Acme"); !ok {
		t.Error("fresh service did not see Latecomer")
	}
}

func TestTypeByNameCached_ConcurrentFirstCallers(t *testing.T) {
	src := newFixture()
	svc := NewService(src)

	const workers = 32
	results := make([]inventory.Type, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			names := []string{"Widget", "WIDGET", "widget", "Nope"}
			typ, _, err := svc.TypeByNameCached(names[i%len(names)], "Acme")
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
			}
			results[i] = typ
		}(i)
	}
	close(start)
	wg.Wait()

	stats := svc.Stats()
	if stats.IndexBuilds != 1 || stats.ModuleSetBuilds != 1 {
		t.Errorf("concurrent callers built %d indexes and %d module sets, want 1 each",
			stats.IndexBuilds, stats.ModuleSetBuilds)
	}
	var widget inventory.Type
	for i, typ := range results {
		if i%4 == 3 {
			if typ != nil {
				t.Errorf("worker %d found %s for a missing name", i, qualified(typ))
			}
			continue
		}
		if widget == nil {
			widget = typ
		}
		if typ != widget {
			t.Errorf("worker %d saw %s, want %s", i, qualified(typ), qualified(widget))
		}
	}
}

func TestServicesAreIsolated(t *testing.T) {
	src := newFixture()
	a, b := NewService(src), NewService(src)

	if a.ID() == b.ID() {
		t.Errorf("services share ID %s", a.ID())
	}
	if _, _, err := a.TypeByNameCached("Missing", "Acme"); err != nil {
		t.Fatal(err)
	}
	if b.Warmed("Acme") {
		t.Error("index built by one service is visible to another")
	}
	if got := b.Stats(); got != (Stats{}) {
		t.Errorf("fresh service has counters %+v", got)
	}
}

func TestWarm(t *testing.T) {
	src := newFixture()
	svc := NewService(src, WithWarmConcurrency(2))

	if err := svc.Warm("Acme", "Globex", "Initech"); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	for _, scope := range []string{"Acme", "Globex", "Initech"} {
		if !svc.Warmed(scope) {
			t.Errorf("scope %s not warmed", scope)
		}
	}
	scans := src.Scans()
	if _, ok, _ := svc.TypeByNameCached("Rotor", "Globex"); !ok {
		t.Error("Rotor not found after warm")
	}
	if src.Scans() != scans {
		t.Error("lookup after warm scanned modules")
	}
	if got := svc.Stats().IndexBuilds; got != 3 {
		t.Errorf("IndexBuilds = %d, want 3", got)
	}
}

func TestWarm_RejectsBlankScopeBeforeBuilding(t *testing.T) {
	svc := NewService(newFixture())
	err := svc.Warm("Acme", " ")
	if !errors.IsCode(err, errors.InvalidArgument) {
		t.Fatalf("Warm() error = %v, want INVALID_ARGUMENT", err)
	}
	if svc.Warmed("Acme") {
		t.Error("Warm built scopes despite an invalid argument")
	}
}

func TestTypeByName_Uncached(t *testing.T) {
	src := newFixture()

	typ, ok, err := TypeByName(src, "widget", "Acme")
	if err != nil || !ok {
		t.Fatalf("TypeByName() = (%v, %v, %v)", typ, ok, err)
	}
	if got := qualified(typ); got != "Acme.Core.Widget" {
		t.Errorf("resolved %s, want Acme.Core.Widget", got)
	}
	if _, ok, _ := TypeByName(src, "Rotor", "Acme"); ok {
		t.Error("Rotor resolved outside its scope")
	}

	before := src.Enumerations()
	if _, _, err := TypeByName(src, "Widget", "Acme"); err != nil {
		t.Fatal(err)
	}
	if src.Enumerations() != before+1 {
		t.Error("uncached lookup did not re-enumerate modules")
	}

	globex, _ := src.Module("Globex.Engine")
	typ, ok, _ = TypeByName(src, "WIDGET", "Acme", globex)
	if !ok || qualified(typ) != "Globex.Engine.Widget" {
		t.Errorf("explicit TypeByName resolved %s", qualified(typ))
	}
}

func TestTypeByName_AgreesWithCached(t *testing.T) {
	src := newFixture().AddModule("Acme.Core", "Spanner")
	svc := NewService(src)

	for _, name := range []string{"Widget", "gadget", "SPROCKET", "Hammer", "Spanner", "Rotor", "Lowercase"} {
		want, wantOK, _ := TypeByName(src, name, "Acme")
		got, gotOK, _ := svc.TypeByNameCached(name, "Acme")
		if want != got || wantOK != gotOK {
			t.Errorf("%s: uncached %s/%v, cached %s/%v", name, qualified(want), wantOK, qualified(got), gotOK)
		}
	}
}
