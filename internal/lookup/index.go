package lookup

import (
	"time"

	"typeidx/internal/inventory"
)

// typeIndex maps folded simple names to the first type seen with that name.
// It is never modified after it is published.
type typeIndex struct {
	byName     map[string]inventory.Type
	modules    int
	failures   int
	collisions int
}

// scanObserver receives what an index build or a linear scan ran into. Both
// hooks are optional.
type scanObserver struct {
	partial   func(m inventory.Module, list inventory.TypeList)
	collision func(kept, dropped inventory.Type)
}

// buildIndex scans every module once, in order, keeping the first type seen
// for each folded name. Failed items are skipped and the scan continues.
func buildIndex(src inventory.ModuleSource, mods []inventory.Module, obs scanObserver) *typeIndex {
	idx := &typeIndex{
		byName:  make(map[string]inventory.Type),
		modules: len(mods),
	}
	for _, m := range mods {
		list := src.Types(m)
		if list.Partial() {
			idx.failures += len(list.Failures)
			if obs.partial != nil {
				obs.partial(m, list)
			}
		}
		for _, t := range list.Types {
			if t == nil {
				continue
			}
			key := foldName(t.Name())
			if kept, ok := idx.byName[key]; ok {
				idx.collisions++
				if obs.collision != nil {
					obs.collision(kept, t)
				}
				continue
			}
			idx.byName[key] = t
		}
	}
	return idx
}

// scanModules is the linear form used when nothing is memoized: it stops at
// the first type matching className.
func scanModules(src inventory.ModuleSource, mods []inventory.Module, className string) (inventory.Type, bool) {
	want := foldName(className)
	for _, m := range mods {
		for _, t := range src.Types(m).Types {
			if t != nil && foldName(t.Name()) == want {
				return t, true
			}
		}
	}
	return nil, false
}

// TypeByName resolves className without any caching. With explicit modules
// only those are scanned; otherwise the scope's modules are resolved from src
// on every call. A missing type is reported as (nil, false, nil).
func TypeByName(src inventory.ModuleSource, className, scope string, explicit ...inventory.Module) (inventory.Type, bool, error) {
	if err := requireClassName(className); err != nil {
		return nil, false, err
	}
	if err := requireScope(scope); err != nil {
		return nil, false, err
	}
	if len(explicit) > 0 {
		t, ok := scanModules(src, explicit, className)
		return t, ok, nil
	}
	t, ok := scanModules(src, resolveModules(src, scope), className)
	return t, ok, nil
}

type missKey struct {
	scope string
	name  string
}

// TypeByNameCached resolves className within scope. The scope's module set
// and name index are built on first use and reused afterwards, and names
// found missing are remembered per scope. Supplying explicit modules bypasses
// every cache: only those modules are scanned and nothing is read or stored.
func (s *Service) TypeByNameCached(className, scope string, explicit ...inventory.Module) (inventory.Type, bool, error) {
	if err := requireClassName(className); err != nil {
		return nil, false, err
	}
	if err := requireScope(scope); err != nil {
		return nil, false, err
	}
	s.counters.lookups.Add(1)

	if len(explicit) > 0 {
		s.counters.explicitScans.Add(1)
		t, ok := scanModules(s.source, explicit, className)
		return t, ok, nil
	}

	key := missKey{scope: scope, name: foldName(className)}
	if _, known := s.misses.Load(key); known {
		s.counters.negativeHits.Add(1)
		return nil, false, nil
	}

	idx := s.index(scope)
	if t, ok := idx.byName[key.name]; ok {
		s.counters.hits.Add(1)
		return t, true, nil
	}

	if _, loaded := s.misses.LoadOrStore(key, struct{}{}); !loaded {
		s.counters.misses.Add(1)
		s.logger.Debug("Type not found, recording miss", map[string]interface{}{
			"scope": scope,
			"name":  className,
		})
	}
	return nil, false, nil
}

// index returns the stored name index for scope, building it on first use.
func (s *Service) index(scope string) *typeIndex {
	return loadOrBuild(&s.indexes, &s.indexFlight, scope, func() *typeIndex {
		start := time.Now()
		mods := s.moduleSet(scope)
		idx := buildIndex(s.source, mods, scanObserver{
			partial: func(m inventory.Module, list inventory.TypeList) {
				s.logger.Debug("Module loaded partially", map[string]interface{}{
					"scope":    scope,
					"module":   m.ID(),
					"loaded":   len(list.Types),
					"failures": len(list.Failures),
					"error":    list.Failures[0].Error(),
				})
			},
			collision: func(kept, dropped inventory.Type) {
				s.logger.Debug("Type name collision, keeping first", map[string]interface{}{
					"scope":   scope,
					"name":    kept.Name(),
					"kept":    inventory.QualifiedNameOf(kept),
					"dropped": inventory.QualifiedNameOf(dropped),
				})
			},
		})

		s.counters.indexBuilds.Add(1)
		s.counters.modulesScanned.Add(int64(idx.modules))
		s.counters.typesIndexed.Add(int64(len(idx.byName)))
		s.counters.loadFailures.Add(int64(idx.failures))
		s.counters.collisions.Add(int64(idx.collisions))

		s.logger.Info("Type index built", map[string]interface{}{
			"scope":       scope,
			"modules":     idx.modules,
			"types":       len(idx.byName),
			"collisions":  idx.collisions,
			"failures":    idx.failures,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return idx
	})
}
