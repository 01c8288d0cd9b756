package lookup

import (
	"strings"

	"typeidx/internal/inventory"
)

// ModulesForScope enumerates src and returns, in enumeration order, every
// module whose identifier starts with scope. The comparison is byte-exact.
// Nothing is cached.
func ModulesForScope(src inventory.ModuleSource, scope string) ([]inventory.Module, error) {
	if err := requireScope(scope); err != nil {
		return nil, err
	}
	return resolveModules(src, scope), nil
}

func resolveModules(src inventory.ModuleSource, scope string) []inventory.Module {
	matched := make([]inventory.Module, 0)
	for _, m := range src.LoadedModules() {
		if strings.HasPrefix(m.ID(), scope) {
			matched = append(matched, m)
		}
	}
	return matched
}

// ModulesForScopeCached returns the module set for scope, resolving it on the
// first call and serving the stored set afterwards. The returned slice is a
// copy and may be modified by the caller.
func (s *Service) ModulesForScopeCached(scope string) ([]inventory.Module, error) {
	if err := requireScope(scope); err != nil {
		return nil, err
	}
	mods := s.moduleSet(scope)
	out := make([]inventory.Module, len(mods))
	copy(out, mods)
	return out, nil
}

// moduleSet returns the stored module set. Callers must not modify it.
func (s *Service) moduleSet(scope string) []inventory.Module {
	return loadOrBuild(&s.modules, &s.moduleFlight, scope, func() []inventory.Module {
		mods := resolveModules(s.source, scope)
		s.counters.moduleSetBuilds.Add(1)
		s.logger.Debug("Module set resolved", map[string]interface{}{
			"scope":   scope,
			"modules": len(mods),
		})
		return mods
	})
}
