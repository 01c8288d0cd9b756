package backends

import (
	"errors"
	"sync"

	"typeidx/internal/inventory"
	"typeidx/internal/logging"
)

// Chain overlays several sources. Modules are listed source by source in the
// given order; when two sources provide the same module ID the first one wins
// and the later module is dropped.
type Chain struct {
	sources []inventory.ModuleSource
	logger  *logging.Logger

	mu     sync.RWMutex
	owners map[string]int
}

// NewChain creates a Chain over srcs.
func NewChain(logger *logging.Logger, srcs ...inventory.ModuleSource) *Chain {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Chain{
		sources: srcs,
		logger:  logger,
		owners:  make(map[string]int),
	}
}

// member remembers which source a module came from.
type member struct {
	inventory.Module
	source int
}

// ModuleVersion implements inventory.Versioned when the wrapped module does.
func (m member) ModuleVersion() string {
	if v, ok := m.Module.(inventory.Versioned); ok {
		return v.ModuleVersion()
	}
	return ""
}

// Unwrap returns the module as its own source produced it.
func (m member) Unwrap() inventory.Module { return m.Module }

// LoadedModules implements inventory.ModuleSource.
func (c *Chain) LoadedModules() []inventory.Module {
	var out []inventory.Module
	seen := make(map[string]int)
	for i, src := range c.sources {
		for _, m := range src.LoadedModules() {
			id := m.ID()
			if first, dup := seen[id]; dup {
				c.logger.Debug("Module shadowed by earlier source", map[string]interface{}{
					"module": id,
					"kept":   first,
					"source": i,
				})
				continue
			}
			seen[id] = i
			out = append(out, member{Module: m, source: i})
		}
	}

	c.mu.Lock()
	for id, i := range seen {
		c.owners[id] = i
	}
	c.mu.Unlock()
	return out
}

// Types implements inventory.ModuleSource.
func (c *Chain) Types(m inventory.Module) inventory.TypeList {
	if mm, ok := m.(member); ok {
		return c.sources[mm.source].Types(mm.Module)
	}

	c.mu.RLock()
	i, ok := c.owners[m.ID()]
	c.mu.RUnlock()
	if !ok {
		return inventory.TypeList{Failures: []error{&inventory.LoadError{
			Module: m.ID(),
			Err:    errors.New("module is not provided by any source"),
		}}}
	}
	return c.sources[i].Types(m)
}

// Close closes every source in the chain.
func (c *Chain) Close() error {
	return CloseAll(c.sources...)
}
