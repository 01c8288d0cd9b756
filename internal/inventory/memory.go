package inventory

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
)

// Memory is an in-memory ModuleSource. Modules are enumerated in the order
// they were first added. It counts enumerations and scans so callers can
// observe how often the inventory is consulted.
type Memory struct {
	mu       sync.RWMutex
	modules  []Module
	byID     map[string]Module
	types    map[string][]Type
	failures map[string][]error

	enumerations atomic.Int64
	scans        atomic.Int64
}

// NewMemory creates an empty in-memory inventory.
func NewMemory() *Memory {
	return &Memory{
		byID:     make(map[string]Module),
		types:    make(map[string][]Type),
		failures: make(map[string][]error),
	}
}

// Add registers module (if new) and appends types to it.
func (m *Memory) Add(module Module, types ...Type) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := module.ID()
	if _, ok := m.byID[id]; !ok {
		m.byID[id] = module
		m.modules = append(m.modules, module)
	}
	m.types[id] = append(m.types[id], types...)
	return m
}

// AddModule is a shorthand for Add with a Unit and Descriptors. Each type
// name may be qualified ("pkg.Name"); the simple name is the part after the
// last dot.
func (m *Memory) AddModule(id string, typeNames ...string) *Memory {
	types := make([]Type, 0, len(typeNames))
	for _, name := range typeNames {
		types = append(types, NewDescriptor(id, name))
	}
	return m.Add(NewUnit(id), types...)
}

// NewDescriptor builds a Descriptor for a type in module. Qualified names are
// split on the last dot; bare names are qualified with the module ID.
func NewDescriptor(module, name string) *Descriptor {
	simple := name
	qualified := module + "." + name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		simple = name[i+1:]
		qualified = name
	}
	return &Descriptor{Simple: simple, Qualified: qualified, Module: module}
}

// Fail records load failures for a module. The module must already exist or
// be added later; failures for unknown modules are kept but never reported.
func (m *Memory) Fail(moduleID string, messages ...string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range messages {
		m.failures[moduleID] = append(m.failures[moduleID], &LoadError{
			Module: moduleID,
			Err:    errors.New(msg),
		})
	}
	return m
}

// LoadedModules implements ModuleSource.
func (m *Memory) LoadedModules() []Module {
	m.enumerations.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Module, len(m.modules))
	copy(out, m.modules)
	return out
}

// Types implements ModuleSource.
func (m *Memory) Types(module Module) TypeList {
	m.scans.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()

	id := module.ID()
	list := TypeList{}
	if types := m.types[id]; len(types) > 0 {
		list.Types = make([]Type, len(types))
		copy(list.Types, types)
	}
	if failures := m.failures[id]; len(failures) > 0 {
		list.Failures = make([]error, len(failures))
		copy(list.Failures, failures)
	}
	return list
}

// Enumerations returns how many times LoadedModules was called.
func (m *Memory) Enumerations() int64 { return m.enumerations.Load() }

// Scans returns how many times Types was called.
func (m *Memory) Scans() int64 { return m.scans.Load() }

// Module returns the module with the given ID.
func (m *Memory) Module(id string) (Module, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mod, ok := m.byID[id]
	return mod, ok
}
