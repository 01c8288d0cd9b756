// Package lookup resolves simple type names within a scope: the set of loaded
// modules whose identifiers share the scope as a prefix.
//
// A Service memoizes, per scope, the resolved module set and a case-folded
// name index built from it, along with names known to be missing. Entries are
// built once and never invalidated; modules loaded after a scope was first
// resolved are not seen by that scope. The package-level ModulesForScope and
// TypeByName functions are the uncached equivalents.
package lookup

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"typeidx/internal/inventory"
	"typeidx/internal/logging"
)

// Service owns the module-set, type-index and negative caches for one
// ModuleSource. It is safe for concurrent use. Independent Services share no
// state.
type Service struct {
	source inventory.ModuleSource
	logger *logging.Logger
	id     string

	modules sync.Map // scope -> []inventory.Module
	indexes sync.Map // scope -> *typeIndex
	misses  sync.Map // missKey -> struct{}

	moduleFlight singleflight.Group
	indexFlight  singleflight.Group

	warmLimit int
	counters  counters
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for build and miss events.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWarmConcurrency bounds how many scopes Warm builds at once.
func WithWarmConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.warmLimit = n
		}
	}
}

// NewService creates a Service over src with empty caches.
func NewService(src inventory.ModuleSource, opts ...Option) *Service {
	s := &Service{
		source:    src,
		logger:    logging.NewNopLogger(),
		id:        uuid.NewString(),
		warmLimit: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID identifies this Service instance in logs and output.
func (s *Service) ID() string { return s.id }

// Source returns the ModuleSource the Service reads from.
func (s *Service) Source() inventory.ModuleSource { return s.source }

// Warm builds the module set and name index for each scope ahead of the first
// lookup. Scopes are built concurrently. Every scope is validated before any
// work starts.
func (s *Service) Warm(scopes ...string) error {
	for _, scope := range scopes {
		if err := requireScope(scope); err != nil {
			return err
		}
	}

	var g errgroup.Group
	g.SetLimit(s.warmLimit)
	for _, scope := range scopes {
		g.Go(func() error {
			s.index(scope)
			return nil
		})
	}
	return g.Wait()
}

// Warmed reports whether the name index for scope has been built.
func (s *Service) Warmed(scope string) bool {
	_, ok := s.indexes.Load(scope)
	return ok
}

type counters struct {
	moduleSetBuilds atomic.Int64
	indexBuilds     atomic.Int64
	modulesScanned  atomic.Int64
	typesIndexed    atomic.Int64
	loadFailures    atomic.Int64
	collisions      atomic.Int64
	lookups         atomic.Int64
	hits            atomic.Int64
	misses          atomic.Int64
	negativeHits    atomic.Int64
	explicitScans   atomic.Int64
}

// Stats is a point-in-time copy of a Service's counters.
type Stats struct {
	ModuleSetBuilds int64 `json:"moduleSetBuilds" yaml:"moduleSetBuilds"`
	IndexBuilds     int64 `json:"indexBuilds" yaml:"indexBuilds"`
	ModulesScanned  int64 `json:"modulesScanned" yaml:"modulesScanned"`
	TypesIndexed    int64 `json:"typesIndexed" yaml:"typesIndexed"`
	LoadFailures    int64 `json:"loadFailures" yaml:"loadFailures"`
	Collisions      int64 `json:"collisions" yaml:"collisions"`
	Lookups         int64 `json:"lookups" yaml:"lookups"`
	Hits            int64 `json:"hits" yaml:"hits"`
	Misses          int64 `json:"misses" yaml:"misses"`
	NegativeHits    int64 `json:"negativeHits" yaml:"negativeHits"`
	ExplicitScans   int64 `json:"explicitScans" yaml:"explicitScans"`
}

// Stats returns the current counters.
func (s *Service) Stats() Stats {
	c := &s.counters
	return Stats{
		ModuleSetBuilds: c.moduleSetBuilds.Load(),
		IndexBuilds:     c.indexBuilds.Load(),
		ModulesScanned:  c.modulesScanned.Load(),
		TypesIndexed:    c.typesIndexed.Load(),
		LoadFailures:    c.loadFailures.Load(),
		Collisions:      c.collisions.Load(),
		Lookups:         c.lookups.Load(),
		Hits:            c.hits.Load(),
		Misses:          c.misses.Load(),
		NegativeHits:    c.negativeHits.Load(),
		ExplicitScans:   c.explicitScans.Load(),
	}
}
