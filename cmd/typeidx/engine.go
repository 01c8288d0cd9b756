package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"typeidx/internal/backends"
	"typeidx/internal/backends/goload"
	"typeidx/internal/backends/scip"
	"typeidx/internal/backends/snapshot"
	"typeidx/internal/backends/treesitter"
	"typeidx/internal/config"
	"typeidx/internal/errors"
	"typeidx/internal/inventory"
	"typeidx/internal/logging"
	"typeidx/internal/lookup"
)

// engine couples an opened module source with the lookup service built on it.
type engine struct {
	cfg    *config.Config
	logger *logging.Logger
	source inventory.ModuleSource
	svc    *lookup.Service
}

// newEngine opens the configured source and warms the configured scopes.
func newEngine(ctx context.Context, s *settings, logger *logging.Logger) (*engine, error) {
	src, err := openSources(ctx, s.cfg.Source.Kind, s.paths, s.cfg.Source.Patterns, logger)
	if err != nil {
		return nil, err
	}

	svc := lookup.NewService(src, lookup.WithLogger(logger))
	if scopes := s.cfg.Index.WarmScopes; len(scopes) > 0 {
		start := time.Now()
		if err := svc.Warm(scopes...); err != nil {
			_ = backends.Close(src)
			return nil, err
		}
		logger.Info("Scopes warmed", map[string]interface{}{
			"scopes":   len(scopes),
			"duration": time.Since(start).String(),
		})
	}

	return &engine{cfg: s.cfg, logger: logger, source: src, svc: svc}, nil
}

// Close releases the source's resources.
func (e *engine) Close() error {
	return backends.Close(e.source)
}

// modulesByID resolves module identifiers against the loaded inventory.
func (e *engine) modulesByID(ids []string) ([]inventory.Module, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	loaded := make(map[string]inventory.Module)
	for _, m := range e.source.LoadedModules() {
		if _, dup := loaded[m.ID()]; !dup {
			loaded[m.ID()] = m
		}
	}
	mods := make([]inventory.Module, 0, len(ids))
	for _, id := range ids {
		m, ok := loaded[id]
		if !ok {
			return nil, errors.Invalid("module", "module %q is not loaded by the source", id)
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// openSources opens one source per path, overlaying them when there are
// several.
func openSources(ctx context.Context, kind string, paths, patterns []string, logger *logging.Logger) (inventory.ModuleSource, error) {
	if len(paths) <= 1 {
		path := ""
		if len(paths) == 1 {
			path = paths[0]
		}
		return openSource(ctx, kind, path, patterns, logger)
	}

	srcs := make([]inventory.ModuleSource, 0, len(paths))
	for _, path := range paths {
		src, err := openSource(ctx, kind, path, patterns, logger)
		if err != nil {
			_ = backends.CloseAll(srcs...)
			return nil, err
		}
		srcs = append(srcs, src)
	}
	return backends.NewChain(logger, srcs...), nil
}

func openSource(ctx context.Context, kind, path string, patterns []string, logger *logging.Logger) (inventory.ModuleSource, error) {
	switch kind {
	case config.SourceManifest:
		return openManifest(path)
	case config.SourceSnapshot:
		src, err := snapshot.Open(path, logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourceSCIP:
		src, err := scip.Load(path, logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourcePackages:
		src, err := goload.Load(ctx, path, patterns, logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourceTreeSitter:
		src, err := treesitter.Scan(ctx, path, logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourceSelf:
		reg, err := selfRegistry()
		if err != nil {
			return nil, errors.NewError(errors.InternalError, "cannot register typeidx types", err, nil)
		}
		return reg, nil
	default:
		return nil, errors.NewError(errors.ConfigInvalid, fmt.Sprintf("unknown source kind %q", kind), nil,
			errors.GetSuggestedFixes(errors.ConfigInvalid))
	}
}

func openManifest(path string) (inventory.ModuleSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewError(errors.SourceUnavailable,
			fmt.Sprintf("manifest not found at %s", path), err,
			errors.GetSuggestedFixes(errors.SourceUnavailable))
	}
	mem, err := inventory.LoadManifest(path)
	if err != nil {
		return nil, errors.NewError(errors.SnapshotInvalid,
			fmt.Sprintf("cannot load manifest %s", path), err, nil)
	}
	return mem, nil
}
