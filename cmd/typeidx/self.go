package main

import (
	"reflect"

	"typeidx/internal/backends"
	"typeidx/internal/backends/process"
	"typeidx/internal/backends/snapshot"
	"typeidx/internal/config"
	"typeidx/internal/errors"
	"typeidx/internal/inventory"
	"typeidx/internal/logging"
	"typeidx/internal/lookup"
)

// selfRegistry describes the typeidx binary: the library types it is built
// from, plus the CLI's own response types under this package's path ("main"
// in the built binary).
func selfRegistry() (*process.Registry, error) {
	reg := process.NewRegistry()
	err := reg.RegisterValues(
		(*config.Config)(nil),
		(*config.SourceConfig)(nil),
		(*config.IndexConfig)(nil),
		(*config.LoggingConfig)(nil),
		(*config.ConfigError)(nil),
		(*errors.TypeIdxError)(nil),
		(*errors.FixAction)(nil),
		(*errors.ErrorCode)(nil),
		(*logging.Logger)(nil),
		(*logging.Config)(nil),
		(*inventory.TypeList)(nil),
		(*inventory.LoadError)(nil),
		(*inventory.Unit)(nil),
		(*inventory.Descriptor)(nil),
		(*inventory.Memory)(nil),
		(*inventory.ManifestFile)(nil),
		(*lookup.Service)(nil),
		(*lookup.Stats)(nil),
		(*backends.Chain)(nil),
		(*backends.BackendID)(nil),
		(*snapshot.Info)(nil),
		(*snapshot.Source)(nil),
		(*process.Registry)(nil),
	)
	if err != nil {
		return nil, err
	}

	reg.RegisterLazy(cliPackage(), func() ([]reflect.Type, error) {
		return []reflect.Type{
			reflect.TypeOf(LookupResponse{}),
			reflect.TypeOf(ModulesResponse{}),
			reflect.TypeOf(SnapshotResponse{}),
			reflect.TypeOf(VerifyResponse{}),
			reflect.TypeOf(ConfigInitResponse{}),
			reflect.TypeOf(VersionResponse{}),
			reflect.TypeOf(TypeView{}),
			reflect.TypeOf(ModuleView{}),
		}, nil
	})
	return reg, nil
}

func cliPackage() string {
	return reflect.TypeOf(LookupResponse{}).PkgPath()
}
