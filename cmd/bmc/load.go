package main

import (
	"os"

	"github.com/boundedmc/bmc/internal/bmcerr"
	"github.com/boundedmc/bmc/internal/gotoir"
	"github.com/boundedmc/bmc/internal/monitor"
	"github.com/boundedmc/bmc/internal/valueset"
)

// loadAndPrepare builds the program and value-set analysis the rest of
// this binary operates on: load the IR, wire in property monitors
// (component I), apply claim selection, then run the pointer analysis
// once per function. A re-exec'd worker calls this again on its own,
// since it shares no memory with the process that spawned it and must
// reconstruct everything from the same -ir/-claims flags rather than
// receive them.
func loadAndPrepare(cfg *config) (*gotoir.Program, map[string]*valueset.Info, error) {
	if cfg.IRPath == "" {
		return nil, nil, bmcerr.New(bmcerr.KindIRLoad, "cmd/bmc: -ir is required")
	}

	f, err := os.Open(cfg.IRPath)
	if err != nil {
		return nil, nil, bmcerr.New(bmcerr.KindIRLoad, "cmd/bmc: opening %s: %v", cfg.IRPath, err)
	}
	defer f.Close()

	prog, err := gotoir.Load(f)
	if err != nil {
		return nil, nil, err
	}

	if err := monitor.Instrument(prog); err != nil {
		return nil, nil, err
	}

	ids, err := cfg.claimIDs()
	if err != nil {
		return nil, nil, err
	}
	if len(ids) > 0 {
		if err := prog.SelectClaims(ids...); err != nil {
			return nil, nil, err
		}
	}

	registry := valueset.NewRegistry()
	names := prog.FunctionNames()
	valueSets := make(map[string]*valueset.Info, len(names))
	for _, name := range names {
		valueSets[name] = valueset.Analyze(prog.Functions[name], registry, 0)
	}

	return prog, valueSets, nil
}
