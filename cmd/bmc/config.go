package main

import (
	"flag"
	"strconv"
	"strings"

	"github.com/boundedmc/bmc/internal/bmcerr"
	"github.com/boundedmc/bmc/internal/bmcopts"
	"github.com/boundedmc/bmc/internal/gotoir"
)

// config is every flag this binary recognises: the enumerated core
// Options (bmcopts.Options.Bind) plus the handful of flags this
// binary needs for its own plumbing, the things spec.md's Non-goals
// leave to the (out of scope) front end and CLI: where the goto IR
// lives, which claims to restrict verification to, and — set only on
// a re-exec'd child, never by a user — which k-induction role to run.
type config struct {
	Opts bmcopts.Options

	IRPath     string
	Claims     string // comma-separated "function:location" pairs, empty means every claim
	WorkerRole string // "" for the top-level process
}

func (c *config) bind(fs *flag.FlagSet) {
	c.Opts.Bind(fs)
	fs.StringVar(&c.IRPath, "ir", "", "path to the goto IR file produced by the front end")
	fs.StringVar(&c.Claims, "claims", "", "comma-separated claim ids (function:location) to restrict verification to")
	fs.StringVar(&c.WorkerRole, "worker-role", "", "internal: re-exec'd worker role, set by the parent process itself")
}

// claimIDs parses Claims into gotoir.ClaimID values, empty when no
// restriction was requested.
func (c *config) claimIDs() ([]gotoir.ClaimID, error) {
	if c.Claims == "" {
		return nil, nil
	}
	parts := strings.Split(c.Claims, ",")
	ids := make([]gotoir.ClaimID, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		fn, locStr, ok := strings.Cut(p, ":")
		if !ok || fn == "" {
			return nil, bmcerr.New(bmcerr.KindClaimSelection, "cmd/bmc: malformed claim id %q, want function:location", p)
		}
		loc, err := strconv.Atoi(locStr)
		if err != nil {
			return nil, bmcerr.New(bmcerr.KindClaimSelection, "cmd/bmc: malformed claim id %q: %v", p, err)
		}
		ids = append(ids, gotoir.ClaimID{Function: fn, LocationNumber: loc})
	}
	return ids, nil
}
