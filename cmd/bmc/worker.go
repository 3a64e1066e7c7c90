package main

import (
	"os"
	"os/exec"

	"github.com/boundedmc/bmc/internal/bmcerr"
	"github.com/boundedmc/bmc/internal/kinduction"
)

// roleFromString maps a -worker-role value back onto a kinduction.Role,
// the inverse of Role.String, which is exactly the set of strings
// bmcopts.Options.SingleConfig already returns for the same three
// configurations.
func roleFromString(s string) kinduction.Role {
	switch s {
	case "base-case":
		return kinduction.RoleBase
	case "forward-condition":
		return kinduction.RoleForward
	case "inductive-step":
		return kinduction.RoleInductive
	default:
		return kinduction.RoleNone
	}
}

// spawnFunc builds the kinduction.SpawnFunc the parallel orchestrator
// uses to fork each of the three configurations, per spec.md §4.H's
// "a forked worker shares no memory with the parent": Go offers no
// safe fork() once goroutines are running (internal/kinduction's own
// doc comment on SpawnFunc), so this re-execs the current binary with
// the same flags plus -worker-role, handing the pipe's write end to
// the child as fd 3 via ExtraFiles.
func spawnFunc(rawArgs []string) kinduction.SpawnFunc {
	return func(role kinduction.Role, pipeWrite *os.File) (*exec.Cmd, error) {
		exe, err := os.Executable()
		if err != nil {
			return nil, bmcerr.Wrap(err, "cmd/bmc: locating own executable")
		}

		args := make([]string, 0, len(rawArgs)+1)
		args = append(args, rawArgs...)
		args = append(args, "-worker-role="+role.String())

		cmd := exec.Command(exe, args...)
		cmd.ExtraFiles = []*os.File{pipeWrite}
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return nil, bmcerr.Wrap(err, "cmd/bmc: starting %s worker", role)
		}
		return cmd, nil
	}
}

// runWorker is the body a re-exec'd worker process runs: rebuild the
// program and value sets the same way the parent did, then drive this
// role's increasing-k loop, writing every result record to the pipe
// inherited as fd 3.
func runWorker(cfg *config) int {
	role := roleFromString(cfg.WorkerRole)
	if role == kinduction.RoleNone {
		logErr("cmd/bmc: unknown worker role %q", cfg.WorkerRole)
		return 1
	}

	prog, valueSets, err := loadAndPrepare(cfg)
	if err != nil {
		logErr("%v", err)
		return exitCodeFor(err)
	}

	pipeWrite := os.NewFile(3, "bmc-result-pipe")
	if pipeWrite == nil {
		logErr("cmd/bmc: worker started without a result pipe on fd 3")
		return 1
	}
	defer pipeWrite.Close()

	opts := cfg.Opts.WithDefaults()
	roleOpts := kinduction.RoleOptions(role, opts)
	newSolver := newSolverFactory()
	step := kinduction.NewResultFunc(prog, valueSets, newSolver, roleOpts)

	if err := kinduction.WorkerMain(role, step, opts.Unwind, opts.KStep, pipeWrite); err != nil {
		logErr("%v", err)
		return exitCodeFor(err)
	}
	return 0
}
