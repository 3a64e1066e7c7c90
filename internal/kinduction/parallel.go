package kinduction

import (
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/boundedmc/bmc/internal/bmcerr"
)

// SpawnFunc re-execs the current binary into one worker role, the Go
// substitute for parseoptions.cpp's fork(): Go offers no safe fork()
// once goroutines are running, so the caller (cmd/bmc, which owns
// os.Executable and the flag surface) builds an *exec.Cmd that
// re-invokes itself with a flag naming role, passes pipeWrite as the
// child's fd 3 via cmd.ExtraFiles, starts it, and returns the running
// command so this package can wait on it and kill it on decision.
type SpawnFunc func(role Role, pipeWrite *os.File) (*exec.Cmd, error)

// pollInterval is how often the parent's pipe read times out to
// recheck child liveness, the idiomatic Go substitute for
// parseoptions.cpp's fcntl(O_NONBLOCK) + waitpid(WNOHANG) busy loop.
const pollInterval = 50 * time.Millisecond

// RunParallel forks the three k-induction configurations as separate
// processes sharing one pipe and combines their verdicts, per
// spec.md §4.H steps 1-4.
func RunParallel(spawn SpawnFunc, maxK int) (*Result, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, bmcerr.Wrap(err, "kinduction: creating result pipe")
	}
	defer r.Close()

	cmds := make(map[Role]*exec.Cmd, 3)
	for _, role := range roundRobinRoles {
		cmd, err := spawn(role, w)
		if err != nil {
			killAll(cmds)
			w.Close()
			return nil, bmcerr.Wrap(err, "kinduction: spawning %s worker", role)
		}
		cmds[role] = cmd
	}
	// The parent's own copy of the write end must close once every
	// child has its own (dup'd via ExtraFiles), or the parent's reads
	// never see EOF after every child exits without a final record.
	w.Close()

	exited := make(chan Role, len(cmds))
	for role, cmd := range cmds {
		go func(role Role, cmd *exec.Cmd) {
			cmd.Wait()
			exited <- role
		}(role, cmd)
	}

	dec := newDecision()
	buf := make([]byte, recordSize*64)

	for {
		if outcome, atK, ok := dec.conclude(); ok {
			killAll(cmds)
			drain(cmds, exited)
			return &Result{Outcome: outcome, K: atK}, nil
		}
		if dec.allFinished() {
			outcome, atK, _ := dec.conclude()
			return &Result{Outcome: outcome, K: atK}, nil
		}

		select {
		case role := <-exited:
			dec.apply(Record{Step: role, Finished: true})
			continue
		default:
		}

		r.SetReadDeadline(time.Now().Add(pollInterval))
		n, err := r.Read(buf)
		if err != nil {
			if os.IsTimeout(err) {
				continue
			}
			if err == io.EOF {
				continue
			}
			killAll(cmds)
			return nil, bmcerr.Wrap(err, "kinduction: reading result pipe")
		}
		for off := 0; off+recordSize <= n; off += recordSize {
			rec, err := decodeRecord(buf[off : off+recordSize])
			if err != nil {
				continue
			}
			dec.apply(rec)
		}
	}
}

func killAll(cmds map[Role]*exec.Cmd) {
	for _, cmd := range cmds {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}
}

// drain waits (briefly, non-blockingly beyond what's already queued)
// for the exited-notification of every command RunParallel just
// killed, so their goroutines don't leak past this call returning.
func drain(cmds map[Role]*exec.Cmd, exited chan Role) {
	remaining := len(cmds)
	timeout := time.After(2 * time.Second)
	for remaining > 0 {
		select {
		case <-exited:
			remaining--
		case <-timeout:
			return
		}
	}
}

// WorkerMain is the body a re-exec'd worker process runs: drive role's
// increasing-k loop via step, writing each Record to pipeWrite as it
// is produced. The caller (cmd/bmc) is responsible for recognising its
// own worker invocation, building step via NewResultFunc from a
// freshly loaded program/value-set/solver, and calling this with fd 3
// (inherited via ExtraFiles) opened as pipeWrite. kStep is
// bmcopts.Options.KStep.
func WorkerMain(role Role, step resultFunc, maxK, kStep int, pipeWrite io.Writer) error {
	return runRole(role, step, maxK, kStep, func(rec Record) error {
		enc := rec.encode()
		_, err := pipeWrite.Write(enc[:])
		return err
	})
}
