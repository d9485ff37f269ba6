//go:build !windows

package process

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"
)

func run(ctx context.Context, spec Spec) (Result, error) {
	cmd := exec.Command(spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	// Own process group so the whole tree can be signalled at once.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout := newCappedBuffer(spec.MaxOutputBytes)
	stderr := newCappedBuffer(spec.MaxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("process: start %s: %w", spec.Name, err)
	}

	var timedOut atomic.Bool
	done := make(chan struct{})
	go reap(ctx, cmd, spec, &timedOut, done)

	_ = cmd.Wait()
	close(done)

	code := cmd.ProcessState.ExitCode()
	return Result{
		ExitCode: &code,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		TimedOut: timedOut.Load(),
	}, nil
}

// reap waits for the deadline or context cancellation and escalates
// SIGTERM to SIGKILL on the process group after the grace period.
func reap(ctx context.Context, cmd *exec.Cmd, spec Spec, timedOut *atomic.Bool, done <-chan struct{}) {
	deadline := time.NewTimer(spec.Timeout)
	defer deadline.Stop()

	select {
	case <-done:
		return
	case <-ctx.Done():
	case <-deadline.C:
	}

	timedOut.Store(true)
	signalGroup(cmd, syscall.SIGTERM)

	grace := time.NewTimer(spec.GracePeriod)
	defer grace.Stop()

	select {
	case <-done:
	case <-grace.C:
		signalGroup(cmd, syscall.SIGKILL)
	}
}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal) {
	if cmd.Process == nil {
		return
	}
	// Negative pid targets the whole group.
	_ = syscall.Kill(-cmd.Process.Pid, sig)
}
