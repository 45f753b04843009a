// Package proc launches external processes with captured output and resolves
// daemonised processes through their PID files.
package proc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"time"
)

// Launcher starts external commands with stdout and stderr streamed into the
// log line-by-line as they arrive.
type Launcher struct {
	logger *slog.Logger
}

// NewLauncher returns a Launcher writing process output to the given logger.
func NewLauncher(logger *slog.Logger) *Launcher {
	return &Launcher{logger: logger}
}

// Handle tracks a started process until it exits.
type Handle struct {
	cmd      *exec.Cmd
	done     chan struct{}
	exitCode int
}

// Start launches name with args in dir. Stdin stays connected to the null
// device so the child never blocks reading inherited console input.
func (l *Launcher) Start(ctx context.Context, name string, args []string, dir string) (*Handle, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	log := l.logger.With("command", name, "pid", cmd.Process.Pid)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanLines(stdout, func(line string) {
			log.Info("process output", "stream", "stdout", "line", line)
		})
	}()
	go func() {
		defer wg.Done()
		scanLines(stderr, func(line string) {
			log.Warn("process output", "stream", "stderr", "line", line)
		})
	}()

	h := &Handle{cmd: cmd, done: make(chan struct{})}
	go func() {
		wg.Wait()
		_ = cmd.Wait()
		h.exitCode = cmd.ProcessState.ExitCode()
		close(h.done)
	}()
	return h, nil
}

// WaitForExit blocks until the process exits or the timeout elapses. A
// timeout is reported as such, never folded into an exit code.
func (h *Handle) WaitForExit(timeout time.Duration) (exitCode int, timedOut bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-h.done:
		return h.exitCode, false
	case <-timer.C:
		return 0, true
	}
}

// Done is closed once the process has exited and its output is drained.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// ExitCode is valid once Done is closed.
func (h *Handle) ExitCode() int {
	return h.exitCode
}

// Pid returns the OS pid of the launched process.
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

func scanLines(r io.Reader, emit func(string)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			emit(line)
		}
	}
}
