package proc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ErrNoPidFile reports that the launched process never wrote its PID file.
// Callers may treat this as a degraded mode: the process cannot be verified
// through a handle, only addressed through its config-based stop command.
var ErrNoPidFile = errors.New("pid file not written")

// ResolvePid reads the PID file written by a daemonising process and
// resolves its content to a live process handle. The launch invocation's own
// child handle is useless for supervision once the daemon forks; the PID
// file, written after the master is up, identifies the process that matters.
func ResolvePid(path string) (*os.Process, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoPidFile
	}
	if err != nil {
		return nil, fmt.Errorf("read pid file %s: %w", path, err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, fmt.Errorf("pid file %s is empty", path)
	}
	pid, err := strconv.Atoi(content)
	if err != nil || pid <= 0 {
		return nil, fmt.Errorf("pid file %s does not contain a positive integer: %q", path, content)
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return nil, fmt.Errorf("find process %d: %w", pid, err)
	}
	if !Alive(process) {
		return nil, fmt.Errorf("pid %d from %s is not a running process", pid, path)
	}
	return process, nil
}

// Alive checks whether the process is still running by sending signal 0.
func Alive(p *os.Process) bool {
	return p.Signal(syscall.Signal(0)) == nil
}
