package proc

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func writePidFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nginx.pid")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}
	return path
}

func TestResolvePidMissingFile(t *testing.T) {
	_, err := ResolvePid(filepath.Join(t.TempDir(), "missing.pid"))
	if !errors.Is(err, ErrNoPidFile) {
		t.Fatalf("expected ErrNoPidFile, got %v", err)
	}
}

func TestResolvePidEmptyFile(t *testing.T) {
	_, err := ResolvePid(writePidFile(t, "  \n"))
	if err == nil || errors.Is(err, ErrNoPidFile) {
		t.Fatalf("expected fatal error for empty pid file, got %v", err)
	}
}

func TestResolvePidMalformedContent(t *testing.T) {
	for _, content := range []string{"notanumber", "-5", "0"} {
		_, err := ResolvePid(writePidFile(t, content))
		if err == nil || errors.Is(err, ErrNoPidFile) {
			t.Fatalf("content %q: expected fatal error, got %v", content, err)
		}
		if !strings.Contains(err.Error(), "positive integer") {
			t.Fatalf("content %q: unexpected error: %v", content, err)
		}
	}
}

func TestResolvePidStaleProcess(t *testing.T) {
	// A pid far beyond the kernel's pid range cannot name a live process.
	_, err := ResolvePid(writePidFile(t, strconv.Itoa(1<<30)))
	if err == nil || !strings.Contains(err.Error(), "not a running process") {
		t.Fatalf("expected stale-pid error, got %v", err)
	}
}

func TestResolvePidLiveProcess(t *testing.T) {
	process, err := ResolvePid(writePidFile(t, strconv.Itoa(os.Getpid())+"\n"))
	if err != nil {
		t.Fatalf("resolve own pid: %v", err)
	}
	if process.Pid != os.Getpid() {
		t.Fatalf("expected pid %d, got %d", os.Getpid(), process.Pid)
	}
	if !Alive(process) {
		t.Fatalf("own process reported dead")
	}
}
