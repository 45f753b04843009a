package backend

import (
	"context"
	"testing"
	"time"

	"github.com/splax/proxyharness/internal/proc"
)

func TestExecLauncherStart(t *testing.T) {
	l := &ExecLauncher{
		Path:   "sh",
		Args:   []string{"-c", "exit 0"},
		Addr:   "http://127.0.0.1:5000",
		Runner: proc.NewLauncher(discardLogger()),
	}

	instance, err := l.Start(context.Background(), "http://127.0.0.1:8080")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if instance.BaseURL != "http://127.0.0.1:5000" {
		t.Fatalf("unexpected base url %q", instance.BaseURL)
	}
	select {
	case <-instance.Exited:
	case <-time.After(10 * time.Second):
		t.Fatalf("exit signal never closed")
	}
}

func TestExecLauncherRequiresPath(t *testing.T) {
	l := &ExecLauncher{Runner: proc.NewLauncher(discardLogger())}
	if _, err := l.Start(context.Background(), ""); err == nil {
		t.Fatalf("expected error without a backend path")
	}
}
