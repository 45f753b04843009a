package backend

import (
	"context"
	"fmt"

	"github.com/splax/proxyharness/internal/proc"
)

// ExecLauncher runs the backend application as a local process. Its output
// is captured through the shared process launcher and its exit closes the
// instance's Exited channel.
type ExecLauncher struct {
	Path string
	Args []string
	Dir  string
	// Addr is the address the backend listens on once started.
	Addr string
	// RedirectURIFlag, when set, is appended to the arguments together with
	// the redirect URI so the backend can emit proxy-facing links.
	RedirectURIFlag string
	Runner          *proc.Launcher
}

// Start launches the backend and returns its address and exit signal.
func (l *ExecLauncher) Start(ctx context.Context, redirectURI string) (Instance, error) {
	if l.Path == "" {
		return Instance{}, fmt.Errorf("backend path required")
	}
	if l.Runner == nil {
		return Instance{}, fmt.Errorf("backend process launcher required")
	}
	args := append([]string(nil), l.Args...)
	if l.RedirectURIFlag != "" {
		args = append(args, l.RedirectURIFlag, redirectURI)
	}
	handle, err := l.Runner.Start(ctx, l.Path, args, l.Dir)
	if err != nil {
		return Instance{}, fmt.Errorf("start backend %s: %w", l.Path, err)
	}
	return Instance{BaseURL: l.Addr, Exited: handle.Done()}, nil
}
