// Package deploy orchestrates one nginx deployment session: config
// rendering, proxy launch, PID handshake, readiness probing and teardown.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/splax/proxyharness/internal/backend"
	"github.com/splax/proxyharness/internal/nginx"
	"github.com/splax/proxyharness/internal/probe"
	"github.com/splax/proxyharness/internal/proc"
	"github.com/splax/proxyharness/pkg/config"
)

// Ceiling on waiting for the nginx start and stop commands to exit.
const processWaitTimeout = 30 * time.Second

const defaultBaseURI = "http://127.0.0.1:8080"

// Parameters describe one deployment session.
type Parameters struct {
	ApplicationPath string
	// BaseURI is the externally visible address callers use; the proxy
	// listens on its port. Defaults to http://127.0.0.1:8080.
	BaseURI string
	// ConfigTemplate overrides the built-in nginx template.
	ConfigTemplate string
	PublishFirst   bool
	PublishCommand string
}

// Result is handed to the caller once the deployment is running.
type Result struct {
	ContentRoot   string
	BaseURI       string
	BackendExited <-chan struct{}
}

type processHandle interface {
	WaitForExit(timeout time.Duration) (exitCode int, timedOut bool)
}

type processRunner interface {
	Start(ctx context.Context, name string, args []string, dir string) (processHandle, error)
}

type execRunner struct {
	launcher *proc.Launcher
}

func (r execRunner) Start(ctx context.Context, name string, args []string, dir string) (processHandle, error) {
	h, err := r.launcher.Start(ctx, name, args, dir)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Supervisor owns the proxy process handle and the rendered config file for
// the duration of one deployment session. Deploy and Dispose are called from
// a single control flow; the supervisor is not reused across sessions.
type Supervisor struct {
	nginxPath string
	logger    *slog.Logger
	backend   backend.Launcher
	runner    processRunner
	resolve   func(string) (*os.Process, error)
	alive     func(*os.Process) bool
	probe     func(ctx context.Context, addr string, exited <-chan struct{}) error
	publish   func(ctx context.Context, dir, command string, logger *slog.Logger) error
	waitBound time.Duration

	contentRoot string
	confPath    string
	proxy       *os.Process
	disposed    bool
}

// New returns a supervisor for a single deployment session.
func New(cfg config.HarnessConfig, backendLauncher backend.Launcher, logger *slog.Logger) *Supervisor {
	launcher := proc.NewLauncher(logger.With("phase", "nginx"))
	client := &http.Client{Timeout: 5 * time.Second}
	budget := cfg.ProbeBudget
	return &Supervisor{
		nginxPath: cfg.NginxPath,
		logger:    logger,
		backend:   backendLauncher,
		runner:    execRunner{launcher: launcher},
		resolve:   proc.ResolvePid,
		alive:     proc.Alive,
		probe: func(ctx context.Context, addr string, exited <-chan struct{}) error {
			return probe.WaitUntilReady(ctx, client, addr, exited, budget, logger.With("phase", "probe"))
		},
		publish:   backend.Publish,
		waitBound: processWaitTimeout,
	}
}

// Deploy runs the session up to its steady state and returns the handle the
// caller addresses the deployment through. On any error the session is left
// for Dispose to clean up; callers invoke Dispose regardless of where the
// sequence stopped.
func (s *Supervisor) Deploy(ctx context.Context, params Parameters) (*Result, error) {
	s.contentRoot = params.ApplicationPath

	if params.PublishFirst {
		if err := s.publish(ctx, s.contentRoot, params.PublishCommand, s.logger.With("phase", "publish")); err != nil {
			return nil, err
		}
	}

	baseURI := params.BaseURI
	if baseURI == "" {
		baseURI = defaultBaseURI
	}
	port, err := listenPort(baseURI)
	if err != nil {
		return nil, err
	}

	instance, err := s.backend.Start(ctx, baseURI)
	if err != nil {
		return nil, fmt.Errorf("start backend: %w", err)
	}

	template := params.ConfigTemplate
	if template == "" {
		template = nginx.DefaultTemplate
	}
	userName := currentUser()
	pidPath := filepath.Join(s.contentRoot, fmt.Sprintf("nginx.%s.pid", uuid.NewString()))
	errorLog := filepath.Join(s.contentRoot, "error.log")
	accessLog := filepath.Join(s.contentRoot, "access.log")

	confLog := s.logger.With("phase", "configure")
	confLog.Info("rendering nginx config",
		"user", userName,
		"error_log", errorLog,
		"access_log", accessLog,
		"listen_port", port,
		"redirect_uri", instance.BaseURL,
		"pid_file", pidPath,
	)
	rendered := nginx.Render(template, nginx.Params{
		User:        userName,
		ErrorLog:    errorLog,
		AccessLog:   accessLog,
		ListenPort:  port,
		RedirectURI: instance.BaseURL,
		PidFile:     pidPath,
	})
	if err := s.writeConfig(rendered); err != nil {
		return nil, err
	}

	launchLog := s.logger.With("phase", "start_nginx")
	launchLog.Info("starting nginx", "config", s.confPath)
	handle, err := s.runner.Start(ctx, s.nginxPath, []string{"-c", s.confPath}, s.contentRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to start nginx: %w", err)
	}
	code, timedOut := handle.WaitForExit(s.waitBound)
	if timedOut {
		return nil, fmt.Errorf("failed to start nginx: launch command still running after %s", s.waitBound)
	}
	if code != 0 {
		return nil, fmt.Errorf("failed to start nginx: launch command exited with code %d", code)
	}

	// The launch command exits once nginx forks its master process; only
	// the PID file, written after the master is listening, identifies the
	// process worth supervising.
	switch process, err := s.resolve(pidPath); {
	case errors.Is(err, proc.ErrNoPidFile):
		launchLog.Warn("nginx did not write a pid file; teardown will rely on the stop command alone", "pid_file", pidPath)
	case err != nil:
		return nil, fmt.Errorf("failed to start nginx: %w", err)
	default:
		s.proxy = process
		launchLog.Info("nginx master resolved", "pid", process.Pid)
	}

	if err := s.probe(ctx, instance.BaseURL, instance.Exited); err != nil {
		return nil, fmt.Errorf("deploy failed: %w", err)
	}

	s.logger.Info("deployment running", "base_uri", baseURI, "content_root", s.contentRoot)
	return &Result{
		ContentRoot:   s.contentRoot,
		BaseURI:       baseURI,
		BackendExited: instance.Exited,
	}, nil
}

// Dispose tears the session down: it issues the nginx stop command, verifies
// the master process is gone, and removes the rendered config file. The
// config file is removed on every path, including a failed or timed-out
// stop; any stop error is returned only after the removal was attempted.
// Safe to call on a partially-constructed session and idempotent.
func (s *Supervisor) Dispose(ctx context.Context) error {
	if s.disposed {
		return nil
	}
	s.disposed = true
	if s.confPath == "" {
		// Deploy never rendered a config, so nothing was started.
		return nil
	}
	defer s.removeConfig()
	return s.stopProxy(ctx, s.logger.With("phase", "stop_nginx"))
}

func (s *Supervisor) stopProxy(ctx context.Context, log *slog.Logger) error {
	log.Info("stopping nginx", "config", s.confPath)
	handle, err := s.runner.Start(ctx, s.nginxPath, []string{"-s", "stop", "-c", s.confPath}, s.contentRoot)
	if err != nil {
		return fmt.Errorf("nginx failed to stop: %w", err)
	}
	code, timedOut := handle.WaitForExit(s.waitBound)

	if s.proxy != nil {
		if s.alive(s.proxy) {
			return errors.New("nginx failed to stop")
		}
		// The master is gone; the stop command's own outcome is moot.
		log.Info("nginx stopped", "pid", s.proxy.Pid)
		return nil
	}
	if timedOut {
		return fmt.Errorf("nginx failed to stop: stop command still running after %s", s.waitBound)
	}
	if code != 0 {
		log.Warn("nginx stop command exited nonzero", "exit_code", code)
	}
	// No resolved master to verify against; trust the stop command.
	return nil
}

func (s *Supervisor) writeConfig(rendered string) error {
	confFile, err := os.CreateTemp("", "nginx-*.conf")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	s.confPath = confFile.Name()
	if _, err := confFile.WriteString(rendered); err != nil {
		confFile.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := confFile.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	return nil
}

func (s *Supervisor) removeConfig() {
	if err := os.Remove(s.confPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove nginx config", "config", s.confPath, "error", err)
	}
	s.confPath = ""
}

func listenPort(baseURI string) (string, error) {
	u, err := url.Parse(baseURI)
	if err != nil {
		return "", fmt.Errorf("parse base uri %s: %w", baseURI, err)
	}
	if port := u.Port(); port != "" {
		return port, nil
	}
	if u.Scheme == "https" {
		return "443", nil
	}
	return "80", nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "nobody"
}
