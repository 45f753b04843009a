// Command proxyharness deploys a test application behind a local nginx
// reverse proxy, holds it there until interrupted, and tears it down.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/splax/proxyharness/internal/backend"
	"github.com/splax/proxyharness/internal/deploy"
	"github.com/splax/proxyharness/internal/proc"
	"github.com/splax/proxyharness/pkg/config"
	"github.com/splax/proxyharness/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		appPath      string
		baseURI      string
		templatePath string
		publish      bool
	)
	cmd := &cobra.Command{
		Use:   "proxyharness",
		Short: "Deploy a test application behind a local nginx reverse proxy",
		Long: `proxyharness starts the test backend, renders an nginx config for it,
launches nginx, waits for the backend to answer, and keeps the deployment
up until interrupted. On exit nginx is stopped and the rendered config
removed.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadHarnessConfig()
			if baseURI != "" {
				cfg.BaseURI = baseURI
			}
			log := logger.New("proxyharness", logger.ParseLevel(cfg.LogLevel))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			template := ""
			if templatePath != "" {
				data, err := os.ReadFile(templatePath)
				if err != nil {
					return fmt.Errorf("read template: %w", err)
				}
				template = string(data)
			}

			launcher := &backend.ExecLauncher{
				Path:   cfg.BackendPath,
				Dir:    appPath,
				Addr:   cfg.BackendAddr,
				Runner: proc.NewLauncher(log.With("phase", "backend")),
			}
			supervisor := deploy.New(cfg, launcher, log)

			result, err := supervisor.Deploy(ctx, deploy.Parameters{
				ApplicationPath: appPath,
				BaseURI:         cfg.BaseURI,
				ConfigTemplate:  template,
				PublishFirst:    publish,
				PublishCommand:  cfg.PublishCommand,
			})
			if err != nil {
				// The session may be partially constructed; Dispose knows
				// how much there is to undo.
				if derr := supervisor.Dispose(context.WithoutCancel(ctx)); derr != nil {
					log.Error("teardown after failed deploy", "error", derr)
				}
				return err
			}

			log.Info("deployment ready", "base_uri", result.BaseURI, "content_root", result.ContentRoot)
			select {
			case <-ctx.Done():
				log.Info("shutdown requested")
			case <-result.BackendExited:
				log.Warn("backend exited; tearing down")
			}
			return supervisor.Dispose(context.WithoutCancel(ctx))
		},
	}
	cmd.Flags().StringVar(&appPath, "app", ".", "application content root")
	cmd.Flags().StringVar(&baseURI, "base-uri", "", "externally visible base URI (overrides HARNESS_BASE_URI)")
	cmd.Flags().StringVar(&templatePath, "template", "", "nginx config template path (defaults to the built-in template)")
	cmd.Flags().BoolVar(&publish, "publish", false, "run the publish command before deploying")
	return cmd
}
