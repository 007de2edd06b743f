package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Nikolay-Shirokov/va-ai/internal/config"
	"github.com/Nikolay-Shirokov/va-ai/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve step resolution over HTTP",
		Long: `Serve the step library over HTTP.

Endpoints:
  GET  /healthz      liveness
  POST /v1/resolve   resolve one step
  POST /v1/search    free-text search, one query or a batch
  GET  /v1/library   library summary
  GET  /metrics      Prometheus metrics

With --watch the library file is reloaded when it changes; a failed
reload keeps serving the previous library.

Example:
  vastep serve --listen 127.0.0.1:8080 --watch`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd)
		},
	}

	cmd.Flags().String("listen", "", "listen address (default 127.0.0.1:8080)")
	cmd.Flags().Bool("watch", false, "reload the library when the file changes")
	cmd.Flags().Duration("debounce", 0, "delay before reloading after a change (default 500ms)")
	cmd.Flags().Bool("enhanced", true, "annotate suggestions with semantic analysis")

	return cmd
}

var serveOverrides = []flagOverride{
	stringFlag("listen", func(c *config.Config) *string { return &c.Listen }),
	boolFlag("watch", func(c *config.Config) *bool { return &c.Watch }),
	durationFlag("debounce", func(c *config.Config) *time.Duration { return &c.WatchDebounce }),
	boolFlag("enhanced", func(c *config.Config) *bool { return &c.Enhanced }),
}

func runServe(opts *RootOptions, cmd *cobra.Command) error {
	e, err := setup(opts, cmd, serveOverrides...)
	if err != nil {
		return err
	}

	lib, err := e.loadLibrary()
	if err != nil {
		return err
	}

	srv := server.New(lib,
		server.WithLogger(e.logger),
		server.WithLoader(e.libraryLoader()),
		server.WithResolverFactory(e.newResolver),
		server.WithSearchDefaults(e.searchOptions()),
	)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gCtx, e.cfg.Listen)
	})
	if e.cfg.Watch {
		w := server.NewWatcher(e.cfg.Library, e.cfg.WatchDebounce, srv.Reload, e.logger)
		g.Go(func() error {
			return w.Run(gCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return e.out.fail(ExitFailure, ErrCodeGeneric, "server error", err)
	}
	e.logger.Info("server stopped")
	return nil
}
