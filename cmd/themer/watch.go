package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/config"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/extract"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/pipeline"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/watch"
)

// rethemer returns the watcher callback that runs the pipeline on the
// resolved wallpaper.
func rethemer(runner *pipeline.Runner, method extract.Method, logger *slog.Logger) func(context.Context, string) {
	return func(ctx context.Context, path string) {
		target, err := filepath.EvalSymlinks(path)
		if err != nil {
			logger.Error("resolve wallpaper", "topic", "watch", "path", path, "err", err)
			return
		}
		out, err := runner.Run(ctx, pipeline.Request{
			Wallpaper: target,
			Method:    method,
			Backup:    true,
			Reload:    true,
			Notify:    true,
		})
		if err != nil {
			logger.Error("re-theme failed", "topic", "watch", "wallpaper", target, "err", err)
			return
		}
		logger.Info("re-themed", "topic", "watch", "wallpaper", target, "ok", out.Succeeded(), "total", len(out.Results), "cached", out.Cached)
	}
}

func (a *app) watchPath(args []string) string {
	if len(args) > 0 {
		return config.ExpandHome(args[0])
	}
	return a.cfg.Watch.Path
}

func (a *app) debounce() time.Duration {
	return time.Duration(a.cfg.Watch.DebounceMS) * time.Millisecond
}

func newWatchCmd(a *app) *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Re-theme whenever the wallpaper file changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.watchPath(args)
			if path == "" {
				return fmt.Errorf("no wallpaper path given and [watch] path is not configured")
			}
			m, err := a.method(method)
			if err != nil {
				return err
			}
			runner, cleanup, err := a.runner("", true)
			if err != nil {
				return err
			}
			defer cleanup()

			fmt.Fprintln(cmd.OutOrStdout(), infoStyle.Render("Watching "+path+" (Ctrl+C to stop)"))
			return watch.New(path, a.debounce(), rethemer(runner, m, a.logger), a.logger).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&method, "method", "m", "", "color extraction method (default from config)")
	return cmd
}
