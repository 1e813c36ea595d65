package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/dbus"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/housekeeping"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/notify"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/pipeline"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/storage"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/watch"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		watchPath string
		method    string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the D-Bus service, wallpaper watcher and housekeeping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := a.logger
			m, err := a.method(method)
			if err != nil {
				return err
			}

			store, err := storage.Open(a.cfg.History.DBPath)
			if err != nil {
				logger.Error("open database", "err", err)
				return err
			}
			defer store.Close()

			applier, err := a.applier("")
			if err != nil {
				return err
			}
			opts := []pipeline.Option{pipeline.WithHistory(store)}
			if n, err := notify.New(); err != nil {
				logger.Warn("notifications unavailable", "err", err)
			} else {
				opts = append(opts, pipeline.WithNotifier(n))
			}
			runner := pipeline.NewRunner(a.extractor(), applier, logger, opts...)

			svc := dbus.NewService(store, runner, logger)
			conn, err := svc.Export()
			if err != nil {
				logger.Error("export dbus service", "err", err)
				return err
			}
			defer conn.Close()

			hk := housekeeping.New(store, applier,
				time.Duration(a.cfg.History.RetentionDays)*24*time.Hour,
				a.cfg.History.KeepBackups, logger)
			if err := hk.Start(time.Duration(a.cfg.History.CleanupIntervalHours) * time.Hour); err != nil {
				return err
			}
			defer hk.Stop()

			logger.Info("themer service started", "bus_name", dbus.BusName, "db", a.cfg.History.DBPath)
			fmt.Fprintln(cmd.OutOrStdout(), infoStyle.Render("Serving "+dbus.BusName+" (Ctrl+C to stop)"))

			g, ctx := errgroup.WithContext(cmd.Context())
			if path := a.watchPath(nonEmpty(watchPath)); path != "" {
				w := watch.New(path, a.debounce(), rethemer(runner, m, logger), logger)
				g.Go(func() error { return w.Run(ctx) })
			}
			g.Go(func() error {
				<-ctx.Done()
				return nil
			})
			err = g.Wait()
			logger.Info("shutting down")
			return err
		},
	}
	cmd.Flags().StringVar(&watchPath, "watch", "", "wallpaper file to watch (default from config)")
	cmd.Flags().StringVarP(&method, "method", "m", "", "color extraction method (default from config)")
	return cmd
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
