package main

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	var templateDir string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current system status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			applier, err := a.applier(templateDir)
			if err != nil {
				return err
			}
			engine := applier.Engine()

			fmt.Fprintln(w, titleStyle.Render("Wallpaper Themer System Status"))

			heading(w, "Templates:")
			if info, err := os.Stat(engine.Dir()); err == nil && info.IsDir() {
				fmt.Fprintln(w, okStyle.Render("✓ Template directory: "+engine.Dir()))
			} else {
				fmt.Fprintln(w, warnStyle.Render("Template directory not found: "+engine.Dir()+" (using built-in templates)"))
			}
			templates, err := engine.Templates()
			if err != nil {
				return err
			}
			fmt.Fprintln(w, infoStyle.Render(fmt.Sprintf("Available templates: %d", len(templates))))
			for _, t := range templates {
				fmt.Fprintf(w, "  • %s\n", t)
			}

			heading(w, "Applications:")
			statuses, err := applier.Status()
			if err != nil {
				return err
			}
			t := newTable("Application", "Enabled", "Config Exists", "Has Backup", "Reload Command")
			for _, s := range statuses {
				reload := s.ReloadCommand
				if reload == "" {
					reload = "auto"
				}
				t.Row(s.Name, check(s.Enabled), check(s.ConfigExists), check(s.HasBackup), reload)
			}
			fmt.Fprintln(w, t)

			heading(w, "Backups:")
			backups, err := applier.ListBackups()
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				fmt.Fprintln(w, warnStyle.Render("No backups found"))
			}
			for _, name := range sortedKeys(backups) {
				fmt.Fprintf(w, "%s %d backups\n", infoStyle.Render(name+":"), len(backups[name]))
			}

			if db := a.openHistory(); db != nil {
				defer db.Close()
				run, err := db.LatestRun()
				if err != nil {
					return err
				}
				heading(w, "Last Theme:")
				if run == nil {
					fmt.Fprintln(w, warnStyle.Render("No themes applied yet"))
				} else {
					fmt.Fprintf(w, "%s (%s, quality %.2f) at %s\n",
						run.Wallpaper, run.Method, run.Quality, formatTime(time.Unix(run.CreatedAt, 0)))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&templateDir, "template-dir", "", "custom template directory")
	return cmd
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func newRestoreCmd(a *app) *cobra.Command {
	var apps []string
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore applications from backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			applier, err := a.applier("")
			if err != nil {
				return err
			}

			fmt.Fprintln(w, titleStyle.Render("Restoring from backups..."))
			results, err := applier.RestoreBackups(apps)
			if err != nil {
				return err
			}

			t := newTable("Application", "Status")
			ok := 0
			for _, name := range sortedKeys(results) {
				if results[name] {
					ok++
				}
				t.Row(name, status(results[name], "Restored", "Failed"))
			}
			fmt.Fprintln(w, t)
			fmt.Fprintln(w)
			fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Successfully restored %d/%d applications", ok, len(results))))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&apps, "apps", "a", nil, "applications to restore (default: all)")
	return cmd
}

func newBackupsCmd(a *app) *cobra.Command {
	var prune int
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List or prune configuration backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			applier, err := a.applier("")
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("prune") {
				n, err := applier.PruneBackups(prune)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("Removed %d backups, keeping %d per application", n, prune)))
				return nil
			}

			backups, err := applier.ListBackups()
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				fmt.Fprintln(w, warnStyle.Render("No backups found in "+applier.BackupDir()))
				return nil
			}
			t := newTable("Application", "Created", "Path")
			for _, name := range sortedKeys(backups) {
				for _, b := range backups[name] {
					t.Row(name, formatTime(b.ModTime), b.Path)
				}
			}
			fmt.Fprintln(w, t)
			return nil
		},
	}
	cmd.Flags().IntVar(&prune, "prune", 0, "delete all but the newest N backups per application")
	return cmd
}

func newTemplatesCmd(a *app) *cobra.Command {
	var (
		validate    bool
		templateDir string
	)
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List or validate templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			engine := a.engine(templateDir)
			names, err := engine.Templates()
			if err != nil {
				return err
			}

			if !validate {
				t := newTable("Template", "Source")
				for _, n := range names {
					t.Row(n, engine.Path(n))
				}
				fmt.Fprintln(w, t)
				return nil
			}

			t := newTable("Template", "Valid", "Length", "Variables", "Error")
			failed := 0
			for _, n := range names {
				v := engine.Validate(n)
				if !v.Valid {
					failed++
				}
				t.Row(v.Name, check(v.Valid), fmt.Sprint(v.Length), strings.Join(v.Variables, ", "), v.Error)
			}
			fmt.Fprintln(w, t)
			if failed > 0 {
				fmt.Fprintln(w, errStyle.Render(fmt.Sprintf("%d of %d templates failed validation", failed, len(names))))
				return errReported
			}
			fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("All %d templates are valid", len(names))))
			return nil
		},
	}
	cmd.Flags().BoolVar(&validate, "validate", false, "render every template against a sample palette")
	cmd.Flags().StringVar(&templateDir, "template-dir", "", "custom template directory")
	return cmd
}
