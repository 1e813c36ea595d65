package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/pipeline"
)

func newApplyCmd(a *app) *cobra.Command {
	var (
		method      string
		apps        []string
		noBackup    bool
		noReload    bool
		preview     bool
		templateDir string
		notify      bool
	)
	cmd := &cobra.Command{
		Use:   "apply <wallpaper>",
		Short: "Apply theme from wallpaper to applications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.method(method)
			if err != nil {
				return err
			}
			runner, cleanup, err := a.runner(templateDir, notify)
			if err != nil {
				return err
			}
			defer cleanup()

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, infoStyle.Render("Extracting colors from wallpaper..."))
			out, err := runner.Run(cmd.Context(), pipeline.Request{
				Wallpaper: args[0],
				Method:    m,
				Apps:      apps,
				Backup:    !noBackup,
				Reload:    !noReload,
				Preview:   preview,
				Notify:    notify,
			})
			if err != nil {
				return fmt.Errorf("failed to extract colors: %w", err)
			}

			printPalette(w, out.Palette)
			if out.Cached {
				fmt.Fprintln(w, dimStyle.Render("(palette loaded from cache)"))
			}

			if preview {
				heading(w, fmt.Sprintf("Theme Preview for %d applications:", len(out.Results)))
				for _, r := range out.Results {
					if !r.Success {
						fmt.Fprintln(w, errStyle.Render("Preview failed for "+r.App+": "+r.Error))
						continue
					}
					heading(w, infoStyle.Bold(true).Render(title(r.App)+":"))
					fmt.Fprintln(w, panelStyle.Render(r.App+" configuration\n\n"+previewLines(out.Previews[r.App], 10)))
				}
				return nil
			}

			printResults(w, out.Results)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&method, "method", "m", "", "color extraction method (default from config)")
	f.StringSliceVarP(&apps, "apps", "a", nil, "applications to theme (default: all enabled)")
	f.BoolVar(&noBackup, "no-backup", false, "skip creating backups")
	f.BoolVar(&noReload, "no-reload", false, "skip reloading applications")
	f.BoolVar(&preview, "preview", false, "preview theme without applying")
	f.StringVar(&templateDir, "template-dir", "", "custom template directory")
	f.BoolVar(&notify, "notify", false, "send a desktop notification when done")
	return cmd
}
