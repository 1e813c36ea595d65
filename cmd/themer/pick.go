package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/config"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/pipeline"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/wallpaper"
)

// wallpaperDir resolves the picker directory from the flag, the config and
// then the well-known locations.
func (a *app) wallpaperDir(flag string) string {
	if flag != "" {
		return config.ExpandHome(flag)
	}
	if a.cfg.Picker.WallpaperDir != "" {
		return a.cfg.Picker.WallpaperDir
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return wallpaper.FindDir(wallpaper.Candidates(cwd, a.home))
}

func newPickCmd(a *app) *cobra.Command {
	var (
		dir    string
		method string
	)
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Launch Rofi wallpaper picker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			m, err := a.method(method)
			if err != nil {
				return err
			}
			root := a.wallpaperDir(dir)
			if root == "" {
				fmt.Fprintln(w, errStyle.Render("No wallpaper directory found. Use --wallpaper-dir to specify one."))
				return errReported
			}

			fmt.Fprintln(w, infoStyle.Render("Launching Rofi wallpaper picker..."))
			fmt.Fprintln(w, dimStyle.Render("Wallpaper directory: "+root))

			walls, err := wallpaper.Scan(root)
			if err != nil {
				return err
			}
			if len(walls) == 0 {
				fmt.Fprintln(w, errStyle.Render("No wallpapers found in "+root))
				return errReported
			}
			fmt.Fprintf(w, "Found %d wallpapers\n", len(walls))

			thumbDir, size := a.cfg.Picker.ThumbnailDir, a.cfg.Picker.ThumbnailSize
			entries, paths := wallpaper.RofiEntries(walls, func(path string) (string, error) {
				return wallpaper.Thumbnail(thumbDir, path, size)
			}, a.logger)

			selected, err := wallpaper.RunRofi(cmd.Context(), entries)
			if err != nil {
				fmt.Fprintln(w, errStyle.Render("Failed to launch Rofi picker: "+err.Error()))
				listFallback(cmd, walls)
				return errReported
			}
			if selected == "" {
				fmt.Fprintln(w, "No wallpaper selected")
				fmt.Fprintln(w, warnStyle.Render("No theme applied"))
				return nil
			}
			path, ok := paths[selected]
			if !ok {
				fmt.Fprintln(w, errStyle.Render("Invalid selection: "+selected))
				return errReported
			}

			fmt.Fprintln(w, "Selected: "+path)
			fmt.Fprintln(w, "Applying theme...")

			runner, cleanup, err := a.runner("", true)
			if err != nil {
				return err
			}
			defer cleanup()
			out, err := runner.Run(cmd.Context(), pipeline.Request{
				Wallpaper: path,
				Method:    m,
				Backup:    true,
				Reload:    true,
				Notify:    true,
			})
			if err != nil || out.Succeeded() != len(out.Results) {
				if err != nil {
					a.logger.Error("apply failed", "wallpaper", path, "err", err)
				}
				fmt.Fprintln(w, errStyle.Render("✗ Failed to apply theme"))
				return errReported
			}
			fmt.Fprintln(w, okStyle.Render("✓ Theme applied successfully!"))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "wallpaper-dir", "", "wallpaper directory to scan")
	cmd.Flags().StringVarP(&method, "method", "m", "", "color extraction method (default from config)")
	return cmd
}

func listFallback(cmd *cobra.Command, walls []wallpaper.Wallpaper) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintln(w, warnStyle.Render("Fallback: Listing available wallpapers"))
	fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("Found %d wallpapers", len(walls))))
	for i, wall := range walls {
		if i == 10 {
			fmt.Fprintf(w, "... and %d more\n", len(walls)-10)
			break
		}
		fmt.Fprintf(w, "%d. %s\n", i+1, filepath.Base(wall.Path))
	}
}
