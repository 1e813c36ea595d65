package theme

import (
	"path/filepath"
	"time"
)

// App describes one themed application: which template feeds it, where the
// rendered file goes and how to make the application pick it up.
type App struct {
	Name            string        `json:"name"`
	Template        string        `json:"template"`
	Output          string        `json:"output"`
	ReloadCommand   string        `json:"reload_command,omitempty"`
	ReloadDelay     time.Duration `json:"reload_delay"`
	Enabled         bool          `json:"enabled"`
	RequiresRestart bool          `json:"requires_restart"`
}

// DefaultApps returns the built-in application set rooted at home.
func DefaultApps(home string) map[string]App {
	cfg := filepath.Join(home, ".config")
	apps := []App{
		{
			Name:          "hyprland",
			Template:      "hyprland/colors.conf.tmpl",
			Output:        filepath.Join(cfg, "hypr", "conf", "colors.conf"),
			ReloadCommand: "hyprctl reload",
			ReloadDelay:   time.Second,
		},
		{
			// live_config_reload picks the change up on its own
			Name:        "alacritty",
			Template:    "alacritty/colors.toml.tmpl",
			Output:      filepath.Join(cfg, "alacritty", "colors.toml"),
			ReloadDelay: 100 * time.Millisecond,
		},
		{
			// read on every launch
			Name:     "rofi",
			Template: "rofi/colors.rasi.tmpl",
			Output:   filepath.Join(cfg, "rofi", "colors.rasi"),
		},
		{
			Name:          "waybar",
			Template:      "waybar/colors.css.tmpl",
			Output:        filepath.Join(cfg, "waybar", "colors.css"),
			ReloadCommand: "pkill -SIGUSR2 waybar || (pkill waybar && sleep 1 && waybar &)",
			ReloadDelay:   2 * time.Second,
		},
		{
			Name:          "swaync",
			Template:      "swaync/style.css.tmpl",
			Output:        filepath.Join(cfg, "swaync", "style.css"),
			ReloadCommand: "swaync-client -rs",
			ReloadDelay:   time.Second,
		},
	}

	out := make(map[string]App, len(apps))
	for _, a := range apps {
		a.Enabled = true
		out[a.Name] = a
	}
	return out
}
