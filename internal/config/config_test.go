package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfigFor(t *testing.T) {
	cfg := DefaultConfigFor("/home/ada")

	if cfg.General.ConfigDir != "/home/ada/.config/wallpaper-themer" {
		t.Fatalf("unexpected ConfigDir: %q", cfg.General.ConfigDir)
	}
	if cfg.General.TemplateDir != "/home/ada/.config/wallpaper-themer/templates" {
		t.Fatalf("unexpected TemplateDir: %q", cfg.General.TemplateDir)
	}
	if cfg.General.Method != "adaptive" {
		t.Fatalf("unexpected Method: %q", cfg.General.Method)
	}
	if cfg.History.DBPath != "/home/ada/.local/share/wallpaper-themer/history.db" {
		t.Fatalf("unexpected DBPath: %q", cfg.History.DBPath)
	}
	if cfg.Extraction.MaxDimension != 200 || cfg.Extraction.Seed != 42 || cfg.Extraction.Restarts != 10 {
		t.Fatalf("unexpected Extraction: %+v", cfg.Extraction)
	}
	if cfg.Watch.DebounceMS != 750 {
		t.Fatalf("unexpected DebounceMS: %d", cfg.Watch.DebounceMS)
	}
	if cfg.Picker.ThumbnailSize != 200 {
		t.Fatalf("unexpected ThumbnailSize: %d", cfg.Picker.ThumbnailSize)
	}
	if _, err := NormalizeAndValidate(cfg); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
}

func TestLoad_OverridesAndKeepsDefaults(t *testing.T) {
	path := writeTempConfig(t, `
[general]
method = "kmeans_lab"

[history]
db_path = "/tmp/themer.db"
retention_days = 7

[watch]
path = "/tmp/current-wallpaper"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.General.Method != "kmeans_lab" {
		t.Fatalf("Method = %q, want kmeans_lab", cfg.General.Method)
	}
	if cfg.History.DBPath != "/tmp/themer.db" {
		t.Fatalf("DBPath = %q, want /tmp/themer.db", cfg.History.DBPath)
	}
	if cfg.History.RetentionDays != 7 {
		t.Fatalf("RetentionDays = %d, want 7", cfg.History.RetentionDays)
	}
	if cfg.History.CleanupIntervalHours != 24 {
		t.Fatalf("CleanupIntervalHours = %d, want default 24", cfg.History.CleanupIntervalHours)
	}
	if cfg.Watch.Path != "/tmp/current-wallpaper" {
		t.Fatalf("Watch.Path = %q", cfg.Watch.Path)
	}
	if cfg.Extraction.Restarts != 10 {
		t.Fatalf("Restarts = %d, want default 10", cfg.Extraction.Restarts)
	}
}

func TestLoad_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	path := writeTempConfig(t, `
[picker]
wallpaper_dir = "~/Pictures/walls"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := filepath.Join(home, "Pictures", "walls"); cfg.Picker.WallpaperDir != want {
		t.Fatalf("WallpaperDir = %q, want %q", cfg.Picker.WallpaperDir, want)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err == nil {
		t.Fatal("Load() error = nil, want missing file error")
	}
	if !os.IsNotExist(err) {
		t.Fatalf("Load() error = %v, want not-exist error", err)
	}

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.General.Method != "adaptive" {
		t.Fatalf("LoadOrDefault() Method = %q, want default", cfg.General.Method)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeTempConfig(t, "not = [valid")
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() error = nil, want TOML parse error")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		contents   string
		wantErrSub string
	}{
		{
			name: "unknown method",
			contents: `
[general]
method = "octree"
`,
			wantErrSub: "general.method: unknown extraction method",
		},
		{
			name: "relative template dir",
			contents: `
[general]
template_dir = "templates"
`,
			wantErrSub: "general.template_dir must be an absolute path",
		},
		{
			name: "max_dimension too small",
			contents: `
[extraction]
max_dimension = 8
`,
			wantErrSub: "extraction.max_dimension must be between 16 and 2000",
		},
		{
			name: "restarts out of range",
			contents: `
[extraction]
restarts = 0
`,
			wantErrSub: "extraction.restarts must be between 1 and 50",
		},
		{
			name: "retention_days out of range",
			contents: `
[history]
retention_days = 0
`,
			wantErrSub: "history.retention_days must be between 1 and 3650",
		},
		{
			name: "keep_backups out of range",
			contents: `
[history]
keep_backups = 5000
`,
			wantErrSub: "history.keep_backups must be between 1 and 1000",
		},
		{
			name: "debounce too short",
			contents: `
[watch]
debounce_ms = 10
`,
			wantErrSub: "watch.debounce_ms must be between 50 and 60000",
		},
		{
			name: "thumbnail size too large",
			contents: `
[picker]
thumbnail_size = 4096
`,
			wantErrSub: "picker.thumbnail_size must be between 32 and 1024",
		},
		{
			name: "app name with underscore",
			contents: `
[apps.my_term]
template = "x.tmpl"
`,
			wantErrSub: "apps.my_term: application names",
		},
		{
			name: "app reload delay",
			contents: `
[apps.waybar]
reload_delay_ms = -1
`,
			wantErrSub: "apps.waybar.reload_delay_ms must be between 0 and 60000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempConfig(t, tt.contents)

			_, err := Load(path)
			if err == nil {
				t.Fatalf("Load() error = nil, want error containing %q", tt.wantErrSub)
			}
			if !strings.Contains(err.Error(), tt.wantErrSub) {
				t.Fatalf("Load() error = %q, want contains %q", err.Error(), tt.wantErrSub)
			}
		})
	}
}

func TestApplications(t *testing.T) {
	path := writeTempConfig(t, `
[apps.waybar]
enabled = false
reload_command = ""

[apps.hyprland]
reload_delay_ms = 250
output = "/tmp/hypr/colors.conf"

[apps.kitty]
template = "kitty/colors.conf.tmpl"
output = "/tmp/kitty/colors.conf"
reload_command = "pkill -USR1 kitty"
requires_restart = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	apps, err := cfg.Applications("/home/ada")
	if err != nil {
		t.Fatalf("Applications() error = %v", err)
	}
	if len(apps) != 6 {
		t.Fatalf("Applications() = %d apps, want 6", len(apps))
	}

	waybar := apps["waybar"]
	if waybar.Enabled || waybar.ReloadCommand != "" {
		t.Fatalf("waybar = %+v", waybar)
	}
	if waybar.Template != "waybar/colors.css.tmpl" {
		t.Fatalf("waybar template = %q, want default", waybar.Template)
	}

	hypr := apps["hyprland"]
	if hypr.ReloadDelay != 250*time.Millisecond || hypr.Output != "/tmp/hypr/colors.conf" {
		t.Fatalf("hyprland = %+v", hypr)
	}
	if hypr.ReloadCommand != "hyprctl reload" {
		t.Fatalf("hyprland reload command = %q, want default", hypr.ReloadCommand)
	}

	kitty := apps["kitty"]
	if !kitty.Enabled || !kitty.RequiresRestart || kitty.ReloadCommand != "pkill -USR1 kitty" {
		t.Fatalf("kitty = %+v", kitty)
	}

	if got := apps["rofi"].Output; got != "/home/ada/.config/rofi/colors.rasi" {
		t.Fatalf("rofi output = %q", got)
	}
}

func TestApplications_NewAppNeedsTemplate(t *testing.T) {
	path := writeTempConfig(t, `
[apps.kitty]
output = "/tmp/kitty/colors.conf"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := cfg.Applications("/home/ada"); err == nil {
		t.Fatal("Applications() error = nil, want missing template error")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfigFor("/home/ada")
	cfg.History.KeepBackups = 3
	enabled := false
	cfg.Apps = map[string]AppConfig{"rofi": {Enabled: &enabled}}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.History.KeepBackups != 3 {
		t.Fatalf("KeepBackups = %d, want 3", got.History.KeepBackups)
	}
	if got.General.ConfigDir != "/home/ada/.config/wallpaper-themer" {
		t.Fatalf("ConfigDir = %q", got.General.ConfigDir)
	}
	if e := got.Apps["rofi"].Enabled; e == nil || *e {
		t.Fatalf("rofi enabled = %v, want false", e)
	}

	bad := DefaultConfigFor("/home/ada")
	bad.Picker.ThumbnailSize = 1
	if err := Save(path, bad); err == nil {
		t.Fatal("Save() error = nil, want validation error")
	}
}
