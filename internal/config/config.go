package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/extract"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/theme"
)

const (
	minMaxDimension         = 16
	maxMaxDimension         = 2000
	minRestarts             = 1
	maxRestarts             = 50
	minRetentionDays        = 1
	maxRetentionDays        = 3650
	minCleanupIntervalHours = 1
	maxCleanupIntervalHours = 720
	minKeepBackups          = 1
	maxKeepBackups          = 1000
	minDebounceMS           = 50
	maxDebounceMS           = 60000
	minThumbnailSize        = 32
	maxThumbnailSize        = 1024
	minReloadDelayMS        = 0
	maxReloadDelayMS        = 60000

	appName = "wallpaper-themer"
)

type Config struct {
	General    GeneralConfig        `toml:"general"`
	Extraction ExtractionConfig     `toml:"extraction"`
	History    HistoryConfig        `toml:"history"`
	Watch      WatchConfig          `toml:"watch"`
	Picker     PickerConfig         `toml:"picker"`
	Apps       map[string]AppConfig `toml:"apps,omitempty"`
}

type GeneralConfig struct {
	ConfigDir   string `toml:"config_dir"`
	TemplateDir string `toml:"template_dir"`
	Method      string `toml:"method"`
}

type ExtractionConfig struct {
	MaxDimension int   `toml:"max_dimension"`
	Seed         int64 `toml:"seed"`
	Restarts     int   `toml:"restarts"`
}

type HistoryConfig struct {
	DBPath               string `toml:"db_path"`
	RetentionDays        int    `toml:"retention_days"`
	CleanupIntervalHours int    `toml:"cleanup_interval_hours"`
	KeepBackups          int    `toml:"keep_backups"`
}

type WatchConfig struct {
	Path       string `toml:"path,omitempty"`
	DebounceMS int    `toml:"debounce_ms"`
}

type PickerConfig struct {
	WallpaperDir  string `toml:"wallpaper_dir,omitempty"`
	ThumbnailDir  string `toml:"thumbnail_dir"`
	ThumbnailSize int    `toml:"thumbnail_size"`
}

// AppConfig overrides a built-in application or defines a new one. Unset
// fields keep the built-in value.
type AppConfig struct {
	Enabled         *bool   `toml:"enabled,omitempty"`
	Template        string  `toml:"template,omitempty"`
	Output          string  `toml:"output,omitempty"`
	ReloadCommand   *string `toml:"reload_command,omitempty"`
	ReloadDelayMS   *int    `toml:"reload_delay_ms,omitempty"`
	RequiresRestart *bool   `toml:"requires_restart,omitempty"`
}

// DefaultConfig returns defaults for the current user.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/"
	}
	return DefaultConfigFor(home)
}

// DefaultConfigFor returns defaults rooted at home.
func DefaultConfigFor(home string) *Config {
	configDir := filepath.Join(home, ".config", appName)
	return &Config{
		General: GeneralConfig{
			ConfigDir:   configDir,
			TemplateDir: filepath.Join(configDir, "templates"),
			Method:      string(extract.MethodAdaptive),
		},
		Extraction: ExtractionConfig{
			MaxDimension: 200,
			Seed:         42,
			Restarts:     10,
		},
		History: HistoryConfig{
			DBPath:               filepath.Join(home, ".local", "share", appName, "history.db"),
			RetentionDays:        90,
			CleanupIntervalHours: 24,
			KeepBackups:          10,
		},
		Watch: WatchConfig{
			DebounceMS: 750,
		},
		Picker: PickerConfig{
			ThumbnailDir:  filepath.Join(home, ".cache", appName, "thumbnails"),
			ThumbnailSize: 200,
		},
	}
}

// DefaultPath is the config file location for the current user.
func DefaultPath() string {
	return filepath.Join(DefaultConfig().General.ConfigDir, "config.toml")
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return NormalizeAndValidate(cfg)
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NormalizeAndValidate(DefaultConfig())
	}
	return cfg, err
}

func NormalizeAndValidate(cfg *Config) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	sanitized := *cfg

	var err error
	sanitized.General.ConfigDir, err = sanitizePath("general.config_dir", sanitized.General.ConfigDir)
	if err != nil {
		return nil, err
	}
	sanitized.General.TemplateDir, err = sanitizePath("general.template_dir", sanitized.General.TemplateDir)
	if err != nil {
		return nil, err
	}
	if _, err := extract.ParseMethod(sanitized.General.Method); err != nil {
		return nil, fmt.Errorf("general.method: %w", err)
	}

	if err := validateRange("extraction.max_dimension", sanitized.Extraction.MaxDimension, minMaxDimension, maxMaxDimension); err != nil {
		return nil, err
	}
	if err := validateRange("extraction.restarts", sanitized.Extraction.Restarts, minRestarts, maxRestarts); err != nil {
		return nil, err
	}

	sanitized.History.DBPath, err = sanitizePath("history.db_path", sanitized.History.DBPath)
	if err != nil {
		return nil, err
	}
	if err := validateRange("history.retention_days", sanitized.History.RetentionDays, minRetentionDays, maxRetentionDays); err != nil {
		return nil, err
	}
	if err := validateRange("history.cleanup_interval_hours", sanitized.History.CleanupIntervalHours, minCleanupIntervalHours, maxCleanupIntervalHours); err != nil {
		return nil, err
	}
	if err := validateRange("history.keep_backups", sanitized.History.KeepBackups, minKeepBackups, maxKeepBackups); err != nil {
		return nil, err
	}

	sanitized.Watch.Path, err = sanitizeOptionalPath("watch.path", sanitized.Watch.Path)
	if err != nil {
		return nil, err
	}
	if err := validateRange("watch.debounce_ms", sanitized.Watch.DebounceMS, minDebounceMS, maxDebounceMS); err != nil {
		return nil, err
	}

	sanitized.Picker.WallpaperDir, err = sanitizeOptionalPath("picker.wallpaper_dir", sanitized.Picker.WallpaperDir)
	if err != nil {
		return nil, err
	}
	sanitized.Picker.ThumbnailDir, err = sanitizePath("picker.thumbnail_dir", sanitized.Picker.ThumbnailDir)
	if err != nil {
		return nil, err
	}
	if err := validateRange("picker.thumbnail_size", sanitized.Picker.ThumbnailSize, minThumbnailSize, maxThumbnailSize); err != nil {
		return nil, err
	}

	if len(cfg.Apps) > 0 {
		sanitized.Apps = make(map[string]AppConfig, len(cfg.Apps))
		for name, app := range cfg.Apps {
			app, err := sanitizeApp(name, app)
			if err != nil {
				return nil, err
			}
			sanitized.Apps[name] = app
		}
	}

	return &sanitized, nil
}

func sanitizeApp(name string, app AppConfig) (AppConfig, error) {
	prefix := "apps." + name
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "_/") {
		return app, fmt.Errorf("%s: application names must be non-empty without '_' or '/'", prefix)
	}
	var err error
	app.Output, err = sanitizeOptionalPath(prefix+".output", app.Output)
	if err != nil {
		return app, err
	}
	app.Template = strings.TrimSpace(app.Template)
	if app.ReloadDelayMS != nil {
		if err := validateRange(prefix+".reload_delay_ms", *app.ReloadDelayMS, minReloadDelayMS, maxReloadDelayMS); err != nil {
			return app, err
		}
	}
	return app, nil
}

// Applications merges the app overrides into the built-in set rooted at
// home. New applications must name both a template and an output.
func (c *Config) Applications(home string) (map[string]theme.App, error) {
	apps := theme.DefaultApps(home)
	for name, o := range c.Apps {
		app, builtin := apps[name]
		if !builtin {
			if o.Template == "" || o.Output == "" {
				return nil, fmt.Errorf("apps.%s: template and output are required for new applications", name)
			}
			app = theme.App{Name: name, Enabled: true}
		}
		if o.Template != "" {
			app.Template = o.Template
		}
		if o.Output != "" {
			app.Output = o.Output
		}
		if o.ReloadCommand != nil {
			app.ReloadCommand = *o.ReloadCommand
		}
		if o.ReloadDelayMS != nil {
			app.ReloadDelay = time.Duration(*o.ReloadDelayMS) * time.Millisecond
		}
		if o.Enabled != nil {
			app.Enabled = *o.Enabled
		}
		if o.RequiresRestart != nil {
			app.RequiresRestart = *o.RequiresRestart
		}
		apps[name] = app
	}
	return apps, nil
}

func Save(path string, cfg *Config) error {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return fmt.Errorf("config path must not be empty")
	}

	sanitized, err := NormalizeAndValidate(cfg)
	if err != nil {
		return err
	}

	var data bytes.Buffer
	if err := toml.NewEncoder(&data).Encode(sanitized); err != nil {
		return fmt.Errorf("encode config TOML: %w", err)
	}

	dir := filepath.Dir(trimmedPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data.Bytes()); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tmpPath, trimmedPath); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	tmpPath = ""

	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(value string) string {
	if value != "~" && !strings.HasPrefix(value, "~/") {
		return value
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return value
	}
	return filepath.Join(home, strings.TrimPrefix(value, "~"))
}

func sanitizePath(name, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%s must not be empty", name)
	}
	cleaned := filepath.Clean(ExpandHome(trimmed))
	if !filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%s must be an absolute path, got %q", name, value)
	}
	return cleaned, nil
}

func sanitizeOptionalPath(name, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return sanitizePath(name, value)
}

func validateRange(name string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, min, max, value)
	}

	return nil
}
