package theme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/palette"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/render"
)

var ErrUnknownApp = errors.New("unknown application")

// Result reports what happened to one application during Apply.
type Result struct {
	App           string `json:"app"`
	Success       bool   `json:"success"`
	OutputPath    string `json:"output_path"`
	BackupCreated bool   `json:"backup_created"`
	BackupPath    string `json:"backup_path,omitempty"`
	Reloaded      bool   `json:"reloaded"`
	Error         string `json:"error,omitempty"`
	ReloadOutput  string `json:"reload_output,omitempty"`
}

// Options select what Apply does. Empty Apps means every enabled app.
type Options struct {
	Apps   []string
	Backup bool
	Reload bool
}

// Applier writes rendered palettes into application config files.
type Applier struct {
	configDir string
	backupDir string
	engine    *render.Engine
	runner    CommandRunner
	now       func() time.Time
	sleep     func(context.Context, time.Duration) error
	logger    *slog.Logger

	reloadTimeout time.Duration

	mu   sync.RWMutex
	apps map[string]App
}

type Option func(*Applier)

// WithRunner replaces the shell used for reload commands.
func WithRunner(r CommandRunner) Option { return func(a *Applier) { a.runner = r } }

// WithClock replaces time.Now for backup names and records.
func WithClock(now func() time.Time) Option { return func(a *Applier) { a.now = now } }

// WithSleep replaces the reload-delay wait.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(a *Applier) { a.sleep = fn }
}

// WithReloadTimeout overrides the 30s reload command limit.
func WithReloadTimeout(d time.Duration) Option { return func(a *Applier) { a.reloadTimeout = d } }

// NewApplier creates an applier that keeps its backups and records under
// configDir. A nil apps map uses DefaultApps for the current user.
func NewApplier(configDir string, engine *render.Engine, apps map[string]App, logger *slog.Logger, opts ...Option) (*Applier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if apps == nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		apps = DefaultApps(home)
	}

	a := &Applier{
		configDir:     configDir,
		backupDir:     filepath.Join(configDir, "backups"),
		engine:        engine,
		runner:        ShellRunner{},
		now:           time.Now,
		sleep:         sleepContext,
		logger:        logger,
		reloadTimeout: reloadTimeout,
		apps:          maps.Clone(apps),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := os.MkdirAll(a.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	return a, nil
}

// BackupDir is where config backups are kept.
func (a *Applier) BackupDir() string { return a.backupDir }

// Engine is the template engine used for rendering.
func (a *Applier) Engine() *render.Engine { return a.engine }

// App looks up an application by name.
func (a *Applier) App(name string) (App, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	app, ok := a.apps[name]
	return app, ok
}

// AppNames lists every configured application, sorted.
func (a *Applier) AppNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Sorted(maps.Keys(a.apps))
}

// Configure adds or replaces an application definition.
func (a *Applier) Configure(app App) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.apps[app.Name] = app
}

// EnabledApps lists the enabled applications in name order.
func (a *Applier) EnabledApps() []string {
	var names []string
	for _, name := range a.AppNames() {
		if app, _ := a.App(name); app.Enabled {
			names = append(names, name)
		}
	}
	return names
}

// Apply renders p into each selected application's config. Per-app failures
// are reported in the results. The run is recorded in last_application.json.
func (a *Applier) Apply(ctx context.Context, p *palette.Palette, opts Options) []Result {
	names := opts.Apps
	if len(names) == 0 {
		names = a.EnabledApps()
	}

	results := make([]Result, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{App: name, Error: err.Error()})
			continue
		}
		app, ok := a.App(name)
		if !ok {
			results = append(results, Result{App: name, Error: fmt.Errorf("%w: %s", ErrUnknownApp, name).Error()})
			continue
		}
		results = append(results, a.applyApp(ctx, app, p, opts))
	}

	if err := a.writeRecord(p, results); err != nil {
		a.logger.Error("failed to save application record", "topic", "apply", "err", err)
	}
	return results
}

func (a *Applier) applyApp(ctx context.Context, app App, p *palette.Palette, opts Options) Result {
	logger := a.logger.With("topic", "apply", "app", app.Name)
	res := Result{App: app.Name, OutputPath: app.Output}

	if opts.Backup {
		path, err := a.createBackup(app)
		if err != nil {
			logger.Error("backup failed", "err", err)
			res.Error = fmt.Sprintf("backup failed: %v", err)
			return res
		}
		if path != "" {
			res.BackupCreated, res.BackupPath = true, path
		}
	}

	content, err := a.render(app, p)
	if err != nil {
		res.Error = fmt.Sprintf("content generation failed: %v", err)
		return res
	}

	if err := writeFileAtomic(app.Output, []byte(content), 0o644); err != nil {
		res.Error = fmt.Sprintf("failed to write config file: %v", err)
		return res
	}
	logger.Info("applied theme", "output", app.Output)
	res.Success = true

	if opts.Reload {
		res.Reloaded, res.ReloadOutput = a.reload(ctx, app)
	}
	return res
}

func (a *Applier) render(app App, p *palette.Palette) (string, error) {
	return a.engine.Render(app.Template, p, render.Extra{
		AppName: app.Name,
		Meta: map[string]any{
			"output":           app.Output,
			"requires_restart": app.RequiresRestart,
		},
	})
}

// Preview renders the config for name without touching the filesystem.
func (a *Applier) Preview(p *palette.Palette, name string) (string, error) {
	app, ok := a.App(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownApp, name)
	}
	return a.render(app, p)
}

// AppStatus describes the on-disk state of one application.
type AppStatus struct {
	Name            string `json:"name"`
	Enabled         bool   `json:"enabled"`
	ConfigExists    bool   `json:"config_exists"`
	ConfigPath      string `json:"config_path"`
	TemplatePath    string `json:"template_path"`
	HasBackup       bool   `json:"has_backup"`
	ReloadCommand   string `json:"reload_command,omitempty"`
	RequiresRestart bool   `json:"requires_restart"`
}

// Status reports every application, sorted by name.
func (a *Applier) Status() ([]AppStatus, error) {
	backups, err := a.ListBackups()
	if err != nil {
		return nil, err
	}

	var out []AppStatus
	for _, name := range a.AppNames() {
		app, _ := a.App(name)
		_, statErr := os.Stat(app.Output)
		out = append(out, AppStatus{
			Name:            name,
			Enabled:         app.Enabled,
			ConfigExists:    statErr == nil,
			ConfigPath:      app.Output,
			TemplatePath:    a.engine.Path(app.Template),
			HasBackup:       len(backups[name]) > 0,
			ReloadCommand:   app.ReloadCommand,
			RequiresRestart: app.RequiresRestart,
		})
	}
	return out, nil
}
