// Package pipeline runs one wallpaper through extraction, application,
// history and notification. The CLI, picker, watcher and D-Bus service all
// go through Runner.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/extract"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/notify"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/palette"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/storage"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/theme"
)

// Extractor builds a palette from an image file.
type Extractor interface {
	Extract(ctx context.Context, path string, method extract.Method, n int) (*palette.Palette, error)
}

// cacheKeyer is implemented by extractors whose output depends on options
// beyond the method. *extract.Extractor satisfies it.
type cacheKeyer interface {
	CacheKey(method extract.Method) string
}

// History stores runs and cached palettes. *storage.DB satisfies it.
type History interface {
	CachedPalette(path, method string, size, mtime int64) (*storage.CachedPalette, error)
	PutCachedPalette(c storage.CachedPalette) error
	InsertRun(r storage.Run) (string, error)
}

// Notifier sends desktop notifications. *notify.Notifier satisfies it.
type Notifier interface {
	Send(ctx context.Context, n notify.Notification) (uint32, error)
}

// Request describes one theming run.
type Request struct {
	Wallpaper string
	Method    extract.Method
	// Count of colors to extract; 0 uses the method default.
	Count   int
	Apps    []string
	Backup  bool
	Reload  bool
	Preview bool
	Notify  bool
}

// Outcome is what a run produced.
type Outcome struct {
	RunID     string            `json:"run_id,omitempty"`
	Wallpaper string            `json:"wallpaper"`
	Palette   *palette.Palette  `json:"-"`
	Document  palette.Document  `json:"palette"`
	Cached    bool              `json:"cached"`
	Results   []theme.Result    `json:"results"`
	Previews  map[string]string `json:"previews,omitempty"`
}

// Succeeded counts the successful application results.
func (o *Outcome) Succeeded() int {
	n := 0
	for _, r := range o.Results {
		if r.Success {
			n++
		}
	}
	return n
}

type Runner struct {
	extractor Extractor
	applier   *theme.Applier
	history   History
	notifier  Notifier
	now       func() time.Time
	logger    *slog.Logger

	// one wallpaper at a time
	mu sync.Mutex
}

type Option func(*Runner)

// WithHistory enables the palette cache and run recording.
func WithHistory(h History) Option { return func(r *Runner) { r.history = h } }

// WithNotifier enables desktop notifications for requests that ask for them.
func WithNotifier(n Notifier) Option { return func(r *Runner) { r.notifier = n } }

// WithClock overrides the run timestamp source.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

func NewRunner(extractor Extractor, applier *theme.Applier, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{extractor: extractor, applier: applier, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Applier returns the underlying theme applier.
func (r *Runner) Applier() *theme.Applier { return r.applier }

// Palette extracts (or loads from cache) the palette for path without
// applying it. The bool reports a cache hit.
func (r *Runner) Palette(ctx context.Context, path string, method extract.Method, n int) (*palette.Palette, bool, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	info, statErr := os.Stat(path)
	useCache := r.history != nil && n <= 0 && statErr == nil
	key := r.cacheKey(method)
	if useCache {
		if p := r.cached(path, key, info); p != nil {
			return p, true, nil
		}
	}

	p, err := r.extractor.Extract(ctx, path, method, n)
	if err != nil {
		return nil, false, err
	}

	if useCache {
		data, err := json.Marshal(p.Document())
		if err == nil {
			err = r.history.PutCachedPalette(storage.CachedPalette{
				Path:        path,
				Method:      key,
				Size:        info.Size(),
				ModTime:     info.ModTime().Unix(),
				PaletteJSON: string(data),
				CreatedAt:   r.now().Unix(),
			})
		}
		if err != nil {
			r.logger.Error("failed to cache palette", "topic", "history", "path", path, "err", err)
		}
	}
	return p, false, nil
}

func (r *Runner) cacheKey(method extract.Method) string {
	if k, ok := r.extractor.(cacheKeyer); ok {
		return k.CacheKey(method)
	}
	return string(method)
}

func (r *Runner) cached(path, key string, info os.FileInfo) *palette.Palette {
	entry, err := r.history.CachedPalette(path, key, info.Size(), info.ModTime().Unix())
	if err != nil {
		r.logger.Error("failed to read palette cache", "topic", "history", "path", path, "err", err)
		return nil
	}
	if entry == nil {
		return nil
	}
	var doc palette.Document
	if err := json.Unmarshal([]byte(entry.PaletteJSON), &doc); err != nil {
		r.logger.Warn("discarding unreadable cache entry", "topic", "history", "path", path, "err", err)
		return nil
	}
	p, err := doc.Palette()
	if err != nil {
		r.logger.Warn("discarding unreadable cache entry", "topic", "history", "path", path, "err", err)
		return nil
	}
	r.logger.Debug("palette cache hit", "topic", "history", "path", path, "key", key)
	return p
}

// Run executes req. Extraction errors are returned; per-application failures
// are reported in the outcome.
func (r *Runner) Run(ctx context.Context, req Request) (*Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.Method == "" {
		req.Method = extract.MethodAdaptive
	}

	p, cached, err := r.Palette(ctx, req.Wallpaper, req.Method, req.Count)
	if err != nil {
		if req.Notify {
			r.notify(ctx, notify.Failure("Failed to apply theme"))
		}
		return nil, err
	}

	out := &Outcome{
		Wallpaper: p.SourceImage,
		Palette:   p,
		Document:  p.Document(),
		Cached:    cached,
	}

	if req.Preview {
		r.preview(out, req.Apps)
		return out, nil
	}

	out.Results = r.applier.Apply(ctx, p, theme.Options{Apps: req.Apps, Backup: req.Backup, Reload: req.Reload})
	out.RunID = r.record(out)

	if req.Notify {
		if out.Succeeded() == len(out.Results) {
			r.notify(ctx, notify.Success("Theme applied from "+filepath.Base(req.Wallpaper)))
		} else {
			r.notify(ctx, notify.Failure("Failed to apply theme"))
		}
	}
	return out, nil
}

func (r *Runner) preview(out *Outcome, apps []string) {
	if len(apps) == 0 {
		apps = r.applier.EnabledApps()
	}
	out.Previews = make(map[string]string, len(apps))
	for _, name := range apps {
		content, err := r.applier.Preview(out.Palette, name)
		if err != nil {
			out.Results = append(out.Results, theme.Result{App: name, Error: err.Error()})
			continue
		}
		out.Previews[name] = content
		out.Results = append(out.Results, theme.Result{App: name, Success: true})
	}
}

func (r *Runner) record(out *Outcome) string {
	if r.history == nil {
		return ""
	}
	data, err := json.Marshal(out.Document)
	if err != nil {
		r.logger.Error("failed to encode palette", "topic", "history", "err", err)
		return ""
	}
	run := storage.Run{
		CreatedAt:   r.now().Unix(),
		Wallpaper:   out.Wallpaper,
		Method:      out.Palette.Method,
		Quality:     out.Palette.Quality,
		Accessible:  out.Palette.MeetsAccessibility(),
		PaletteJSON: string(data),
	}
	for _, res := range out.Results {
		run.Results = append(run.Results, storage.AppResult{
			App:           res.App,
			Success:       res.Success,
			OutputPath:    res.OutputPath,
			BackupCreated: res.BackupCreated,
			Reloaded:      res.Reloaded,
			Error:         res.Error,
		})
	}
	id, err := r.history.InsertRun(run)
	if err != nil {
		r.logger.Error("failed to record run", "topic", "history", "err", err)
		return ""
	}
	r.logger.Debug("recorded run", "topic", "history", "id", id, "apps", len(run.Results))
	return id
}

func (r *Runner) notify(ctx context.Context, n notify.Notification) {
	if r.notifier == nil {
		return
	}
	if _, err := r.notifier.Send(ctx, n); err != nil {
		r.logger.Warn("notification failed", "err", fmt.Errorf("%s: %w", n.Body, err))
	}
}
