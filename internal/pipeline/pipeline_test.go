package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/extract"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/notify"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/palette"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/render"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/storage"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/theme"
)

type fakeExtractor struct {
	calls   int
	err     error
	options string
}

func (f *fakeExtractor) CacheKey(method extract.Method) string {
	return string(method) + "@" + f.options
}

func (f *fakeExtractor) Extract(_ context.Context, path string, method extract.Method, _ int) (*palette.Palette, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, err := palette.FromColors([][3]uint8{{240, 240, 240}, {200, 40, 40}, {10, 10, 10}, {120, 130, 140}, {60, 80, 60}}, path)
	if err != nil {
		return nil, err
	}
	p.Method = string(method)
	p.Quality = palette.Quality(p)
	palette.DeriveExtended(p)
	return p, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (f *fakeNotifier) Send(_ context.Context, n notify.Notification) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return uint32(len(f.sent)), nil
}

type okRunner struct{}

func (okRunner) Run(context.Context, string) (string, string, error) { return "ok", "", nil }

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

type harness struct {
	runner    *Runner
	extractor *fakeExtractor
	notifier  *fakeNotifier
	db        *storage.DB
	root      string
	wallpaper string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()

	db, err := storage.Open(filepath.Join(root, "history.db"))
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	applier, err := theme.NewApplier(filepath.Join(root, "themer"), render.New("", nil), theme.DefaultApps(root), nil,
		theme.WithRunner(okRunner{}),
		theme.WithSleep(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }),
		theme.WithClock(func() time.Time { return fixedNow }),
	)
	if err != nil {
		t.Fatalf("NewApplier() error = %v", err)
	}

	wallpaper := filepath.Join(root, "forest.png")
	if err := os.WriteFile(wallpaper, []byte("not really a png"), 0o644); err != nil {
		t.Fatalf("write wallpaper: %v", err)
	}

	h := &harness{extractor: &fakeExtractor{}, notifier: &fakeNotifier{}, db: db, root: root, wallpaper: wallpaper}
	h.runner = NewRunner(h.extractor, applier, nil,
		WithHistory(db),
		WithNotifier(h.notifier),
		WithClock(func() time.Time { return fixedNow }),
	)
	return h
}

func TestRun_AppliesAndRecords(t *testing.T) {
	h := newHarness(t)

	out, err := h.runner.Run(context.Background(), Request{Wallpaper: h.wallpaper, Backup: true, Reload: true, Notify: true})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Cached {
		t.Fatal("first run reported a cache hit")
	}
	if len(out.Results) != 5 || out.Succeeded() != 5 {
		t.Fatalf("results = %+v", out.Results)
	}
	if out.RunID == "" {
		t.Fatal("RunID is empty")
	}
	if out.Document.Metadata.ExtractionMethod != "adaptive" {
		t.Fatalf("method = %q, want adaptive default", out.Document.Metadata.ExtractionMethod)
	}
	if _, err := os.Stat(filepath.Join(h.root, ".config", "waybar", "colors.css")); err != nil {
		t.Fatalf("waybar config not written: %v", err)
	}

	latest, err := h.db.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun() error = %v", err)
	}
	if latest == nil || latest.ID != out.RunID || len(latest.Results) != 5 {
		t.Fatalf("LatestRun() = %+v", latest)
	}
	if latest.CreatedAt != fixedNow.Unix() || latest.Wallpaper != h.wallpaper {
		t.Fatalf("LatestRun() = %+v", latest)
	}

	if len(h.notifier.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(h.notifier.sent))
	}
	if got := h.notifier.sent[0]; got.Icon != notify.IconSuccess || got.Body != "Theme applied from forest.png" {
		t.Fatalf("notification = %+v", got)
	}
}

func TestRun_UsesCache(t *testing.T) {
	h := newHarness(t)
	req := Request{Wallpaper: h.wallpaper, Method: extract.MethodMedianCut, Apps: []string{"rofi"}}

	first, err := h.runner.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := h.runner.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if h.extractor.calls != 1 {
		t.Fatalf("extractor called %d times, want 1", h.extractor.calls)
	}
	if !second.Cached {
		t.Fatal("second run missed the cache")
	}
	if first.Palette.Primary().Hex() != second.Palette.Primary().Hex() {
		t.Fatalf("cached primary %s != %s", second.Palette.Primary().Hex(), first.Palette.Primary().Hex())
	}

	// A different method is a different cache key.
	req.Method = extract.MethodKMeansRGB
	if _, err := h.runner.Run(context.Background(), req); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if h.extractor.calls != 2 {
		t.Fatalf("extractor called %d times, want 2", h.extractor.calls)
	}

	// Touching the file invalidates the entry.
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(h.wallpaper, later, later); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
	if _, err := h.runner.Run(context.Background(), req); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if h.extractor.calls != 3 {
		t.Fatalf("extractor called %d times, want 3", h.extractor.calls)
	}

	// Changed extraction options are a different cache key.
	h.extractor.options = "seed=7"
	out, err := h.runner.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Cached || h.extractor.calls != 4 {
		t.Fatalf("cached = %v, extractor called %d times, want a miss", out.Cached, h.extractor.calls)
	}
}

func TestRun_Preview(t *testing.T) {
	h := newHarness(t)

	out, err := h.runner.Run(context.Background(), Request{Wallpaper: h.wallpaper, Preview: true, Apps: []string{"waybar", "kitty"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.Previews["waybar"], "@define-color") {
		t.Fatalf("waybar preview = %q", out.Previews["waybar"])
	}
	if len(out.Results) != 2 || out.Results[1].Success || !strings.Contains(out.Results[1].Error, "unknown application: kitty") {
		t.Fatalf("results = %+v", out.Results)
	}
	if _, err := os.Stat(filepath.Join(h.root, ".config", "waybar", "colors.css")); !os.IsNotExist(err) {
		t.Fatalf("preview wrote a config file: %v", err)
	}
	if latest, _ := h.db.LatestRun(); latest != nil {
		t.Fatalf("preview recorded a run: %+v", latest)
	}
}

func TestRun_ExtractionError(t *testing.T) {
	h := newHarness(t)
	h.extractor.err = errors.New("failed to load image")

	_, err := h.runner.Run(context.Background(), Request{Wallpaper: h.wallpaper, Notify: true})
	if err == nil {
		t.Fatal("Run() error = nil, want extraction error")
	}
	if len(h.notifier.sent) != 1 || h.notifier.sent[0].Icon != notify.IconFailure {
		t.Fatalf("notifications = %+v", h.notifier.sent)
	}
}

func TestRun_WithoutHistory(t *testing.T) {
	h := newHarness(t)
	runner := NewRunner(h.extractor, h.runner.Applier(), nil)

	out, err := runner.Run(context.Background(), Request{Wallpaper: h.wallpaper, Apps: []string{"rofi"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.RunID != "" || out.Cached {
		t.Fatalf("outcome = %+v", out)
	}
}
