// Command themer-picker is a graphical wallpaper picker that previews the
// extracted palette and applies it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	fynetheme "fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/config"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/extract"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/logging"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/notify"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/pipeline"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/render"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/storage"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/theme"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/wallpaper"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to config file")
	dirFlag := flag.String("wallpaper-dir", "", "wallpaper directory to scan")
	methodFlag := flag.String("method", "", "color extraction method (default from config)")
	verbose := flag.Bool("verbose", false, "enable all log topics")
	logTopics := flag.String("log", "", "comma-separated log topics: "+strings.Join(logging.Topics, ","))
	flag.Parse()

	logger := logging.New(os.Stderr, logging.ParseTopics(*verbose, *logTopics))

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		logger.Error("load config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	method := extract.Method(cfg.General.Method)
	if *methodFlag != "" {
		if method, err = extract.ParseMethod(*methodFlag); err != nil {
			logger.Error("invalid method", "err", err)
			os.Exit(1)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		logger.Error("resolve home directory", "err", err)
		os.Exit(1)
	}
	dir := *dirFlag
	if dir == "" {
		dir = cfg.Picker.WallpaperDir
	}
	if dir == "" {
		cwd, _ := os.Getwd()
		dir = wallpaper.FindDir(wallpaper.Candidates(cwd, home))
	}
	if dir == "" {
		logger.Error("no wallpaper directory found, use -wallpaper-dir to specify one")
		os.Exit(1)
	}
	walls, err := wallpaper.Scan(config.ExpandHome(dir))
	if err != nil {
		logger.Error("scan wallpapers", "dir", dir, "err", err)
		os.Exit(1)
	}

	runner, cleanup, err := newRunner(cfg, home, logger)
	if err != nil {
		logger.Error("setup", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	a := app.NewWithID("io.github.WallpaperThemer.Picker")
	win := a.NewWindow("Wallpaper Themer")
	win.Resize(fyne.NewSize(960, 680))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newPicker(ctx, runner, method, walls, cfg.Picker.ThumbnailDir, cfg.Picker.ThumbnailSize, logger)
	win.SetContent(p.content())
	p.selectCategory(0)
	win.ShowAndRun()
}

func newRunner(cfg *config.Config, home string, logger *slog.Logger) (*pipeline.Runner, func(), error) {
	apps, err := cfg.Applications(home)
	if err != nil {
		return nil, nil, err
	}
	engine := render.New(cfg.General.TemplateDir, logger)
	applier, err := theme.NewApplier(cfg.General.ConfigDir, engine, apps, logger)
	if err != nil {
		return nil, nil, err
	}
	ex := extract.New(extract.Options{
		MaxDimension: cfg.Extraction.MaxDimension,
		Seed:         cfg.Extraction.Seed,
		Restarts:     cfg.Extraction.Restarts,
	}, logger)

	var opts []pipeline.Option
	cleanup := func() {}
	if db, err := storage.Open(cfg.History.DBPath); err != nil {
		logger.Warn("history unavailable", "topic", "history", "err", err)
	} else {
		opts = append(opts, pipeline.WithHistory(db))
		cleanup = func() { db.Close() }
	}
	if n, err := notify.New(); err != nil {
		logger.Warn("notifications unavailable", "err", err)
	} else {
		opts = append(opts, pipeline.WithNotifier(n))
	}
	return pipeline.NewRunner(ex, applier, logger, opts...), cleanup, nil
}

type picker struct {
	ctx       context.Context
	runner    *pipeline.Runner
	method    extract.Method
	walls     []wallpaper.Wallpaper
	thumbDir  string
	thumbSize int
	logger    *slog.Logger

	categories []string
	selected   *wallpaper.Wallpaper
	grid       *thumbnailGrid

	categoryHolder *fyne.Container
	gridHolder     *fyne.Container
	palette        *paletteBar
	status         *widget.Label
	applyBtn       *widget.Button
}

func newPicker(ctx context.Context, runner *pipeline.Runner, method extract.Method, walls []wallpaper.Wallpaper, thumbDir string, thumbSize int, logger *slog.Logger) *picker {
	p := &picker{
		ctx:        ctx,
		runner:     runner,
		method:     method,
		walls:      walls,
		thumbDir:   thumbDir,
		thumbSize:  thumbSize,
		logger:     logger,
		categories: wallpaper.Categories(walls),
		palette:    newPaletteBar(),
		status:     widget.NewLabel(fmt.Sprintf("Found %d wallpapers", len(walls))),
	}
	p.categoryHolder = container.NewStack()
	p.gridHolder = container.NewStack()
	p.applyBtn = widget.NewButtonWithIcon("Apply", fynetheme.ConfirmIcon(), p.apply)
	p.applyBtn.Importance = widget.HighImportance
	p.applyBtn.Disable()
	return p
}

func (p *picker) content() fyne.CanvasObject {
	bottom := container.NewVBox(
		p.palette.container,
		container.NewBorder(nil, nil, nil, p.applyBtn, p.status),
	)
	return container.NewBorder(p.categoryHolder, bottom, nil, nil, container.NewVScroll(p.gridHolder))
}

func (p *picker) selectCategory(idx int) {
	p.categoryHolder.Objects = []fyne.CanvasObject{newCategoryBar(p.categories, idx, p.selectCategory)}
	p.categoryHolder.Refresh()

	var walls []wallpaper.Wallpaper
	if idx < len(p.categories) {
		for _, w := range p.walls {
			if w.Category == p.categories[idx] {
				walls = append(walls, w)
			}
		}
	}
	grid := newThumbnailGrid(walls, float32(p.thumbSize), p.selectWallpaper)
	p.grid = grid
	if p.selected != nil {
		grid.Select(p.selected.Path)
	}
	p.gridHolder.Objects = []fyne.CanvasObject{grid.container}
	p.gridHolder.Refresh()

	go p.loadThumbnails(grid, walls)
}

func (p *picker) loadThumbnails(grid *thumbnailGrid, walls []wallpaper.Wallpaper) {
	for _, w := range walls {
		if p.ctx.Err() != nil {
			return
		}
		thumb, err := wallpaper.Thumbnail(p.thumbDir, w.Path, p.thumbSize)
		if err != nil {
			p.logger.Warn("thumbnail failed", "path", w.Path, "err", err)
			continue
		}
		path := w.Path
		fyne.Do(func() { grid.SetThumbnail(path, thumb) })
	}
}

func (p *picker) selectWallpaper(w wallpaper.Wallpaper) {
	p.selected = &w
	p.grid.Select(w.Path)
	p.applyBtn.Disable()
	p.palette.Update(nil)
	p.status.SetText("Extracting colors from " + filepath.Base(w.Path) + "...")

	go func() {
		pal, cached, err := p.runner.Palette(p.ctx, w.Path, p.method, 0)
		fyne.Do(func() {
			if p.selected == nil || p.selected.Path != w.Path {
				return
			}
			if err != nil {
				p.status.SetText("Extraction failed: " + err.Error())
				return
			}
			p.palette.Update(pal)
			msg := fmt.Sprintf("%s  accessibility %s", w.DisplayName(), checkMark(pal.MeetsAccessibility()))
			if cached {
				msg += "  (cached)"
			}
			p.status.SetText(msg)
			p.applyBtn.Enable()
		})
	}()
}

func (p *picker) apply() {
	if p.selected == nil {
		return
	}
	w := *p.selected
	p.applyBtn.Disable()
	p.status.SetText("Applying theme...")

	go func() {
		out, err := p.runner.Run(p.ctx, pipeline.Request{
			Wallpaper: w.Path,
			Method:    p.method,
			Backup:    true,
			Reload:    true,
			Notify:    true,
		})
		fyne.Do(func() {
			defer p.applyBtn.Enable()
			switch {
			case err != nil:
				p.status.SetText("✗ Failed to apply theme: " + err.Error())
			case out.Succeeded() != len(out.Results):
				p.status.SetText(fmt.Sprintf("✗ Themed %d/%d applications", out.Succeeded(), len(out.Results)))
			default:
				p.status.SetText("✓ Theme applied from " + filepath.Base(w.Path))
			}
		})
	}()
}

func checkMark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
