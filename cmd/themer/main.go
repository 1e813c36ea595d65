// Command themer extracts a palette from a wallpaper and themes desktop
// applications with it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/config"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/extract"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/logging"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/notify"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/pipeline"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/render"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/storage"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/theme"
)

// errReported marks failures whose message was already printed.
var errReported = errors.New("reported")

type app struct {
	verbose    bool
	logTopics  string
	configDir  string
	configPath string

	cfg     *config.Config
	home    string
	logger  *slog.Logger
	logFile *os.File
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, warnStyle.Render("Operation cancelled by user"))
		} else if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, errStyle.Render("Error: "+err.Error()))
		}
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "themer",
		Short:         "Theme your desktop from your wallpaper",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable all log topics on stderr")
	flags.StringVar(&a.logTopics, "log", "", "comma-separated log topics ("+joinTopics()+")")
	flags.StringVar(&a.configDir, "config-dir", "", "configuration directory (default ~/.config/wallpaper-themer)")
	flags.StringVar(&a.configPath, "config", "", "config file (default <config-dir>/config.toml)")

	root.AddCommand(
		newApplyCmd(a),
		newExtractCmd(a),
		newStatusCmd(a),
		newRestoreCmd(a),
		newBackupsCmd(a),
		newTemplatesCmd(a),
		newPickCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
	)
	return root
}

func joinTopics() string {
	s := "all"
	for _, t := range logging.Topics {
		s += "," + t
	}
	return s
}

// setup loads the configuration and opens the log.
func (a *app) setup() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	a.home = home

	path := a.configPath
	if path == "" && a.configDir != "" {
		path = filepath.Join(a.configDir, "config.toml")
	}
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if a.configDir != "" {
		dir, err := filepath.Abs(config.ExpandHome(a.configDir))
		if err != nil {
			return fmt.Errorf("resolve config dir: %w", err)
		}
		if cfg.General.TemplateDir == filepath.Join(cfg.General.ConfigDir, "templates") {
			cfg.General.TemplateDir = filepath.Join(dir, "templates")
		}
		cfg.General.ConfigDir = dir
	}
	a.cfg = cfg

	if err := os.MkdirAll(cfg.General.ConfigDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	topics := logging.ParseTopics(a.verbose, a.logTopics)
	var w io.Writer = io.Discard
	f, err := os.OpenFile(filepath.Join(cfg.General.ConfigDir, "themer.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err == nil {
		a.logFile = f
		w = f
	}
	if len(topics) > 0 {
		w = io.MultiWriter(os.Stderr, w)
	}
	a.logger = logging.New(w, topics)
	if err != nil {
		a.logger.Warn("log file unavailable", "err", err)
	}
	return nil
}

func (a *app) close() {
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func (a *app) method(flag string) (extract.Method, error) {
	if flag == "" {
		flag = a.cfg.General.Method
	}
	return extract.ParseMethod(flag)
}

func (a *app) extractor() *extract.Extractor {
	return extract.New(extract.Options{
		MaxDimension: a.cfg.Extraction.MaxDimension,
		Seed:         a.cfg.Extraction.Seed,
		Restarts:     a.cfg.Extraction.Restarts,
	}, a.logger)
}

func (a *app) engine(templateDir string) *render.Engine {
	if templateDir == "" {
		templateDir = a.cfg.General.TemplateDir
	}
	return render.New(config.ExpandHome(templateDir), a.logger)
}

func (a *app) applier(templateDir string) (*theme.Applier, error) {
	apps, err := a.cfg.Applications(a.home)
	if err != nil {
		return nil, err
	}
	return theme.NewApplier(a.cfg.General.ConfigDir, a.engine(templateDir), apps, a.logger)
}

// openHistory opens the history database. Failure is logged and yields nil,
// since every command except serve works without it.
func (a *app) openHistory() *storage.DB {
	db, err := storage.Open(a.cfg.History.DBPath)
	if err != nil {
		a.logger.Warn("history unavailable", "topic", "history", "path", a.cfg.History.DBPath, "err", err)
		return nil
	}
	return db
}

// runner wires the pipeline. The returned func releases its resources.
func (a *app) runner(templateDir string, notifications bool) (*pipeline.Runner, func(), error) {
	applier, err := a.applier(templateDir)
	if err != nil {
		return nil, nil, err
	}
	var opts []pipeline.Option
	cleanup := func() {}

	if db := a.openHistory(); db != nil {
		opts = append(opts, pipeline.WithHistory(db))
		cleanup = func() { db.Close() }
	}
	if notifications {
		if n, err := notify.New(); err != nil {
			a.logger.Warn("notifications unavailable", "err", err)
		} else {
			opts = append(opts, pipeline.WithNotifier(n))
		}
	}
	return pipeline.NewRunner(a.extractor(), applier, a.logger, opts...), cleanup, nil
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
