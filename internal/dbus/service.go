package dbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	godbus "github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/extract"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/pipeline"
	"github.com/cptspacemanspiff/wallpaper-themer/internal/storage"
)

const (
	BusName   = "io.github.WallpaperThemer"
	ObjPath   = "/io/github/WallpaperThemer"
	IfaceName = "io.github.WallpaperThemer"

	maxRangeSeconds = 366 * 24 * 60 * 60
	applyTimeout    = 2 * time.Minute
)

const introspectXML = `
<node>
  <interface name="` + IfaceName + `">
    <method name="GetCurrentPalette">
      <arg direction="out" type="s" name="json"/>
    </method>
    <method name="GetHistory">
      <arg direction="in" type="x" name="from_epoch"/>
      <arg direction="in" type="x" name="to_epoch"/>
      <arg direction="out" type="s" name="json"/>
    </method>
    <method name="Apply">
      <arg direction="in" type="s" name="wallpaper"/>
      <arg direction="in" type="s" name="method"/>
      <arg direction="out" type="s" name="json"/>
    </method>
  </interface>
` + introspect.IntrospectDataString + `
</node>`

// Themer runs the theming pipeline. *pipeline.Runner satisfies it.
type Themer interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error)
}

// Service exposes the themer over D-Bus.
type Service struct {
	store  *storage.DB
	themer Themer
	logger *slog.Logger
}

// runView is a stored run with its palette decoded.
type runView struct {
	ID         string              `json:"id"`
	CreatedAt  int64               `json:"created_at"`
	Wallpaper  string              `json:"wallpaper"`
	Method     string              `json:"method"`
	Quality    float64             `json:"quality"`
	Accessible bool                `json:"accessible"`
	Palette    json.RawMessage     `json:"palette"`
	Results    []storage.AppResult `json:"results"`
}

func newRunView(r storage.Run) runView {
	v := runView{
		ID:         r.ID,
		CreatedAt:  r.CreatedAt,
		Wallpaper:  r.Wallpaper,
		Method:     r.Method,
		Quality:    r.Quality,
		Accessible: r.Accessible,
		Palette:    json.RawMessage(r.PaletteJSON),
		Results:    r.Results,
	}
	if len(v.Palette) == 0 || !json.Valid(v.Palette) {
		v.Palette = json.RawMessage("null")
	}
	if v.Results == nil {
		v.Results = []storage.AppResult{}
	}
	return v
}

// NewService creates a new D-Bus service.
func NewService(store *storage.DB, themer Themer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, themer: themer, logger: logger.With("topic", "dbus")}
}

// Export registers the service on the session bus.
func (s *Service) Export() (*godbus.Conn, error) {
	conn, err := godbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	if err := conn.Export(s, ObjPath, IfaceName); err != nil {
		return nil, fmt.Errorf("export service: %w", err)
	}
	if err := conn.Export(introspect.Introspectable(introspectXML), ObjPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, fmt.Errorf("export introspection: %w", err)
	}

	reply, err := conn.RequestName(BusName, godbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, fmt.Errorf("request name: %w", err)
	}
	if reply != godbus.RequestNameReplyPrimaryOwner {
		return nil, fmt.Errorf("name %s already taken", BusName)
	}

	s.logger.Info("exported D-Bus service", "name", BusName, "path", ObjPath)
	return conn, nil
}

func invalidArgs(format string, args ...any) *godbus.Error {
	return godbus.NewError("org.freedesktop.DBus.Error.InvalidArgs", []any{fmt.Sprintf(format, args...)})
}

func validateRange(fromEpoch, toEpoch int64) *godbus.Error {
	switch {
	case fromEpoch < 0 || toEpoch < 0:
		return invalidArgs("epochs must not be negative")
	case toEpoch < fromEpoch:
		return invalidArgs("to_epoch %d is before from_epoch %d", toEpoch, fromEpoch)
	case toEpoch-fromEpoch > maxRangeSeconds:
		return invalidArgs("range exceeds 366 days")
	}
	return nil
}

func marshal(v any) (string, *godbus.Error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", godbus.MakeFailedError(err)
	}
	return string(data), nil
}

// GetCurrentPalette returns the most recent run as JSON, or null when there
// is no history yet.
func (s *Service) GetCurrentPalette() (string, *godbus.Error) {
	run, err := s.store.LatestRun()
	if err != nil {
		s.logger.Error("latest run", "err", err)
		return "", godbus.MakeFailedError(err)
	}
	if run == nil {
		return "null", nil
	}
	return marshal(newRunView(*run))
}

// GetHistory returns the runs in a time range as a JSON array.
func (s *Service) GetHistory(fromEpoch, toEpoch int64) (string, *godbus.Error) {
	if err := validateRange(fromEpoch, toEpoch); err != nil {
		return "", err
	}
	runs, err := s.store.RunsInRange(fromEpoch, toEpoch)
	if err != nil {
		s.logger.Error("runs in range", "err", err)
		return "", godbus.MakeFailedError(err)
	}
	views := make([]runView, 0, len(runs))
	for _, r := range runs {
		views = append(views, newRunView(r))
	}
	return marshal(views)
}

// Apply themes the desktop from wallpaper and returns the outcome as JSON.
// An empty method selects adaptive.
func (s *Service) Apply(wallpaper, method string) (string, *godbus.Error) {
	if wallpaper == "" {
		return "", invalidArgs("wallpaper path must not be empty")
	}
	m := extract.MethodAdaptive
	if method != "" {
		parsed, err := extract.ParseMethod(method)
		if err != nil {
			return "", invalidArgs("%v", err)
		}
		m = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	s.logger.Info("apply requested", "wallpaper", wallpaper, "method", m)
	out, err := s.themer.Run(ctx, pipeline.Request{
		Wallpaper: wallpaper,
		Method:    m,
		Backup:    true,
		Reload:    true,
		Notify:    true,
	})
	if err != nil {
		s.logger.Error("apply failed", "wallpaper", wallpaper, "err", err)
		return "", godbus.MakeFailedError(err)
	}
	return marshal(out)
}
