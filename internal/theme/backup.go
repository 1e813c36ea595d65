package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const (
	backupSuffix     = ".backup"
	backupTimeLayout = "20060102_150405"
)

// Backup is one saved copy of an application config.
type Backup struct {
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
}

// createBackup copies the current output of app into the backup directory.
// It returns "" when there is nothing to back up.
func (a *Applier) createBackup(app App) (string, error) {
	if _, err := os.Stat(app.Output); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	name := fmt.Sprintf("%s_%s%s", app.Name, a.now().Format(backupTimeLayout), backupSuffix)
	dst := filepath.Join(a.backupDir, name)
	if err := copyFile(app.Output, dst); err != nil {
		return "", fmt.Errorf("create backup for %s: %w", app.Name, err)
	}
	a.logger.Info("created backup", "topic", "backup", "app", app.Name, "path", dst)
	return dst, nil
}

// ListBackups groups backups by application, newest first. The application
// is the file name up to the first underscore.
func (a *Applier) ListBackups() (map[string][]Backup, error) {
	entries, err := os.ReadDir(a.backupDir)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string][]Backup{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	out := map[string][]Backup{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		app, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out[app] = append(out[app], Backup{Path: filepath.Join(a.backupDir, name), ModTime: info.ModTime()})
	}

	for _, bs := range out {
		slices.SortFunc(bs, func(x, y Backup) int {
			if c := y.ModTime.Compare(x.ModTime); c != 0 {
				return c
			}
			return strings.Compare(y.Path, x.Path)
		})
	}
	return out, nil
}

// RestoreBackups copies the newest backup of each app over its config.
// Empty apps means every configured app.
func (a *Applier) RestoreBackups(apps []string) (map[string]bool, error) {
	if len(apps) == 0 {
		apps = a.AppNames()
	}
	backups, err := a.ListBackups()
	if err != nil {
		return nil, err
	}

	logger := a.logger.With("topic", "backup")
	out := make(map[string]bool, len(apps))
	for _, name := range apps {
		app, ok := a.App(name)
		if !ok {
			logger.Warn("cannot restore unknown application", "app", name)
			out[name] = false
			continue
		}
		bs := backups[name]
		if len(bs) == 0 {
			logger.Warn("no backup found", "app", name)
			out[name] = false
			continue
		}
		if err := os.MkdirAll(filepath.Dir(app.Output), 0o755); err != nil {
			logger.Error("failed to restore", "app", name, "err", err)
			out[name] = false
			continue
		}
		if err := copyFile(bs[0].Path, app.Output); err != nil {
			logger.Error("failed to restore", "app", name, "err", err)
			out[name] = false
			continue
		}
		logger.Info("restored", "app", name, "from", bs[0].Path)
		out[name] = true
	}
	return out, nil
}

// PruneBackups keeps the newest keep backups per app and deletes the rest.
// It returns the number of files removed.
func (a *Applier) PruneBackups(keep int) (int, error) {
	if keep < 1 {
		return 0, fmt.Errorf("keep must be at least 1, got %d", keep)
	}
	backups, err := a.ListBackups()
	if err != nil {
		return 0, err
	}

	removed := 0
	for app, bs := range backups {
		if len(bs) <= keep {
			continue
		}
		for _, b := range bs[keep:] {
			if err := os.Remove(b.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return removed, fmt.Errorf("remove backup %s: %w", b.Path, err)
			}
			removed++
		}
		a.logger.Info("pruned backups", "topic", "backup", "app", app, "removed", len(bs)-keep)
	}
	return removed, nil
}
