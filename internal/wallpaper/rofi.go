package wallpaper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

var ErrRofiNotFound = errors.New("rofi not found, please install rofi-wayland")

// RofiEntries builds dmenu lines with thumbnail icons and maps each display
// name back to its file. Thumbnail failures fall back to the image itself.
func RofiEntries(ws []Wallpaper, thumb func(path string) (string, error), logger *slog.Logger) ([]string, map[string]string) {
	if logger == nil {
		logger = slog.Default()
	}
	entries := make([]string, 0, len(ws))
	paths := make(map[string]string, len(ws))
	for _, w := range ws {
		icon, err := thumb(w.Path)
		if err != nil {
			logger.Warn("thumbnail failed", "path", w.Path, "err", err)
			icon = w.Path
		}
		name := w.DisplayName()
		entries = append(entries, name+"\x00icon\x1f"+icon)
		paths[name] = w.Path
	}
	return entries, paths
}

func rofiArgs() []string {
	return []string{
		"-dmenu",
		"-i",
		"-p", "Select Wallpaper",
		"-theme-str", "listview { columns: 3; }",
		"-show-icons",
		"-markup-rows",
	}
}

// RunRofi shows entries and returns the chosen display name. A cancelled
// menu returns "" with no error.
func RunRofi(ctx context.Context, entries []string) (string, error) {
	bin, err := exec.LookPath("rofi")
	if err != nil {
		return "", ErrRofiNotFound
	}
	cmd := exec.CommandContext(ctx, bin, rofiArgs()...)
	cmd.Stdin = strings.NewReader(strings.Join(entries, "\n") + "\n")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", nil
		}
		return "", fmt.Errorf("failed to launch rofi: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
