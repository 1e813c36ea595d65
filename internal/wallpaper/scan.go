// Package wallpaper finds wallpapers on disk and prepares them for pickers.
package wallpaper

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const Uncategorized = "uncategorized"

var extensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// Wallpaper is one image file under a wallpaper directory.
type Wallpaper struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Path     string `json:"path"`
}

// DisplayName is "category/name" without the file extension.
func (w Wallpaper) DisplayName() string {
	return w.Category + "/" + strings.TrimSuffix(w.Name, filepath.Ext(w.Name))
}

// IsImage reports whether name has a supported wallpaper extension.
func IsImage(name string) bool {
	return extensions[strings.ToLower(filepath.Ext(name))]
}

// Scan walks dir for images. The category is the first directory below dir.
// Results are sorted by category, then name, then path.
func Scan(dir string) ([]Wallpaper, error) {
	var out []Wallpaper
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsImage(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, filepath.Dir(path))
		if err != nil {
			return err
		}
		category := Uncategorized
		if rel != "." {
			category = strings.Split(rel, string(filepath.Separator))[0]
		}
		out = append(out, Wallpaper{Category: category, Name: d.Name(), Path: path})
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b Wallpaper) int {
		if c := strings.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
	return out, nil
}

// Categories returns the distinct categories of ws in order of appearance.
func Categories(ws []Wallpaper) []string {
	var out []string
	seen := make(map[string]bool)
	for _, w := range ws {
		if !seen[w.Category] {
			seen[w.Category] = true
			out = append(out, w.Category)
		}
	}
	return out
}

// Candidates are the default wallpaper locations, most specific first.
func Candidates(cwd, home string) []string {
	return []string{
		filepath.Join(cwd, "wallpapers"),
		filepath.Join(home, "Pictures", "wallpapers"),
		filepath.Join(home, "Pictures"),
		filepath.Join(home, "Wallpapers"),
		"/usr/share/backgrounds",
		"/usr/share/pixmaps",
	}
}

// FindDir returns the first existing directory in candidates, or "".
func FindDir(candidates []string) string {
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return ""
}
