package render

import (
	"os"
	"time"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/palette"
)

// Extra carries per-render values that are not part of the palette.
type Extra struct {
	AppName string
	Meta    map[string]any
}

// Context is the dot value templates execute against.
type Context struct {
	Palette   *palette.Palette
	Colors    map[string]palette.Color
	AllColors []palette.Color
	Roles     []string
	AppName   string
	Timestamp string
	UserHome  string
	Meta      map[string]any
}

func newContext(p *palette.Palette, extra Extra, now time.Time) Context {
	colors := make(map[string]palette.Color, len(p.Colors)+4)
	for role, c := range p.Colors {
		colors[string(role)] = c
	}
	shortcuts := map[string]palette.Role{
		"bg":      palette.RoleBackground,
		"fg":      palette.RoleText,
		"accent":  palette.RoleAccent,
		"primary": palette.RolePrimary,
	}
	for key, role := range shortcuts {
		if c, ok := p.Colors[role]; ok {
			colors[key] = c
		}
	}

	roles := make([]string, 0, len(p.Colors))
	for _, r := range p.AssignedRoles() {
		roles = append(roles, string(r))
	}

	home, _ := os.UserHomeDir()
	meta := extra.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	return Context{
		Palette:   p,
		Colors:    colors,
		AllColors: p.Ordered(),
		Roles:     roles,
		AppName:   extra.AppName,
		Timestamp: now.Format(time.RFC3339),
		UserHome:  home,
		Meta:      meta,
	}
}

// Color returns the palette color for role, or fallback parsed as hex when
// the role is unassigned.
func (c Context) Color(role, fallback string) (palette.Color, error) {
	if col, ok := c.Palette.Get(palette.Role(role)); ok {
		return col, nil
	}
	return palette.ParseHex(fallback, palette.Role(role))
}
