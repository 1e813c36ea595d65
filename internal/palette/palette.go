package palette

import (
	"errors"
	"fmt"
	"sort"
)

const (
	// MinTextContrast is the lowest contrast a text candidate may have
	// against the background before falling back to the lightest color.
	MinTextContrast = 3.0
	// AccessibleContrast is the WCAG AA threshold for body text.
	AccessibleContrast = 4.5

	surfaceLift = 0.05

	// MethodAutomatic marks palettes built by FromColors before an
	// extractor stamps its own method name.
	MethodAutomatic = "automatic_assignment"
)

// ErrTooFewColors is returned when role assignment gets fewer than three colors.
var ErrTooFewColors = errors.New("need at least 3 colors to create a palette")

var requiredRoles = []Role{RolePrimary, RoleBackground, RoleText}

// Palette is a set of role-assigned colors plus extraction metadata.
type Palette struct {
	Colors      map[Role]Color
	SourceImage string
	Method      string
	Quality     float64
}

// New validates that the required roles are present.
func New(colors map[Role]Color, source, method string) (*Palette, error) {
	var missing []string
	for _, r := range requiredRoles {
		if _, ok := colors[r]; !ok {
			missing = append(missing, string(r))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required color roles: %v", missing)
	}
	return &Palette{Colors: colors, SourceImage: source, Method: method}, nil
}

// FromColors assigns roles to raw RGB triples by luminance and saturation.
func FromColors(rgbs [][3]uint8, source string) (*Palette, error) {
	if len(rgbs) < 3 {
		return nil, ErrTooFewColors
	}

	sorted := make([]Color, len(rgbs))
	for i, c := range rgbs {
		sorted[i] = RGB(int(c[0]), int(c[1]), int(c[2]), RolePrimary)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Luminance() < sorted[j].Luminance()
	})

	last := len(sorted) - 1
	used := make(map[int]bool, len(sorted))
	colors := make(map[Role]Color, len(Roles))

	bg := sorted[0]
	colors[RoleBackground] = bg.WithRole(RoleBackground)
	used[0] = true

	textIdx := last
	for i := last; i >= 0; i-- {
		if sorted[i].Contrast(bg) >= MinTextContrast {
			textIdx = i
			break
		}
	}
	colors[RoleText] = sorted[textIdx].WithRole(RoleText)
	used[textIdx] = true

	primaryIdx := len(sorted) / 2
	if last > 1 {
		primaryIdx = 1
		_, best, _ := sorted[1].HSL()
		for i := 2; i < last; i++ {
			if _, s, _ := sorted[i].HSL(); s > best {
				best = s
				primaryIdx = i
			}
		}
	}
	colors[RolePrimary] = sorted[primaryIdx].WithRole(RolePrimary)
	used[primaryIdx] = true

	var remaining []Color
	for i, c := range sorted {
		if !used[i] {
			remaining = append(remaining, c)
		}
	}
	if len(remaining) > 0 {
		colors[RoleSecondary] = remaining[0].WithRole(RoleSecondary)
	}
	if len(remaining) > 1 {
		colors[RoleAccent] = remaining[1].WithRole(RoleAccent)
	}

	colors[RoleSurface] = colors[RoleBackground].Lighten(surfaceLift).WithRole(RoleSurface)

	return New(colors, source, MethodAutomatic)
}

// Get returns the color for role, if assigned.
func (p *Palette) Get(role Role) (Color, bool) {
	c, ok := p.Colors[role]
	return c, ok
}

func (p *Palette) Primary() Color    { return p.Colors[RolePrimary] }
func (p *Palette) Background() Color { return p.Colors[RoleBackground] }
func (p *Palette) Text() Color       { return p.Colors[RoleText] }

// Ordered returns the assigned colors in Roles order.
func (p *Palette) Ordered() []Color {
	out := make([]Color, 0, len(p.Colors))
	for _, r := range Roles {
		if c, ok := p.Colors[r]; ok {
			out = append(out, c)
		}
	}
	return out
}

// AssignedRoles returns the roles present in Roles order.
func (p *Palette) AssignedRoles() []Role {
	out := make([]Role, 0, len(p.Colors))
	for _, r := range Roles {
		if _, ok := p.Colors[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

// ValidateContrast reports contrast ratios of key colors against the background.
func (p *Palette) ValidateContrast() map[string]float64 {
	out := make(map[string]float64, 3)
	bg, ok := p.Get(RoleBackground)
	if !ok {
		return out
	}
	if text, ok := p.Get(RoleText); ok {
		out["text_on_background"] = text.Contrast(bg)
	}
	if primary, ok := p.Get(RolePrimary); ok {
		out["primary_on_background"] = primary.Contrast(bg)
	}
	if accent, ok := p.Get(RoleAccent); ok {
		out["accent_on_background"] = accent.Contrast(bg)
	}
	return out
}

// MeetsAccessibility reports whether text on background reaches WCAG AA.
func (p *Palette) MeetsAccessibility() bool {
	return p.ValidateContrast()["text_on_background"] >= AccessibleContrast
}

// Clone returns a deep copy.
func (p *Palette) Clone() *Palette {
	out := *p
	out.Colors = make(map[Role]Color, len(p.Colors))
	for r, c := range p.Colors {
		out.Colors[r] = c
	}
	return &out
}
