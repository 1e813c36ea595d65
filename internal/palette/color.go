package palette

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Role is the semantic slot a color fills in a theme.
type Role string

const (
	RolePrimary       Role = "primary"
	RoleSecondary     Role = "secondary"
	RoleAccent        Role = "accent"
	RoleBackground    Role = "background"
	RoleSurface       Role = "surface"
	RoleText          Role = "text"
	RoleTextSecondary Role = "text_secondary"
	RoleBorder        Role = "border"
	RoleWarning       Role = "warning"
	RoleError         Role = "error"
)

// Roles lists every role in display order.
var Roles = []Role{
	RolePrimary,
	RoleSecondary,
	RoleAccent,
	RoleBackground,
	RoleSurface,
	RoleText,
	RoleTextSecondary,
	RoleBorder,
	RoleWarning,
	RoleError,
}

// ErrInvalidHex is returned by ParseHex for malformed input.
var ErrInvalidHex = errors.New("invalid hex color format")

// Color is an 8-bit sRGB color tagged with the role it was assigned and
// how confident the assignment was.
type Color struct {
	R, G, B, A uint8
	Role       Role
	Confidence float64
}

// RGB builds an opaque color, clamping each channel to 0..255.
func RGB(r, g, b int, role Role) Color {
	return Color{
		R:          clampChannel(r),
		G:          clampChannel(g),
		B:          clampChannel(b),
		A:          255,
		Role:       role,
		Confidence: 1.0,
	}
}

// ParseHex accepts #rgb, #rrggbb and #rrggbbaa, with or without the leading #.
func ParseHex(s string, role Role) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	case 6, 8:
	default:
		return Color{}, fmt.Errorf("%w: %s", ErrInvalidHex, s)
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %s", ErrInvalidHex, s)
	}

	c := Color{A: 255, Role: role, Confidence: 1.0}
	if len(h) == 8 {
		c.A = uint8(v)
		v >>= 8
	}
	c.R = uint8(v >> 16)
	c.G = uint8(v >> 8)
	c.B = uint8(v)
	return c, nil
}

// MustHex is ParseHex for compile-time constants.
func MustHex(s string, role Role) Color {
	c, err := ParseHex(s, role)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex returns #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// HexAlpha returns #rrggbbaa.
func (c Color) HexAlpha() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func (c Color) String() string {
	return string(c.Role) + ": " + c.Hex()
}

// Colorful converts to a go-colorful value with channels in [0,1].
func (c Color) Colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// HSL returns hue in degrees and saturation/lightness as percentages.
func (c Color) HSL() (h, s, l float64) {
	h, s, l = c.Colorful().Hsl()
	return h, s * 100, l * 100
}

// Lab returns CIE L*a*b* (D65) with L in 0..100.
func (c Color) Lab() (l, a, b float64) {
	l, a, b = c.Colorful().Lab()
	return l * 100, a * 100, b * 100
}

// Luminance is the WCAG 2.x relative luminance.
func (c Color) Luminance() float64 {
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B)
}

func (c Color) IsDark() bool  { return c.Luminance() < 0.5 }
func (c Color) IsLight() bool { return c.Luminance() >= 0.5 }

// Contrast returns the WCAG contrast ratio between c and other, always >= 1.
func (c Color) Contrast(other Color) float64 {
	l1, l2 := c.Luminance(), other.Luminance()
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// Darken lowers HSL lightness by amount (0..1 of the full range).
func (c Color) Darken(amount float64) Color {
	h, s, l := c.HSL()
	return c.fromHSL(h, s, math.Max(0, l-amount*100))
}

// Lighten raises HSL lightness by amount (0..1 of the full range).
func (c Color) Lighten(amount float64) Color {
	h, s, l := c.HSL()
	return c.fromHSL(h, s, math.Min(100, l+amount*100))
}

func (c Color) Saturate(amount float64) Color {
	h, s, l := c.HSL()
	return c.fromHSL(h, math.Min(100, s+amount*100), l)
}

func (c Color) Desaturate(amount float64) Color {
	h, s, l := c.HSL()
	return c.fromHSL(h, math.Max(0, s-amount*100), l)
}

// RotateHue shifts the hue by deg degrees, wrapping at 360.
func (c Color) RotateHue(deg float64) Color {
	h, s, l := c.HSL()
	return c.fromHSL(math.Mod(math.Mod(h+deg, 360)+360, 360), s, l)
}

// WithAlpha returns a copy with the alpha channel replaced.
func (c Color) WithAlpha(alpha int) Color {
	c.A = clampChannel(alpha)
	return c
}

// WithRole returns a copy tagged with role.
func (c Color) WithRole(role Role) Color {
	c.Role = role
	return c
}

// WithConfidence returns a copy with confidence clamped to [0,1].
func (c Color) WithConfidence(v float64) Color {
	c.Confidence = math.Max(0, math.Min(1, v))
	return c
}

// Mix blends c toward other; ratio 0 keeps c, 1 yields other. The role of c
// is kept and confidence is the lower of the two.
func (c Color) Mix(other Color, ratio float64) Color {
	mix := func(a, b uint8) int {
		return int(float64(a)*(1-ratio) + float64(b)*ratio)
	}
	out := RGB(mix(c.R, other.R), mix(c.G, other.G), mix(c.B, other.B), c.Role)
	out.Confidence = math.Min(c.Confidence, other.Confidence)
	return out
}

// FromHSL builds an opaque color from hue degrees and percentage s/l.
func FromHSL(h, s, l float64, role Role) Color {
	return Color{A: 255, Role: role, Confidence: 1.0}.fromHSL(h, s, l)
}

func (c Color) fromHSL(h, s, l float64) Color {
	rgb := colorful.Hsl(h, s/100, l/100)
	return Color{
		R:          truncChannel(rgb.R),
		G:          truncChannel(rgb.G),
		B:          truncChannel(rgb.B),
		A:          255,
		Role:       c.Role,
		Confidence: c.Confidence,
	}
}

func linearize(v uint8) float64 {
	c := float64(v) / 255
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// truncChannel maps [0,1] to 0..255 by truncation, not rounding.
func truncChannel(v float64) uint8 {
	return clampChannel(int(v * 255))
}
