package render

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/palette"
)

// toColor accepts a Color, *Color or hex string so template values can be
// piped through any helper.
func toColor(v any) (palette.Color, error) {
	switch c := v.(type) {
	case palette.Color:
		return c, nil
	case *palette.Color:
		if c == nil {
			return palette.Color{}, fmt.Errorf("nil color")
		}
		return *c, nil
	case string:
		return palette.ParseHex(c, "")
	default:
		return palette.Color{}, fmt.Errorf("cannot use %T as a color", v)
	}
}

// colorFunc adapts a Color transform to a pipeline-friendly helper.
func colorFunc[T any](fn func(palette.Color) T) func(any) (T, error) {
	return func(v any) (T, error) {
		c, err := toColor(v)
		if err != nil {
			var zero T
			return zero, err
		}
		return fn(c), nil
	}
}

func amountFunc(fn func(palette.Color, float64) palette.Color) func(float64, any) (palette.Color, error) {
	return func(amount float64, v any) (palette.Color, error) {
		c, err := toColor(v)
		if err != nil {
			return palette.Color{}, err
		}
		return fn(c, amount), nil
	}
}

func varFunc(format string) func(string, any) (string, error) {
	return func(name string, v any) (string, error) {
		c, err := toColor(v)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(format, name, c.Hex()), nil
	}
}

// Funcs returns the helpers available to every template. The color being
// operated on is always the last argument.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"hex":      colorFunc(palette.Color.Hex),
		"hexa":     colorFunc(palette.Color.HexAlpha),
		"bare_hex": colorFunc(func(c palette.Color) string { return strings.TrimPrefix(c.Hex(), "#") }),
		"rgb": colorFunc(func(c palette.Color) string {
			return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
		}),
		"rgba": colorFunc(func(c palette.Color) string {
			return fmt.Sprintf("rgba(%d, %d, %d, %.2f)", c.R, c.G, c.B, float64(c.A)/255)
		}),
		"hsl": colorFunc(func(c palette.Color) string {
			h, s, l := c.HSL()
			return fmt.Sprintf("hsl(%.0f, %.0f%%, %.0f%%)", h, s, l)
		}),
		"hsla": colorFunc(func(c palette.Color) string {
			h, s, l := c.HSL()
			return fmt.Sprintf("hsla(%.0f, %.0f%%, %.0f%%, %.2f)", h, s, l, float64(c.A)/255)
		}),

		"darken":     amountFunc(palette.Color.Darken),
		"lighten":    amountFunc(palette.Color.Lighten),
		"saturate":   amountFunc(palette.Color.Saturate),
		"desaturate": amountFunc(palette.Color.Desaturate),
		"alpha": amountFunc(func(c palette.Color, a float64) palette.Color {
			if a <= 1 {
				return c.WithAlpha(int(a * 255))
			}
			return c.WithAlpha(int(a))
		}),
		"mix": func(other any, ratio float64, v any) (palette.Color, error) {
			c, err := toColor(v)
			if err != nil {
				return palette.Color{}, err
			}
			o, err := toColor(other)
			if err != nil {
				return palette.Color{}, err
			}
			return c.Mix(o, ratio), nil
		},

		"luminance": colorFunc(palette.Color.Luminance),
		"contrast": func(other any, v any) (float64, error) {
			c, err := toColor(v)
			if err != nil {
				return 0, err
			}
			o, err := toColor(other)
			if err != nil {
				return 0, err
			}
			return c.Contrast(o), nil
		},
		"is_dark":  colorFunc(palette.Color.IsDark),
		"is_light": colorFunc(palette.Color.IsLight),

		"complement": colorFunc(func(c palette.Color) palette.Color { return c.RotateHue(180) }),
		"triad": colorFunc(func(c palette.Color) []palette.Color {
			return []palette.Color{c, c.RotateHue(120), c.RotateHue(240)}
		}),
		"analogous": colorFunc(func(c palette.Color) []palette.Color {
			return []palette.Color{c.RotateHue(-30), c, c.RotateHue(30)}
		}),

		"css_var":   varFunc("--%s: %s;"),
		"rasi_var":  varFunc("@define-color %s %s;"),
		"shell_var": varFunc("%s='%s'"),
	}
}
