package palette

import "math"

// Hue windows for status colors, in degrees.
const (
	errorHueLow    = 30.0
	errorHueHigh   = 330.0
	warningHueLow  = 30.0
	warningHueHigh = 60.0

	errorHue   = 0.0
	warningHue = 40.0

	minStatusSaturation  = 30.0
	statusSaturation     = 70.0
	darkTargetLightness  = 65.0
	lightTargetLightness = 40.0
	minStatusContrast    = 3.0
	contrastSteps        = 5
	contrastStep         = 10.0

	textSecondaryMix = 0.35
	borderLift       = 0.05

	derivedConfidence   = 0.8
	generatedConfidence = 0.5
)

// DeriveExtended fills border, text_secondary, warning and error when they
// are missing. Roles already present are left untouched.
func DeriveExtended(p *Palette) {
	bg, ok := p.Get(RoleBackground)
	if !ok {
		return
	}
	dark := bg.IsDark()

	if _, ok := p.Colors[RoleBorder]; !ok {
		base, ok := p.Get(RoleSurface)
		if !ok {
			base = bg
		}
		p.Colors[RoleBorder] = base.Lighten(borderLift).WithRole(RoleBorder)
	}

	if _, ok := p.Colors[RoleTextSecondary]; !ok {
		if text, ok := p.Get(RoleText); ok {
			p.Colors[RoleTextSecondary] = text.Mix(bg, textSecondaryMix).WithRole(RoleTextSecondary)
		}
	}

	if _, ok := p.Colors[RoleError]; !ok {
		p.Colors[RoleError] = statusColor(p, RoleError, isErrorHue, errorHue, bg, dark)
	}
	if _, ok := p.Colors[RoleWarning]; !ok {
		p.Colors[RoleWarning] = statusColor(p, RoleWarning, isWarningHue, warningHue, bg, dark)
	}
}

func isErrorHue(h float64) bool   { return h < errorHueLow || h >= errorHueHigh }
func isWarningHue(h float64) bool { return h >= warningHueLow && h < warningHueHigh }

// statusColor prefers the most saturated palette color in the hue window
// and otherwise synthesizes one at the canonical hue.
func statusColor(p *Palette, role Role, inWindow func(float64) bool, hue float64, bg Color, dark bool) Color {
	var (
		best  Color
		bestS = -1.0
	)
	for _, c := range p.Ordered() {
		if c.Role == RoleBackground || c.Role == RoleSurface {
			continue
		}
		h, s, _ := c.HSL()
		if s >= minStatusSaturation && inWindow(h) && s > bestS {
			best, bestS = c, s
		}
	}

	c := FromHSL(hue, statusSaturation, lightTargetLightness, role).WithConfidence(generatedConfidence)
	switch {
	case bestS >= 0:
		c = best.WithRole(role).WithConfidence(derivedConfidence)
	case dark:
		c = FromHSL(hue, statusSaturation, darkTargetLightness, role).WithConfidence(generatedConfidence)
	}
	if dark {
		c = ensureContrast(c, bg)
	}
	return c
}

// ensureContrast lightens c in steps until it reaches minStatusContrast
// against a dark background or the step budget runs out.
func ensureContrast(c, bg Color) Color {
	h, s, l := c.HSL()
	for i := 0; i < contrastSteps && c.Contrast(bg) < minStatusContrast; i++ {
		l = math.Min(90, l+contrastStep)
		c = c.fromHSL(h, s, l)
	}
	return c
}
