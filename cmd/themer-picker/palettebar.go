package main

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/palette"
)

var (
	colorEmptySwatch = color.NRGBA{R: 60, G: 60, B: 60, A: 255}
	colorWhiteLabel  = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	colorAccentText  = color.NRGBA{R: 77, G: 191, B: 102, A: 255}
)

type swatch struct {
	rect *canvas.Rectangle
	hex  *canvas.Text
}

type paletteBar struct {
	swatches  map[palette.Role]swatch
	quality   *canvas.Text
	method    *canvas.Text
	container fyne.CanvasObject
}

func newPaletteBar() *paletteBar {
	b := &paletteBar{
		swatches: make(map[palette.Role]swatch, len(palette.Roles)),
		quality:  newStatText("--"),
		method:   newStatText("--"),
	}

	row := []fyne.CanvasObject{
		container.NewVBox(newLabelText("Quality"), b.quality),
		container.NewVBox(newLabelText("Method"), b.method),
		layout.NewSpacer(),
	}
	for _, role := range palette.Roles {
		rect := canvas.NewRectangle(colorEmptySwatch)
		rect.SetMinSize(fyne.NewSize(56, 28))
		rect.CornerRadius = 4
		hex := newLabelText("")
		b.swatches[role] = swatch{rect: rect, hex: hex}
		row = append(row, container.NewVBox(newLabelText(string(role)), rect, hex))
	}

	bg := canvas.NewRectangle(barBgColor)
	scroll := container.NewHScroll(container.New(layout.NewHBoxLayout(), row...))
	b.container = container.NewStack(bg, container.NewPadded(scroll))
	return b
}

func toNRGBA(c palette.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// Update shows p; nil clears the bar.
func (b *paletteBar) Update(p *palette.Palette) {
	if p == nil {
		b.quality.Text = "--"
		b.method.Text = "--"
	} else {
		b.quality.Text = fmt.Sprintf("%.2f", p.Quality)
		b.method.Text = p.Method
	}
	b.quality.Refresh()
	b.method.Refresh()

	for role, s := range b.swatches {
		s.rect.FillColor = colorEmptySwatch
		s.hex.Text = ""
		if p != nil {
			if c, ok := p.Get(role); ok {
				s.rect.FillColor = toNRGBA(c)
				s.hex.Text = c.Hex()
			}
		}
		s.rect.Refresh()
		s.hex.Refresh()
	}
}

func newStatText(text string) *canvas.Text {
	t := canvas.NewText(text, colorAccentText)
	t.TextSize = 18
	t.TextStyle = fyne.TextStyle{Bold: true}
	return t
}

func newLabelText(text string) *canvas.Text {
	t := canvas.NewText(text, colorWhiteLabel)
	t.TextSize = 12
	return t
}
