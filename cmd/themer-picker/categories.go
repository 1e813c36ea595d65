package main

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

var barBgColor = color.NRGBA{R: 30, G: 30, B: 30, A: 230}

// newCategoryBar shows one button per category with the selected one
// highlighted. It is rebuilt on every selection change.
func newCategoryBar(categories []string, selected int, onSelect func(int)) fyne.CanvasObject {
	buttons := make([]fyne.CanvasObject, len(categories))
	for i, c := range categories {
		idx := i
		btn := widget.NewButton(c, func() {
			onSelect(idx)
		})
		if i == selected {
			btn.Importance = widget.HighImportance
		}
		buttons[idx] = btn
	}
	row := container.NewHScroll(container.New(layout.NewHBoxLayout(), buttons...))
	bg := canvas.NewRectangle(barBgColor)
	return container.NewStack(bg, container.NewPadded(row))
}
