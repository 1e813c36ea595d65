package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/wallpaper"
)

type cell struct {
	wall  wallpaper.Wallpaper
	image *canvas.Image
	btn   *widget.Button
}

// thumbnailGrid lays out one cell per wallpaper. Images are filled in as
// their thumbnails become available.
type thumbnailGrid struct {
	cells     []*cell
	container *fyne.Container
}

func newThumbnailGrid(walls []wallpaper.Wallpaper, size float32, onSelect func(wallpaper.Wallpaper)) *thumbnailGrid {
	g := &thumbnailGrid{container: container.NewGridWrap(fyne.NewSize(size, size+40))}
	for _, w := range walls {
		c := &cell{wall: w, image: &canvas.Image{FillMode: canvas.ImageFillContain}}
		c.image.SetMinSize(fyne.NewSize(size, size))
		c.btn = widget.NewButton(w.DisplayName(), func() { onSelect(c.wall) })
		c.btn.Importance = widget.LowImportance
		g.cells = append(g.cells, c)
		g.container.Add(container.NewBorder(nil, c.btn, nil, nil, c.image))
	}
	return g
}

// SetThumbnail shows the image at file for the wallpaper at path.
func (g *thumbnailGrid) SetThumbnail(path, file string) {
	for _, c := range g.cells {
		if c.wall.Path == path {
			c.image.File = file
			c.image.Refresh()
		}
	}
}

// Select highlights the cell for path.
func (g *thumbnailGrid) Select(path string) {
	for _, c := range g.cells {
		if c.wall.Path == path {
			c.btn.Importance = widget.HighImportance
		} else {
			c.btn.Importance = widget.LowImportance
		}
		c.btn.Refresh()
	}
}
