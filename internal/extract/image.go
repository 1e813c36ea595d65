package extract

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode reads any supported image format from path.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	return src, nil
}

// Load decodes the image at path and downsizes it to fit maxDim x maxDim.
func Load(path string, maxDim int) (*image.RGBA, error) {
	src, err := Decode(path)
	if err != nil {
		return nil, err
	}
	return Thumbnail(src, maxDim), nil
}

// Thumbnail scales src to fit within maxDim on both axes, keeping the aspect
// ratio and never upscaling. Transparent areas are flattened onto black.
func Thumbnail(src image.Image, maxDim int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim > 0 && (w > maxDim || h > maxDim) {
		scale := math.Min(float64(maxDim)/float64(w), float64(maxDim)/float64(h))
		w = max(1, int(math.Round(float64(w)*scale)))
		h = max(1, int(math.Round(float64(h)*scale)))
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}
	return dst
}

// pixels returns the RGB triples of an opaque RGBA image in row order.
func pixels(img *image.RGBA) [][3]uint8 {
	b := img.Bounds()
	out := make([][3]uint8, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			out = append(out, [3]uint8{row[x*4], row[x*4+1], row[x*4+2]})
		}
	}
	return out
}
