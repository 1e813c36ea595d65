package wallpaper

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/extract"
)

const (
	DefaultThumbnailSize = 200
	thumbnailQuality     = 80
)

// ThumbnailPath is where the thumbnail for src is cached.
func ThumbnailPath(cacheDir, src string) string {
	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(cacheDir, name+"_thumb.jpg")
}

// Thumbnail writes a size x size center-cropped JPEG of src into cacheDir.
// An existing thumbnail newer than src is reused.
func Thumbnail(cacheDir, src string, size int) (string, error) {
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	dst := ThumbnailPath(cacheDir, src)

	srcInfo, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("stat wallpaper: %w", err)
	}
	if info, err := os.Stat(dst); err == nil && info.ModTime().After(srcInfo.ModTime()) {
		return dst, nil
	}

	img, err := extract.Decode(src)
	if err != nil {
		return "", err
	}
	thumb := cropSquare(img, size)

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create thumbnail directory: %w", err)
	}
	tmp, err := os.CreateTemp(cacheDir, ".thumb-*.jpg")
	if err != nil {
		return "", fmt.Errorf("create thumbnail: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := jpeg.Encode(tmp, thumb, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close thumbnail: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return "", fmt.Errorf("replace thumbnail: %w", err)
	}
	return dst, nil
}

// cropSquare takes the centered square of src and scales it to size.
func cropSquare(src image.Image, size int) *image.RGBA {
	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	return dst
}
