package extract

import (
	"image"

	"github.com/EdlinOrg/prominentcolor"
)

const prominentResize = 80

// colorThief picks the most prominent colors with prominentcolor's k-means,
// falling back to median cut when it cannot produce any.
func (e *Extractor) colorThief(img *image.RGBA, n int) ([][3]uint8, error) {
	items, err := prominentcolor.KmeansWithAll(n, img, prominentcolor.ArgumentNoCropping, prominentResize, prominentcolor.GetDefaultMasks())
	if err != nil || len(items) == 0 {
		e.logger.Warn("prominent color extraction failed, using median cut", "err", err)
		return medianCut(pixels(img), n)
	}

	out := make([][3]uint8, 0, len(items))
	for _, it := range items {
		out = append(out, [3]uint8{uint8(it.Color.R), uint8(it.Color.G), uint8(it.Color.B)})
	}
	if n == 1 {
		return out[:1], nil
	}
	return out, nil
}
