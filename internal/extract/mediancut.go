package extract

import (
	"slices"
)

type colorBox struct {
	px [][3]uint8
}

// widest returns the channel with the largest range and that range.
func (b colorBox) widest() (int, int) {
	lo := [3]uint8{255, 255, 255}
	var hi [3]uint8
	for _, p := range b.px {
		for c := 0; c < 3; c++ {
			lo[c] = min(lo[c], p[c])
			hi[c] = max(hi[c], p[c])
		}
	}
	channel, span := 0, -1
	for c := 0; c < 3; c++ {
		if s := int(hi[c]) - int(lo[c]); s > span {
			channel, span = c, s
		}
	}
	return channel, span
}

func (b colorBox) mean() [3]uint8 {
	var sum [3]int
	for _, p := range b.px {
		for c := 0; c < 3; c++ {
			sum[c] += int(p[c])
		}
	}
	n := len(b.px)
	return [3]uint8{uint8(sum[0] / n), uint8(sum[1] / n), uint8(sum[2] / n)}
}

// medianCut splits RGB space into up to n boxes, always cutting the box with
// the largest span weighted by population. Images with fewer than n distinct
// regions return fewer colors.
func medianCut(px [][3]uint8, n int) ([][3]uint8, error) {
	if len(px) == 0 {
		return nil, errNoPixels
	}

	boxes := []colorBox{{px: slices.Clone(px)}}
	for len(boxes) < n {
		pick, pickChannel, bestScore := -1, 0, 0
		for i, b := range boxes {
			if len(b.px) < 2 {
				continue
			}
			channel, span := b.widest()
			if score := span * len(b.px); span > 0 && score > bestScore {
				pick, pickChannel, bestScore = i, channel, score
			}
		}
		if pick < 0 {
			break
		}

		b := boxes[pick]
		slices.SortStableFunc(b.px, func(x, y [3]uint8) int {
			return int(x[pickChannel]) - int(y[pickChannel])
		})
		mid := len(b.px) / 2
		boxes[pick] = colorBox{px: b.px[:mid]}
		boxes = append(boxes, colorBox{px: b.px[mid:]})
	}

	slices.SortStableFunc(boxes, func(a, b colorBox) int {
		return len(b.px) - len(a.px)
	})
	out := make([][3]uint8, 0, len(boxes))
	for _, b := range boxes {
		out = append(out, b.mean())
	}
	return out, nil
}
