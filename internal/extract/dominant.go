package extract

import (
	"image"
	"math"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
)

// dominant draws a wide candidate set from dominantcolor and keeps the n
// that are far apart in Lab space, favoring heavily weighted ones.
func dominant(img *image.RGBA, n int) ([][3]uint8, error) {
	candidates := dominantcolor.FindWeight(img, max(24, n*8))
	if len(candidates) == 0 {
		return nil, errNoColors
	}
	return selectDiverse(candidates, n), nil
}

func selectDiverse(candidates []dominantcolor.Color, n int) [][3]uint8 {
	type cand struct {
		lab    [3]float64
		rgb    [3]uint8
		weight float64
	}

	var maxW float64
	cs := make([]cand, len(candidates))
	for i, c := range candidates {
		col := colorful.Color{R: float64(c.RGBA.R) / 255, G: float64(c.RGBA.G) / 255, B: float64(c.RGBA.B) / 255}
		l, a, b := col.Lab()
		cs[i] = cand{lab: [3]float64{l, a, b}, rgb: [3]uint8{c.RGBA.R, c.RGBA.G, c.RGBA.B}, weight: c.Weight}
		maxW = math.Max(maxW, c.Weight)
	}

	used := make([]bool, len(cs))
	seed := 0
	for i, c := range cs {
		if c.weight > cs[seed].weight {
			seed = i
		}
	}
	used[seed] = true
	out := [][3]uint8{cs[seed].rgb}

	minD2 := make([]float64, len(cs))
	for i := range cs {
		minD2[i] = labDist2(cs[i].lab, cs[seed].lab)
	}

	for len(out) < n {
		pick, bestScore := -1, -1.0
		for i, c := range cs {
			if used[i] {
				continue
			}
			w := 0.0
			if maxW > 0 {
				w = c.weight / maxW
			}
			score := math.Sqrt(minD2[i]) * (0.55 + 0.45*math.Sqrt(w))
			if score > bestScore {
				pick, bestScore = i, score
			}
		}
		if pick < 0 {
			break
		}
		used[pick] = true
		out = append(out, cs[pick].rgb)
		for i := range cs {
			minD2[i] = math.Min(minD2[i], labDist2(cs[i].lab, cs[pick].lab))
		}
	}
	return out
}

func labDist2(a, b [3]float64) float64 {
	dl, da, db := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dl*dl + da*da + db*db
}
