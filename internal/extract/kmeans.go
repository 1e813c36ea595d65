package extract

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"gonum.org/v1/gonum/stat"
)

type colorSpace int

const (
	spaceRGB colorSpace = iota
	spaceLab
)

const (
	// maxSamples bounds the observations fed to Lloyd iterations. It covers
	// every pixel of a default-size thumbnail; only a larger
	// extraction.max_dimension is strided down to it.
	maxSamples = defaultMaxDimension * defaultMaxDimension
	// relTolerance is scaled by the mean per-dimension variance of the data.
	relTolerance = 1e-4
)

// kmeans clusters px into k colors. Seeding is k-means++ from a fixed seed,
// and the best of Restarts runs by inertia wins, so results are repeatable.
func (e *Extractor) kmeans(ctx context.Context, px [][3]uint8, k int, space colorSpace) ([][3]uint8, error) {
	if len(px) == 0 {
		return nil, errNoPixels
	}

	data := observations(subsample(px, maxSamples), space)
	rng := rand.New(rand.NewPCG(uint64(e.opts.Seed), 0))
	tol := relTolerance * meanVariance(data)

	var (
		best        clusters.Clusters
		bestInertia = math.Inf(1)
	)
	for run := 0; run < e.opts.Restarts; run++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cc := seedPlusPlus(data, min(k, len(data)), rng)
		inertia := lloyd(cc, data, e.opts.MaxIterations, tol)
		if inertia < bestInertia {
			best, bestInertia = cc, inertia
		}
	}

	// Most populated clusters first.
	slices.SortStableFunc(best, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	out := make([][3]uint8, 0, len(best))
	for _, c := range best {
		out = append(out, centerToRGB(c.Center, space))
	}
	e.logger.Debug("kmeans converged", "k", len(best), "samples", len(data), "inertia", bestInertia)
	return out, nil
}

func subsample(px [][3]uint8, limit int) [][3]uint8 {
	if len(px) <= limit {
		return px
	}
	step := (len(px) + limit - 1) / limit
	out := make([][3]uint8, 0, limit)
	for i := 0; i < len(px); i += step {
		out = append(out, px[i])
	}
	return out
}

func observations(px [][3]uint8, space colorSpace) clusters.Observations {
	out := make(clusters.Observations, len(px))
	for i, p := range px {
		if space == spaceLab {
			l, a, b := colorful.Color{R: float64(p[0]) / 255, G: float64(p[1]) / 255, B: float64(p[2]) / 255}.Lab()
			out[i] = clusters.Coordinates{l, a, b}
			continue
		}
		out[i] = clusters.Coordinates{float64(p[0]), float64(p[1]), float64(p[2])}
	}
	return out
}

func centerToRGB(center clusters.Coordinates, space colorSpace) [3]uint8 {
	if space == spaceLab {
		c := colorful.Lab(center[0], center[1], center[2]).Clamped()
		return [3]uint8{uint8(c.R * 255), uint8(c.G * 255), uint8(c.B * 255)}
	}
	var out [3]uint8
	for i := range out {
		out[i] = uint8(math.Max(0, math.Min(255, center[i])))
	}
	return out
}

func meanVariance(data clusters.Observations) float64 {
	dims := len(data[0].Coordinates())
	col := make([]float64, len(data))
	var total float64
	for d := 0; d < dims; d++ {
		for i, o := range data {
			col[i] = o.Coordinates()[d]
		}
		total += stat.PopVariance(col, nil)
	}
	return total / float64(dims)
}

// seedPlusPlus picks k initial centers, each drawn with probability
// proportional to its squared distance from the nearest chosen center.
func seedPlusPlus(data clusters.Observations, k int, rng *rand.Rand) clusters.Clusters {
	cc := make(clusters.Clusters, 0, k)
	first := slices.Clone(data[rng.IntN(len(data))].Coordinates())
	cc = append(cc, clusters.Cluster{Center: first})

	dist := make([]float64, len(data))
	for i, o := range data {
		dist[i] = o.Distance(first)
	}

	for len(cc) < k {
		var sum float64
		for _, d := range dist {
			sum += d
		}

		idx := rng.IntN(len(data))
		if sum > 0 {
			r := rng.Float64() * sum
			for i, d := range dist {
				if d == 0 {
					continue
				}
				idx = i
				r -= d
				if r <= 0 {
					break
				}
			}
		}

		center := slices.Clone(data[idx].Coordinates())
		cc = append(cc, clusters.Cluster{Center: center})
		for i, o := range data {
			if d := o.Distance(center); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return cc
}

// lloyd refines cc in place and returns the final inertia.
func lloyd(cc clusters.Clusters, data clusters.Observations, maxIter int, tol float64) float64 {
	for it := 0; it < maxIter; it++ {
		assign(cc, data)
		var shift float64
		for i := range cc {
			prev := cc[i].Center
			cc[i].Recenter()
			shift += prev.Distance(cc[i].Center)
		}
		if shift <= tol {
			break
		}
	}

	assign(cc, data)
	var inertia float64
	for _, c := range cc {
		for _, o := range c.Observations {
			inertia += o.Distance(c.Center)
		}
	}
	return inertia
}

func assign(cc clusters.Clusters, data clusters.Observations) {
	cc.Reset()
	for _, o := range data {
		n := cc.Nearest(o)
		cc[n].Append(o)
	}
}
