package extract

import (
	"context"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/palette"
)

type attempt struct {
	method Method
	n      int
}

var adaptiveAttempts = []attempt{
	{MethodKMeansLab, 6},
	{MethodColorThief, 5},
	{MethodMedianCut, 7},
}

// attemptFunc extracts n colors with method m from an already bound image.
type attemptFunc func(ctx context.Context, m Method, n int) ([][3]uint8, error)

// adaptive runs several methods and keeps the colors of the one whose
// palette scores best. Ties go to the earlier attempt.
func (e *Extractor) adaptive(ctx context.Context, img *image.RGBA) ([][3]uint8, error) {
	run := func(ctx context.Context, m Method, n int) ([][3]uint8, error) {
		return e.colors(ctx, img, m, n)
	}
	return e.adaptiveWith(ctx, img, adaptiveAttempts, run)
}

func (e *Extractor) adaptiveWith(ctx context.Context, img *image.RGBA, attempts []attempt, run attemptFunc) ([][3]uint8, error) {
	type result struct {
		colors [][3]uint8
		score  float64
		ok     bool
	}
	results := make([]result, len(attempts))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range attempts {
		g.Go(func() error {
			rgbs, err := run(gctx, a.method, a.n)
			if err != nil {
				e.logger.Debug("adaptive attempt failed", "method", a.method, "err", err)
				return nil
			}
			p, err := palette.FromColors(rgbs, "")
			if err != nil {
				e.logger.Debug("adaptive attempt unusable", "method", a.method, "err", err)
				return nil
			}
			results[i] = result{colors: rgbs, score: palette.Quality(p), ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	best := -1
	for i, r := range results {
		if r.ok && (best < 0 || r.score > results[best].score) {
			best = i
		}
	}
	if best < 0 {
		e.logger.Warn("all adaptive attempts failed, using median cut")
		return medianCut(pixels(img), 5)
	}
	e.logger.Debug("adaptive picked method", "method", attempts[best].method, "score", results[best].score)
	return results[best].colors, nil
}
