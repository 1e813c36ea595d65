package extract

import (
	"context"
	"slices"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/palette"
)

// CompareMethods are the methods Compare evaluates, in report order.
var CompareMethods = []Method{MethodKMeansLab, MethodKMeansRGB, MethodMedianCut, MethodColorThief}

// MethodResult is one row of a comparison.
type MethodResult struct {
	Method         Method             `json:"method"`
	Palette        *palette.Palette   `json:"-"`
	Quality        float64            `json:"quality"`
	ColorCount     int                `json:"color_count"`
	Accessible     bool               `json:"accessibility_compliant"`
	ContrastRatios map[string]float64 `json:"contrast_ratios,omitempty"`
	Err            error              `json:"-"`
	Error          string             `json:"error,omitempty"`
}

// Comparison ranks extraction methods on one image.
type Comparison struct {
	Source  string         `json:"source_image"`
	Results []MethodResult `json:"results"`
	Ranking []Method       `json:"ranking"`
	Best    Method         `json:"best_method"`
}

// Compare extracts a palette with each of CompareMethods and ranks them by
// quality. Failed methods are reported but not ranked.
func (e *Extractor) Compare(ctx context.Context, path string) (*Comparison, error) {
	img, err := Load(path, e.opts.MaxDimension)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{Source: path}
	for _, m := range CompareMethods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := MethodResult{Method: m}
		p, err := e.ExtractImage(ctx, img, path, m, 0)
		if err != nil {
			r.Err, r.Error = err, err.Error()
		} else {
			r.Palette = p
			r.Quality = p.Quality
			r.ColorCount = len(p.Colors)
			r.Accessible = p.MeetsAccessibility()
			r.ContrastRatios = p.ValidateContrast()
		}
		cmp.Results = append(cmp.Results, r)
	}

	ranked := make([]MethodResult, 0, len(cmp.Results))
	for _, r := range cmp.Results {
		if r.Err == nil {
			ranked = append(ranked, r)
		}
	}
	slices.SortStableFunc(ranked, func(a, b MethodResult) int {
		switch {
		case a.Quality > b.Quality:
			return -1
		case a.Quality < b.Quality:
			return 1
		}
		return 0
	})
	for _, r := range ranked {
		cmp.Ranking = append(cmp.Ranking, r.Method)
	}
	if len(cmp.Ranking) > 0 {
		cmp.Best = cmp.Ranking[0]
	}
	return cmp, nil
}
