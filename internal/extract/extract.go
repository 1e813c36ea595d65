package extract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/palette"
)

// Method names an extraction algorithm.
type Method string

const (
	MethodKMeansLab  Method = "kmeans_lab"
	MethodKMeansRGB  Method = "kmeans_rgb"
	MethodMedianCut  Method = "median_cut"
	MethodColorThief Method = "colorthief"
	MethodDominant   Method = "dominant"
	MethodAdaptive   Method = "adaptive"
)

// Methods lists every selectable method.
var Methods = []Method{
	MethodKMeansLab,
	MethodKMeansRGB,
	MethodMedianCut,
	MethodColorThief,
	MethodDominant,
	MethodAdaptive,
}

var (
	ErrUnknownMethod = errors.New("unknown extraction method")
	errNoPixels      = errors.New("image has no pixels")
	errNoColors      = errors.New("no colors found")
)

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	for _, m := range Methods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownMethod, s)
}

// DefaultCount is the number of colors a method extracts when none is given.
func (m Method) DefaultCount() int {
	switch m {
	case MethodMedianCut:
		return 8
	case MethodColorThief:
		return 5
	default:
		return 6
	}
}

// Options tune extraction. Zero fields take defaults.
type Options struct {
	MaxDimension  int
	Seed          int64
	Restarts      int
	MaxIterations int
}

const (
	defaultMaxDimension  = 200
	defaultSeed          = 42
	defaultRestarts      = 10
	defaultMaxIterations = 300
)

func (o Options) withDefaults() Options {
	if o.MaxDimension <= 0 {
		o.MaxDimension = defaultMaxDimension
	}
	if o.Seed == 0 {
		o.Seed = defaultSeed
	}
	if o.Restarts <= 0 {
		o.Restarts = defaultRestarts
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = defaultMaxIterations
	}
	return o
}

// Extractor turns images into role-assigned palettes.
type Extractor struct {
	opts   Options
	logger *slog.Logger
}

// New creates an extractor.
func New(opts Options, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{opts: opts.withDefaults(), logger: logger.With("topic", "extract")}
}

// CacheKey identifies the output of method under the extractor's options,
// so cached palettes are not reused after the options change.
func (e *Extractor) CacheKey(method Method) string {
	o := e.opts
	return fmt.Sprintf("%s@d%d:s%d:r%d:i%d", method, o.MaxDimension, o.Seed, o.Restarts, o.MaxIterations)
}

// Extract loads path and builds a palette with method. n <= 0 uses the
// method's default count.
func (e *Extractor) Extract(ctx context.Context, path string, method Method, n int) (*palette.Palette, error) {
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	img, err := Load(path, e.opts.MaxDimension)
	if err != nil {
		return nil, err
	}
	return e.ExtractImage(ctx, img, path, method, n)
}

// ExtractImage is Extract for an already decoded and downscaled image.
func (e *Extractor) ExtractImage(ctx context.Context, img *image.RGBA, source string, method Method, n int) (*palette.Palette, error) {
	if n <= 0 {
		n = method.DefaultCount()
	}

	rgbs, err := e.colors(ctx, img, method, n)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := palette.FromColors(rgbs, source)
	if err != nil {
		return nil, err
	}
	p.Method = string(method)
	p.Quality = palette.Quality(p)
	palette.DeriveExtended(p)

	e.logger.Info("palette extracted",
		"source", source,
		"method", method,
		"colors", len(rgbs),
		"quality", fmt.Sprintf("%.3f", p.Quality))
	return p, nil
}

func (e *Extractor) colors(ctx context.Context, img *image.RGBA, method Method, n int) ([][3]uint8, error) {
	switch method {
	case MethodKMeansLab:
		return e.kmeans(ctx, pixels(img), n, spaceLab)
	case MethodKMeansRGB:
		return e.kmeans(ctx, pixels(img), n, spaceRGB)
	case MethodMedianCut:
		return medianCut(pixels(img), n)
	case MethodColorThief:
		return e.colorThief(img, n)
	case MethodDominant:
		return dominant(img, n)
	case MethodAdaptive:
		return e.adaptive(ctx, img)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}
