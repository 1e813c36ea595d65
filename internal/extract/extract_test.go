package extract

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/cenkalti/dominantcolor"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/palette"
)

var quadrantColors = [4]color.RGBA{
	{200, 30, 30, 255},
	{30, 200, 30, 255},
	{30, 30, 200, 255},
	{230, 230, 230, 255},
}

// quadrantImage is a 40x40 image split into four solid blocks.
func quadrantImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			i := 0
			if x >= 20 {
				i++
			}
			if y >= 20 {
				i += 2
			}
			img.SetRGBA(x, y, quadrantColors[i])
		}
	}
	return img
}

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 255 / w), uint8(y * 255 / h), uint8((x + y) * 127 / (w + h)), 255})
		}
	}
	return img
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wall.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func newTestExtractor() *Extractor {
	return New(Options{Restarts: 3}, nil)
}

func TestParseMethod(t *testing.T) {
	for _, m := range Methods {
		got, err := ParseMethod(string(m))
		if err != nil || got != m {
			t.Fatalf("ParseMethod(%q) = %q, %v", m, got, err)
		}
	}
	if _, err := ParseMethod("octree"); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("ParseMethod(octree) error = %v, want ErrUnknownMethod", err)
	}
}

func TestDefaultCount(t *testing.T) {
	tests := map[Method]int{
		MethodKMeansLab:  6,
		MethodKMeansRGB:  6,
		MethodMedianCut:  8,
		MethodColorThief: 5,
		MethodAdaptive:   6,
		MethodDominant:   6,
	}
	for m, want := range tests {
		if got := m.DefaultCount(); got != want {
			t.Fatalf("%s.DefaultCount() = %d, want %d", m, got, want)
		}
	}
}

func TestThumbnail(t *testing.T) {
	src := gradientImage(400, 100)
	got := Thumbnail(src, 200)
	if got.Bounds().Dx() != 200 || got.Bounds().Dy() != 50 {
		t.Fatalf("Thumbnail() = %v, want 200x50", got.Bounds())
	}

	small := Thumbnail(quadrantImage(), 200)
	if small.Bounds().Dx() != 40 {
		t.Fatalf("Thumbnail() upscaled to %v", small.Bounds())
	}
	if small.RGBAAt(0, 0) != quadrantColors[0] {
		t.Fatalf("Thumbnail() changed pixels: %v", small.RGBAAt(0, 0))
	}
}

func TestThumbnailFlattensAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	got := Thumbnail(src, 200)
	if c := got.RGBAAt(1, 1); c != (color.RGBA{0, 0, 0, 255}) {
		t.Fatalf("transparent pixel = %v, want opaque black", c)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.png"), 200)
	if err == nil || !strings.Contains(err.Error(), "failed to load image") {
		t.Fatalf("Load() error = %v, want failed to load image", err)
	}
}

func TestMedianCut_Quadrants(t *testing.T) {
	got, err := medianCut(pixels(quadrantImage()), 4)
	if err != nil {
		t.Fatalf("medianCut() error = %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("medianCut() returned %d colors, want 4", len(got))
	}
	for _, q := range quadrantColors {
		if !slices.Contains(got, [3]uint8{q.R, q.G, q.B}) {
			t.Fatalf("medianCut() = %v, missing %v", got, q)
		}
	}
}

func TestMedianCut_FlatImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := range img.Pix {
		img.Pix[i] = 90
	}
	got, err := medianCut(pixels(img), 8)
	if err != nil {
		t.Fatalf("medianCut() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("medianCut() on flat image = %d colors, want 1", len(got))
	}

	_, err = newTestExtractor().ExtractImage(context.Background(), img, "flat", MethodMedianCut, 0)
	if !errors.Is(err, palette.ErrTooFewColors) {
		t.Fatalf("ExtractImage(flat) error = %v, want ErrTooFewColors", err)
	}
}

func TestKMeansRGB_Quadrants(t *testing.T) {
	e := newTestExtractor()
	got, err := e.kmeans(context.Background(), pixels(quadrantImage()), 4, spaceRGB)
	if err != nil {
		t.Fatalf("kmeans() error = %v", err)
	}
	for _, q := range quadrantColors {
		if !slices.Contains(got, [3]uint8{q.R, q.G, q.B}) {
			t.Fatalf("kmeans() = %v, missing %v", got, q)
		}
	}
}

func TestExtract_Deterministic(t *testing.T) {
	path := writePNG(t, gradientImage(64, 48))
	ctx := context.Background()

	for _, m := range []Method{MethodKMeansLab, MethodKMeansRGB} {
		a, err := newTestExtractor().Extract(ctx, path, m, 0)
		if err != nil {
			t.Fatalf("Extract(%s) error = %v", m, err)
		}
		b, err := newTestExtractor().Extract(ctx, path, m, 0)
		if err != nil {
			t.Fatalf("Extract(%s) error = %v", m, err)
		}
		for role, c := range a.Colors {
			if b.Colors[role].Hex() != c.Hex() {
				t.Fatalf("%s role %s = %s then %s", m, role, c.Hex(), b.Colors[role].Hex())
			}
		}
		if a.Method != string(m) {
			t.Fatalf("Method = %q, want %q", a.Method, m)
		}
		if a.Quality <= 0 || a.Quality > 1 {
			t.Fatalf("Quality = %v", a.Quality)
		}
		if _, ok := a.Get(palette.RoleError); !ok {
			t.Fatal("extended roles were not derived")
		}
	}
}

func TestExtract_UnknownMethod(t *testing.T) {
	_, err := newTestExtractor().Extract(context.Background(), "/does/not/matter.png", Method("octree"), 0)
	if !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("Extract() error = %v, want ErrUnknownMethod", err)
	}
}

func TestExtract_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestExtractor().ExtractImage(ctx, gradientImage(32, 32), "", MethodKMeansLab, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ExtractImage() error = %v, want context.Canceled", err)
	}
}

func TestAdaptive(t *testing.T) {
	p, err := newTestExtractor().ExtractImage(context.Background(), gradientImage(60, 60), "grad", MethodAdaptive, 0)
	if err != nil {
		t.Fatalf("ExtractImage(adaptive) error = %v", err)
	}
	if p.Method != string(MethodAdaptive) {
		t.Fatalf("Method = %q, want adaptive", p.Method)
	}
	if _, ok := p.Get(palette.RolePrimary); !ok {
		t.Fatal("adaptive palette has no primary")
	}
}

func TestAdaptive_Selection(t *testing.T) {
	muddy := [][3]uint8{{50, 50, 50}, {55, 55, 55}, {60, 60, 60}}
	vivid := [][3]uint8{{240, 240, 240}, {200, 40, 40}, {10, 10, 10}, {120, 130, 140}, {60, 80, 60}}
	vividCopy := slices.Clone(vivid)
	errFailed := errors.New("no colors")

	attempts := []attempt{{MethodKMeansLab, 6}, {MethodColorThief, 5}, {MethodMedianCut, 7}}
	img := quadrantImage()
	fallback, err := medianCut(pixels(img), 5)
	if err != nil {
		t.Fatalf("medianCut() error = %v", err)
	}

	tests := []struct {
		name    string
		results map[Method][][3]uint8
		want    [][3]uint8
	}{
		{
			name:    "highest score wins",
			results: map[Method][][3]uint8{MethodKMeansLab: muddy, MethodColorThief: vivid, MethodMedianCut: muddy},
			want:    vivid,
		},
		{
			name:    "tie goes to earlier attempt",
			results: map[Method][][3]uint8{MethodKMeansLab: muddy, MethodColorThief: vivid, MethodMedianCut: vividCopy},
			want:    vivid,
		},
		{
			name:    "unusable attempts are skipped",
			results: map[Method][][3]uint8{MethodKMeansLab: {{1, 2, 3}}, MethodMedianCut: muddy},
			want:    muddy,
		},
		{
			name:    "all fail falls back to median cut",
			results: map[Method][][3]uint8{},
			want:    fallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := func(_ context.Context, m Method, _ int) ([][3]uint8, error) {
				if rgbs, ok := tt.results[m]; ok {
					return rgbs, nil
				}
				return nil, errFailed
			}
			got, err := newTestExtractor().adaptiveWith(context.Background(), img, attempts, run)
			if err != nil {
				t.Fatalf("adaptiveWith() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("adaptiveWith() = %v, want %v", got, tt.want)
			}
			if len(tt.results) > 0 && len(got) > 0 && &got[0] != &tt.want[0] {
				t.Fatal("adaptiveWith() returned a different attempt's colors")
			}
		})
	}
}

func TestCacheKey(t *testing.T) {
	a := New(Options{}, nil)
	if got := a.CacheKey(MethodKMeansLab); got != "kmeans_lab@d200:s42:r10:i300" {
		t.Fatalf("CacheKey() = %q", got)
	}
	if a.CacheKey(MethodKMeansLab) == a.CacheKey(MethodMedianCut) {
		t.Fatal("CacheKey() ignores the method")
	}
	for _, opts := range []Options{{Seed: 7}, {Restarts: 3}, {MaxDimension: 400}} {
		if New(opts, nil).CacheKey(MethodKMeansLab) == a.CacheKey(MethodKMeansLab) {
			t.Fatalf("CacheKey() ignores options %+v", opts)
		}
	}
}

func TestSubsample(t *testing.T) {
	full := make([][3]uint8, defaultMaxDimension*defaultMaxDimension)
	if got := subsample(full, maxSamples); len(got) != len(full) {
		t.Fatalf("subsample(200x200) = %d pixels, want every pixel", len(got))
	}
	large := make([][3]uint8, 400*300)
	if got := subsample(large, maxSamples); len(got) > maxSamples || len(got) < maxSamples/2 {
		t.Fatalf("subsample(400x300) = %d pixels, want at most %d", len(got), maxSamples)
	}
}

func TestSelectDiverse(t *testing.T) {
	candidates := []dominantcolor.Color{
		{RGBA: color.RGBA{200, 20, 20, 255}, Weight: 0.5},
		{RGBA: color.RGBA{190, 25, 25, 255}, Weight: 0.3},
		{RGBA: color.RGBA{20, 20, 200, 255}, Weight: 0.2},
	}
	got := selectDiverse(candidates, 2)
	want := [][3]uint8{{200, 20, 20}, {20, 20, 200}}
	if !slices.Equal(got, want) {
		t.Fatalf("selectDiverse() = %v, want %v", got, want)
	}
	if got := selectDiverse(candidates, 10); len(got) != 3 {
		t.Fatalf("selectDiverse() with n > candidates = %d colors, want 3", len(got))
	}
}

func TestCompare(t *testing.T) {
	path := writePNG(t, quadrantImage())
	cmp, err := newTestExtractor().Compare(context.Background(), path)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(cmp.Results) != len(CompareMethods) {
		t.Fatalf("Compare() results = %d, want %d", len(cmp.Results), len(CompareMethods))
	}
	if len(cmp.Ranking) == 0 || cmp.Best != cmp.Ranking[0] {
		t.Fatalf("Compare() best = %q ranking = %v", cmp.Best, cmp.Ranking)
	}

	quality := map[Method]float64{}
	for _, r := range cmp.Results {
		quality[r.Method] = r.Quality
		if r.Err != nil {
			continue
		}
		want := r.Palette.ValidateContrast()
		if len(r.ContrastRatios) != len(want) || r.ContrastRatios["text_on_background"] != want["text_on_background"] {
			t.Fatalf("%s contrast ratios = %v, want %v", r.Method, r.ContrastRatios, want)
		}
	}
	for i := 1; i < len(cmp.Ranking); i++ {
		if quality[cmp.Ranking[i-1]] < quality[cmp.Ranking[i]] {
			t.Fatalf("ranking not sorted by quality: %v", cmp.Ranking)
		}
	}
}
