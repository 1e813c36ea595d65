package palette

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Quality weights. They sum to 1.
const (
	weightContrast   = 0.30
	weightDiversity  = 0.25
	weightSaturation = 0.20
	weightLuminance  = 0.15
	weightConfidence = 0.10

	// maxLabDistance normalises mean pairwise CIELab distance.
	maxLabDistance = 100.0
	// maxSaturationStd normalises the spread of HSL saturation percentages.
	maxSaturationStd = 50.0
)

// QualityBreakdown holds the individual components of a quality score.
type QualityBreakdown struct {
	Contrast   float64 `json:"contrast"`
	Diversity  float64 `json:"diversity"`
	Saturation float64 `json:"saturation"`
	Luminance  float64 `json:"luminance"`
	Confidence float64 `json:"confidence"`
	Total      float64 `json:"total"`
}

// Quality scores p in [0,1]; higher means a more usable theme.
func Quality(p *Palette) float64 {
	return ScoreBreakdown(p).Total
}

// ScoreBreakdown computes every quality component for p.
func ScoreBreakdown(p *Palette) QualityBreakdown {
	colors := p.Ordered()

	textContrast, ok := p.ValidateContrast()["text_on_background"]
	if !ok {
		textContrast = 1.0
	}

	b := QualityBreakdown{
		Contrast:   math.Min(1, textContrast/AccessibleContrast),
		Diversity:  colorDiversity(colors),
		Saturation: saturationBalance(colors),
		Luminance:  luminanceDistribution(colors),
		Confidence: meanConfidence(colors),
	}
	total := b.Contrast*weightContrast +
		b.Diversity*weightDiversity +
		b.Saturation*weightSaturation +
		b.Luminance*weightLuminance +
		b.Confidence*weightConfidence
	b.Total = math.Max(0, math.Min(1, total))
	return b
}

func colorDiversity(colors []Color) float64 {
	if len(colors) < 2 {
		return 0
	}
	labs := make([][3]float64, len(colors))
	for i, c := range colors {
		l, a, bb := c.Lab()
		labs[i] = [3]float64{l, a, bb}
	}

	var total float64
	var n int
	for i := range labs {
		for j := i + 1; j < len(labs); j++ {
			total += math.Sqrt(sq(labs[i][0]-labs[j][0]) + sq(labs[i][1]-labs[j][1]) + sq(labs[i][2]-labs[j][2]))
			n++
		}
	}
	return math.Min(1, total/float64(n)/maxLabDistance)
}

func saturationBalance(colors []Color) float64 {
	if len(colors) == 0 {
		return 0
	}
	sats := make([]float64, len(colors))
	for i, c := range colors {
		_, sats[i], _ = c.HSL()
	}
	return math.Min(1, stat.PopStdDev(sats, nil)/maxSaturationStd)
}

func luminanceDistribution(colors []Color) float64 {
	if len(colors) == 0 {
		return 0
	}
	lums := make([]float64, len(colors))
	for i, c := range colors {
		lums[i] = c.Luminance()
	}
	spread := floats.Max(lums) - floats.Min(lums)
	std := math.Min(1, stat.PopStdDev(lums, nil)*2)
	return (spread + std) / 2
}

func meanConfidence(colors []Color) float64 {
	if len(colors) == 0 {
		return 0
	}
	conf := make([]float64, len(colors))
	for i, c := range colors {
		conf[i] = c.Confidence
	}
	return stat.Mean(conf, nil)
}

func sq(v float64) float64 { return v * v }
