package palette

import (
	"fmt"
	"sort"
)

// ColorEntry is the serialized form of one role.
type ColorEntry struct {
	Hex        string     `json:"hex" yaml:"hex" toml:"hex"`
	RGB        [3]int     `json:"rgb" yaml:"rgb" toml:"rgb"`
	HSL        [3]float64 `json:"hsl" yaml:"hsl" toml:"hsl"`
	Confidence float64    `json:"confidence" yaml:"confidence" toml:"confidence"`
}

// Metadata describes how a palette was produced.
type Metadata struct {
	SourceImage            string             `json:"source_image" yaml:"source_image" toml:"source_image"`
	ExtractionMethod       string             `json:"extraction_method" yaml:"extraction_method" toml:"extraction_method"`
	QualityScore           float64            `json:"quality_score" yaml:"quality_score" toml:"quality_score"`
	ContrastRatios         map[string]float64 `json:"contrast_ratios" yaml:"contrast_ratios" toml:"contrast_ratios"`
	AccessibilityCompliant bool               `json:"accessibility_compliant" yaml:"accessibility_compliant" toml:"accessibility_compliant"`
}

// Document is the portable representation of a palette.
type Document struct {
	Colors   map[string]ColorEntry `json:"colors" yaml:"colors" toml:"colors"`
	Metadata Metadata              `json:"metadata" yaml:"metadata" toml:"metadata"`
}

// Document converts the palette into its serializable form.
func (p *Palette) Document() Document {
	doc := Document{
		Colors: make(map[string]ColorEntry, len(p.Colors)),
		Metadata: Metadata{
			SourceImage:            p.SourceImage,
			ExtractionMethod:       p.Method,
			QualityScore:           p.Quality,
			ContrastRatios:         p.ValidateContrast(),
			AccessibilityCompliant: p.MeetsAccessibility(),
		},
	}
	for role, c := range p.Colors {
		h, s, l := c.HSL()
		doc.Colors[string(role)] = ColorEntry{
			Hex:        c.Hex(),
			RGB:        [3]int{int(c.R), int(c.G), int(c.B)},
			HSL:        [3]float64{h, s, l},
			Confidence: c.Confidence,
		}
	}
	return doc
}

// Palette rebuilds a palette from a document, e.g. one read back from history.
func (d Document) Palette() (*Palette, error) {
	roles := make([]string, 0, len(d.Colors))
	for r := range d.Colors {
		roles = append(roles, r)
	}
	sort.Strings(roles)

	colors := make(map[Role]Color, len(d.Colors))
	for _, r := range roles {
		entry := d.Colors[r]
		c, err := ParseHex(entry.Hex, Role(r))
		if err != nil {
			return nil, fmt.Errorf("decode role %s: %w", r, err)
		}
		colors[Role(r)] = c.WithConfidence(entry.Confidence)
	}
	p, err := New(colors, d.Metadata.SourceImage, d.Metadata.ExtractionMethod)
	if err != nil {
		return nil, err
	}
	p.Quality = d.Metadata.QualityScore
	return p, nil
}
