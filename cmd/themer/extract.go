package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/extract"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOML = "toml"
)

type methodView struct {
	Method         string             `json:"method" yaml:"method" toml:"method"`
	Quality        float64            `json:"quality_score" yaml:"quality_score" toml:"quality_score"`
	Accessible     bool               `json:"accessibility_compliant" yaml:"accessibility_compliant" toml:"accessibility_compliant"`
	ContrastRatios map[string]float64 `json:"contrast_ratios,omitempty" yaml:"contrast_ratios,omitempty" toml:"contrast_ratios,omitempty"`
	Colors         []string           `json:"colors,omitempty" yaml:"colors,omitempty" toml:"colors,omitempty"`
	Error          string             `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
}

type comparisonView struct {
	Source  string       `json:"source_image" yaml:"source_image" toml:"source_image"`
	Best    string       `json:"best_method" yaml:"best_method" toml:"best_method"`
	Ranking []string     `json:"ranking" yaml:"ranking" toml:"ranking"`
	Methods []methodView `json:"methods" yaml:"methods" toml:"methods"`
}

func newComparisonView(c *extract.Comparison) comparisonView {
	v := comparisonView{Source: c.Source, Best: string(c.Best), Ranking: []string{}}
	for _, m := range c.Ranking {
		v.Ranking = append(v.Ranking, string(m))
	}
	for _, r := range c.Results {
		mv := methodView{
			Method:         string(r.Method),
			Quality:        r.Quality,
			Accessible:     r.Accessible,
			ContrastRatios: r.ContrastRatios,
			Error:          r.Error,
		}
		if r.Palette != nil {
			for _, col := range r.Palette.Ordered() {
				mv.Colors = append(mv.Colors, col.Hex())
			}
		}
		v.Methods = append(v.Methods, mv)
	}
	return v
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case formatTOML:
		return toml.NewEncoder(w).Encode(v)
	}
	return fmt.Errorf("unknown format %q (want text, json, yaml or toml)", format)
}

func newExtractCmd(a *app) *cobra.Command {
	var (
		compare bool
		method  string
		count   int
		format  string
	)
	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Extract colors from an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			switch format {
			case formatText, formatJSON, formatYAML, formatTOML:
			default:
				return fmt.Errorf("unknown format %q (want text, json, yaml or toml)", format)
			}
			w := cmd.OutOrStdout()
			ex := a.extractor()

			if compare {
				c, err := ex.Compare(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("analysis failed: %w", err)
				}
				view := newComparisonView(c)
				if format != formatText {
					return encode(w, format, view)
				}
				printComparison(w, view)
				return nil
			}

			m, err := a.method(method)
			if err != nil {
				return err
			}
			p, err := ex.Extract(cmd.Context(), args[0], m, count)
			if err != nil {
				return fmt.Errorf("extraction failed: %w", err)
			}
			if format != formatText {
				return encode(w, format, p.Document())
			}

			heading(w, "Extracted Colors:")
			for _, c := range p.Ordered() {
				fmt.Fprintf(w, "%s %s: %s\n", swatch(c), c.Role, c.Hex())
			}
			fmt.Fprintf(w, "\nQuality Score: %.3f\n", p.Quality)
			fmt.Fprintf(w, "Method: %s\n", p.Method)
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&compare, "compare-methods", false, "compare all extraction methods")
	f.StringVarP(&method, "method", "m", "", "color extraction method (default from config)")
	f.IntVarP(&count, "count", "n", 0, "number of colors (default depends on method)")
	f.StringVarP(&format, "format", "f", formatText, "output format: text, json, yaml or toml")
	return cmd
}

func printComparison(w io.Writer, v comparisonView) {
	heading(w, "Method Comparison:")
	if v.Best != "" {
		fmt.Fprintln(w, okStyle.Render("Best method: "+v.Best))
		fmt.Fprintln(w, infoStyle.Render("Ranking: "+strings.Join(v.Ranking, " > ")))
	}
	for _, m := range v.Methods {
		if m.Error != "" {
			fmt.Fprintln(w)
			fmt.Fprintln(w, errStyle.Render(m.Method+": "+m.Error))
			continue
		}
		heading(w, m.Method+":")
		fmt.Fprintf(w, "Quality Score: %.3f\n", m.Quality)
		fmt.Fprintf(w, "Accessibility: %s\n", check(m.Accessible))
		for _, k := range sortedKeys(m.ContrastRatios) {
			fmt.Fprintf(w, "  %s: %.2f\n", title(k), m.ContrastRatios[k])
		}
		fmt.Fprintf(w, "Colors: %s\n", strings.Join(m.Colors, ", "))
	}
}
