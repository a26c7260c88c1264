package render

import "strings"

// PaperSize is a paper format in centimeters.
type PaperSize struct {
	Width  float64
	Height float64
}

// Standard paper sizes.
var (
	A4     = PaperSize{Width: 21.0, Height: 29.7}
	A5     = PaperSize{Width: 14.8, Height: 21.0}
	Letter = PaperSize{Width: 21.59, Height: 27.94}
	Legal  = PaperSize{Width: 21.59, Height: 35.56}
)

// PageConfig is the print layout of the html parser backend.
// Lengths are in centimeters. A CSS @page rule in the stylesheet overrides
// Size when PreferCSSPageSize is set.
type PageConfig struct {
	Size              PaperSize
	Landscape         bool
	Margin            float64
	Scale             float64
	PrintBackground   bool
	PreferCSSPageSize bool
}

// DefaultPageConfig returns A4 portrait with 1 cm margins.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Size:              A4,
		Margin:            1.0,
		Scale:             1.0,
		PrintBackground:   true,
		PreferCSSPageSize: true,
	}
}

// resolved replaces zero values with defaults.
func (p PageConfig) resolved() PageConfig {
	d := DefaultPageConfig()
	if p.Size == (PaperSize{}) {
		p.Size = d.Size
	}
	if p.Scale <= 0 {
		p.Scale = d.Scale
	}
	if p.Margin < 0 {
		p.Margin = d.Margin
	}
	return p
}

// paperInches returns width and height in inches, accounting for orientation.
func (p PageConfig) paperInches() (width, height float64) {
	w, h := cmToInches(p.Size.Width), cmToInches(p.Size.Height)
	if p.Landscape {
		return h, w
	}
	return w, h
}

func cmToInches(cm float64) float64 {
	return cm / 2.54
}

// PaperSizeByName returns the paper size for a name like "A4" or "letter".
// Matching is case-insensitive.
func PaperSizeByName(name string) (PaperSize, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "a4":
		return A4, true
	case "a5":
		return A5, true
	case "letter":
		return Letter, true
	case "legal":
		return Legal, true
	}
	return PaperSize{}, false
}
