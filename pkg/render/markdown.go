package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
	"pkt.systems/mdf"
	"pkt.systems/mdf/pdf"
)

// MarkdownStyle is the stylesheet format of the markdown parser backend.
// A directive's stylesheet is a YAML document whose keys override the
// backend's default style:
//
//	page_size: Letter
//	font_family: Helvetica
//	font_size: 11
//	heading_scale: [2.0, 1.6, 1.3]
//	boring: true
type MarkdownStyle struct {
	PageSize string `yaml:"page_size"`
	// Margin in points.
	Margin float64 `yaml:"margin"`
	// FontFamily must be a PDF core font (Courier, Helvetica, Times).
	// Empty selects the embedded Hack Nerd Font Mono.
	FontFamily   string    `yaml:"font_family"`
	FontSize     float64   `yaml:"font_size"`
	LineHeight   float64   `yaml:"line_height"`
	HeadingScale []float64 `yaml:"heading_scale"`
	Theme        string    `yaml:"theme"`
	// Boring prints black text on white without syntax colors.
	Boring     bool `yaml:"boring"`
	Background bool `yaml:"background"`
}

// DefaultMarkdownStyle returns a print friendly A4 style.
func DefaultMarkdownStyle() MarkdownStyle {
	return MarkdownStyle{
		PageSize:   "A4",
		Margin:     36,
		FontSize:   11,
		LineHeight: 1.4,
		Boring:     true,
	}
}

// ParseMarkdownStyle applies the YAML document text on top of base.
// Unknown keys are rejected.
func ParseMarkdownStyle(base MarkdownStyle, text string) (MarkdownStyle, error) {
	style := base
	if strings.TrimSpace(text) == "" {
		return style, nil
	}

	dec := yaml.NewDecoder(strings.NewReader(text))
	dec.KnownFields(true)
	if err := dec.Decode(&style); err != nil && !errors.Is(err, io.EOF) {
		return MarkdownStyle{}, fmt.Errorf("parse markdown style: %w", err)
	}
	if len(style.HeadingScale) > 6 {
		return MarkdownStyle{}, fmt.Errorf("parse markdown style: heading_scale has %d entries, at most 6 allowed", len(style.HeadingScale))
	}
	return style, nil
}

// markdownBackend is the markdown parser backend.
type markdownBackend struct {
	style MarkdownStyle

	fontsOnce sync.Once
	fonts     [4][]byte
	fontsErr  error
}

func newMarkdownBackend(style MarkdownStyle) *markdownBackend {
	return &markdownBackend{style: style}
}

func (m *markdownBackend) Render(ctx context.Context, body, stylesheet string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	style, err := ParseMarkdownStyle(m.style, stylesheet)
	if err != nil {
		return nil, err
	}

	cfg, theme, err := m.config(style)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Render(pdf.RenderRequest{
		Reader: strings.NewReader(body),
		Writer: &buf,
		Theme:  theme,
		Config: cfg,
	}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// config converts a style into the mdf renderer configuration.
func (m *markdownBackend) config(style MarkdownStyle) (pdf.Config, mdf.Theme, error) {
	cfg := pdf.Config{
		PageSize:          style.PageSize,
		Margin:            style.Margin,
		FontFamily:        style.FontFamily,
		FontSize:          style.FontSize,
		LineHeight:        style.LineHeight,
		Boring:            style.Boring,
		BackgroundEnabled: style.Background,
	}
	if len(style.HeadingScale) > 0 {
		cfg.HeadingScale = pdf.DefaultConfig().HeadingScale
		copy(cfg.HeadingScale[:], style.HeadingScale)
	}

	if cfg.FontFamily == "" {
		fonts, err := m.embeddedFonts()
		if err != nil {
			return pdf.Config{}, nil, err
		}
		cfg.FontFamily = pdf.EmbeddedFontFamily
		cfg.RegularFontBytes = fonts[0]
		cfg.BoldFontBytes = fonts[1]
		cfg.ItalicFontBytes = fonts[2]
		cfg.BoldItalicFontBytes = fonts[3]
	}

	theme := mdf.DefaultTheme()
	if style.Theme != "" {
		t, ok := mdf.ThemeByName(style.Theme)
		if !ok {
			return pdf.Config{}, nil, fmt.Errorf("unknown markdown theme %q (available: %s)",
				style.Theme, strings.Join(mdf.AvailableThemes(), ", "))
		}
		theme = t
	}
	return cfg, theme, nil
}

func (m *markdownBackend) embeddedFonts() ([4][]byte, error) {
	m.fontsOnce.Do(func() {
		var f [4][]byte
		f[0], f[1], f[2], f[3], m.fontsErr = pdf.EmbeddedHackFonts()
		m.fonts = f
	})
	return m.fonts, m.fontsErr
}
