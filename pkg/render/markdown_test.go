package render

import (
	"context"
	"errors"
	"testing"

	"github.com/Sternrassler/pdfbundle/pkg/directive"
)

func TestParseMarkdownStyle(t *testing.T) {
	base := DefaultMarkdownStyle()

	tests := []struct {
		name    string
		text    string
		check   func(t *testing.T, s MarkdownStyle)
		wantErr bool
	}{
		{
			name: "empty keeps base",
			text: "",
			check: func(t *testing.T, s MarkdownStyle) {
				if s.PageSize != "A4" || s.FontSize != 11 || !s.Boring {
					t.Errorf("unexpected style %+v", s)
				}
			},
		},
		{
			name: "overrides",
			text: "page_size: Letter\nfont_family: Helvetica\nboring: false\nheading_scale: [2.0, 1.5]\n",
			check: func(t *testing.T, s MarkdownStyle) {
				if s.PageSize != "Letter" {
					t.Errorf("PageSize = %q, want Letter", s.PageSize)
				}
				if s.FontFamily != "Helvetica" {
					t.Errorf("FontFamily = %q, want Helvetica", s.FontFamily)
				}
				if s.Boring {
					t.Error("Boring should be false")
				}
				if s.FontSize != 11 {
					t.Errorf("FontSize = %v, want base value 11", s.FontSize)
				}
				if len(s.HeadingScale) != 2 {
					t.Errorf("HeadingScale = %v", s.HeadingScale)
				}
			},
		},
		{name: "unknown key", text: "colour: red\n", wantErr: true},
		{name: "invalid yaml", text: "page_size: [\n", wantErr: true},
		{name: "too many heading scales", text: "heading_scale: [1, 1, 1, 1, 1, 1, 1]\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMarkdownStyle(base, tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got style %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMarkdownStyle failed: %v", err)
			}
			tt.check(t, got)
		})
	}
}

func TestMarkdownBackend_Config(t *testing.T) {
	m := newMarkdownBackend(DefaultMarkdownStyle())

	cfg, theme, err := m.config(MarkdownStyle{FontFamily: "Times", HeadingScale: []float64{2.2}})
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	if cfg.FontFamily != "Times" || len(cfg.RegularFontBytes) != 0 {
		t.Errorf("core font config = %q with %d font bytes", cfg.FontFamily, len(cfg.RegularFontBytes))
	}
	if cfg.HeadingScale[0] != 2.2 || cfg.HeadingScale[1] == 0 {
		t.Errorf("HeadingScale = %v", cfg.HeadingScale)
	}
	if theme == nil {
		t.Error("theme should default to the mdf default theme")
	}

	cfg, _, err = m.config(MarkdownStyle{})
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	if len(cfg.RegularFontBytes) == 0 || len(cfg.BoldFontBytes) == 0 || len(cfg.ItalicFontBytes) == 0 {
		t.Error("embedded fonts not loaded for empty font_family")
	}

	if _, _, err := m.config(MarkdownStyle{Theme: "no-such-theme"}); err == nil {
		t.Error("expected error for unknown theme")
	}
}

func TestMarkdownBackend_Render(t *testing.T) {
	r, err := NewFactory().Build(directive.ParserMarkdown)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	data, err := r.Render(context.Background(), "# Notes\n\nSome *text*.\n", "font_family: Helvetica\n")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !isPDF(data) {
		t.Fatalf("output is not a PDF: %q", data[:min(len(data), 16)])
	}
}

func TestMarkdownBackend_RenderErrors(t *testing.T) {
	r, err := NewFactory().Build(directive.ParserMarkdown)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	_, err = r.Render(context.Background(), "# x", "unknown: key\n")
	var rerr *Error
	if !errors.As(err, &rerr) || rerr.Parser != directive.ParserMarkdown {
		t.Errorf("expected markdown *Error for bad stylesheet, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, "# x", ""); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
