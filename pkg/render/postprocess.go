package render

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func pdfcpuConfig() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// Optimize rewrites a PDF with pdfcpu, dropping duplicate fonts and images
// and unused objects.
func Optimize(data []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &out, pdfcpuConfig()); err != nil {
		return nil, fmt.Errorf("optimize pdf: %w", err)
	}
	return out.Bytes(), nil
}

// Validate checks that data parses as a PDF and returns it unchanged.
func Validate(data []byte) ([]byte, error) {
	if err := api.Validate(bytes.NewReader(data), pdfcpuConfig()); err != nil {
		return nil, fmt.Errorf("validate pdf: %w", err)
	}
	return data, nil
}

// PageCount returns the number of pages of a PDF document.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), pdfcpuConfig())
	if err != nil {
		return 0, fmt.Errorf("count pdf pages: %w", err)
	}
	return n, nil
}
