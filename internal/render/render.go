package render

import (
	"fmt"
	"os"

	"pdf-quiz/internal/config"
)

// Renderer writes quiz text to a new file and returns its path.
type Renderer interface {
	Format() string
	Render(text string) (string, error)
}

// NewRenderers returns one renderer per configured output format, pdf first.
func NewRenderers(cfg *config.OutputConfig) ([]Renderer, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = os.TempDir()
	}

	renderers := []Renderer{NewPDFRenderer(dir, cfg.FontSize, cfg.LineHeight, cfg.Margin)}
	for _, format := range cfg.Formats {
		switch format {
		case config.FormatPDF:
		case config.FormatXLSX:
			renderers = append(renderers, NewXLSXRenderer(dir))
		default:
			return nil, fmt.Errorf("unsupported output format: %s", format)
		}
	}
	return renderers, nil
}

// createFile opens a new, uniquely named file in dir. It never reuses an
// existing file.
func createFile(dir, ext string) (*os.File, error) {
	f, err := os.CreateTemp(dir, "quiz-*."+ext)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}

// finish closes f and removes it when writeErr is set.
func finish(f *os.File, writeErr error) (string, error) {
	closeErr := f.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(f.Name())
		return "", writeErr
	}
	return f.Name(), nil
}
