package render

import (
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"pdf-quiz/internal/config"
)

const (
	fontFamily      = "Helvetica"
	replacementRune = '?'
)

// PDFRenderer lays out each line of text with a core font. Core fonts only
// cover cp1252; every rune outside it is replaced with '?'.
type PDFRenderer struct {
	dir        string
	fontSize   float64
	lineHeight float64
	margin     float64
}

func NewPDFRenderer(dir string, fontSize, lineHeight, margin float64) *PDFRenderer {
	return &PDFRenderer{dir: dir, fontSize: fontSize, lineHeight: lineHeight, margin: margin}
}

func (r *PDFRenderer) Format() string { return config.FormatPDF }

func (r *PDFRenderer) Render(text string) (string, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(r.margin, r.margin, r.margin)
	doc.SetAutoPageBreak(true, r.margin)
	doc.AddPage()
	doc.SetFont(fontFamily, "", r.fontSize)

	translate := cp1252Translator(doc.UnicodeTranslatorFromDescriptor(""))
	for _, line := range strings.Split(text, "\n") {
		doc.MultiCell(0, r.lineHeight, translate(line), "", "L", false)
	}
	if err := doc.Error(); err != nil {
		return "", fmt.Errorf("layout pdf: %w", err)
	}

	f, err := createFile(r.dir, config.FormatPDF)
	if err != nil {
		return "", err
	}
	return finish(f, doc.Output(f))
}

// cp1252Translator maps text to cp1252 one rune at a time. The fpdf
// translator emits '.' for unknown runes, which is ambiguous with a real
// period, so unknown runes are detected here and replaced explicitly.
func cp1252Translator(tr func(string) string) func(string) string {
	return func(s string) string {
		var b strings.Builder
		for _, r := range s {
			if r < 0x80 {
				b.WriteRune(r)
				continue
			}
			out := tr(string(r))
			if out == "." {
				b.WriteRune(replacementRune)
				continue
			}
			b.WriteString(out)
		}
		return b.String()
	}
}
