package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

const defaultMaxPages = 3

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// LoadPDFFile opens filePath and extracts the text of its first maxPages pages.
func LoadPDFFile(filePath string, maxPages int) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// Get file size for reader initialization
	stat, err := f.Stat()
	if err != nil {
		return "", err
	}
	return LoadPDF(f, stat.Size(), maxPages)
}

// LoadPDF concatenates the plain text of pages 1..maxPages of the document,
// replaces newlines with spaces and trims the result. Pages past maxPages are
// never read; pages without extractable text contribute nothing.
func LoadPDF(r io.ReaderAt, size int64, maxPages int) (text string, err error) {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	// the pdf package panics on some malformed inputs
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("read pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	numPages := min(reader.NumPage(), maxPages)
	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract text from page %d: %w", i, err)
		}
		if pageText == "" {
			log.Debug().Int("page", i).Msg("Page has no extractable text")
			continue
		}
		b.WriteString(pageText)
	}

	return strings.TrimSpace(newlineReplacer.Replace(b.String())), nil
}
