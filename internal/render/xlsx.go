package render

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"pdf-quiz/internal/config"
)

const (
	sheetName    = "Quiz"
	defaultSheet = "Sheet1"
)

// XLSXRenderer writes one row per non-empty line of the quiz.
type XLSXRenderer struct {
	dir string
}

func NewXLSXRenderer(dir string) *XLSXRenderer {
	return &XLSXRenderer{dir: dir}
}

func (r *XLSXRenderer) Format() string { return config.FormatXLSX }

func (r *XLSXRenderer) Render(text string) (string, error) {
	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName(defaultSheet, sheetName); err != nil {
		return "", fmt.Errorf("rename sheet: %w", err)
	}
	if err := book.SetSheetRow(sheetName, "A1", &[]interface{}{"#", "Question"}); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}

	row := 2
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return "", err
		}
		if err := book.SetSheetRow(sheetName, cell, &[]interface{}{row - 1, line}); err != nil {
			return "", fmt.Errorf("write row %d: %w", row, err)
		}
		row++
	}

	f, err := createFile(r.dir, config.FormatXLSX)
	if err != nil {
		return "", err
	}
	return finish(f, book.Write(f))
}
