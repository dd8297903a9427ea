package analytics

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads the historical workbook from a local .xlsx file.
// The whole file is loaded once; ReadSheet serves from memory.
type XLSXSource struct {
	sheets map[string][][]string
}

// OpenXLSX loads the workbook at path. The file handle is closed before
// returning; the row data stays resident.
func OpenXLSX(path string) (*XLSXSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("analytics.OpenXLSX: opening %s: %w", path, err)
	}
	defer f.Close()

	src := &XLSXSource{sheets: make(map[string][][]string)}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("analytics.OpenXLSX: reading sheet %s: %w", name, err)
		}
		src.sheets[name] = rows
	}
	return src, nil
}

// ReadSheet returns the raw rows of one sheet.
func (s *XLSXSource) ReadSheet(_ context.Context, sheet string) ([][]string, error) {
	rows, ok := s.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("XLSXSource.ReadSheet: sheet %s not found", sheet)
	}
	return rows, nil
}
