package dataset

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (xlsxLoader) Open(path string, opt Options) (RowReader, io.Closer, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	sheets := f.GetSheetList()
	sheet := opt.Sheet
	if sheet == "" {
		if len(sheets) == 0 {
			_ = f.Close()
			return nil, nil, fmt.Errorf("workbook '%s' has no sheets", filepath.Base(path))
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		_ = f.Close()
		return nil, nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
			sheet, filepath.Base(path), strings.Join(sheets, ", "))
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	wb := &workbook{file: f, rows: rows}
	return wb, wb, nil
}

// workbook streams rows of one sheet as raw cell values.
type workbook struct {
	file *excelize.File
	rows *excelize.Rows
}

func (w *workbook) Read() ([]string, error) {
	if !w.rows.Next() {
		if err := w.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return w.rows.Columns(excelize.Options{RawCellValue: true})
}

func (w *workbook) Close() error {
	_ = w.rows.Close()
	return w.file.Close()
}
