package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/granadev/grana/internal/domain/import/sniffer"
)

// ParseExcel reads an XLSX statement export and returns the same ParseResult
// a CSV file would produce. The first row of the chosen sheet is the header
// and drives column detection, so account and card layouts both work.
func ParseExcel(reader io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := findStatementSheet(f)
	if sheetName == "" {
		return nil, fmt.Errorf("no suitable sheet found")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}

	result := &ParseResult{
		Rows:   make([]Row, 0, len(rows)),
		Errors: make([]ParseError, 0),
	}

	if len(rows) < 2 {
		return result, nil
	}

	cols := sniffer.DetectColumns(strings.Join(rows[0], ","))

	for i := 1; i < len(rows); i++ {
		rowNum := i + 1

		if isEmptyRecord(rows[i]) {
			continue
		}

		result.TotalRows++

		row, parseErr := convertRecord(rows[i], cols, rowNum)
		if parseErr != nil {
			result.SkippedRows++
			result.Errors = append(result.Errors, *parseErr)
			continue
		}

		result.Rows = append(result.Rows, *row)
		result.ParsedRows++
	}

	return result, nil
}

// findStatementSheet prefers sheets named after bank exports, falling back
// to the first sheet.
func findStatementSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}

	preferred := []string{"extrato", "movimentos", "transactions", "statement", "sheet1"}
	for _, name := range preferred {
		for _, sheet := range sheets {
			if strings.EqualFold(sheet, name) {
				return sheet
			}
		}
	}

	return sheets[0]
}
