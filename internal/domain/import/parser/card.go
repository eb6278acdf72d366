package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// cardRow matches the legacy Nubank credit card export, which always carries
// a date,category,title,amount header.
type cardRow struct {
	Date     string `csv:"date"`
	Category string `csv:"category"`
	Title    string `csv:"title"`
	Amount   string `csv:"amount"`
}

// IsCardExport reports whether a header line looks like the legacy credit
// card layout, which names all four of its columns.
func IsCardExport(header string) bool {
	h := strings.ToLower(header)
	return strings.Contains(h, "date") &&
		strings.Contains(h, "category") &&
		strings.Contains(h, "title") &&
		strings.Contains(h, "amount")
}

// ParseCard reads a legacy credit card export. Card statements list charges
// as positive values, so amounts are negated to match the sign convention of
// account exports (negative means money out).
func ParseCard(reader io.Reader) (*ParseResult, error) {
	var rows []cardRow
	if err := gocsv.Unmarshal(reader, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse card export: %w", err)
	}

	result := &ParseResult{
		Rows:   make([]Row, 0, len(rows)),
		Errors: make([]ParseError, 0),
	}

	for i, raw := range rows {
		rowNum := i + 2
		result.TotalRows++

		date, err := ParseDate(raw.Date)
		if err != nil {
			result.SkippedRows++
			result.Errors = append(result.Errors, ParseError{Row: rowNum, Column: "date", Message: err.Error(), RawData: raw.Date})
			continue
		}

		desc := strings.TrimSpace(raw.Title)
		if desc == "" {
			result.SkippedRows++
			result.Errors = append(result.Errors, ParseError{Row: rowNum, Column: "title", Message: "missing title"})
			continue
		}

		amount, err := ParseAmount(raw.Amount)
		if err != nil {
			result.SkippedRows++
			result.Errors = append(result.Errors, ParseError{Row: rowNum, Column: "amount", Message: err.Error(), RawData: raw.Amount})
			continue
		}

		result.Rows = append(result.Rows, Row{
			Date:        date,
			Description: desc,
			Amount:      amount.Abs(),
			RawAmount:   amount.Neg(),
		})
		result.ParsedRows++
	}

	return result, nil
}
