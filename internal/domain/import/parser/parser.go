// Package parser turns raw bank statement exports (CSV and Excel) into
// structured rows. Column layout and delimiter are resolved by the sniffer;
// rows that cannot be parsed are dropped and recorded, never aborting the
// whole file.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/granadev/grana/internal/domain/import/sniffer"
)

// Row is a single parsed statement line. Description is the raw text from
// the file; normalization happens downstream so the classifier can still see
// payment method markers like "débito".
type Row struct {
	Date        string // ISO YYYY-MM-DD
	Description string
	Amount      decimal.Decimal // absolute value
	RawAmount   decimal.Decimal // signed, as found in the file
}

// ParseError records why a row was dropped. Dropped rows never fail an
// import; they are surfaced for logging only.
type ParseError struct {
	Row     int
	Column  string
	Message string
	RawData string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("row %d, column %s: %s", e.Row, e.Column, e.Message)
}

// ParseResult contains the outcome of parsing one statement file.
type ParseResult struct {
	Rows        []Row
	Errors      []ParseError
	TotalRows   int
	ParsedRows  int
	SkippedRows int
}

var (
	isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	amountRe  = regexp.MustCompile(`[^\d,.-]`)
)

// Parse reads a CSV statement and returns the structured rows. The first
// line is treated as the header and drives delimiter and column detection.
// Files with fewer than two non-empty lines yield an empty result.
func Parse(reader io.Reader) (*ParseResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement: %w", err)
	}

	content := strings.TrimPrefix(string(data), "\uFEFF")
	header, ok := firstLine(content)
	if !ok {
		return &ParseResult{}, nil
	}

	cols := sniffer.DetectColumns(header)

	csvReader := csv.NewReader(strings.NewReader(content))
	csvReader.Comma = sniffer.DetectDelimiter(header)
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	if _, err := csvReader.Read(); err != nil {
		if err == io.EOF {
			return &ParseResult{}, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	result := &ParseResult{
		Rows:   make([]Row, 0, 256),
		Errors: make([]ParseError, 0),
	}

	rowNum := 2
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.TotalRows++
			result.SkippedRows++
			result.Errors = append(result.Errors, ParseError{Row: rowNum, Message: err.Error()})
			rowNum++
			continue
		}

		if isEmptyRecord(record) {
			rowNum++
			continue
		}

		result.TotalRows++

		row, parseErr := convertRecord(record, cols, rowNum)
		if parseErr != nil {
			result.SkippedRows++
			result.Errors = append(result.Errors, *parseErr)
			rowNum++
			continue
		}

		result.Rows = append(result.Rows, *row)
		result.ParsedRows++
		rowNum++
	}

	return result, nil
}

// convertRecord builds a Row from one CSV record using the detected column
// indices. Any missing or malformed field drops the record.
func convertRecord(record []string, cols sniffer.Columns, rowNum int) (*Row, *ParseError) {
	getValue := func(idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	// Short rows (bank exports sometimes omit trailing columns) and empty
	// cells fall back to the last field instead of dropping the row outright.
	getValueOrLast := func(idx int) string {
		if v := getValue(idx); v != "" {
			return v
		}
		if len(record) > 0 {
			return strings.TrimSpace(record[len(record)-1])
		}
		return ""
	}

	dateStr := getValue(cols.DateCol)
	date, err := ParseDate(dateStr)
	if err != nil {
		return nil, &ParseError{Row: rowNum, Column: "date", Message: err.Error(), RawData: dateStr}
	}

	desc := getValueOrLast(cols.DescCol)
	if desc == "" {
		return nil, &ParseError{Row: rowNum, Column: "description", Message: "missing description"}
	}

	amountStr := getValueOrLast(cols.AmountCol)
	amount, err := ParseAmount(amountStr)
	if err != nil {
		return nil, &ParseError{Row: rowNum, Column: "amount", Message: err.Error(), RawData: amountStr}
	}

	return &Row{
		Date:        date,
		Description: desc,
		Amount:      amount.Abs(),
		RawAmount:   amount,
	}, nil
}

// ParseDate accepts Brazilian DD/MM/YYYY dates (day and month optionally
// unpadded) and already-ISO dates, returning ISO YYYY-MM-DD.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty date")
	}

	if isoDateRe.MatchString(s) {
		return s, nil
	}

	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return "", fmt.Errorf("unrecognized date: %s", s)
	}

	day, month, year := parts[0], parts[1], parts[2]
	if len(year) != 4 || !allDigits(day) || !allDigits(month) || !allDigits(year) {
		return "", fmt.Errorf("unrecognized date: %s", s)
	}

	return fmt.Sprintf("%s-%s-%s", year, pad2(month), pad2(day)), nil
}

// ParseAmount parses a Brazilian or plain decimal amount string, keeping the
// sign. "1.234,56" and "1234.56" both yield 1234.56; currency symbols and
// whitespace are stripped.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = amountRe.ReplaceAllString(s, "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	if strings.Contains(s, ",") {
		// Comma present: it is the decimal separator, dots are thousands.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount: %s", s)
	}

	return amount, nil
}

func firstLine(content string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			return line, true
		}
	}
	return "", false
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
