// Package sniffer detects the column layout and delimiter of an uploaded
// bank statement export from its header line.
package sniffer

import (
	"strings"
)

// Header keywords recognized in Brazilian bank exports (Portuguese/English)
var (
	dateKeywords   = []string{"data", "date"}
	descKeywords   = []string{"desc", "title", "mercado"}
	amountKeywords = []string{"valor", "amount"}
)

// Nubank account-export positional fallback: Data(0), Valor(1), Identificador(2), Descrição(3)
const (
	fallbackDateCol   = 0
	fallbackAmountCol = 1
	fallbackDescCol   = 3
)

// Columns holds the zero-based indices for the three fields the parser needs.
type Columns struct {
	DateCol   int
	DescCol   int
	AmountCol int
}

// DetectColumns inspects a header line and returns the column indices for
// date, description and amount. Cells are matched case-insensitively against
// known keyword substrings; columns that cannot be identified fall back to
// the fixed Nubank account-export layout. This never fails: an unrecognized
// header degrades to the positional fallback, which may produce garbage for
// exotic formats, and the parser drops those rows downstream.
func DetectColumns(header string) Columns {
	cells := splitHeader(strings.ToLower(header))

	cols := Columns{
		DateCol:   findColumn(cells, dateKeywords),
		DescCol:   findColumn(cells, descKeywords),
		AmountCol: findColumn(cells, amountKeywords),
	}

	if cols.DateCol == -1 {
		cols.DateCol = fallbackDateCol
	}
	if cols.AmountCol == -1 {
		cols.AmountCol = fallbackAmountCol
	}
	if cols.DescCol == -1 {
		cols.DescCol = fallbackDescCol
	}

	return cols
}

// DetectDelimiter picks the field delimiter for a line by occurrence count.
// Nubank exports use ',' but other Brazilian bank exports use ';'.
func DetectDelimiter(line string) rune {
	best := rune(',')
	bestCount := 0
	for _, d := range []rune{';', ','} {
		if count := strings.Count(line, string(d)); count > bestCount {
			bestCount = count
			best = d
		}
	}
	return best
}

func splitHeader(header string) []string {
	header = strings.TrimRight(header, "\r")
	header = strings.TrimPrefix(header, "\uFEFF")
	return strings.FieldsFunc(header, func(r rune) bool {
		return r == ',' || r == ';'
	})
}

func findColumn(cells []string, keywords []string) int {
	for i, cell := range cells {
		cell = strings.Trim(strings.TrimSpace(cell), "\"")
		for _, kw := range keywords {
			if strings.Contains(cell, kw) {
				return i
			}
		}
	}
	return -1
}
