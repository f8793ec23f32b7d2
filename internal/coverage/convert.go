package coverage

// convert.go turns raw sheet cells into typed record fields.
//
// Media monitoring exports are inconsistent:
//   - Dates arrive as "15-Jan-2024 03:45PM" text or as Excel serial numbers
//   - Reach and AVE may carry currency symbols and thousands separators
//   - CSV exports may carry a BOM and Excel formula prefixes (="value")

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DateLayout is the publication date format used by coverage exports.
const DateLayout = "02-Jan-2006 03:04PM"

// exportDateLayout parses DateLayout with an optional leading zero on the
// day and hour.
const exportDateLayout = "2-Jan-2006 3:04PM"

// numericRegex validates a number after currency and separator cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// fallbackDateLayouts are tried when a cell does not match DateLayout.
var fallbackDateLayouts = []string{
	"02-Jan-2006 03:04 PM",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"1/2/2006 15:04",
	"1/2/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// parseDate returns the publication time of a cell and the text to keep as
// DateRaw. Excel serial numbers are rewritten in DateLayout so that the
// strict trendline parse sees the same text a text export would carry.
func parseDate(s string) (time.Time, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ""
	}

	if t, err := ParseExportDate(s); err == nil {
		return t, s
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t, t.Format(DateLayout)
		}
	}

	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, s
		}
	}

	return time.Time{}, s
}

// ParseExportDate parses a Date cell in the export format. The day and hour
// may be one or two digits and the AM/PM suffix may be in any case, so
// "5-Jan-2024 3:04pm" and "05-Jan-2024 03:04PM" are the same time.
func ParseExportDate(s string) (time.Time, error) {
	return time.Parse(exportDateLayout, strings.ToUpper(strings.TrimSpace(s)))
}

// parseAmount converts a Reach or AVE cell to a number. Blank cells are zero.
// Handles currency symbols, thousands separators and accounting negatives "(1.5)".
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "\u20ac", "") // Euro
	s = strings.ReplaceAll(s, "\u00a3", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if isNegative {
		f = -f
	}
	return f, true
}

// headerIndex maps lowercased header names to their column position.
type headerIndex map[string]int

func makeHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(cleanCell(h))
		if _, dup := idx[key]; dup {
			continue
		}
		idx[key] = i
	}
	return idx
}

// missing returns the required columns absent from the header.
func (h headerIndex) missing(required []string) []string {
	var out []string
	for _, col := range required {
		if _, ok := h[strings.ToLower(col)]; !ok {
			out = append(out, col)
		}
	}
	return out
}

// cell returns the value of column col in row, or "" for short rows.
func (h headerIndex) cell(row []string, col string) string {
	i, ok := h[strings.ToLower(col)]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// cleanCell strips whitespace, Excel formula prefixes and surrounding quotes.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "\ufeff")

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}
