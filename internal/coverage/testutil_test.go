package coverage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testSheet = "Coverage"

// row builds a record with the fields most tests care about.
func row(keywords, headline string, sentiment Sentiment) Record {
	return Record{
		Keywords:  keywords,
		Headline:  headline,
		Sentiment: sentiment,
		DateRaw:   "15-Jan-2024 09:30AM",
		Date:      time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC),
	}
}

func newTestAnalyzer(t *testing.T, records []Record, keywords KeywordSet, opts ...Option) *Analyzer {
	t.Helper()
	opts = append([]Option{WithTable(NewTable(testSheet, records))}, opts...)
	return New(nil, testSheet, keywords, opts...)
}

// writeWorkbook saves rows (header first) to an xlsx file under t.TempDir().
func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(sheet)
	require.NoError(t, err)

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		vals := r
		require.NoError(t, f.SetSheetRow(sheet, cell, &vals))
	}

	path := filepath.Join(t.TempDir(), "coverage.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func header() []any {
	out := make([]any, len(RequiredColumns))
	for i, c := range RequiredColumns {
		out[i] = c
	}
	return out
}

// countingSource counts LoadTable calls on a wrapped source.
type countingSource struct {
	Source
	loads int
}

func (s *countingSource) LoadTable(sheet string) (*Table, error) {
	s.loads++
	return s.Source.LoadTable(sheet)
}
