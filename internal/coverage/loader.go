package coverage

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Source supplies the rows of a named sheet.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	// LoadTable reads the sheet. Failures are returned as *LoadError.
	LoadTable(sheet string) (*Table, error)
}

// FileSource reads a workbook from disk. Files ending in .csv are read as a
// single sheet and the sheet name is ignored.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return s.Path }

func (s FileSource) LoadTable(sheet string) (*Table, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, loadErr(s.Path, sheet, err)
	}
	defer f.Close()

	if isCSV(s.Path) {
		return readCSV(s.Path, sheet, f)
	}
	return readXLSX(s.Path, sheet, f)
}

// BytesSource reads a workbook held in memory, typically an upload.
type BytesSource struct {
	FileName string
	Data     []byte
}

func (s BytesSource) Name() string { return s.FileName }

func (s BytesSource) LoadTable(sheet string) (*Table, error) {
	if len(s.Data) == 0 {
		return nil, loadErr(s.FileName, sheet, fmt.Errorf("empty file"))
	}
	r := bytes.NewReader(s.Data)
	if isCSV(s.FileName) {
		return readCSV(s.FileName, sheet, r)
	}
	return readXLSX(s.FileName, sheet, r)
}

func isCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

func readXLSX(name, sheet string, r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, loadErr(name, sheet, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, loadErr(name, sheet, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet))
	}

	// Raw values keep date serials and numbers free of display formatting.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, loadErr(name, sheet, err)
	}

	return buildTable(name, sheet, rows)
}

func readCSV(name, sheet string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(skipBOM(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, loadErr(name, sheet, fmt.Errorf("invalid csv: %w", err))
	}

	return buildTable(name, sheet, rows)
}

// skipBOM drops a leading UTF-8 byte order mark written by Excel on Windows.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		br.Discard(3)
	}
	return br
}

// buildTable converts the header row and data rows into records.
// Fully blank rows are skipped.
func buildTable(name, sheet string, rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, loadErr(name, sheet, fmt.Errorf("empty file"))
	}

	idx := makeHeaderIndex(rows[0])
	if missing := idx.missing(RequiredColumns); len(missing) > 0 {
		return nil, loadErr(name, sheet, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", ")))
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec, err := buildRecord(idx, row)
		if err != nil {
			// Row numbers are 1-based and count the header line.
			return nil, loadErr(name, sheet, fmt.Errorf("row %d: %w", i+2, err))
		}
		records = append(records, rec)
	}

	return &Table{Sheet: sheet, records: records}, nil
}

func buildRecord(idx headerIndex, row []string) (Record, error) {
	reach, ok := parseAmount(idx.cell(row, ColReach))
	if !ok {
		return Record{}, fmt.Errorf("%w in %s: %q", ErrInvalidNumber, ColReach, idx.cell(row, ColReach))
	}
	ave, ok := parseAmount(idx.cell(row, ColAVE))
	if !ok {
		return Record{}, fmt.Errorf("%w in %s: %q", ErrInvalidNumber, ColAVE, idx.cell(row, ColAVE))
	}

	date, raw := parseDate(idx.cell(row, ColDate))

	return Record{
		Date:        date,
		DateRaw:     raw,
		Headline:    idx.cell(row, ColHeadline),
		Keywords:    idx.cell(row, ColKeywords),
		Source:      strings.TrimSpace(idx.cell(row, ColSource)),
		Influencer:  strings.TrimSpace(idx.cell(row, ColInfluencer)),
		Reach:       reach,
		AVE:         ave,
		Sentiment:   Sentiment(strings.TrimSpace(idx.cell(row, ColSentiment))),
		OpeningText: idx.cell(row, ColOpeningText),
		HitSentence: idx.cell(row, ColHitSentence),
	}, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
