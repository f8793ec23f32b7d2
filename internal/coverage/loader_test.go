package coverage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource_LoadsXLSX(t *testing.T) {
	path := writeWorkbook(t, testSheet, [][]any{
		header(),
		{"15-Jan-2024 03:45PM", "Delta expands routes", "Delta, United", "Reuters", "Jane Roe", 12000, "$1,250.50", "Positive", "Delta said...", "Delta will fly"},
		{},
		{"16-Jan-2024 10:00AM", "Fares rise", "United", "AP", "", 500, 75.25, "Negative", "", ""},
	})

	tbl, err := FileSource{Path: path}.LoadTable(testSheet)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len(), "blank rows are skipped")

	recs := tbl.Records()
	assert.Equal(t, "Delta expands routes", recs[0].Headline)
	assert.Equal(t, "Delta, United", recs[0].Keywords)
	assert.Equal(t, 12000.0, recs[0].Reach)
	assert.Equal(t, 1250.50, recs[0].AVE)
	assert.Equal(t, Positive, recs[0].Sentiment)
	assert.Equal(t, time.Date(2024, 1, 15, 15, 45, 0, 0, time.UTC), recs[0].Date)
	assert.Equal(t, "", recs[1].Influencer)
	assert.Equal(t, Negative, recs[1].Sentiment)
}

func TestFileSource_ExcelSerialDate(t *testing.T) {
	published := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	path := writeWorkbook(t, testSheet, [][]any{
		header(),
		{published, "h", "k", "s", "i", 1, 1, "Neutral", "", ""},
	})

	tbl, err := FileSource{Path: path}.LoadTable(testSheet)
	require.NoError(t, err)

	rec := tbl.Records()[0]
	assert.Equal(t, "05-Mar-2024 12:00PM", rec.DateRaw)
	assert.Equal(t, "2024-03-05", rec.Date.Format("2006-01-02"))
}

func TestFileSource_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(garbage, []byte("not a workbook"), 0o600))

	valid := writeWorkbook(t, testSheet, [][]any{header()})
	noColumns := writeWorkbook(t, testSheet, [][]any{{"Date", "Headline"}})
	badNumber := writeWorkbook(t, testSheet, [][]any{
		header(),
		{"15-Jan-2024 03:45PM", "h", "k", "s", "i", "lots", 1, "Neutral", "", ""},
	})

	tests := []struct {
		name    string
		path    string
		sheet   string
		wantErr error
	}{
		{name: "missing file", path: filepath.Join(dir, "nope.xlsx"), sheet: testSheet},
		{name: "unreadable workbook", path: garbage, sheet: testSheet},
		{name: "missing sheet", path: valid, sheet: "Other", wantErr: ErrSheetNotFound},
		{name: "missing columns", path: noColumns, sheet: testSheet, wantErr: ErrMissingColumn},
		{name: "non-numeric reach", path: badNumber, sheet: testSheet, wantErr: ErrInvalidNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FileSource{Path: tt.path}.LoadTable(tt.sheet)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLoad)
			assert.Contains(t, err.Error(), "failed to read workbook: ")

			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.sheet, le.Sheet)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestBytesSource_CSV(t *testing.T) {
	data := "\xEF\xBB\xBFdate,HEADLINE,Keywords,Source,Influencer,Reach,AVE,Sentiment,Opening Text,Hit Sentence\n" +
		"15-Jan-2024 03:45PM,Delta news,delta,Reuters,Jane,\"1,000\",(12.5),Positive,open,hit\n"

	tbl, err := BytesSource{FileName: "export.CSV", Data: []byte(data)}.LoadTable("ignored")
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	rec := tbl.Records()[0]
	assert.Equal(t, "Delta news", rec.Headline)
	assert.Equal(t, 1000.0, rec.Reach)
	assert.Equal(t, -12.5, rec.AVE)
}

func TestBytesSource_Empty(t *testing.T) {
	_, err := BytesSource{FileName: "upload.xlsx"}.LoadTable(testSheet)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestAnalyzer_LoadsOnce(t *testing.T) {
	path := writeWorkbook(t, testSheet, [][]any{
		header(),
		{"15-Jan-2024 03:45PM", "Delta", "delta", "s", "i", 1, 1, "Positive", "", ""},
	})
	src := &countingSource{Source: FileSource{Path: path}}
	a := New(src, testSheet, NewKeywordSet("delta"))

	assert.False(t, a.Loaded())

	_, err := a.TotalMentions("delta")
	require.NoError(t, err)
	_, err = a.ReachSum("delta")
	require.NoError(t, err)
	_, err = a.SentimentOverview()
	require.NoError(t, err)

	assert.True(t, a.Loaded())
	assert.Equal(t, 1, src.loads)

	_, err = a.Open()
	require.NoError(t, err)
	assert.Equal(t, 2, src.loads, "explicit Open reloads")
}

func TestAnalyzer_LoadFailure(t *testing.T) {
	a := New(FileSource{Path: filepath.Join(t.TempDir(), "missing.xlsx")}, testSheet, KeywordSet{})

	_, err := a.TotalMentions("delta")
	assert.ErrorIs(t, err, ErrLoad)
	assert.False(t, a.Loaded())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"", 0, true},
		{"1234", 1234, true},
		{"$1,234.50", 1234.50, true},
		{"(99.5)", -99.5, true},
		{"€10", 10, true},
		{"1.5e3", 1500, true},
		{"n/a", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseAmount(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseExportDate(t *testing.T) {
	want := time.Date(2024, 1, 5, 15, 4, 0, 0, time.UTC)
	for _, in := range []string{
		"05-Jan-2024 03:04PM",
		"5-Jan-2024 3:04PM",
		"05-Jan-2024 03:04pm",
		"05-JAN-2024 03:04PM",
		"  5-jan-2024 3:04Pm ",
	} {
		t.Run(in, func(t *testing.T) {
			got, err := ParseExportDate(in)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %v", got)
		})
	}

	for _, in := range []string{"2024-01-05", "05-Jan-2024 15:04", "05-Jan-2024 03:04 PM", ""} {
		_, err := ParseExportDate(in)
		assert.Error(t, err, in)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		wantDay string
		wantRaw string
	}{
		{"15-Jan-2024 03:45PM", "2024-01-15", "15-Jan-2024 03:45PM"},
		{"5-Jan-2024 3:04PM", "2024-01-05", "5-Jan-2024 3:04PM"},
		{"05-Jan-2024 03:04pm", "2024-01-05", "05-Jan-2024 03:04pm"},
		{"2024-02-01", "2024-02-01", "2024-02-01"},
		{"45306.5", "2024-01-15", "15-Jan-2024 12:00PM"},
		{"", "", ""},
		{"someday", "", "someday"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, raw := parseDate(tt.in)
			day := ""
			if !got.IsZero() {
				day = got.Format("2006-01-02")
			}
			assert.Equal(t, tt.wantDay, day)
			assert.Equal(t, tt.wantRaw, raw)
		})
	}
}
