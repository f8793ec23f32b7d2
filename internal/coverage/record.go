// Package coverage computes reporting metrics over a media-coverage workbook.
//
// A workbook holds one row per article. The [Analyzer] loads a single sheet
// into an immutable [Table] and answers keyword queries over it: mention
// counts, Reach and AVE sums, sentiment distribution, daily trend counts,
// top sources and authors, and a per-article prominence score.
//
// Chart output is delegated to an injected [PieRenderer] so the metrics can be
// consumed by the web dashboard, the CLI or tests without change.
package coverage

import "time"

// Column headers expected in the coverage sheet.
const (
	ColDate        = "Date"
	ColHeadline    = "Headline"
	ColKeywords    = "Keywords"
	ColSource      = "Source"
	ColInfluencer  = "Influencer"
	ColReach       = "Reach"
	ColAVE         = "AVE"
	ColSentiment   = "Sentiment"
	ColOpeningText = "Opening Text"
	ColHitSentence = "Hit Sentence"
)

// RequiredColumns lists the headers a sheet must carry to be loaded.
var RequiredColumns = []string{
	ColDate, ColHeadline, ColKeywords, ColSource, ColInfluencer,
	ColReach, ColAVE, ColSentiment, ColOpeningText, ColHitSentence,
}

// Sentiment is the tone label attached to an article.
type Sentiment string

const (
	Positive Sentiment = "Positive"
	Neutral  Sentiment = "Neutral"
	Negative Sentiment = "Negative"
)

// Sentiments lists the counted labels in report order.
var Sentiments = []Sentiment{Positive, Neutral, Negative}

// Record is one coverage row.
type Record struct {
	// Date is the parsed publication time. Zero if DateRaw could not be parsed.
	Date time.Time
	// DateRaw is the cell text, normalized to DateLayout for Excel serial dates.
	DateRaw     string
	Headline    string
	Keywords    string
	Source      string
	Influencer  string
	Reach       float64
	AVE         float64
	Sentiment   Sentiment
	OpeningText string
	HitSentence string
}

// Table is the loaded sheet. It is never modified after load.
type Table struct {
	Sheet   string
	records []Record
}

// NewTable builds a table from records. The slice is copied.
func NewTable(sheet string, records []Record) *Table {
	cp := make([]Record, len(records))
	copy(cp, records)
	return &Table{Sheet: sheet, records: cp}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Records returns a copy of the rows.
func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	cp := make([]Record, len(t.records))
	copy(cp, t.records)
	return cp
}

// filter returns the rows accepted by keep, in table order.
func (t *Table) filter(keep func(Record) bool) []Record {
	var out []Record
	for _, r := range t.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
