package core

// preview.go provides a read-only quality check of a loaded workbook.
//
// The preview reports what the metrics will see before a report is built:
//  1. Summary counts: rows, date range, sentiment labels outside the three
//     counted ones, rows without keywords
//  2. Row issues: cells that load but change a metric's result, most
//     importantly Date values the trendline cannot parse
//  3. Sample rows for display
//
// Issues do not block a report. A date issue means the trendline will fail
// with ErrBadDate and the report carries a warning instead.

import (
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/coverage/internal/coverage"
)

// PreviewSummary contains the summary counts for a workbook preview.
type PreviewSummary struct {
	TotalRows        int    `json:"totalRows"`
	UnparsedDates    int    `json:"unparsedDates"`
	UnknownSentiment int    `json:"unknownSentiment"`
	BlankKeywords    int    `json:"blankKeywords"`
	FirstDate        string `json:"firstDate,omitempty"`
	LastDate         string `json:"lastDate,omitempty"`
	TrendlineReady   bool   `json:"trendlineReady"`
}

// RowPreview represents a single row for preview display.
type RowPreview struct {
	Row    int               `json:"row"`
	Values map[string]string `json:"values"`
}

// RowIssue is one cell that will be skipped or will fail a metric.
type RowIssue struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func (e RowIssue) Error() string {
	return "row " + strconv.Itoa(e.Row) + ": " + e.Field + ": " + e.Message
}

// PreviewResponse is the complete response from a workbook preview.
type PreviewResponse struct {
	WorkbookID       string         `json:"workbookId"`
	Summary          PreviewSummary `json:"summary"`
	Samples          []RowPreview   `json:"samples"`
	Issues           []RowIssue     `json:"issues"`
	ProcessingTimeMs int64          `json:"processingTimeMs"`
}

// Sample limits
const (
	DefaultPreviewRows = 10
	MaxPreviewRows     = 100
	maxIssueSamples    = 20
)

// Preview summarizes the workbook and returns up to limit sample rows.
// Row numbers are 1-based positions among the loaded (non-blank) rows.
func (s *Service) Preview(id string, limit int) (*PreviewResponse, error) {
	startTime := time.Now()

	if limit <= 0 {
		limit = DefaultPreviewRows
	}
	if limit > MaxPreviewRows {
		limit = MaxPreviewRows
	}

	a, _, err := s.Workbook(id)
	if err != nil {
		return nil, err
	}
	table, err := a.Table()
	if err != nil {
		return nil, err
	}

	resp := &PreviewResponse{
		WorkbookID: id,
		Samples:    []RowPreview{},
		Issues:     []RowIssue{},
	}
	sum := &resp.Summary

	var first, last time.Time
	for i, r := range table.Records() {
		row := i + 1
		sum.TotalRows++

		for _, issue := range checkRecord(row, r) {
			switch issue.Field {
			case coverage.ColDate:
				sum.UnparsedDates++
			case coverage.ColSentiment:
				sum.UnknownSentiment++
			case coverage.ColKeywords:
				sum.BlankKeywords++
			}
			if len(resp.Issues) < maxIssueSamples {
				resp.Issues = append(resp.Issues, issue)
			}
		}

		if !r.Date.IsZero() {
			if first.IsZero() || r.Date.Before(first) {
				first = r.Date
			}
			if r.Date.After(last) {
				last = r.Date
			}
		}

		if len(resp.Samples) < limit {
			resp.Samples = append(resp.Samples, RowPreview{Row: row, Values: recordValues(r)})
		}
	}

	if !first.IsZero() {
		sum.FirstDate = first.Format("2006-01-02")
		sum.LastDate = last.Format("2006-01-02")
	}
	sum.TrendlineReady = sum.UnparsedDates == 0
	resp.ProcessingTimeMs = time.Since(startTime).Milliseconds()

	s.logger.Debug("workbook preview",
		"workbook_id", id,
		"rows", sum.TotalRows,
		"unparsed_dates", sum.UnparsedDates,
		"duration_ms", resp.ProcessingTimeMs,
	)

	return resp, nil
}

// checkRecord returns every issue found in one record.
func checkRecord(row int, r coverage.Record) []RowIssue {
	var issues []RowIssue

	if _, err := coverage.ParseExportDate(r.DateRaw); err != nil {
		msg := "does not match " + coverage.DateLayout + "; the trendline cannot be computed"
		if strings.TrimSpace(r.DateRaw) == "" {
			msg = "is blank; the trendline cannot be computed"
		}
		issues = append(issues, RowIssue{Row: row, Field: coverage.ColDate, Value: r.DateRaw, Message: msg})
	}

	if !knownSentiment(r.Sentiment) {
		issues = append(issues, RowIssue{
			Row:     row,
			Field:   coverage.ColSentiment,
			Value:   string(r.Sentiment),
			Message: "is not Positive, Neutral or Negative and is not counted",
		})
	}

	if strings.TrimSpace(r.Keywords) == "" {
		issues = append(issues, RowIssue{
			Row:     row,
			Field:   coverage.ColKeywords,
			Message: "is blank; the row matches no keyword",
		})
	}

	return issues
}

func knownSentiment(s coverage.Sentiment) bool {
	for _, known := range coverage.Sentiments {
		if s == known {
			return true
		}
	}
	return false
}

// recordValues returns the cells of r keyed by column header.
func recordValues(r coverage.Record) map[string]string {
	return map[string]string{
		coverage.ColDate:        r.DateRaw,
		coverage.ColHeadline:    r.Headline,
		coverage.ColKeywords:    r.Keywords,
		coverage.ColSource:      r.Source,
		coverage.ColInfluencer:  r.Influencer,
		coverage.ColReach:       strconv.FormatFloat(r.Reach, 'f', -1, 64),
		coverage.ColAVE:         strconv.FormatFloat(r.AVE, 'f', 2, 64),
		coverage.ColSentiment:   string(r.Sentiment),
		coverage.ColOpeningText: r.OpeningText,
		coverage.ColHitSentence: r.HitSentence,
	}
}
