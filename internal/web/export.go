package web

import (
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/coverage/internal/core"
	"github.com/JonMunkholm/coverage/internal/coverage"
	"github.com/xuri/excelize/v2"
)

// Sheet names written by WriteReportXLSX, in order.
const (
	SheetOverview  = "Overview"
	SheetTrendline = "Trendline"
	SheetSources   = "Top Sources"
	SheetAuthors   = "Top Authors"
	SheetSummary   = "Summary"
	SheetSentiment = "Sentiment"
	SheetProminent = "Prominence"
)

// WriteReportXLSX writes rep as an xlsx workbook. The first sheet holds the
// scalar metrics; every table gets its own sheet with a bold header row.
func WriteReportXLSX(w io.Writer, rep *core.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetOverview); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	overview := [][]string{
		{"Metric", "Value"},
		{"Workbook", rep.WorkbookName},
		{"Sheet", rep.Sheet},
		{"Keywords", fmt.Sprint(rep.Terms)},
		{"Generated", rep.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Total Mentions", strconv.Itoa(rep.TotalMentions)},
		{"Headline Mentions", strconv.Itoa(rep.HeadlineMentions)},
		{"Reach", strconv.FormatFloat(rep.Reach, 'f', -1, 64)},
		{"AVE", strconv.FormatFloat(rep.AVE, 'f', 2, 64)},
		{"Positive", strconv.Itoa(rep.Sentiment.Positive)},
		{"Neutral", strconv.Itoa(rep.Sentiment.Neutral)},
		{"Negative", strconv.Itoa(rep.Sentiment.Negative)},
	}
	for _, warn := range rep.Warnings {
		overview = append(overview, []string{"Warning", warn})
	}
	if err := writeSheetRows(f, SheetOverview, overview, bold); err != nil {
		return err
	}

	tables := []struct {
		sheet string
		data  coverage.Tabular
	}{
		{SheetTrendline, rep.Trendline},
		{SheetSources, rep.TopSources},
		{SheetAuthors, rep.TopAuthors},
		{SheetSummary, rep.Summary},
		{SheetSentiment, rep.SentimentOverview},
		{SheetProminent, rep.Prominence},
	}
	for _, t := range tables {
		if _, err := f.NewSheet(t.sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", t.sheet, err)
		}
		rows := append([][]string{t.data.Columns()}, t.data.Rows()...)
		if err := writeSheetRows(f, t.sheet, rows, bold); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheetRows(f *excelize.File, sheet string, rows [][]string, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) > 0 {
		if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
			return fmt.Errorf("style %s header: %w", sheet, err)
		}
	}
	return nil
}
