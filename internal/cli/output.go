package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JonMunkholm/coverage/internal/coverage"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorBorder  = lipgloss.AdaptiveColor{Light: "#DBDBDB", Dark: "#383838"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	termsStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	headerCellStyle = lipgloss.NewStyle().
			Bold(true).
			PaddingRight(2)

	cellStyle = lipgloss.NewStyle().
			PaddingRight(2)

	ruleStyle = lipgloss.NewStyle().
			Foreground(colorBorder)

	valueStyle = lipgloss.NewStyle().
			Bold(true)

	// sliceColors colour chart bars in order, wrapping when exhausted.
	sliceColors = []lipgloss.Color{"#3E7CB1", "#81A4CD", "#F17300", "#054A91", "#8FB339", "#C5283D"}

	// sentimentColors colour the Positive, Neutral and Negative bars.
	sentimentColors = []lipgloss.Color{"#2F9E44", "#ADB5BD", "#E03131"}
)

// chartWidth is the bar length of a full chart in cells.
const chartWidth = 40

// sentimentTable adapts SentimentCounts to the Tabular output path.
type sentimentTable coverage.SentimentCounts

func (sentimentTable) Columns() []string { return []string{"Sentiment", "Count"} }

func (s sentimentTable) Rows() [][]string {
	c := coverage.SentimentCounts(s)
	return [][]string{
		{string(coverage.Positive), strconv.Itoa(c.Positive)},
		{string(coverage.Neutral), strconv.Itoa(c.Neutral)},
		{string(coverage.Negative), strconv.Itoa(c.Negative)},
	}
}

// scalarTable is a one-row Metric/Value table for CSV output of scalars.
type scalarTable struct {
	label string
	value string
}

func (scalarTable) Columns() []string { return []string{"Metric", "Value"} }

func (s scalarTable) Rows() [][]string { return [][]string{{s.label, s.value}} }

// write prints value in the selected format.
func (o *options) write(label string, terms []string, value any) error {
	var t coverage.Tabular
	switch v := value.(type) {
	case coverage.Tabular:
		t = v
	case coverage.SentimentCounts:
		t = sentimentTable(v)
	case int:
		t = scalarTable{label, strconv.Itoa(v)}
	case float64:
		t = scalarTable{label, strconv.FormatFloat(v, 'f', -1, 64)}
	default:
		return fmt.Errorf("unsupported result type %T", value)
	}

	if o.format == FormatCSV {
		return writeCSV(o.stdout, t)
	}

	title := titleStyle.Render(label)
	if len(terms) > 0 {
		title += " " + termsStyle.Render("("+strings.Join(terms, ", ")+")")
	}
	if st, ok := t.(scalarTable); ok {
		_, err := fmt.Fprintf(o.stdout, "%s: %s\n", title, valueStyle.Render(st.value))
		return err
	}

	if _, err := fmt.Fprintln(o.stdout, title); err != nil {
		return err
	}
	_, err := io.WriteString(o.stdout, renderTable(t)+"\n")
	return err
}

func writeCSV(w io.Writer, t coverage.Tabular) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	return cw.WriteAll(t.Rows())
}

// renderTable lays out t in padded columns under a rule.
func renderTable(t coverage.Tabular) string {
	cols := t.Columns()
	rows := t.Rows()

	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = lipgloss.Width(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = style.Width(widths[i] + 2).Render(cell)
		}
		return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, parts...), " ")
	}

	total := 0
	for _, w := range widths {
		total += w + 2
	}

	var b strings.Builder
	b.WriteString(line(cols, headerCellStyle))
	b.WriteString("\n")
	b.WriteString(ruleStyle.Render(strings.Repeat("─", max(total-2, 1))))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(line(row, cellStyle))
	}
	if len(rows) == 0 {
		b.WriteString("\n")
		b.WriteString(termsStyle.Render("(no matching rows)"))
	}
	return b.String()
}

// summaryLabels returns the keyword names heading a summary table.
func summaryLabels(value any) []string {
	s, ok := value.(coverage.SummaryTable)
	if !ok {
		return nil
	}
	n := len(s) - len(coverage.Sentiments)
	if n <= 0 {
		return nil
	}
	out := make([]string, n)
	for i, m := range s[:n] {
		out[i] = strings.TrimSpace(m.Metric)
	}
	return out
}

// drawCharts renders recorded pies as proportional bars.
func drawCharts(w io.Writer, charts []coverage.Chart, keywords []string) error {
	sentimentLabels := []string{string(coverage.Positive), string(coverage.Neutral), string(coverage.Negative)}

	for _, c := range charts {
		var out string
		switch c.Kind {
		case coverage.ChartPiePair:
			outerLabels := append(append([]string{}, keywords...), sentimentLabels...)
			outerColors := make([]lipgloss.Color, 0, len(c.Outer))
			for i := range keywords {
				outerColors = append(outerColors, sliceColors[i%len(sliceColors)])
			}
			outerColors = append(outerColors, sentimentColors...)
			out = bar("Mentions", c.Inner, keywords, sliceColors) + "\n" +
				bar("Mentions and sentiment", c.Outer, outerLabels, outerColors)
		default:
			out = bar("Sentiment", c.Inner, sentimentLabels, sentimentColors)
		}
		if _, err := fmt.Fprintf(w, "\n%s\n", out); err != nil {
			return err
		}
	}
	return nil
}

// bar draws values as one stacked bar with a percentage legend.
func bar(title string, values []int, labels []string, colors []lipgloss.Color) string {
	total := 0
	for _, v := range values {
		total += v
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if total == 0 {
		b.WriteString(termsStyle.Render(strings.Repeat("░", chartWidth)))
		b.WriteString("\n")
		b.WriteString(termsStyle.Render("(no data)"))
		return b.String()
	}

	var legend []string
	for i, v := range values {
		color := colors[i%len(colors)]
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		cells := v * chartWidth / total
		if v > 0 && cells == 0 {
			cells = 1
		}
		b.WriteString(lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", cells)))
		legend = append(legend, fmt.Sprintf("%s %s %d (%.1f%%)",
			lipgloss.NewStyle().Foreground(color).Render("■"), label, v, 100*float64(v)/float64(total)))
	}
	b.WriteString("\n")
	b.WriteString(strings.Join(legend, "  "))
	return b.String()
}
