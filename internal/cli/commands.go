package cli

import (
	"github.com/JonMunkholm/coverage/internal/coverage"
	"github.com/spf13/cobra"
)

// query computes one metric from an analyzer and the resolved terms.
type query func(a *coverage.Analyzer, terms []string) (any, error)

type metricDef struct {
	use   string
	short string
	label string
	// slots marks metrics driven by the keyword slots instead of --keyword.
	slots bool
	run   query
}

var metrics = []metricDef{
	{use: "mentions", short: "Count rows whose Keywords contain a keyword (case-insensitive)", label: "Mentions",
		run: func(a *coverage.Analyzer, t []string) (any, error) { return a.TotalMentions(t...) }},
	{use: "headlines", short: "Count rows whose Headline contains a keyword (case-insensitive)", label: "Headline mentions",
		run: func(a *coverage.Analyzer, t []string) (any, error) { return a.HeadlineMentions(t...) }},
	{use: "reach", short: "Sum Reach over matching rows", label: "Reach",
		run: func(a *coverage.Analyzer, t []string) (any, error) { return a.ReachSum(t...) }},
	{use: "ave", short: "Sum AVE over matching rows", label: "AVE",
		run: func(a *coverage.Analyzer, t []string) (any, error) { return a.AVESum(t...) }},
	{use: "sentiment", short: "Count Positive, Neutral and Negative matching rows", label: "Sentiment",
		run: func(a *coverage.Analyzer, t []string) (any, error) { return a.SentimentCounts(t...) }},
	{use: "trend", short: "Daily article counts (keywords matched case-sensitively)", label: "Trendline",
		run: func(a *coverage.Analyzer, t []string) (any, error) { return a.DailyTrendline(t...) }},
	{use: "top-sources", short: "Top five sources by volume", label: "Top sources",
		run: func(a *coverage.Analyzer, t []string) (any, error) { return a.TopSources(t...) }},
	{use: "top-authors", short: "Top five authors by volume", label: "Top authors",
		run: func(a *coverage.Analyzer, t []string) (any, error) { return a.TopAuthors(t...) }},
	{use: "summary", short: "Mentions per keyword slot and sentiment of slot 1", label: "Summary", slots: true,
		run: func(a *coverage.Analyzer, _ []string) (any, error) { return a.Summary() }},
	{use: "overview", short: "Sentiment breakdown per keyword slot", label: "Sentiment overview", slots: true,
		run: func(a *coverage.Analyzer, _ []string) (any, error) { return a.SentimentOverview() }},
	{use: "prominence", short: "Score articles by where each keyword appears", label: "Prominence",
		run: func(a *coverage.Analyzer, t []string) (any, error) {
			groups := make([]coverage.KeywordGroup, len(t))
			for i, kw := range t {
				groups[i] = coverage.Terms(kw)
			}
			return a.ProminenceScores(groups...)
		}},
}

func metricCommands(opts *options) []*cobra.Command {
	cmds := make([]*cobra.Command, len(metrics))
	for i, m := range metrics {
		m := m
		cmds[i] = &cobra.Command{
			Use:   m.use,
			Short: m.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.runMetric(m)
			},
		}
	}
	return cmds
}

func (o *options) runMetric(m metricDef) error {
	var renderer coverage.PieRenderer = coverage.NopRenderer{}
	charts := &coverage.ChartRecorder{}
	if o.format == FormatTable && o.charts {
		renderer = charts
	}

	a, err := o.analyzer(renderer)
	if err != nil {
		return err
	}

	var terms []string
	if !m.slots {
		terms = o.terms(a)
	}

	value, err := m.run(a, terms)
	if err != nil {
		return err
	}

	if err := o.write(m.label, terms, value); err != nil {
		return err
	}
	if o.format == FormatTable {
		return drawCharts(o.stdout, charts.Charts(), summaryLabels(value))
	}
	return nil
}
