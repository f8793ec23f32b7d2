package coverage

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// TopN is the number of groups kept by the source and author rankings.
const TopN = 5

// metricWidth is the column width metric names are padded to in the summary.
const metricWidth = 25

// Analyzer answers reporting queries over one coverage sheet.
//
// The sheet is loaded on the first query, or by an explicit call to Open, and
// reused by every later query. Query methods never modify the loaded table.
type Analyzer struct {
	source   Source
	sheet    string
	keywords KeywordSet
	renderer PieRenderer
	logger   *slog.Logger

	state *tableState
}

// tableState is shared between an Analyzer and the views made by WithRenderer.
type tableState struct {
	mu    sync.Mutex
	table *Table
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for load events.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithPieRenderer sets the chart renderer. Defaults to NopRenderer.
func WithPieRenderer(r PieRenderer) Option {
	return func(a *Analyzer) {
		if r != nil {
			a.renderer = r
		}
	}
}

// WithTable preloads a table, skipping the source read.
func WithTable(t *Table) Option {
	return func(a *Analyzer) {
		a.state.table = t
	}
}

// New creates an analyzer for one sheet of src.
func New(src Source, sheet string, keywords KeywordSet, opts ...Option) *Analyzer {
	a := &Analyzer{
		source:   src,
		sheet:    sheet,
		keywords: keywords,
		renderer: NopRenderer{},
		logger:   slog.Default(),
		state:    &tableState{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// WithRenderer returns an analyzer that shares the loaded table but sends
// charts to r. Used to collect charts per request.
func (a *Analyzer) WithRenderer(r PieRenderer) *Analyzer {
	cp := *a
	if r == nil {
		r = NopRenderer{}
	}
	cp.renderer = r
	return &cp
}

// Keywords returns the configured keyword slots.
func (a *Analyzer) Keywords() KeywordSet { return a.keywords }

// Sheet returns the sheet name the analyzer reads.
func (a *Analyzer) Sheet() string { return a.sheet }

// SourceName returns the name of the underlying source.
func (a *Analyzer) SourceName() string {
	if a.source == nil {
		return ""
	}
	return a.source.Name()
}

// Loaded reports whether the table has been read.
func (a *Analyzer) Loaded() bool {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()
	return a.state.table != nil
}

// Open reads the sheet from the source, replacing any cached table.
func (a *Analyzer) Open() (*Table, error) {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()
	return a.loadLocked()
}

// Table returns the cached table, loading it on first use.
func (a *Analyzer) Table() (*Table, error) {
	a.state.mu.Lock()
	defer a.state.mu.Unlock()
	if a.state.table != nil {
		return a.state.table, nil
	}
	return a.loadLocked()
}

func (a *Analyzer) loadLocked() (*Table, error) {
	if a.source == nil {
		return nil, loadErr("", a.sheet, fmt.Errorf("no source configured"))
	}

	start := time.Now()
	t, err := a.source.LoadTable(a.sheet)
	if err != nil {
		a.logger.Error("coverage sheet load failed",
			"source", a.source.Name(),
			"sheet", a.sheet,
			"error", err,
		)
		return nil, err
	}

	a.state.table = t
	a.logger.Info("coverage sheet loaded",
		"source", a.source.Name(),
		"sheet", a.sheet,
		"rows", t.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return t, nil
}

// matching returns the rows whose field value matches any of terms.
func (a *Analyzer) matching(field func(Record) string, match Matcher, terms []string) ([]Record, error) {
	t, err := a.Table()
	if err != nil {
		return nil, err
	}
	terms = normalizeTerms(terms)
	return t.filter(func(r Record) bool {
		return match(field(r), terms)
	}), nil
}

func keywordsOf(r Record) string { return r.Keywords }
func headlineOf(r Record) string { return r.Headline }

// TotalMentions counts rows whose Keywords mention any term, ignoring case.
func (a *Analyzer) TotalMentions(terms ...string) (int, error) {
	rows, err := a.matching(keywordsOf, FoldedContains, terms)
	return len(rows), err
}

// HeadlineMentions counts rows whose Headline mentions any term, ignoring case.
func (a *Analyzer) HeadlineMentions(terms ...string) (int, error) {
	rows, err := a.matching(headlineOf, FoldedContains, terms)
	return len(rows), err
}

// ReachSum totals Reach over rows whose Keywords mention any term, ignoring case.
func (a *Analyzer) ReachSum(terms ...string) (float64, error) {
	rows, err := a.matching(keywordsOf, FoldedContains, terms)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, r := range rows {
		sum += r.Reach
	}
	return sum, nil
}

// AVESum totals AVE over rows whose Keywords mention any term, ignoring case.
func (a *Analyzer) AVESum(terms ...string) (float64, error) {
	rows, err := a.matching(keywordsOf, FoldedContains, terms)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, r := range rows {
		sum += r.AVE
	}
	return sum, nil
}

// SentimentCounts counts Positive, Neutral and Negative rows among those whose
// Keywords mention any term, ignoring case, and draws the sentiment pie.
// Other sentiment labels are not counted.
func (a *Analyzer) SentimentCounts(terms ...string) (SentimentCounts, error) {
	rows, err := a.matching(keywordsOf, FoldedContains, terms)
	if err != nil {
		return SentimentCounts{}, err
	}

	var c SentimentCounts
	for _, r := range rows {
		switch r.Sentiment {
		case Positive:
			c.Positive++
		case Neutral:
			c.Neutral++
		case Negative:
			c.Negative++
		}
	}

	a.renderer.SentimentPie(c.Sizes())
	return c, nil
}

// DailyTrendline counts matching rows per calendar day.
//
// Every Date must parse with ParseExportDate, matched or not, or ErrBadDate
// is returned. Keywords are matched case-sensitively. Points are labelled
// "Jan-02" and ordered by that label, not chronologically.
func (a *Analyzer) DailyTrendline(terms ...string) (Trendline, error) {
	t, err := a.Table()
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, len(t.records))
	for i, r := range t.records {
		d, err := ParseExportDate(r.DateRaw)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %q does not match %s", ErrBadDate, i+1, r.DateRaw, DateLayout)
		}
		dates[i] = d
	}

	terms = normalizeTerms(terms)
	counts := make(map[time.Time]int)
	for i, r := range t.records {
		if !ExactContains(r.Keywords, terms) {
			continue
		}
		y, m, d := dates[i].Date()
		counts[time.Date(y, m, d, 0, 0, 0, 0, time.UTC)]++
	}

	days := make([]time.Time, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	line := make(Trendline, len(days))
	for i, d := range days {
		line[i] = TrendPoint{Date: d.Format("Jan-02"), Count: counts[d]}
	}
	sort.SliceStable(line, func(i, j int) bool { return line[i].Date < line[j].Date })

	return line, nil
}

// TopSources ranks the five Sources with the most matching rows.
// Keywords are matched case-sensitively.
func (a *Analyzer) TopSources(terms ...string) (Ranking, error) {
	return a.rank(ColSource, func(r Record) string { return r.Source }, terms)
}

// TopAuthors ranks the five Influencers with the most matching rows.
// Keywords are matched case-sensitively.
func (a *Analyzer) TopAuthors(terms ...string) (Ranking, error) {
	return a.rank(ColInfluencer, func(r Record) string { return r.Influencer }, terms)
}

func (a *Analyzer) rank(column string, group func(Record) string, terms []string) (Ranking, error) {
	result := Ranking{GroupColumn: column, Entries: []RankedGroup{}}

	rows, err := a.matching(keywordsOf, ExactContains, terms)
	if err != nil {
		return result, err
	}

	volume := make(map[string]int)
	ave := make(map[string]float64)
	for _, r := range rows {
		name := group(r)
		if name == "" {
			continue
		}
		volume[name]++
		ave[name] += r.AVE
	}

	names := make([]string, 0, len(volume))
	for name := range volume {
		names = append(names, name)
	}
	sort.Strings(names)
	sort.SliceStable(names, func(i, j int) bool { return volume[names[i]] > volume[names[j]] })
	if len(names) > TopN {
		names = names[:TopN]
	}

	for _, name := range names {
		result.Entries = append(result.Entries, RankedGroup{
			Name:   name,
			Volume: volume[name],
			AVE:    round2(ave[name]),
		})
	}
	sort.SliceStable(result.Entries, func(i, j int) bool {
		return result.Entries[i].Volume > result.Entries[j].Volume
	})
	for i := range result.Entries {
		result.Entries[i].Rank = i + 1
	}

	return result, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Summary builds the metric table for the selected keyword slots: mention
// counts per keyword followed by the sentiment counts of slot 1. It draws the
// slot 1 sentiment pie and the mentions/overall pie pair.
func (a *Analyzer) Summary() (SummaryTable, error) {
	sentiment, err := a.SentimentCounts(a.keywords.Primary())
	if err != nil {
		return nil, err
	}

	var names []string
	var values []int
	seen := make(map[string]bool)
	for _, kw := range a.keywords.Selected() {
		if seen[kw] {
			continue
		}
		seen[kw] = true

		n, err := a.TotalMentions(kw)
		if err != nil {
			return nil, err
		}
		names = append(names, kw)
		values = append(values, n)
	}
	mentionCount := len(values)

	for _, s := range Sentiments {
		names = append(names, string(s))
	}
	values = append(values, sentiment.Sizes()...)

	table := make(SummaryTable, len(names))
	for i := range names {
		table[i] = SummaryMetric{
			Metric: fmt.Sprintf("%-*s", metricWidth, names[i]),
			Value:  values[i],
		}
	}

	a.renderer.PiePair(cloneInts(values[:mentionCount]), cloneInts(values))
	return table, nil
}

// SentimentOverview returns the sentiment breakdown for each selected keyword
// slot. The result is empty when no slot is configured.
func (a *Analyzer) SentimentOverview() (SentimentTable, error) {
	if _, err := a.Table(); err != nil {
		return nil, err
	}

	out := SentimentTable{}
	for _, kw := range a.keywords.Selected() {
		c, err := a.SentimentCounts(kw)
		if err != nil {
			return nil, err
		}
		out = append(out, KeywordSentiment{
			Keyword:  kw,
			Positive: c.Positive,
			Neutral:  c.Neutral,
			Negative: c.Negative,
		})
	}
	return out, nil
}

// Prominence scores by the most prominent field a keyword appears in.
const (
	ScoreHeadline    = 1.0
	ScoreOpeningText = 0.7
	ScoreHitSentence = 0.1
)

// ProminenceScores scores every row by where the keywords appear, ignoring
// case. Each group is scored on its own and a row keeps its best score. Rows
// with no mention are dropped; the rest are sorted by score, highest first.
func (a *Analyzer) ProminenceScores(groups ...KeywordGroup) (ProminenceTable, error) {
	t, err := a.Table()
	if err != nil {
		return nil, err
	}

	var lowered [][]string
	for _, g := range groups {
		terms := normalizeTerms(g)
		if len(terms) == 0 {
			continue
		}
		for i := range terms {
			terms[i] = strings.ToLower(terms[i])
		}
		lowered = append(lowered, terms)
	}

	out := ProminenceTable{}
	if len(lowered) == 0 {
		return out, nil
	}

	for _, r := range t.records {
		score := prominence(r, lowered)
		if score == 0 {
			continue
		}
		date := ""
		if !r.Date.IsZero() {
			date = r.Date.Format("2006-01-02")
		}
		out = append(out, ProminentArticle{
			Date:     date,
			Headline: r.Headline,
			Keywords: r.Keywords,
			Score:    score,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// prominence returns the best score of r across groups. Terms must be lowercase.
func prominence(r Record, groups [][]string) float64 {
	headline := strings.ToLower(r.Headline)
	opening := strings.ToLower(r.OpeningText)
	hit := strings.ToLower(r.HitSentence)

	best := 0.0
	for _, terms := range groups {
		var score float64
		switch {
		case containsAny(headline, terms):
			score = ScoreHeadline
		case containsAny(opening, terms):
			score = ScoreOpeningText
		case containsAny(hit, terms):
			score = ScoreHitSentence
		}
		best = math.Max(best, score)
	}
	return best
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
