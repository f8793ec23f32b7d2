package coverage

import (
	"strconv"
)

// Tabular is implemented by every table-shaped query result so that the web,
// CSV and terminal layers can render results without knowing their type.
// Columns is always populated, even when there are no rows.
type Tabular interface {
	Columns() []string
	Rows() [][]string
}

// SentimentCounts is the sentiment distribution of matched rows.
type SentimentCounts struct {
	Positive int `json:"Positive"`
	Neutral  int `json:"Neutral"`
	Negative int `json:"Negative"`
}

// Sizes returns the counts in Positive, Neutral, Negative order.
func (c SentimentCounts) Sizes() []int {
	return []int{c.Positive, c.Neutral, c.Negative}
}

// Total returns the number of rows carrying a counted label.
func (c SentimentCounts) Total() int {
	return c.Positive + c.Neutral + c.Negative
}

// Map returns the counts keyed by label.
func (c SentimentCounts) Map() map[Sentiment]int {
	return map[Sentiment]int{Positive: c.Positive, Neutral: c.Neutral, Negative: c.Negative}
}

// TrendPoint is the article count for one calendar day.
type TrendPoint struct {
	Date  string `json:"Date"`
	Count int    `json:"Count"`
}

// Trendline is the daily article count series.
type Trendline []TrendPoint

func (Trendline) Columns() []string { return []string{"Date", "Count"} }

func (t Trendline) Rows() [][]string {
	out := make([][]string, len(t))
	for i, p := range t {
		out[i] = []string{p.Date, strconv.Itoa(p.Count)}
	}
	return out
}

// RankedGroup is one entry of a top-N ranking.
type RankedGroup struct {
	Rank   int     `json:"Rank"`
	Name   string  `json:"Name"`
	Volume int     `json:"Volume"`
	AVE    float64 `json:"AVE"`
}

// Ranking is a top-N table grouped by Source or Influencer.
type Ranking struct {
	// GroupColumn is the grouped column header, ColSource or ColInfluencer.
	GroupColumn string        `json:"group_column"`
	Entries     []RankedGroup `json:"entries"`
}

func (r Ranking) Columns() []string {
	return []string{"Rank", r.GroupColumn, "Volume", "AVE"}
}

func (r Ranking) Rows() [][]string {
	out := make([][]string, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = []string{
			strconv.Itoa(e.Rank),
			e.Name,
			strconv.Itoa(e.Volume),
			strconv.FormatFloat(e.AVE, 'f', 2, 64),
		}
	}
	return out
}

// SummaryMetric is one line of the summary table.
type SummaryMetric struct {
	Metric string `json:"Metric"`
	Value  int    `json:"Value"`
}

// SummaryTable lists keyword mention counts followed by sentiment counts.
type SummaryTable []SummaryMetric

func (SummaryTable) Columns() []string { return []string{"Metric", "Value"} }

func (s SummaryTable) Rows() [][]string {
	out := make([][]string, len(s))
	for i, m := range s {
		out[i] = []string{m.Metric, strconv.Itoa(m.Value)}
	}
	return out
}

// KeywordSentiment is the sentiment breakdown for one keyword.
type KeywordSentiment struct {
	Keyword  string `json:"Keyword"`
	Positive int    `json:"Positive"`
	Neutral  int    `json:"Neutral"`
	Negative int    `json:"Negative"`
}

// SentimentTable is the per-keyword sentiment overview.
type SentimentTable []KeywordSentiment

func (SentimentTable) Columns() []string {
	return []string{"Keyword", "Positive", "Neutral", "Negative"}
}

func (s SentimentTable) Rows() [][]string {
	out := make([][]string, len(s))
	for i, k := range s {
		out[i] = []string{k.Keyword, strconv.Itoa(k.Positive), strconv.Itoa(k.Neutral), strconv.Itoa(k.Negative)}
	}
	return out
}

// ProminentArticle is a scored article.
type ProminentArticle struct {
	Date     string  `json:"Date"`
	Headline string  `json:"Headline"`
	Keywords string  `json:"Keywords"`
	Score    float64 `json:"Prominence Score"`
}

// ProminenceTable lists scored articles, highest score first.
type ProminenceTable []ProminentArticle

func (ProminenceTable) Columns() []string {
	return []string{"Date", "Headline", "Keywords", "Prominence Score"}
}

func (p ProminenceTable) Rows() [][]string {
	out := make([][]string, len(p))
	for i, a := range p {
		out[i] = []string{a.Date, a.Headline, a.Keywords, strconv.FormatFloat(a.Score, 'f', 1, 64)}
	}
	return out
}
