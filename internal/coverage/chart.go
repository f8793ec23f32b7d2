package coverage

import "sync"

// PieRenderer draws the pie charts that accompany sentiment and summary
// queries. Return values are not consumed, so implementations handle their
// own failures.
type PieRenderer interface {
	// SentimentPie receives the Positive, Neutral and Negative counts.
	SentimentPie(sizes []int)
	// PiePair receives the keyword mention counts (inner) and the mention
	// counts followed by the sentiment counts (outer).
	PiePair(inner, outer []int)
}

// NopRenderer discards all charts.
type NopRenderer struct{}

func (NopRenderer) SentimentPie([]int) {}

func (NopRenderer) PiePair([]int, []int) {}

// ChartKind identifies a recorded chart call.
type ChartKind string

const (
	ChartSentimentPie ChartKind = "sentiment_pie"
	ChartPiePair      ChartKind = "pie_pair"
)

// Chart is one recorded renderer call.
type Chart struct {
	Kind  ChartKind `json:"kind"`
	Inner []int     `json:"inner"`
	Outer []int     `json:"outer,omitempty"`
}

// ChartRecorder keeps every chart it is asked to draw.
// For SentimentPie only Inner is set.
type ChartRecorder struct {
	mu     sync.Mutex
	charts []Chart
}

func (r *ChartRecorder) SentimentPie(sizes []int) {
	r.record(Chart{Kind: ChartSentimentPie, Inner: cloneInts(sizes)})
}

func (r *ChartRecorder) PiePair(inner, outer []int) {
	r.record(Chart{Kind: ChartPiePair, Inner: cloneInts(inner), Outer: cloneInts(outer)})
}

func (r *ChartRecorder) record(c Chart) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.charts = append(r.charts, c)
}

// Charts returns the recorded charts in call order.
func (r *ChartRecorder) Charts() []Chart {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Chart, len(r.charts))
	copy(out, r.charts)
	return out
}

func cloneInts(v []int) []int {
	out := make([]int, len(v))
	copy(out, v)
	return out
}
