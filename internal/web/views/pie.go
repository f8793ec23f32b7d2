package views

import (
	"context"
	"io"
	"math"

	"github.com/JonMunkholm/coverage/internal/coverage"
	"github.com/a-h/templ"
)

// Palette colours slices in order and wraps when there are more values.
var Palette = []string{"#3e7cb1", "#81a4cd", "#dbe4ee", "#f17300", "#054a91", "#8fb339", "#c5283d"}

// SentimentColors are used for the Positive, Neutral and Negative slices.
var SentimentColors = []string{"#2f9e44", "#adb5bd", "#e03131"}

// Slice is one labelled pie segment.
type Slice struct {
	Label string
	Value int
	Color string
}

// Pie renders slices as an inline SVG pie of the given pixel size with a
// legend. Zero slices are skipped; an all-zero pie renders an empty circle.
func Pie(title string, slices []Slice, size int) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		r := float64(size) / 2

		p.printf(`<figure><figcaption>%s</figcaption>`, templ.EscapeString(title))
		p.printf(`<svg width="%d" height="%d" viewBox="0 0 %d %d" role="img">`, size, size, size, size)

		total := 0
		for _, s := range slices {
			if s.Value > 0 {
				total += s.Value
			}
		}

		switch {
		case total == 0:
			p.printf(`<circle cx="%.2f" cy="%.2f" r="%.2f" fill="#e4e7eb"/>`, r, r, r)
		case countPositive(slices) == 1:
			for _, s := range slices {
				if s.Value > 0 {
					p.printf(`<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`, r, r, r, s.Color)
				}
			}
		default:
			angle := -math.Pi / 2
			for _, s := range slices {
				if s.Value <= 0 {
					continue
				}
				sweep := 2 * math.Pi * float64(s.Value) / float64(total)
				x1, y1 := r+r*math.Cos(angle), r+r*math.Sin(angle)
				angle += sweep
				x2, y2 := r+r*math.Cos(angle), r+r*math.Sin(angle)
				large := 0
				if sweep > math.Pi {
					large = 1
				}
				p.printf(`<path d="M%.2f,%.2f L%.2f,%.2f A%.2f,%.2f 0 %d,1 %.2f,%.2f Z" fill="%s"><title>%s: %d</title></path>`,
					r, r, x1, y1, r, r, large, x2, y2, s.Color, templ.EscapeString(s.Label), s.Value)
			}
		}
		p.printf(`</svg><div class="legend">`)
		for _, s := range slices {
			p.printf(`<span style="background:%s"></span>%s (%d)`, s.Color, templ.EscapeString(s.Label), s.Value)
		}
		p.printf(`</div></figure>`)
		return p.err
	})
}

func countPositive(slices []Slice) int {
	n := 0
	for _, s := range slices {
		if s.Value > 0 {
			n++
		}
	}
	return n
}

// ChartView renders a recorded analyzer chart. keywords labels the mention
// slices of a pie pair.
func ChartView(c coverage.Chart, keywords []string) templ.Component {
	switch c.Kind {
	case coverage.ChartPiePair:
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			if _, err := io.WriteString(w, `<div class="charts">`); err != nil {
				return err
			}
			if err := Pie("Mentions", labelled(c.Inner, keywords, Palette), 180).Render(ctx, w); err != nil {
				return err
			}
			outerLabels := append(append([]string{}, keywords...), sentimentLabels()...)
			outerColors := append(append([]string{}, Palette[:min(len(keywords), len(Palette))]...), SentimentColors...)
			if err := Pie("Mentions and sentiment", labelled(c.Outer, outerLabels, outerColors), 180).Render(ctx, w); err != nil {
				return err
			}
			_, err := io.WriteString(w, `</div>`)
			return err
		})
	default:
		return Pie("Sentiment", labelled(c.Inner, sentimentLabels(), SentimentColors), 180)
	}
}

func sentimentLabels() []string {
	out := make([]string, len(coverage.Sentiments))
	for i, s := range coverage.Sentiments {
		out[i] = string(s)
	}
	return out
}

func labelled(values []int, labels, colors []string) []Slice {
	out := make([]Slice, len(values))
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		out[i] = Slice{Label: label, Value: v, Color: colors[i%len(colors)]}
	}
	return out
}
