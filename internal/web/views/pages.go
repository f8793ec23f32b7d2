package views

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/coverage/internal/core"
	"github.com/JonMunkholm/coverage/internal/coverage"
	"github.com/a-h/templ"
)

// DashboardData is the input of the dashboard page.
type DashboardData struct {
	Workbooks        []core.WorkbookInfo
	Keywords         []string
	DefaultSheet     string
	SnapshotsEnabled bool
}

// Dashboard lists loaded workbooks and offers an upload form.
func Dashboard(d DashboardData) templ.Component {
	return Page("Coverage Reports", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}

		p.printf(`<section><h2>Upload workbook</h2>`)
		p.printf(`<form method="post" action="/upload" enctype="multipart/form-data">`)
		p.printf(`<input type="file" name="file" accept=".xlsx,.csv" required> `)
		p.printf(`<label>Sheet <input type="text" name="sheet" placeholder="%s"></label> `, templ.EscapeString(d.DefaultSheet))
		p.printf(`<button type="submit">Upload</button></form>`)
		if len(d.Keywords) > 0 {
			p.printf(`<p class="muted">Report keywords: %s</p>`, templ.EscapeString(strings.Join(d.Keywords, ", ")))
		} else {
			p.printf(`<p class="muted">No report keywords configured. Set KEYWORDS or add ?keyword= to a report.</p>`)
		}
		p.printf(`</section>`)

		p.printf(`<section><h2>Workbooks</h2>`)
		if len(d.Workbooks) == 0 {
			p.printf(`<p class="muted">No workbooks loaded yet.</p>`)
		} else {
			p.printf(`<table><thead><tr><th>Name</th><th>Sheet</th><th>Rows</th><th>Loaded</th></tr></thead><tbody>`)
			for _, wb := range d.Workbooks {
				p.printf(`<tr><td><a href="/workbook/%s">%s</a></td><td>%s</td><td>%d</td><td>%s</td></tr>`,
					url.PathEscape(wb.ID),
					templ.EscapeString(wb.Name),
					templ.EscapeString(wb.Sheet),
					wb.Rows,
					wb.UploadedAt.Format("2006-01-02 15:04"),
				)
			}
			p.printf(`</tbody></table>`)
		}
		if !d.SnapshotsEnabled {
			p.printf(`<p class="muted">Snapshots are disabled. Configure DATABASE_URL to keep report history.</p>`)
		}
		p.printf(`</section>`)
		return p.err
	}))
}

// ReportPage renders every metric of rep with its charts.
func ReportPage(rep *core.Report) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		query := termsQuery(rep.Terms)
		base := "/api/workbooks/" + url.PathEscape(rep.WorkbookID)

		p.printf(`<section><h2>%s</h2><p class="muted">Sheet %s, generated %s</p>`,
			templ.EscapeString(rep.WorkbookName),
			templ.EscapeString(rep.Sheet),
			rep.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
		p.printf(`<form method="get">`)
		p.printf(`<label>Keywords <input type="text" name="keyword" value="%s"></label> `, templ.EscapeString(strings.Join(rep.Terms, ",")))
		p.printf(`<button type="submit">Apply</button></form>`)
		p.printf(`<p><a href="%s/report.xlsx%s">Download xlsx</a> | <a href="%s/report%s">JSON</a></p></section>`,
			base, query, base, query)

		for _, warn := range rep.Warnings {
			p.printf(`<section class="warn">%s</section>`, templ.EscapeString(warn))
		}

		p.printf(`<section><div class="metrics">`)
		metric := func(label, value string) {
			p.printf(`<div class="metric"><span class="muted">%s</span><b>%s</b></div>`, label, templ.EscapeString(value))
		}
		metric("Mentions", strconv.Itoa(rep.TotalMentions))
		metric("Headline mentions", strconv.Itoa(rep.HeadlineMentions))
		metric("Reach", strconv.FormatFloat(rep.Reach, 'f', -1, 64))
		metric("AVE", strconv.FormatFloat(rep.AVE, 'f', 2, 64))
		p.printf(`</div></section>`)
		if p.err != nil {
			return p.err
		}

		if len(rep.Charts) > 0 {
			p.printf(`<section><h3>Charts</h3><div class="charts">`)
			if p.err != nil {
				return p.err
			}
			labels := summaryKeywords(rep.Summary)
			for _, c := range rep.Charts {
				if err := ChartView(c, labels).Render(ctx, w); err != nil {
					return err
				}
			}
			p.printf(`</div></section>`)
		}

		tables := []struct {
			title string
			data  coverage.Tabular
		}{
			{"Daily trendline", rep.Trendline},
			{"Top sources", rep.TopSources},
			{"Top authors", rep.TopAuthors},
			{"Summary", rep.Summary},
			{"Sentiment overview", rep.SentimentOverview},
			{"Prominence", rep.Prominence},
		}
		for _, t := range tables {
			p.printf(`<section><h3>%s</h3>`, t.title)
			p.table(t.data.Columns(), t.data.Rows())
			p.printf(`</section>`)
		}
		return p.err
	})
	return Page(rep.WorkbookName+" report", body)
}

// summaryKeywords returns the keyword names heading the summary table.
func summaryKeywords(s coverage.SummaryTable) []string {
	var out []string
	for _, m := range s {
		name := strings.TrimSpace(m.Metric)
		if isSentimentLabel(name) {
			break
		}
		out = append(out, name)
	}
	return out
}

func isSentimentLabel(s string) bool {
	for _, l := range coverage.Sentiments {
		if string(l) == s {
			return true
		}
	}
	return false
}

func termsQuery(terms []string) string {
	if len(terms) == 0 {
		return ""
	}
	v := url.Values{}
	for _, t := range terms {
		v.Add("keyword", t)
	}
	return "?" + templ.EscapeString(v.Encode())
}
