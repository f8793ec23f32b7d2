// Package views renders the dashboard pages as templ components.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f5f6f8;color:#1f2933}
header{background:#1f2933;color:#fff;padding:12px 24px}
header a{color:#fff;text-decoration:none;font-weight:600}
main{max-width:1100px;margin:24px auto;padding:0 24px}
section{background:#fff;border-radius:6px;padding:16px 20px;margin-bottom:20px;box-shadow:0 1px 2px rgba(0,0,0,.08)}
table{border-collapse:collapse;width:100%}
th,td{text-align:left;padding:6px 8px;border-bottom:1px solid #e4e7eb;font-size:14px}
th{background:#f0f2f5}
.metrics{display:flex;gap:16px;flex-wrap:wrap}
.metric{flex:1;min-width:140px}
.metric b{display:block;font-size:24px}
.charts{display:flex;gap:24px;flex-wrap:wrap;align-items:center}
.legend span{display:inline-block;width:10px;height:10px;margin:0 4px 0 10px}
.warn{background:#fff4e5;border-left:4px solid #f0a020}
.error{background:#fdecea;border-left:4px solid #d64545}
.muted{color:#7b8794;font-size:13px}
`

// Page wraps body in the shared HTML layout.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.printf(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.printf(`<title>%s</title><style>%s</style></head><body>`, templ.EscapeString(title), styles)
		p.printf(`<header><a href="/">Coverage Reports</a></header><main>`)
		if p.err != nil {
			return p.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		p.printf(`</main></body></html>`)
		return p.err
	})
}

// ErrorPage renders a user-facing error with its support code.
func ErrorPage(message, action, code string) templ.Component {
	return Page("Error", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.printf(`<section class="error"><h2>%s</h2>`, templ.EscapeString(message))
		if action != "" {
			p.printf(`<p>%s</p>`, templ.EscapeString(action))
		}
		p.printf(`<p class="muted">Code: %s</p><p><a href="/">Back to dashboard</a></p></section>`, templ.EscapeString(code))
		return p.err
	}))
}

// printer writes formatted HTML and keeps the first error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// table writes a header row and body rows, escaping every cell.
func (p *printer) table(columns []string, rows [][]string) {
	p.printf(`<table><thead><tr>`)
	for _, c := range columns {
		p.printf(`<th>%s</th>`, templ.EscapeString(c))
	}
	p.printf(`</tr></thead><tbody>`)
	if len(rows) == 0 {
		p.printf(`<tr><td colspan="%d" class="muted">No matching articles</td></tr>`, len(columns))
	}
	for _, row := range rows {
		p.printf(`<tr>`)
		for _, cell := range row {
			p.printf(`<td>%s</td>`, templ.EscapeString(cell))
		}
		p.printf(`</tr>`)
	}
	p.printf(`</tbody></table>`)
}
