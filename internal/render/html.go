package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/web3-frozen/daily-report/internal/report"
)

// tdClass and badgeClass map a semantic tag to the page's CSS classes.
func tdClass(t report.Tag) string {
	if t == report.TagCurrency {
		return "num"
	}
	return ""
}

func badgeClass(t report.Tag) string {
	switch t {
	case report.TagPercentPositive:
		return "badge up"
	case report.TagPercentNegative:
		return "badge down"
	}
	return ""
}

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"tdClass":    tdClass,
	"badgeClass": badgeClass,
	"isLink":     func(t report.Tag) bool { return t == report.TagLink },
}).Parse(pageHTML))

type pageData struct {
	Title     string
	Date      string
	Generated string
	Narrative template.HTML
	Tables    []report.Table
	Steps     map[report.Category]report.Step
}

// HTML writes the interactive report page: the narrative on top and one
// tab per category below.
func HTML(w io.Writer, b *report.Bundle) error {
	frag, err := MarkdownToHTML(Narrative(b))
	if err != nil {
		return err
	}
	data := pageData{
		Title:     "Web3 Daily Report " + b.Date,
		Date:      b.Date,
		Generated: b.GeneratedAt.Format("2006-01-02 15:04 MST"),
		// goldmark escapes raw HTML unless WithUnsafe is set.
		Narrative: template.HTML(frag),
		Tables:    b.Tables,
		Steps:     b.Steps,
	}
	if err := pageTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("execute page template: %w", err)
	}
	return nil
}

// HTMLBytes renders the page into memory.
func HTMLBytes(b *report.Bundle) ([]byte, error) {
	var buf bytes.Buffer
	if err := HTML(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, "PingFang SC", sans-serif; margin: 0; background: #f5f6f8; color: #1f2328; }
header { background: #111827; color: #fff; padding: 20px 28px; }
header h1 { margin: 0; font-size: 22px; }
header .meta { color: #9ca3af; font-size: 13px; margin-top: 4px; }
main { padding: 20px 28px; }
.narrative { background: #fff; border-radius: 8px; padding: 8px 20px; margin-bottom: 20px; box-shadow: 0 1px 2px rgba(0,0,0,.06); }
.narrative h1 { display: none; }
.tabs { display: flex; flex-wrap: wrap; gap: 4px; border-bottom: 2px solid #e5e7eb; }
.tab { border: 0; background: none; padding: 10px 16px; cursor: pointer; font-size: 14px; color: #4b5563; }
.tab.active { color: #111827; border-bottom: 2px solid #2563eb; margin-bottom: -2px; font-weight: 600; }
.tab .count { color: #9ca3af; font-weight: normal; }
.panel { display: none; background: #fff; padding: 12px; overflow-x: auto; }
.panel.active { display: block; }
.panel .step { font-size: 12px; color: #6b7280; margin: 4px 0 10px; }
table { border-collapse: collapse; width: 100%; font-size: 13px; }
th, td { border-bottom: 1px solid #eef0f3; padding: 6px 10px; text-align: left; vertical-align: top; }
th { background: #f9fafb; position: sticky; top: 0; }
td.num { font-variant-numeric: tabular-nums; white-space: nowrap; }
.badge { display: inline-block; padding: 1px 8px; border-radius: 10px; font-weight: 600; white-space: nowrap; }
.badge.up { background: #dcfce7; color: #15803d; }
.badge.down { background: #fee2e2; color: #b91c1c; }
.empty { color: #9ca3af; font-style: italic; }
@media print {
  .tabs { display: none; }
  .panel { display: block; break-before: page; }
  .panel::before { content: attr(data-title); display: block; font-weight: 600; font-size: 16px; margin-bottom: 6px; }
}
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
<div class="meta">Generated {{.Generated}}</div>
</header>
<main>
<section class="narrative">{{.Narrative}}</section>
<nav class="tabs">
{{- range $i, $t := .Tables}}
<button class="tab{{if eq $i 0}} active{{end}}" data-tab="{{$t.Category}}">{{$t.Title}} <span class="count">({{len $t.Rows}})</span></button>
{{- end}}
</nav>
{{- range $i, $t := .Tables}}
<section class="panel{{if eq $i 0}} active{{end}}" id="tab-{{$t.Category}}" data-title="{{$t.Title}}">
<div class="step">source: {{index $.Steps $t.Category}}</div>
<table>
<thead><tr>{{range $t.Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- if not $t.Rows}}
<tr><td class="empty" colspan="{{len $t.Columns}}">No data</td></tr>
{{- end}}
{{- range $t.Rows}}
<tr>{{range .}}<td class="{{tdClass .Tag}}">
{{- if isLink .Tag}}<a href="{{.Value}}" target="_blank" rel="noopener">{{.Value}}</a>
{{- else if badgeClass .Tag}}<span class="{{badgeClass .Tag}}">{{.Value}}</span>
{{- else}}{{.Value}}{{end -}}
</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
</section>
{{- end}}
</main>
<script>
document.querySelectorAll('.tab').forEach(function (btn) {
  btn.addEventListener('click', function () {
    document.querySelectorAll('.tab').forEach(function (b) { b.classList.remove('active'); });
    document.querySelectorAll('.panel').forEach(function (p) { p.classList.remove('active'); });
    btn.classList.add('active');
    document.getElementById('tab-' + btn.dataset.tab).classList.add('active');
  });
});
</script>
</body>
</html>
`
