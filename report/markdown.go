package report

import (
	"html/template"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/use-agent/courtsched/models"
)

// markdownConverter is goroutine-safe and shared by all jobs.
var markdownConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(
			table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
		),
	),
)

// Markdown renders the report as Markdown for chat and plain-text
// consumers. The styled email layout nests tables, so a flat semantic
// document is rendered first and converted.
func Markdown(now time.Time, cases []models.CaseQuery, results []models.CaseResult) (string, error) {
	doc, err := execute(plainTemplate, buildView(now, cases, results))
	if err != nil {
		return "", err
	}
	md, err := markdownConverter.ConvertString(doc)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md) + "\n", nil
}

var plainTemplate = template.Must(template.New("plain").Parse(`<html><body>
<h1>Resultados: Programación de Sala</h1>
<p>Generado: {{.GeneratedAt}}. Se marca como <strong>{{.FutureMarker}}</strong> cualquier fecha mayor a la fecha actual.</p>
{{- range .Cases}}
<h2>Caso #{{.Number}}</h2>
<p>{{.Meta}}</p>
{{- if eq .Kind "validation_error"}}
<p><strong>Falló la validación:</strong> {{.Error}}</p>
{{- else if eq .Kind "scrape_error"}}
<p><strong>Falló la consulta:</strong> {{.Error}}</p>
{{- else}}
<p>Filas: {{.Rows}}. Fechas futuras: {{.FutureRows}}.</p>
{{- if .Empty}}
<p>Sin resultados.</p>
{{- else if .NoData}}
<p>{{.NoData}}</p>
{{- else}}
<table>
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Table}}
<tr>{{range .Cells}}<td>{{.}}</td>{{end}}<td>{{.Date}}{{if .Future}} ({{$.FutureMarker}}){{end}}</td></tr>
{{- end}}
</tbody>
</table>
{{- end}}
{{- end}}
{{- end}}
</body></html>
`))
