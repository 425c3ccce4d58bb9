package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/use-agent/courtsched/models"
)

// FutureMarker tags rows whose date is after the generation day.
const FutureMarker = "FUTURA"

var defaultHeaders = []string{"Sala", "Número", "Causa", "Ingreso", "Fecha"}

type reportView struct {
	GeneratedAt  string
	FutureMarker string
	Cases        []caseView
}

type caseView struct {
	Number     int
	Meta       string
	Kind       models.ResultKind
	Error      string
	NoData     string
	Empty      bool
	Rows       int
	FutureRows int
	Headers    []string
	Table      []rowView
}

type rowView struct {
	Cells  []string
	Date   string
	Future bool
}

// Render produces a self-contained HTML report using only inline styles
// and table layout, so it survives email clients.
func Render(now time.Time, cases []models.CaseQuery, results []models.CaseResult) (string, error) {
	return execute(htmlTemplate, buildView(now, cases, results))
}

func buildView(now time.Time, cases []models.CaseQuery, results []models.CaseResult) reportView {
	local := now.In(Santiago)
	summaries := Summarize(now, results)

	v := reportView{
		GeneratedAt:  local.Format("02/01/2006 15:04:05"),
		FutureMarker: FutureMarker,
		Cases:        make([]caseView, len(results)),
	}
	for i, r := range results {
		var q *models.CaseQuery
		if i < len(cases) {
			q = &cases[i]
		}
		c := caseView{
			Number:     i + 1,
			Meta:       metaLine(q),
			Kind:       r.Kind,
			Error:      r.Error,
			Rows:       summaries[i].Rows,
			FutureRows: summaries[i].FutureRows,
		}
		if r.OK() {
			switch {
			case summaries[i].NoData:
				c.NoData = r.Rows[0][0]
			case summaries[i].Rows == 0:
				c.Empty = true
			default:
				c.Headers, c.Table = tableView(r.Rows, summaries[i].Future)
			}
		}
		v.Cases[i] = c
	}
	return v
}

// tableView pads every non-empty row to the header width. When the portal
// returns an unexpected column count the headers become generic, keeping
// the date column last.
func tableView(rows []models.ScheduleRow, future []bool) ([]string, []rowView) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	headers := defaultHeaders
	if width != len(defaultHeaders) {
		headers = make([]string, width)
		for i := range headers {
			headers[i] = fmt.Sprintf("Columna %d", i+1)
		}
		headers[width-1] = "Fecha"
	}

	out := make([]rowView, 0, len(rows))
	for i, r := range rows {
		if len(r) == 0 {
			continue
		}
		padded := make([]string, len(headers))
		copy(padded, r)
		out = append(out, rowView{
			Cells:  padded[:len(padded)-1],
			Date:   padded[len(padded)-1],
			Future: future[i],
		})
	}
	return headers, out
}

var metaLabels = []struct {
	label string
	value func(q *models.CaseQuery) string
}{
	{"Competencia", func(q *models.CaseQuery) string { return q.Competency }},
	{"Corte", func(q *models.CaseQuery) string { return q.Court }},
	{"Libro", func(q *models.CaseQuery) string { return q.Book }},
	{"Rol", func(q *models.CaseQuery) string { return q.Rol }},
	{"Año", func(q *models.CaseQuery) string { return q.Year }},
}

func metaLine(q *models.CaseQuery) string {
	if q == nil {
		return "Sin metadata de caso"
	}
	var parts []string
	for _, m := range metaLabels {
		if v := m.value(q); v != "" {
			parts = append(parts, m.label+": "+v)
		}
	}
	if len(parts) == 0 {
		return "Sin metadata de caso"
	}
	return strings.Join(parts, " · ")
}

func execute(t *template.Template, v reportView) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!doctype html><html><body>
<table role="presentation" cellpadding="0" cellspacing="0" width="100%" style="background-color:#0b1220; font-family:Arial, Helvetica, sans-serif; color:#eaf2ff; padding:0; margin:0;">
<tr><td align="center" style="padding:24px 12px;">
<table role="presentation" cellpadding="0" cellspacing="0" width="100%" style="max-width:900px;">
<tr><td>
<div style="font-size:18px; font-weight:700; color:#eaf2ff;">Resultados: Programación de Sala</div>
<div style="margin-top:6px; font-size:12px; color:#8aa0bd;">Generado: {{.GeneratedAt}}</div>
<div style="margin-top:8px; font-size:12px; color:#8aa0bd;">Se marca como <b style="color:#eaf2ff;">{{.FutureMarker}}</b> cualquier fecha mayor a la fecha actual.</div>
</td></tr>
{{- range .Cases}}
<tr><td style="padding-top:14px;">
<table role="presentation" cellpadding="0" cellspacing="0" width="100%" style="background-color:#0f1b2d; border:1px solid rgba(255,255,255,0.10); border-radius:12px; overflow:hidden;">
<tr><td style="padding:14px 14px 10px;">
<div style="font-size:14px; font-weight:700; color:#eaf2ff;">Caso #{{.Number}}</div>
<div style="margin-top:4px; font-size:12px; color:#8aa0bd;">{{.Meta}}</div>
<div style="margin-top:10px;">
{{- if eq .Kind "validation_error"}}
<span style="display:inline-block; padding:6px 10px; border-radius:999px; font-size:12px; color:#eaf2ff; border:1px solid rgba(251,113,133,0.55); background-color:rgba(251,113,133,0.12);">Error de validación</span>
{{- else if eq .Kind "scrape_error"}}
<span style="display:inline-block; padding:6px 10px; border-radius:999px; font-size:12px; color:#eaf2ff; border:1px solid rgba(251,113,133,0.55); background-color:rgba(251,113,133,0.12);">Error de consulta</span>
{{- else}}
<span style="display:inline-block; padding:6px 10px; border-radius:999px; font-size:12px; color:#eaf2ff; border:1px solid rgba(45,212,191,0.55); background-color:rgba(45,212,191,0.12);">Filas: {{.Rows}}</span>&nbsp;
{{- if .FutureRows}}
<span style="display:inline-block; padding:6px 10px; border-radius:999px; font-size:12px; color:#eaf2ff; border:1px solid rgba(251,113,133,0.55); background-color:rgba(251,113,133,0.12);">Fechas futuras: {{.FutureRows}}</span>
{{- else}}
<span style="display:inline-block; padding:6px 10px; border-radius:999px; font-size:12px; color:#eaf2ff; border:1px solid rgba(255,255,255,0.12); background-color:rgba(255,255,255,0.06);">Fechas futuras: 0</span>
{{- end}}
{{- end}}
</div>
</td></tr>
{{- if eq .Kind "validation_error"}}
<tr><td style="padding:12px 14px 14px; font-size:13px; color:#fb7185;"><strong>Falló la validación:</strong> {{.Error}}</td></tr>
{{- else if eq .Kind "scrape_error"}}
<tr><td style="padding:12px 14px 14px; font-size:13px; color:#fb7185;"><strong>Falló la consulta:</strong> {{.Error}}</td></tr>
{{- else if .Empty}}
<tr><td style="padding:12px 14px 14px; font-size:12px; color:#8aa0bd;">Sin resultados.</td></tr>
{{- else if .NoData}}
<tr><td style="padding:12px 14px 14px; font-size:12px; color:#8aa0bd;">{{.NoData}}</td></tr>
{{- else}}
<tr><td style="padding:0 14px 14px;">
<table role="presentation" cellpadding="0" cellspacing="0" width="100%" style="border-collapse:collapse; border:1px solid rgba(255,255,255,0.10); border-radius:10px;">
<tr>
{{- range .Headers}}<td style="padding:10px 10px; font-size:12px; font-weight:700; color:#8aa0bd; background-color:rgba(255,255,255,0.04); border-bottom:1px solid rgba(255,255,255,0.10);">{{.}}</td>{{end -}}
</tr>
{{- range .Table}}
<tr{{if .Future}} style="background-color:rgba(251,113,133,0.06);"{{end}}>
{{- range .Cells}}<td style="padding:10px 10px; font-size:12px; color:#eaf2ff; border-bottom:1px solid rgba(255,255,255,0.10);">{{.}}</td>{{end -}}
{{- if .Future}}<td style="padding:10px 10px; font-size:12px; color:#fb7185; font-weight:700; border-bottom:1px solid rgba(255,255,255,0.10); white-space:nowrap;">{{.Date}} <span style="display:inline-block; margin-left:6px; padding:2px 8px; border-radius:999px; font-size:11px; border:1px solid rgba(251,113,133,0.55); background-color:rgba(251,113,133,0.12); color:#eaf2ff;">{{$.FutureMarker}}</span></td>
{{- else}}<td style="padding:10px 10px; font-size:12px; color:#eaf2ff; border-bottom:1px solid rgba(255,255,255,0.10); white-space:nowrap;">{{.Date}}</td>
{{- end}}
</tr>
{{- end}}
</table>
</td></tr>
{{- end}}
</table>
</td></tr>
{{- end}}
<tr><td style="padding-top:16px;"><div style="text-align:center; font-size:12px; color:#8aa0bd;">Automatizador legal · Reporte</div></td></tr>
</table>
</td></tr>
</table>
</body></html>
`))
