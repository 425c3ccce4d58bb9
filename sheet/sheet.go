// Package sheet reads batches of cases from spreadsheets.
package sheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/use-agent/courtsched/models"
)

// Column order of an input sheet. Court and book are only read for appeals
// cases.
const (
	colCompetency = iota
	colRol
	colYear
	colCourt
	colBook
)

// ParseCases reads the active sheet of an xlsx workbook. The first row is a
// header; blank rows are skipped. Cases are returned unvalidated so that
// each bad row becomes its own validation result.
func ParseCases(r io.Reader) ([]models.CaseQuery, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	cases := make([]models.CaseQuery, 0, len(rows))
	for i, row := range rows {
		if i == 0 || blank(row) {
			continue
		}
		q := models.CaseQuery{
			Competency: cell(row, colCompetency),
			Rol:        cell(row, colRol),
			Year:       cell(row, colYear),
		}
		if q.IsAppeals() {
			q.Court = cell(row, colCourt)
			q.Book = cell(row, colBook)
		}
		cases = append(cases, q)
	}
	return cases, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
