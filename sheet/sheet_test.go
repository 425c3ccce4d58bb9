package sheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/use-agent/courtsched/models"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestParseCases(t *testing.T) {
	buf := workbook(t, [][]any{
		{"competency", "rol", "year", "court", "book"},
		{"Civil", "C-1234", 2024, "ignored", "ignored"},
		{"Corte Apelaciones", " 88 ", "2023", "C.A. de Talca", "Civil"},
		{"", "", ""},
		{"Penal", "", "2020"},
	})

	got, err := ParseCases(buf)
	if err != nil {
		t.Fatalf("ParseCases: %v", err)
	}
	want := []models.CaseQuery{
		{Competency: "Civil", Rol: "C-1234", Year: "2024"},
		{Competency: "Corte Apelaciones", Rol: "88", Year: "2023", Court: "C.A. de Talca", Book: "Civil"},
		{Competency: "Penal", Year: "2020"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cases mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCases_HeaderOnly(t *testing.T) {
	got, err := ParseCases(workbook(t, [][]any{{"competency", "rol", "year"}}))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d cases, want 0", len(got))
	}
}

func TestParseCases_NotAWorkbook(t *testing.T) {
	if _, err := ParseCases(strings.NewReader("competency,rol,year\n")); err == nil {
		t.Fatal("expected error for non-xlsx input")
	}
}
