package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestNewWorkbookWritesHeaderAndRows(t *testing.T) {
	f, err := NewWorkbook([]SheetSpec{{
		Title:  "Turma: Yoga/Manhã",
		Header: []string{"Nome", "Data", "Status"},
		Rows:   [][]string{{"Ana", "2024-05-10", "PENDENTE"}},
	}})
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}

	data, err := Bytes(f)
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}

	reopened, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sheet := reopened.GetSheetName(0)
	if sheet != "Turma  Yoga Manhã" {
		t.Fatalf("unexpected sheet name %q", sheet)
	}
	rows, err := reopened.GetRows(sheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "Nome" || rows[1][2] != "PENDENTE" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestFileNameAndColumns(t *testing.T) {
	if got := FileName("checkins", "Yoga: manhã", "2024-05-10"); got != "checkins - Yoga_ manhã - 2024-05-10.xlsx" {
		t.Fatalf("unexpected file name %q", got)
	}
	if colName(1) != "A" || colName(27) != "AA" {
		t.Fatalf("unexpected column names %s %s", colName(1), colName(27))
	}
}

func TestNewWorkbookRequiresSheet(t *testing.T) {
	if _, err := NewWorkbook(nil); err == nil {
		t.Fatal("expected error without sheets")
	}
}

func TestSheetNameDropsEdgeQuotes(t *testing.T) {
	cases := map[string]string{
		"'Yoga'":    "Yoga",
		" 'Pilates": "Pilates",
		"'''":       "Checkins",
		"D'Ávila":   "D'Ávila",
	}
	for in, want := range cases {
		if got := sheetName(in); got != want {
			t.Errorf("sheetName(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := NewWorkbook([]SheetSpec{{Title: "'Yoga'", Header: []string{"Nome"}}}); err != nil {
		t.Fatalf("workbook with quoted title: %v", err)
	}
}
