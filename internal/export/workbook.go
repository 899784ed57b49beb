package export

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetSpec descreve uma aba: título, cabeçalho e linhas já formatadas.
type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]string
}

// NewWorkbook monta a planilha com cabeçalho em negrito, filtro e largura aproximada.
func NewWorkbook(sheets []SheetSpec) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("nenhuma aba informada")
	}

	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("style: %w", err)
	}

	for i, s := range sheets {
		name := sheetName(s.Title)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet: %w", err)
		}

		for col, h := range s.Header {
			cell := fmt.Sprintf("%s1", colName(col+1))
			if err := f.SetCellStr(name, cell, h); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		if len(s.Header) > 0 {
			end := colName(len(s.Header)) + "1"
			_ = f.SetCellStyle(name, "A1", end, bold)
			_ = f.AutoFilter(name, "A1:"+end, nil)
		}

		for r, row := range s.Rows {
			for c, val := range row {
				cell := fmt.Sprintf("%s%d", colName(c+1), r+2)
				if err := f.SetCellStr(name, cell, val); err != nil {
					return nil, fmt.Errorf("set cell %s: %w", cell, err)
				}
			}
		}

		for c := 1; c <= len(s.Header); c++ {
			width := len([]rune(s.Header[c-1]))
			for r := 0; r < len(s.Rows) && r < 50; r++ {
				if c-1 < len(s.Rows[r]) {
					if l := len([]rune(s.Rows[r][c-1])); l > width {
						width = l
					}
				}
			}
			w := float64(width) * 1.1
			if w < 12 {
				w = 12
			}
			if w > 40 {
				w = 40
			}
			_ = f.SetColWidth(name, colName(c), colName(c), w)
		}
	}
	return f, nil
}

// Bytes serializa a planilha em memória.
func Bytes(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// colName converte índice 1-based em letra de coluna (1 -> A, 27 -> AA).
func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

var invalidSheetRe = regexp.MustCompile(`[\\/:*?\[\]]+`)

// sheetName respeita as regras do Excel: sem caracteres reservados, sem aspas simples
// nas pontas e no máximo 31 runas.
func sheetName(title string) string {
	name := strings.TrimSpace(invalidSheetRe.ReplaceAllString(title, " "))
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	name = strings.TrimSpace(strings.Trim(strings.TrimSpace(name), "'"))
	if name == "" {
		name = "Checkins"
	}
	return name
}

var invalidFileRe = regexp.MustCompile(`[\\/:*?"<>|]+`)

// FileName monta nome de arquivo seguro para Content-Disposition.
func FileName(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			clean = append(clean, p)
		}
	}
	base := strings.Join(clean, " - ")
	if base == "" {
		base = "checkins"
	}
	return invalidFileRe.ReplaceAllString(base, "_") + ".xlsx"
}
