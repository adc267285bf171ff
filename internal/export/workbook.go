package export

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/catalog-agent/internal/gateway"
)

// Columns: sys_id, потом u_name, потом остальные u_* по алфавиту.
// Прочие системные поля в выгрузку не попадают.
func Columns(recs []gateway.Record) []string {
	seen := map[string]bool{}
	var rest []string
	for _, r := range recs {
		for k := range r {
			if seen[k] || k == gateway.FieldID || k == gateway.FieldName || !strings.HasPrefix(k, "u_") {
				continue
			}
			seen[k] = true
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append([]string{gateway.FieldID, gateway.FieldName}, rest...)
}

// Workbook выгружает коллекцию ресурсов в xlsx с одним листом.
func Workbook(kind gateway.Kind, recs []gateway.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := string(kind)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	cols := Columns(recs)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range recs {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = r.String(c)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName — имя файла выгрузки.
func FileName(kind gateway.Kind) string {
	return string(kind) + "s.xlsx"
}
