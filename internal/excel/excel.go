// Package excel wraps xlsx reading and writing for import/export. Imports
// use a case-insensitive, multi-alias column lookup because the uploaded
// sheets come from many different sources with inconsistent headers.
package excel

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row maps header names to cell values for one data row.
type Row map[string]string

// ReadRows parses the first sheet, treating the first row as the header.
func ReadRows(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(raw) < 2 {
		return nil, nil
	}

	header := raw[0]
	rows := make([]Row, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		row := Row{}
		for i, h := range header {
			if i < len(cells) {
				row[h] = strings.TrimSpace(cells[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Field returns the first non-empty value among the alias columns, matching
// exactly first and then case-insensitively.
func (r Row) Field(aliases ...string) string {
	for _, alias := range aliases {
		if v, ok := r[alias]; ok && v != "" {
			return v
		}
		lower := strings.ToLower(alias)
		for k, v := range r {
			if strings.ToLower(k) == lower && v != "" {
				return v
			}
		}
	}
	return ""
}

// Columns lists the header names present in the row.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	return cols
}

// WriteSheet builds an xlsx workbook with one sheet from a header row and
// data rows, returning the serialized bytes.
func WriteSheet(sheet string, header []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	toAny := func(ss []string) []interface{} {
		out := make([]interface{}, len(ss))
		for i, s := range ss {
			out[i] = s
		}
		return out
	}

	headerRow := toAny(header)
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		dataRow := toAny(row)
		if err := f.SetSheetRow(sheet, cell, &dataRow); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
