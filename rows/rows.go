// Package rows reads tabular data sources into label rows.
package rows

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"labelpro/core"
	"labelpro/layout"

	"github.com/xuri/excelize/v2"
)

type Format string

const (
	CSV  Format = "csv"
	TSV  Format = "tsv"
	XLSX Format = "xlsx"
	JSON Format = "json"
)

// ParseFormat accepts a format name or a file name with a known extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if ext := filepath.Ext(s); ext != "" {
		s = ext[1:]
	}
	switch Format(s) {
	case CSV, TSV, XLSX, JSON:
		return Format(s), nil
	case "txt":
		return TSV, nil
	}
	return "", core.NewValidationError("format", "unsupported data format %q", s)
}

// Parse reads r as format. Tabular sources use their first row as the column
// names. Fully blank rows are skipped. An input with no data rows is a
// *core.DataShapeError.
func Parse(r io.Reader, format Format) ([]layout.Row, error) {
	var (
		out []layout.Row
		err error
	)
	switch format {
	case CSV:
		out, err = parseDelimited(r, ',')
	case TSV:
		out, err = parseDelimited(r, '\t')
	case XLSX:
		out, err = parseSheet(r)
	case JSON:
		out, err = parseJSON(r)
	default:
		return nil, core.NewValidationError("format", "unsupported data format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, &core.DataShapeError{Reason: "no data rows"}
	}
	return out, nil
}

func parseDelimited(r io.Reader, comma rune) ([]layout.Row, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, &core.DataShapeError{Reason: err.Error()}
	}
	return fromRecords(records)
}

func parseSheet(r io.Reader) ([]layout.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &core.DataShapeError{Reason: fmt.Sprintf("read workbook: %v", err)}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, &core.DataShapeError{Reason: "workbook has no sheets"}
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, &core.DataShapeError{Reason: fmt.Sprintf("read sheet %s: %v", sheet, err)}
	}
	return fromRecords(records)
}

func fromRecords(records [][]string) ([]layout.Row, error) {
	if len(records) == 0 {
		return nil, &core.DataShapeError{Reason: "missing header row"}
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.TrimSpace(h)
	}

	out := make([]layout.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(layout.Row, len(header))
		blank := true
		for i, name := range header {
			if name == "" {
				continue
			}
			v := ""
			if i < len(rec) {
				v = rec[i]
			}
			if strings.TrimSpace(v) != "" {
				blank = false
			}
			row[name] = v
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out, nil
}

func parseJSON(r io.Reader) ([]layout.Row, error) {
	var items []map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &core.DataShapeError{Reason: "expected an array of objects"}
		}
		return nil, &core.DataShapeError{Reason: err.Error()}
	}

	out := make([]layout.Row, 0, len(items))
	for i, item := range items {
		if item == nil {
			return nil, &core.DataShapeError{Reason: fmt.Sprintf("item %d is not an object", i)}
		}
		row := make(layout.Row, len(item))
		for k, raw := range item {
			row[k] = scalar(raw)
		}
		out = append(out, row)
	}
	return out, nil
}

// scalar renders a JSON value as cell text. Strings are unquoted, null is
// empty and composite values keep their compact JSON form.
func scalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		return ""
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case raw[0] == '{' || raw[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			return buf.String()
		}
	}
	return string(raw)
}

// SampleSheet builds a workbook whose header row lists the given columns, for
// users to fill in and upload.
func SampleSheet(columns []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	for i, name := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
