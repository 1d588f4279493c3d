// Package layout binds data rows to a label template and tiles the
// populated labels across printable pages.
package layout

import (
	"sort"
	"strings"

	"labelpro/canvas"
	"labelpro/core"
)

// Row is one record of bulk data, keyed by column or binding key.
type Row map[string]string

// Mapping assigns a source column to each template binding key.
type Mapping map[string]string

// Bind returns one populated object list per row. Objects whose data key is
// present in the row get the row value; all others are shared unchanged.
func Bind(t canvas.Template, rows []Row) ([][]canvas.Object, error) {
	if len(rows) == 0 {
		return nil, &core.DataShapeError{Reason: "no data rows"}
	}
	out := make([][]canvas.Object, len(rows))
	for i, row := range rows {
		out[i] = Populate(t.Objects, row)
	}
	return out, nil
}

// Populate substitutes row values into a copy of objects.
func Populate(objects []canvas.Object, row Row) []canvas.Object {
	out := make([]canvas.Object, len(objects))
	for i, o := range objects {
		key := o.Attrs().DataKey
		value, ok := row[key]
		if key == "" || !ok {
			out[i] = o
			continue
		}
		out[i] = substitute(o, value)
	}
	return out
}

func substitute(o canvas.Object, value string) canvas.Object {
	switch v := o.(type) {
	case canvas.Text:
		v.Text = value
		return v
	case canvas.Image:
		v.Src = value
		return v
	case canvas.Barcode:
		v.Value = value
		return v
	}
	return o
}

// BindingKeys lists the distinct data keys of t in paint order.
func BindingKeys(t canvas.Template) []string {
	var keys []string
	seen := map[string]bool{}
	for _, o := range t.Objects {
		k := o.Attrs().DataKey
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}

// Columns lists the distinct column names across rows, sorted.
func Columns(rows []Row) []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func normalizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

// AutoMap pairs binding keys with columns whose names match ignoring case,
// spaces, dashes, dots and underscores.
func AutoMap(keys, columns []string) Mapping {
	byName := make(map[string]string, len(columns))
	for _, c := range columns {
		n := normalizeName(c)
		if _, taken := byName[n]; !taken {
			byName[n] = c
		}
	}
	m := Mapping{}
	for _, k := range keys {
		if c, ok := byName[normalizeName(k)]; ok {
			m[k] = c
		}
	}
	return m
}

// MapColumns copies each mapped column into its binding key. Keys with no
// explicit mapping fall back to a column of the same name. With requireAll,
// any key left without a column fails with a MissingBindingError.
func MapColumns(rows []Row, keys []string, m Mapping, requireAll bool) ([]Row, error) {
	columns := map[string]bool{}
	for _, c := range Columns(rows) {
		columns[c] = true
	}

	resolved := make(map[string]string, len(keys))
	var missing []string
	for _, k := range keys {
		col := m[k]
		if col == "" && columns[k] {
			col = k
		}
		if col == "" || !columns[col] {
			missing = append(missing, k)
			continue
		}
		resolved[k] = col
	}
	if requireAll && len(missing) > 0 {
		return nil, &core.MissingBindingError{Fields: missing}
	}

	out := make([]Row, len(rows))
	for i, r := range rows {
		mapped := make(Row, len(r)+len(resolved))
		for k, v := range r {
			mapped[k] = v
		}
		for k, col := range resolved {
			if v, ok := r[col]; ok {
				mapped[k] = v
			}
		}
		out[i] = mapped
	}
	return out, nil
}
