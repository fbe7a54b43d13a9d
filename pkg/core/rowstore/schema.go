// Package rowstore treats Google Sheets as the system of record: a sheet
// is an append-only table of rows addressed by (spreadsheetID, sheet,
// range), with one declarative schema per sheet shared by the decode and
// encode paths so the two can never drift apart.
package rowstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the cell type a field decodes to.
type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindInt
	KindBool
	KindTime
)

// dateLayout is the cell format for KindTime fields.
const dateLayout = "2006-01-02"

// Field binds one typed record field to a fixed column position.
type Field struct {
	Name string
	Col  int // zero-based column index
	Kind Kind
}

// Schema is the single descriptor for one sheet: ordered field list plus
// the id conventions. Field 0 is the id column by convention.
type Schema struct {
	Sheet    string
	IDPrefix string
	Fields   []Field
}

// Record is one decoded row, keyed by field name. Values carry the
// field's Go type: string, float64, int, bool, or time.Time.
type Record map[string]interface{}

// Range returns the A1 range covering every schema column, e.g.
// "Budgets!A2:H" (row 1 is the header row).
func (s Schema) Range() string {
	last := 0
	for _, f := range s.Fields {
		if f.Col > last {
			last = f.Col
		}
	}
	return fmt.Sprintf("%s!A2:%s", s.Sheet, colLetter(last))
}

// IDColumn returns the zero-based column index of the id field.
func (s Schema) IDColumn() int {
	return s.Fields[0].Col
}

// colLetter converts a zero-based column index to its A1 letter.
func colLetter(col int) string {
	letters := ""
	n := col
	for {
		letters = string(rune('A'+n%26)) + letters
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return letters
}

// Decode parses one raw row into a typed Record. Cells beyond the row's
// length decode as the field's zero value (Sheets trims trailing empty
// cells), but a present cell that fails to parse is an explicit decode
// error, never silently coalesced.
func Decode(row []string, s Schema) (Record, error) {
	rec := make(Record, len(s.Fields))
	for _, f := range s.Fields {
		var cell string
		if f.Col < len(row) {
			cell = strings.TrimSpace(row[f.Col])
		}
		v, err := decodeCell(cell, f.Kind)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s.%s (column %s): %w", s.Sheet, f.Name, colLetter(f.Col), err)
		}
		rec[f.Name] = v
	}
	return rec, nil
}

func decodeCell(cell string, kind Kind) (interface{}, error) {
	switch kind {
	case KindString:
		return cell, nil
	case KindFloat:
		if cell == "" {
			return 0.0, nil
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", cell)
		}
		return v, nil
	case KindInt:
		if cell == "" {
			return 0, nil
		}
		v, err := strconv.Atoi(cell)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", cell)
		}
		return v, nil
	case KindBool:
		if cell == "" {
			return false, nil
		}
		v, err := strconv.ParseBool(strings.ToLower(cell))
		if err != nil {
			return nil, fmt.Errorf("not a boolean: %q", cell)
		}
		return v, nil
	case KindTime:
		if cell == "" {
			return time.Time{}, nil
		}
		v, err := time.Parse(dateLayout, cell)
		if err != nil {
			return nil, fmt.Errorf("not a date (want YYYY-MM-DD): %q", cell)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown field kind %d", kind)
	}
}

// Encode serializes a Record into a raw row ordered by the schema's
// column positions. Missing record keys encode as empty cells.
func Encode(rec Record, s Schema) []interface{} {
	width := 0
	for _, f := range s.Fields {
		if f.Col+1 > width {
			width = f.Col + 1
		}
	}
	row := make([]interface{}, width)
	for i := range row {
		row[i] = ""
	}
	for _, f := range s.Fields {
		v, ok := rec[f.Name]
		if !ok {
			continue
		}
		row[f.Col] = encodeCell(v)
	}
	return row
}

func encodeCell(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(dateLayout)
	default:
		return fmt.Sprint(t)
	}
}

// Typed accessors. A missing or mistyped key reports the zero value;
// Decode already guarantees types match the schema.

func (r Record) String(name string) string {
	v, _ := r[name].(string)
	return v
}

func (r Record) Float(name string) float64 {
	v, _ := r[name].(float64)
	return v
}

func (r Record) Int(name string) int {
	v, _ := r[name].(int)
	return v
}

func (r Record) Bool(name string) bool {
	v, _ := r[name].(bool)
	return v
}

func (r Record) Time(name string) time.Time {
	v, _ := r[name].(time.Time)
	return v
}
