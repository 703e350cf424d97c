// Package export serializes table rows to CSV and hands the payload to a
// download collaborator.
//
// The output is deterministic: the same rows and columns always produce the
// same bytes, and column order follows the column list. Records are joined
// with "\n" and there is no trailing newline.
package export

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Column describes one output column. Value receives the row and its
// zero-based position in the exported rows.
type Column[T any] struct {
	Header string
	Value  func(row T, index int) any
}

// Field builds a column from a plain field accessor.
func Field[T any](header string, accessor func(row T) any) Column[T] {
	return Column[T]{
		Header: header,
		Value:  func(row T, _ int) any { return accessor(row) },
	}
}

// Indexed builds a column whose value also depends on the row position.
func Indexed[T any](header string, accessor func(row T, index int) any) Column[T] {
	return Column[T]{Header: header, Value: accessor}
}

// Encode renders a header record followed by one record per row.
func Encode[T any](rows []T, cols []Column[T]) []byte {
	var b strings.Builder

	for i, col := range cols {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(Escape(col.Header))
	}

	for idx, row := range rows {
		b.WriteByte('\n')
		for i, col := range cols {
			if i > 0 {
				b.WriteByte(',')
			}
			var v any
			if col.Value != nil {
				v = col.Value(row, idx)
			}
			b.WriteString(Escape(v))
		}
	}

	return []byte(b.String())
}

// Escape renders a single field. nil (including nil pointers) renders empty.
// A value containing a comma, a double quote or a newline is wrapped in
// double quotes with embedded quotes doubled.
func Escape(v any) string {
	s := format(v)
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func format(v any) string {
	if v == nil {
		return ""
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		v = rv.Elem().Interface()
	}

	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprint(v)
}
