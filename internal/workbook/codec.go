package workbook

import (
	"strconv"
	"strings"
	"time"
)

// Record is one decoded row: schema field name to typed value. Text
// fields hold string, integer fields int64, decimal fields float64,
// date fields time.Time (the zero time means absent).
type Record map[string]any

// dateLayouts are tried in order when decoding a date cell. Legacy rows
// written by earlier exports use the day-first layout.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006-01-02T15:04:05Z07:00"}

// DecodeRecord converts one stored row into a typed Record. Every
// schema field is present in the result: missing cells take the field
// default, unparsable numerics degrade to zero, unparsable dates to
// absent. Columns the schema does not declare are dropped. It never
// fails; the business layer prefers a zeroed row over aborting on a
// partially corrupt file.
func DecodeRecord(raw map[string]string, schema Schema) Record {
	rec := make(Record, len(schema.Fields))
	for _, f := range schema.Fields {
		cell, ok := raw[f.Name]
		if !ok {
			rec[f.Name] = defaultValue(f)
			continue
		}
		rec[f.Name] = decodeCell(cell, f)
	}
	return rec
}

// EncodeRecord converts a typed Record back into stored cells, the
// inverse of DecodeRecord. Decimals render with fixed two-place
// precision, integers without padding, dates as ISO text, absent dates
// as the empty string.
func EncodeRecord(rec Record, schema Schema) map[string]string {
	raw := make(map[string]string, len(schema.Fields))
	for _, f := range schema.Fields {
		val, ok := rec[f.Name]
		if !ok {
			val = defaultValue(f)
		}
		raw[f.Name] = encodeCell(val, f)
	}
	return raw
}

func decodeCell(cell string, f Field) any {
	switch f.Type {
	case Integer:
		n, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
		if err != nil {
			return int64(0)
		}
		return n
	case Decimal:
		// Tolerate comma decimal separators from older exports.
		normalized := strings.ReplaceAll(strings.TrimSpace(cell), ",", ".")
		v, err := strconv.ParseFloat(normalized, 64)
		if err != nil {
			return float64(0)
		}
		return v
	case Date:
		cell = strings.TrimSpace(cell)
		if cell == "" {
			return time.Time{}
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, cell); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			}
		}
		return time.Time{}
	default:
		return cell
	}
}

func encodeCell(val any, f Field) string {
	switch f.Type {
	case Integer:
		n, _ := val.(int64)
		return strconv.FormatInt(n, 10)
	case Decimal:
		v, _ := val.(float64)
		return strconv.FormatFloat(v, 'f', 2, 64)
	case Date:
		t, _ := val.(time.Time)
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	default:
		s, _ := val.(string)
		return s
	}
}

// defaultValue returns the typed default for a field, falling back to
// the type's zero value when the schema declares none.
func defaultValue(f Field) any {
	if f.Default != nil {
		return f.Default
	}
	switch f.Type {
	case Integer:
		return int64(0)
	case Decimal:
		return float64(0)
	case Date:
		return time.Time{}
	default:
		return ""
	}
}
