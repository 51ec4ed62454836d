// Package artifact reads and writes the per-table CSV files that carry
// sampled rows from the source database to the target.
package artifact

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NullMarker encodes SQL NULL in artifact fields, matching the Postgres
// COPY text-format convention. encoding/csv cannot distinguish an empty
// string from an absent value, so NULL needs an explicit marker.
// Backslashes in text values are doubled on encode, so a genuine string
// value equal to the marker survives the round trip.
const NullMarker = `\N`

// EncodeValue renders a scanned database value as an artifact field.
func EncodeValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return NullMarker
	case []byte:
		return escapeField(string(val))
	case string:
		return escapeField(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// EncodeRow renders a scanned row into artifact fields.
func EncodeRow(values []interface{}) []string {
	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = EncodeValue(v)
	}
	return fields
}

// DecodeRow converts artifact fields back into query parameters. Non-NULL
// fields stay strings; the target database coerces them to the column
// types of the recreated schema.
func DecodeRow(fields []string) []interface{} {
	values := make([]interface{}, len(fields))
	for i, f := range fields {
		if f == NullMarker {
			values[i] = nil
		} else {
			values[i] = unescapeField(f)
		}
	}
	return values
}

// escapeField doubles backslashes so no encoded text value can collide
// with the NULL marker.
func escapeField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return strings.ReplaceAll(s, `\`, `\\`)
}

func unescapeField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return strings.ReplaceAll(s, `\\`, `\`)
}
