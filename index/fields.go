package index

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// StoredString decodes a stored field value into a string. Stored values may
// come back as strings, byte slices, or numbers depending on the field type.
func StoredString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		if !utf8.Valid(v) {
			return "", false
		}
		return string(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case []interface{}:
		if len(v) == 0 {
			return "", false
		}
		return StoredString(v[0])
	default:
		return "", false
	}
}

// ParseStoredTime decodes a stored datetime field value.
func ParseStoredTime(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return t, nil
			}
		}
		if nanos, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(0, nanos), nil
		}
		return time.Time{}, fmt.Errorf("unrecognized time value %q", v)
	case float64:
		return time.Unix(0, int64(v)), nil
	case int64:
		return time.Unix(0, v), nil
	case []interface{}:
		if len(v) == 0 {
			return time.Time{}, fmt.Errorf("empty time value")
		}
		return ParseStoredTime(v[0])
	case nil:
		return time.Time{}, fmt.Errorf("missing time value")
	default:
		return time.Time{}, fmt.Errorf("unsupported time value of type %T", value)
	}
}
