package database

import (
	"encoding/json"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func isTimestampType(colType string) bool {
	switch strings.ToLower(colType) {
	case "timestamp", "timestamptz":
		return true
	}
	return false
}

// normalizeValue turns driver values into the types handed to callers.
// Timestamps arrive either as a {secs_since_epoch, nanos_since_epoch} object
// or as a string under a timestamp column and leave as time.Time.
func normalizeValue(colType string, v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val
	case []byte:
		return normalizeValue(colType, string(val))
	case map[string]any:
		if t, ok := epochPair(val); ok {
			return t
		}
		return val
	case string:
		if isTimestampType(colType) {
			if t, ok := parseTimestamp(val); ok {
				return t
			}
		}
		return val
	default:
		return val
	}
}

func epochPair(m map[string]any) (time.Time, bool) {
	if len(m) != 2 {
		return time.Time{}, false
	}
	secs, ok := asInt64(m["secs_since_epoch"])
	if !ok {
		return time.Time{}, false
	}
	nanos, ok := asInt64(m["nanos_since_epoch"])
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(secs, nanos).UTC(), true
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
