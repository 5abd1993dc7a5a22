package storage

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp converts the timestamp shapes found in stored and imported
// documents into a UTC time. It reports false for anything it cannot read,
// and callers then treat the value as missing.
func ParseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return ParseTimestamp(*t)
	case []byte:
		return ParseTimestamp(string(t))
	case string:
		return parseTimestampString(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromUnix(f)
	case int:
		return fromUnix(float64(t))
	case int64:
		return fromUnix(float64(t))
	case float64:
		return fromUnix(t)
	case map[string]any:
		return fromWrapper(t)
	}
	return time.Time{}, false
}

func parseTimestampString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromUnix(f)
	}
	if strings.HasPrefix(s, "{") {
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			return fromWrapper(m)
		}
	}
	return time.Time{}, false
}

// fromUnix accepts seconds or milliseconds since the epoch. Anything past
// 1e12 is taken as milliseconds.
func fromUnix(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return time.Time{}, false
	}
	if f > 1e12 {
		ms := int64(f)
		return time.UnixMilli(ms).UTC(), true
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}

// fromWrapper reads exported Firestore timestamps, {seconds, nanoseconds}
// or the admin SDK's {_seconds, _nanoseconds}.
func fromWrapper(m map[string]any) (time.Time, bool) {
	sec, ok := wrapperNumber(m, "seconds", "_seconds")
	if !ok {
		if v, ok := m["value"]; ok {
			return ParseTimestamp(v)
		}
		return time.Time{}, false
	}
	nanos, _ := wrapperNumber(m, "nanoseconds", "_nanoseconds")
	if sec <= 0 && nanos <= 0 {
		return time.Time{}, false
	}
	return time.Unix(int64(sec), int64(nanos)).UTC(), true
}

func wrapperNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// storedLayout is fixed width so stored values sort as text.
const storedLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTimestamp is the canonical stored form.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(storedLayout)
}
