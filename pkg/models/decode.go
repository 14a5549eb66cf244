package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"diabeater-console/pkg/apperror"
)

// Record is a raw document as returned by the store drivers.
type Record = map[string]interface{}

// fieldReader pulls typed values out of a loosely typed document and keeps the
// first failure, so decoders read straight through and check Err once.
type fieldReader struct {
	kind string
	id   string
	data Record
	err  error
}

func newReader(kind, id string, data Record) *fieldReader {
	if data == nil {
		data = Record{}
	}
	return &fieldReader{kind: kind, id: id, data: data}
}

func (r *fieldReader) fail(field, format string, args ...interface{}) {
	if r.err != nil {
		return
	}
	r.err = apperror.Validation("malformed %s record %s: field %q %s", r.kind, r.id, field, fmt.Sprintf(format, args...))
}

func (r *fieldReader) Err() error {
	return r.err
}

func (r *fieldReader) String(field string) string {
	v, ok := r.data[field]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.fail(field, "must be a string, got %T", v)
		return ""
	}
	return strings.TrimSpace(s)
}

func (r *fieldReader) RequiredString(field string) string {
	s := r.String(field)
	if s == "" {
		r.fail(field, "is required")
	}
	return s
}

func (r *fieldReader) Bool(field string) bool {
	v, ok := r.data[field]
	if !ok || v == nil {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		r.fail(field, "must be a boolean, got %T", v)
		return false
	}
	return b
}

// OptionalNumber returns nil for absent or null values.
func (r *fieldReader) OptionalNumber(field string) *float64 {
	v, ok := r.data[field]
	if !ok || v == nil {
		return nil
	}
	f, ok := toFloat(v)
	if !ok {
		r.fail(field, "must be a number, got %T", v)
		return nil
	}
	return &f
}

func (r *fieldReader) Number(field string) float64 {
	if f := r.OptionalNumber(field); f != nil {
		return *f
	}
	return 0
}

func (r *fieldReader) Counter(field string) int64 {
	f := r.Number(field)
	if f < 0 {
		r.fail(field, "must not be negative")
		return 0
	}
	return int64(math.Round(f))
}

func (r *fieldReader) Time(field string) time.Time {
	v, ok := r.data[field]
	if !ok || v == nil {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t == nil {
			return time.Time{}
		}
		return *t
	case string:
		if t == "" {
			return time.Time{}
		}
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			r.fail(field, "must be an RFC 3339 timestamp")
			return time.Time{}
		}
		return parsed
	default:
		// Unix milliseconds, as written by older console builds.
		if ms, ok := toFloat(v); ok {
			return time.UnixMilli(int64(ms)).UTC()
		}
		r.fail(field, "must be a timestamp, got %T", v)
		return time.Time{}
	}
}

func (r *fieldReader) OptionalTime(field string) *time.Time {
	t := r.Time(field)
	if t.IsZero() {
		return nil
	}
	return &t
}

// Strings accepts a list of strings. A single string is split on newlines,
// which covers ingredient lists stored as one free-text block.
func (r *fieldReader) Strings(field string) []string {
	v, ok := r.data[field]
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return cleanStrings(list)
	case []interface{}:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				r.fail(field, "element %d must be a string, got %T", i, item)
				return nil
			}
			out = append(out, s)
		}
		return cleanStrings(out)
	case string:
		return cleanStrings(strings.Split(list, "\n"))
	default:
		r.fail(field, "must be a list of strings, got %T", v)
		return nil
	}
}

func (r *fieldReader) Map(field string) Record {
	v, ok := r.data[field]
	if !ok || v == nil {
		return nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		r.fail(field, "must be an object, got %T", v)
		return nil
	}
	return m
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// uniqueStrings keeps first occurrences; category tags are a set.
func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func timeOrNil(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
