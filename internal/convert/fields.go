package convert

import (
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// fields is a request payload keyed by JSON field name.
type fields map[string]*structpb.Value

func fieldsOf(s *structpb.Struct) fields {
	if s == nil {
		return fields{}
	}
	return s.GetFields()
}

// present reports whether key is set to something other than null.
func (f fields) present(key string) bool {
	v, ok := f[key]
	if !ok || v == nil {
		return false
	}
	_, null := v.GetKind().(*structpb.Value_NullValue)
	return !null
}

func (f fields) str(key string) (string, bool, error) {
	if !f.present(key) {
		return "", false, nil
	}
	sv, ok := f[key].GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", false, fmt.Errorf("%s: want string", key)
	}
	return sv.StringValue, true, nil
}

// strOr returns the string at key or "" when absent.
func (f fields) strOr(key string) (string, error) {
	s, _, err := f.str(key)
	return s, err
}

func (f fields) strPtr(key string) (*string, error) {
	s, ok, err := f.str(key)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

// int reads a whole number. JSON numbers arrive as float64.
func (f fields) int(key string) (int64, bool, error) {
	if !f.present(key) {
		return 0, false, nil
	}
	nv, ok := f[key].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false, fmt.Errorf("%s: want number", key)
	}
	n := nv.NumberValue
	if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
		return 0, false, fmt.Errorf("%s: want whole number", key)
	}
	return int64(n), true, nil
}

// strings decodes a list of strings. A missing or null key yields nil;
// an empty list yields a non-nil empty slice.
func (f fields) strings(key string) ([]string, error) {
	if !f.present(key) {
		return nil, nil
	}
	lv, ok := f[key].GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, fmt.Errorf("%s: want list", key)
	}
	out := make([]string, 0, len(lv.ListValue.GetValues()))
	for i, v := range lv.ListValue.GetValues() {
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: want string", key, i)
		}
		out = append(out, sv.StringValue)
	}
	return out, nil
}

func (f fields) time(key string) (*time.Time, error) {
	s, ok, err := f.str(key)
	if err != nil || !ok {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	t = t.UTC()
	return &t, nil
}

func ts(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func tsPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return ts(*t)
}

func strList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
