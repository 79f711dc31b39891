// util/json.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// labelKeys are the members that identify an element of a scenario list:
// skyports by name, vehicles by id and routes by vehicle.
var labelKeys = []string{"name", "id", "vehicle"}

// elementLabel names the i'th element of a JSON array, preferring its
// identifying member when it has one.
func elementLabel(v any, i int) string {
	if m, ok := v.(map[string]any); ok {
		for _, k := range labelKeys {
			if s, ok := m[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("[%d]", i)
}

///////////////////////////////////////////////////////////////////////////
// Duplicate keys

// DuplicateJSONKey is a key repeated within one JSON object. Path leads
// to the object, with list elements named as elementLabel does.
type DuplicateJSONKey struct {
	Path []string
	Key  string
}

func (d DuplicateJSONKey) String() string {
	if len(d.Path) == 0 {
		return fmt.Sprintf("duplicate key %q", d.Key)
	}
	return fmt.Sprintf("%s: duplicate key %q", strings.Join(d.Path, " / "), d.Key)
}

// FindDuplicateJSONKeys reports every key that repeats within an object
// of data. encoding/json keeps the last value silently, so a scenario
// with two "num_pads" for one skyport would otherwise load without
// complaint. Malformed input ends the scan; the decode reports it.
func FindDuplicateJSONKeys(data []byte) []DuplicateJSONKey {
	w := dupWalker{dec: json.NewDecoder(bytes.NewReader(data))}
	w.dec.UseNumber()
	w.value(nil)
	return w.dups
}

type dupWalker struct {
	dec  *json.Decoder
	dups []DuplicateJSONKey
	err  error
}

func (w *dupWalker) token() json.Token {
	if w.err != nil {
		return nil
	}
	tok, err := w.dec.Token()
	if err != nil {
		w.err = err
		return nil
	}
	return tok
}

// value consumes one value and returns it if it was a string.
func (w *dupWalker) value(path []string) (string, bool) {
	switch v := w.token().(type) {
	case json.Delim:
		if v == '{' {
			w.object(path)
		} else if v == '[' {
			w.array(path)
		}
	case string:
		return v, true
	}
	return "", false
}

// object consumes the members of an object whose '{' has been read. An
// object that is a list element renames its path entry once its label
// member is seen, so later duplicates are reported against the label.
func (w *dupWalker) object(path []string) {
	element := len(path) > 0 && strings.HasPrefix(path[len(path)-1], "[")
	seen := make(map[string]bool)
	for w.err == nil && w.dec.More() {
		key, _ := w.token().(string)
		if seen[key] {
			w.dups = append(w.dups, DuplicateJSONKey{Path: slices.Clone(path), Key: key})
		}
		seen[key] = true

		s, ok := w.value(slices.Concat(path, []string{key}))
		if ok && element && s != "" && slices.Contains(labelKeys, key) {
			path[len(path)-1] = s
			element = false
		}
	}
	w.token()
}

func (w *dupWalker) array(path []string) {
	for i := 0; w.err == nil && w.dec.More(); i++ {
		w.value(slices.Concat(path, []string{fmt.Sprintf("[%d]", i)}))
	}
	w.token()
}

///////////////////////////////////////////////////////////////////////////
// Decoding

// UnmarshalJSONBytes decodes b into out; syntax and type errors are
// reported with the line and character where they occurred.
func UnmarshalJSONBytes[T any](b []byte, out *T) error {
	err := json.Unmarshal(b, out)

	var serr *json.SyntaxError
	var terr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &serr):
		line, char := lineChar(b, serr.Offset)
		return fmt.Errorf("error at line %d, character %d: %v", line, char, serr)
	case errors.As(err, &terr):
		line, char := lineChar(b, terr.Offset)
		return fmt.Errorf("error at line %d, character %d: %s value for %s.%s invalid for type %s",
			line, char, terr.Value, terr.Struct, terr.Field, terr.Type)
	default:
		return err
	}
}

func lineChar(b []byte, offset int64) (line, char int) {
	b = b[:min(int(offset), len(b))]
	line = 1 + bytes.Count(b, []byte{'\n'})
	char = 1 + len(b) - (bytes.LastIndexByte(b, '\n') + 1)
	return
}

///////////////////////////////////////////////////////////////////////////
// Field checks

// CheckJSON checks that contents is syntactically valid JSON and that
// every object key corresponds to a json-tagged field of T, logging
// unknown or mistyped entries to e under the path of the offending
// object.
func CheckJSON[T any](contents []byte, e *ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	var items any
	if err := UnmarshalJSONBytes(contents, &items); err != nil {
		e.Error(err)
		return
	}

	fc := fieldChecker{fields: make(map[reflect.Type]map[string]reflect.Type), e: e}
	fc.check(items, reflect.TypeFor[T]())
}

type fieldChecker struct {
	fields map[reflect.Type]map[string]reflect.Type // json name -> field type
	e      *ErrorLogger
}

func (fc *fieldChecker) check(v any, ty reflect.Type) {
	for ty.Kind() == reflect.Pointer {
		ty = ty.Elem()
	}

	switch ty.Kind() {
	case reflect.Array, reflect.Slice:
		list, ok := v.([]any)
		if !ok {
			fc.e.ErrorString("expected a list, got %s", jsonKind(v))
			return
		}
		for i, item := range list {
			fc.e.Push(elementLabel(item, i))
			fc.check(item, ty.Elem())
			fc.e.Pop()
		}

	case reflect.Struct:
		obj, ok := v.(map[string]any)
		if !ok {
			fc.e.ErrorString("expected an object, got %s", jsonKind(v))
			return
		}
		fields := fc.structFields(ty)
		for _, k := range slices.Sorted(maps.Keys(obj)) {
			fty, ok := fields[k]
			if !ok {
				fc.e.ErrorString("%q is not an expected field. Is it misspelled?", k)
				continue
			}
			fc.e.Push(k)
			fc.check(obj[k], fty)
			fc.e.Pop()
		}
	}
}

func (fc *fieldChecker) structFields(ty reflect.Type) map[string]reflect.Type {
	if f, ok := fc.fields[ty]; ok {
		return f
	}
	f := make(map[string]reflect.Type)
	for _, field := range reflect.VisibleFields(ty) {
		if tag, ok := field.Tag.Lookup("json"); ok {
			name, _, _ := strings.Cut(tag, ",")
			f[name] = field.Type
		}
	}
	fc.fields[ty] = f
	return f
}

func jsonKind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "an object"
	case []any:
		return "a list"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return "null"
	}
}
