package paramtype

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// BinaryHandle marks a value as an opaque binary blob that must never be
// treated as text, even when it happens to be valid UTF-8. The executor's
// bind step passes BinaryHandle values through untouched.
type BinaryHandle []byte

// Detect derives the MySQL client-library type string for one bound value:
// null→'s', bool→'i', int→'i', float→'d', a BinaryHandle or any
// []byte/string containing an embedded NUL byte→'b', everything else→'s'.
// A NUL-free []byte or string is ordinary text and binds as 's': Go's typed
// byte/string split already does most of the work a NUL-sniffing language
// needs to separate "this is binary" from "this is text", but an embedded
// NUL can still truncate a C-string-based wire encoding, so it forces 'b'.
func Detect(v any) byte {
	if v == nil {
		return 's'
	}
	switch vv := v.(type) {
	case bool:
		return 'i'
	case BinaryHandle:
		return 'b'
	case []byte:
		if bytes.IndexByte(vv, 0) >= 0 {
			return 'b'
		}
		return 's'
	case string:
		if strings.IndexByte(vv, 0) >= 0 {
			return 'b'
		}
		return 's'
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return 'i'
	case reflect.Float32, reflect.Float64:
		return 'd'
	}
	return 's'
}

// DetectAll derives the types string for an ordered parameter list. The
// mapping is total: the returned string always has the same length as
// params.
func DetectAll(params []any) string {
	if len(params) == 0 {
		return ""
	}
	out := make([]byte, len(params))
	for i, p := range params {
		out[i] = Detect(p)
	}
	return string(out)
}

// stringCaster is implemented by any value that wants to be bound as its
// string form rather than as canonical JSON.
type stringCaster interface {
	String() string
}

// Preprocess transforms one value for binding: null→null, bool→0/1,
// numeric/binary-handle/string pass through unchanged, a value implementing
// String() binds as its string form, and any other sequence/record binds as
// canonical JSON.
func Preprocess(v any) any {
	if v == nil {
		return nil
	}
	switch vv := v.(type) {
	case bool:
		if vv {
			return 1
		}
		return 0
	case BinaryHandle:
		return []byte(vv)
	case []byte:
		return vv
	case string:
		return vv
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v
	}

	if sc, ok := v.(stringCaster); ok {
		return sc.String()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct, reflect.Ptr:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}

	return fmt.Sprintf("%v", v)
}

// PreprocessAll transforms an ordered parameter list, returning a new slice
// of the same length; params itself is left unchanged.
func PreprocessAll(params []any) []any {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = Preprocess(p)
	}
	return out
}
