// exception.go normalizes arbitrary captured values (errors, plain objects,
// primitives) into wire exception records.

package tern

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// serializedExtraKey is the reserved extra field holding a size-bounded copy
// of a captured non-error object.
const serializedExtraKey = "__serialized__"

// maxSerializedBytes bounds the serialized copy of a captured non-error
// object.
const maxSerializedBytes = 16 << 10

// fallbackExceptionValue is used when neither a type nor a message could be
// derived from the captured value.
const fallbackExceptionValue = "Unrecoverable error caught"

// syntheticExceptionType labels exceptions synthesized from non-error values.
const syntheticExceptionType = "Error"

// buildException normalizes a captured value into the primary exception
// record. For non-error objects it additionally returns a size-bounded
// serialized copy destined for the event's extra under serializedExtraKey.
// The synthetic flag reports whether the exception was synthesized rather
// than taken from a real error.
func buildException(captured any, attachStacktrace bool) (exc Exception, serialized any, synthetic bool) {
	if err, ok := captured.(error); ok && err != nil {
		exc = exceptionFromError(err, attachStacktrace)
		if attachStacktrace && exc.Stacktrace == nil {
			exc.Stacktrace = NewStacktrace()
		}
		return exc, nil, false
	}

	var message string
	switch {
	case captured == nil:
		message = fallbackExceptionValue
	case isPlainObject(captured):
		// Grouping on top-level keys beats creating a new group whenever any
		// value changes.
		message = "Non-Error exception captured with keys: " + exceptionKeysForMessage(captured)
		serialized = boundedSerialized(captured)
	default:
		// Covers captured primitives: true stringifies to "true", 10 to "10".
		message = fmt.Sprintf("%v", captured)
		if message == "" {
			message = fallbackExceptionValue
		}
	}

	exc = Exception{Type: syntheticExceptionType, Value: message}
	if attachStacktrace {
		// A synthetic exception still gets a (rough) stack from the point of
		// capture.
		exc.Stacktrace = NewStacktrace()
	}
	return exc, serialized, true
}

// exceptionFromError builds the wire record for a single error. Only a stack
// carried by the error itself is attached here; capture-point fallback is the
// caller's concern.
func exceptionFromError(err error, attachStacktrace bool) Exception {
	exc := Exception{
		Type:  errorType(err),
		Value: errorMessage(err),
	}
	if attachStacktrace {
		exc.Stacktrace = ExtractStacktrace(err)
	}
	if exc.Type == "" && exc.Value == "" {
		exc.Value = fallbackExceptionValue
	}
	return exc
}

// walkErrorChain follows the error's unwrap chain and returns one record per
// cause, root cause first. The walk stops when no further cause exists or
// when the accumulated chain plus the primary exception reaches limit.
func walkErrorChain(err error, limit int, attachStacktrace bool) []Exception {
	var chain []Exception
	for cause := errors.Unwrap(err); cause != nil && len(chain)+1 < limit; cause = errors.Unwrap(cause) {
		chain = append([]Exception{exceptionFromError(cause, attachStacktrace)}, chain...)
	}
	return chain
}

func errorType(err error) string {
	t := reflect.TypeOf(err)
	if t == nil {
		return ""
	}
	return t.String()
}

// errorMessage returns the error's message, falling back to the wrapped
// cause's message when the outer error renders empty. This accommodates
// wrapper types that delegate their message entirely to an inner error.
func errorMessage(err error) string {
	message := err.Error()
	if message != "" {
		return message
	}
	if cause := errors.Unwrap(err); cause != nil {
		return cause.Error()
	}
	return ""
}

// isPlainObject reports whether the value is a map- or struct-shaped object
// rather than an error or a primitive.
func isPlainObject(value any) bool {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Map, reflect.Struct:
		return true
	case reflect.Ptr:
		return !v.IsNil() && v.Elem().Kind() == reflect.Struct
	default:
		return false
	}
}

// exceptionKeysForMessage renders the object's sorted top-level keys as a
// comma-joined list.
func exceptionKeysForMessage(value any) string {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	var keys []string
	switch v.Kind() {
	case reflect.Map:
		for _, key := range v.MapKeys() {
			keys = append(keys, fmt.Sprintf("%v", key.Interface()))
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			field := v.Type().Field(i)
			if field.IsExported() {
				keys = append(keys, field.Name)
			}
		}
	}

	if len(keys) == 0 {
		return "[object has no keys]"
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// boundedSerialized returns a copy of the value safe to place on the event's
// extra: values that fail to serialize degrade to their string rendering, and
// oversized serializations are truncated.
func boundedSerialized(value any) any {
	raw, err := json.Marshal(value)
	if err != nil {
		return truncateWithMarker(fmt.Sprintf("%v", value), maxSerializedBytes)
	}
	if len(raw) > maxSerializedBytes {
		return truncateWithMarker(string(raw), maxSerializedBytes)
	}
	return value
}

// truncateWithMarker truncates a string and appends a truncation marker.
func truncateWithMarker(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	marker := "...[TRUNCATED]"
	if maxLen <= len(marker) {
		return marker[:maxLen]
	}
	return s[:maxLen-len(marker)] + marker
}
