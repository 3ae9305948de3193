package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// maxPayloadDepth bounds nesting of structured payloads before they are
// serialized. Deeper values are rejected at encode time instead of producing
// pathological rows.
const maxPayloadDepth = 32

// ErrPayloadTooDeep indicates a structured payload nested beyond
// maxPayloadDepth.
var ErrPayloadTooDeep = errors.New("payload nesting too deep")

// marshalPayload serializes a structured value to its string form. Nil values
// serialize to the empty string so absent payloads stay absent in storage.
func marshalPayload(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	if err := checkDepth(reflect.ValueOf(v), maxPayloadDepth); err != nil {
		return "", err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(b), nil
}

// checkDepth walks maps, slices, arrays, pointers and structs, failing once
// the remaining budget is exhausted. Cycles exhaust the budget and fail
// rather than looping.
func checkDepth(v reflect.Value, budget int) error {
	if budget <= 0 {
		return ErrPayloadTooDeep
	}
	switch v.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return checkDepth(v.Elem(), budget)
	case reflect.Map:
		for iter := v.MapRange(); iter.Next(); {
			if err := checkDepth(iter.Value(), budget-1); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := checkDepth(v.Index(i), budget-1); err != nil {
				return err
			}
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if err := checkDepth(v.Field(i), budget-1); err != nil {
				return err
			}
		}
	}
	return nil
}

// unmarshalArguments restores a function-call argument map. A corrupted
// payload yields an empty map and ok=false; the caller records a diagnostic
// but keeps the item.
func unmarshalArguments(payload string) (args map[string]any, ok bool) {
	if payload == "" {
		return map[string]any{}, true
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(payload), &m); err != nil || m == nil {
		return map[string]any{}, false
	}
	return m, true
}

// unmarshalValue restores a function-result value. A corrupted payload yields
// nil and ok=false.
func unmarshalValue(payload string) (v any, ok bool) {
	if payload == "" {
		return nil, true
	}
	var out any
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, false
	}
	return out, true
}
