// Package ocsf holds the runtime helpers shared by generated OCSF packages:
// per-class identifiers, entity registries and the UID prefill helper.
package ocsf

import (
	"encoding/json"
	"math"
	"reflect"
)

// Payload keys filled by PrefillUIDs.
const (
	KeyCategoryUID = "category_uid"
	KeyClassUID    = "class_uid"
	KeyTypeUID     = "type_uid"
	KeyActivityID  = "activity_id"
)

// ClassInfo is the static identifier pair of an event class.
type ClassInfo struct {
	CategoryUID int
	ClassUID    int
}

// TypeUID returns the type_uid of the class for the given activity.
func (c ClassInfo) TypeUID(activityID int) int {
	return c.ClassUID*100 + activityID
}

// PrefillUIDs fills category_uid and class_uid from info when they are absent
// and derives type_uid as class_uid*100 + activity_id when activity_id is
// present and type_uid is absent. A class_uid already on the payload takes
// precedence over info.ClassUID for the derivation. Values present on the
// payload are never overwritten. The payload is modified in place and returned.
func PrefillUIDs(payload map[string]any, info ClassInfo) map[string]any {
	if payload == nil {
		payload = make(map[string]any)
	}
	if _, ok := payload[KeyCategoryUID]; !ok {
		payload[KeyCategoryUID] = info.CategoryUID
	}
	if _, ok := payload[KeyClassUID]; !ok {
		payload[KeyClassUID] = info.ClassUID
	}
	if _, ok := payload[KeyTypeUID]; ok {
		return payload
	}
	activity, ok := asInt(payload[KeyActivityID])
	if !ok {
		return payload
	}
	class, ok := asInt(payload[KeyClassUID])
	if !ok {
		class = info.ClassUID
	}
	payload[KeyTypeUID] = class*100 + activity
	return payload
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	// Generated enum types are named integer types.
	if rv := reflect.ValueOf(v); rv.IsValid() && rv.CanInt() {
		return int(rv.Int()), true
	}
	return 0, false
}
