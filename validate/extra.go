package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// DecodeExtra decodes the JSON object data into v and returns the members
// whose keys are not in known. The result is nil when every key is known.
// Numbers in the returned values are json.Number.
//
// Generated UnmarshalJSON methods of open objects call it with a method-less
// alias of their own type as v.
func DecodeExtra(data []byte, v any, known ...string) (map[string]any, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil || members == nil {
		// null, or not an object: v has already reported or ignored it.
		return nil, nil
	}
	var extra map[string]any
	for k, raw := range members {
		if slices.Contains(known, k) {
			continue
		}
		val, err := decode(raw)
		if err != nil {
			return nil, fmt.Errorf("validate: decode %q: %w", k, err)
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = val
	}
	return extra, nil
}

// EncodeExtra encodes v, which must encode as a JSON object, and appends the
// members of extra whose keys v did not write. Extra members follow the
// modeled ones, sorted by key.
func EncodeExtra(v any, extra map[string]any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var written map[string]json.RawMessage
	if err := json.Unmarshal(b, &written); err != nil || written == nil {
		return nil, fmt.Errorf("validate: encode %T: not an object", v)
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		if _, ok := written[k]; !ok {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return b, nil
	}
	slices.Sort(keys)

	var buf bytes.Buffer
	buf.Write(b[:len(b)-1])
	for i, k := range keys {
		if len(written) > 0 || i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, err := json.Marshal(extra[k])
		if err != nil {
			return nil, fmt.Errorf("validate: encode %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
