package state

import (
	"encoding/json"
	"fmt"
)

// MergeCharacterFields applies a partial field map onto a character.
// The merge rule is deliberate and documented: JSON objects merge key
// by key recursively; arrays and scalars replace the previous value
// wholesale. Unknown field names are dropped when decoding back into
// the Character shape, so a malformed delta cannot graft arbitrary
// structure onto an entity. Derived stats are recomputed afterwards.
func MergeCharacterFields(c *Character, fields map[string]interface{}) error {
	if c == nil {
		return fmt.Errorf("character is nil")
	}
	if len(fields) == 0 {
		return nil
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal character: %w", err)
	}
	var current map[string]interface{}
	if err := json.Unmarshal(data, &current); err != nil {
		return fmt.Errorf("failed to decode character: %w", err)
	}

	merged := deepMerge(current, fields)

	out, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to marshal merged character: %w", err)
	}
	var updated Character
	if err := json.Unmarshal(out, &updated); err != nil {
		return fmt.Errorf("failed to apply character delta: %w", err)
	}

	*c = updated
	c.Hydrate()
	return nil
}

// deepMerge merges src into dst. Maps merge recursively; every other
// value in src replaces the corresponding dst value.
func deepMerge(dst, src map[string]interface{}) map[string]interface{} {
	if dst == nil {
		dst = make(map[string]interface{}, len(src))
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]interface{})
		dstMap, dstIsMap := dst[k].(map[string]interface{})
		if srcIsMap && dstIsMap {
			dst[k] = deepMerge(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
	return dst
}
