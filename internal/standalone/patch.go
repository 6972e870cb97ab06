package standalone

import (
	"encoding/json"
	"fmt"
)

// PatchFromRecord decodes a loosely-typed record (decoded JSON, intent
// event payloads) into a Patch. Unknown keys are ignored; wrongly typed
// values are an error.
func PatchFromRecord(record map[string]any) (Patch, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return Patch{}, fmt.Errorf("encode patch record: %w", err)
	}
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return Patch{}, fmt.Errorf("decode patch record: %w", err)
	}
	return p, nil
}
