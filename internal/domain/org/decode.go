package org

import "encoding/json"

// decodeViaJSON recovers a typed payload struct from the loosely-typed
// any the event store hands back after a JSON round trip (map[string]any
// for a replayed event, or the concrete struct for one just recorded in this
// process). A payload that does not unmarshal into T (e.g. a field of the
// wrong JSON type) surfaces as a decode error, which the caller classifies
// as domain.KindInternal — corrupted history, not a user mistake (spec.md
// §9). Missing fields are not an error; they keep their zero value.
func decodeViaJSON[T any](payload any) (T, error) {
	var out T
	raw, err := json.Marshal(payload)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}
