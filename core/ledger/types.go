package ledger

import (
	"encoding/base64"
	"encoding/json"
)

// TypeRepr carries the textual type tag of a field key or value.
type TypeRepr struct {
	Repr string `json:"repr"`
}

// ByteArray decodes ledger byte vectors, which appear either as JSON arrays
// of numbers or as base64 strings depending on the projection.
type ByteArray []byte

func (b *ByteArray) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err == nil {
		out := make([]byte, len(ints))
		for i, v := range ints {
			out[i] = byte(v)
		}
		*b = out
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if raw, err := base64.StdEncoding.DecodeString(s); err == nil {
		*b = raw
		return nil
	}
	// keep the raw text; callers compare bytes and will simply not match
	*b = []byte(s)
	return nil
}

// DynamicFieldName is the typed key of a dynamic field. JSON is the key's
// JSON projection; BCS is the base64-wrapped binary encoding.
type DynamicFieldName struct {
	Type TypeRepr        `json:"type"`
	JSON json.RawMessage `json:"json"`
	BCS  string          `json:"bcs"`
}

// MoveValue is one content projection of a referenced object.
type MoveValue struct {
	JSON json.RawMessage `json:"json"`
	BCS  string          `json:"bcs"`
}

// DynamicFieldValue is the value side of a dynamic field. Inline values
// carry JSON/BCS directly; values stored as separate objects carry the
// object's own address, version, digest and content projections instead.
type DynamicFieldValue struct {
	TypeName string          `json:"__typename"`
	JSON     json.RawMessage `json:"json"`
	BCS      string          `json:"bcs"`
	Address  string          `json:"address"`
	Version  uint64          `json:"version"`
	Digest   string          `json:"digest"`
	Contents []MoveValue     `json:"contents"`
}

// DynamicFieldNode is one raw key/value entry attached to a container object.
type DynamicFieldNode struct {
	Name  DynamicFieldName  `json:"name"`
	Value DynamicFieldValue `json:"value"`
}

// WhitelistObject is an on-chain medical folder container with its full set
// of dynamic fields, accumulated across all result pages.
type WhitelistObject struct {
	Address       string             `json:"address"`
	Version       uint64             `json:"version"`
	Digest        string             `json:"digest"`
	Contents      json.RawMessage    `json:"contents,omitempty"`
	DynamicFields []DynamicFieldNode `json:"dynamicFields"`
}

// ObjectSnapshot is the canonical content of a single referenced object,
// fetched during enrichment.
type ObjectSnapshot struct {
	Address  string          `json:"address"`
	Version  uint64          `json:"version"`
	Digest   string          `json:"digest"`
	TypeRepr string          `json:"typeRepr"`
	JSON     json.RawMessage `json:"json"`
}
