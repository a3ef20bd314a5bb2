package fields

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"testing"

	"medvault/core/ledger"
	"medvault/core/validation"
)

func entryKeyBCS(timestampMs uint64) string {
	// contract key layout: ref bytes then trailing u64 timestamp
	raw := make([]byte, 40)
	binary.LittleEndian.PutUint64(raw[32:], timestampMs)
	return base64.StdEncoding.EncodeToString(raw)
}

func entryNode(refBytes []byte, timestampMs uint64, inline bool) ledger.DynamicFieldNode {
	refJSON, _ := json.Marshal(toInts(refBytes))
	nameJSON := json.RawMessage(fmt.Sprintf(`{"patient_ref_bytes": %s}`, refJSON))
	valueJSON := json.RawMessage(fmt.Sprintf(
		`{"patient_ref_bytes": %s, "entry_type": 5, "visit_date": "2025-04-02", "provider_specialty": "oncology", "visit_type": "followup", "status": "submitted", "content_hash": "deadbeef", "walrus_blob_id": "blob-1", "revoked": false}`,
		refJSON))

	node := ledger.DynamicFieldNode{
		Name: ledger.DynamicFieldName{
			Type: ledger.TypeRepr{Repr: "0xpkg::timeline::TimelineEntryKey"},
			JSON: nameJSON,
			BCS:  entryKeyBCS(timestampMs),
		},
	}
	if inline {
		node.Value = ledger.DynamicFieldValue{TypeName: "MoveValue", JSON: valueJSON}
	} else {
		node.Value = ledger.DynamicFieldValue{
			TypeName: "MoveObject",
			Address:  "0xentry1",
			Version:  7,
			Digest:   "digest-7",
			Contents: []ledger.MoveValue{{JSON: valueJSON}},
		}
	}
	return node
}

func toInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

func testRef() []byte {
	ref := make([]byte, 32)
	for i := range ref {
		ref[i] = byte(i + 1)
	}
	return ref
}

func TestDecodeEntryInline(t *testing.T) {
	d := NewDecoder(nil)
	got := d.Decode(entryNode(testRef(), 300, true))
	if got.Kind != KindTimelineEntry {
		t.Fatalf("expected timeline entry, got %s", got.Kind)
	}
	e := got.Entry
	if e.TimestampMs != 300 {
		t.Errorf("expected timestamp 300, got %d", e.TimestampMs)
	}
	if e.EntryType != 5 || e.EntryTypeName != "lab_result" {
		t.Errorf("unexpected entry type: %d %s", e.EntryType, e.EntryTypeName)
	}
	if e.LinkedObjectID != "" {
		t.Errorf("inline value must not carry a linked object, got %s", e.LinkedObjectID)
	}
	if e.BlobID != "blob-1" || e.ContentHash != "deadbeef" {
		t.Errorf("unexpected content fields: %s %s", e.BlobID, e.ContentHash)
	}
}

func TestDecodeEntryNested(t *testing.T) {
	d := NewDecoder(nil)
	got := d.Decode(entryNode(testRef(), 100, false))
	if got.Kind != KindTimelineEntry {
		t.Fatalf("expected timeline entry, got %s", got.Kind)
	}
	if got.Entry.LinkedObjectID != "0xentry1" {
		t.Errorf("expected linked object 0xentry1, got %s", got.Entry.LinkedObjectID)
	}
	if got.Entry.LinkedVersion != 7 || got.Entry.LinkedDigest != "digest-7" {
		t.Errorf("linked version/digest not captured")
	}
}

func TestDecodeShortBCSTimestampIsZero(t *testing.T) {
	d := NewDecoder(nil)
	node := entryNode(testRef(), 300, true)
	node.Name.BCS = base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	got := d.Decode(node)
	if got.Kind != KindTimelineEntry {
		t.Fatalf("short binary key must not abort the decode, got %s", got.Kind)
	}
	if got.Entry.TimestampMs != 0 {
		t.Errorf("expected unknown timestamp 0, got %d", got.Entry.TimestampMs)
	}
	if got.Entry.TimestampKnown() {
		t.Error("zero timestamp must report as unknown")
	}
}

func TestDecodeGarbageBCSTimestampIsZero(t *testing.T) {
	d := NewDecoder(nil)
	node := entryNode(testRef(), 300, true)
	node.Name.BCS = "%%%not-base64%%%"
	got := d.Decode(node)
	if got.Entry.TimestampMs != 0 {
		t.Errorf("expected 0 for undecodable binary key, got %d", got.Entry.TimestampMs)
	}
}

func TestDecodeUnknownEntryType(t *testing.T) {
	if name := EntryTypeName(42); name != "type_42" {
		t.Errorf("expected type_42 fallback, got %s", name)
	}
	if name := EntryTypeName(EntryImmunization); name != "immunization" {
		t.Errorf("expected immunization, got %s", name)
	}
}

func TestDecodeMissingDiscriminatorIsGeneric(t *testing.T) {
	d := NewDecoder(nil)
	node := entryNode(testRef(), 300, true)
	node.Value.JSON = json.RawMessage(`{"visit_date": "2025-04-02"}`)
	got := d.Decode(node)
	if got.Kind != KindGeneric {
		t.Errorf("value without entry_type must demote to generic, got %s", got.Kind)
	}
}

func TestDecodeSchemaFailureIsGeneric(t *testing.T) {
	v, err := validation.NewEntryValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	d := NewDecoder(v)
	node := entryNode(testRef(), 300, true)
	node.Value.JSON = json.RawMessage(`{"entry_type": "not-a-number"}`)
	got := d.Decode(node)
	if got.Kind != KindGeneric {
		t.Errorf("schema-invalid value must demote to generic, got %s", got.Kind)
	}
}

func TestDecodeDepositPool(t *testing.T) {
	d := NewDecoder(nil)
	node := ledger.DynamicFieldNode{
		Name: ledger.DynamicFieldName{
			Type: ledger.TypeRepr{Repr: "0xpkg::escrow::DepositPoolKey"},
		},
		Value: ledger.DynamicFieldValue{
			TypeName: "MoveValue",
			JSON:     json.RawMessage(`{"timeline_entry_id": "0xentry1", "patient_ref_bytes": [9,9], "creator": "0xdoc", "balance": 5000, "active": true}`),
		},
	}
	got := d.Decode(node)
	if got.Kind != KindDepositPool {
		t.Fatalf("expected deposit pool, got %s", got.Kind)
	}
	p := got.Pool
	if p.TimelineEntryID != "0xentry1" || p.Creator != "0xdoc" || p.Balance != 5000 || !p.Active {
		t.Errorf("unexpected pool: %+v", p)
	}
}

func TestDecodeUnrelatedKeyIsGeneric(t *testing.T) {
	d := NewDecoder(nil)
	node := ledger.DynamicFieldNode{
		Name:  ledger.DynamicFieldName{Type: ledger.TypeRepr{Repr: "0xpkg::misc::SomeOtherKey"}},
		Value: ledger.DynamicFieldValue{JSON: json.RawMessage(`{"x": 1}`)},
	}
	got := d.Decode(node)
	if got.Kind != KindGeneric {
		t.Errorf("expected generic, got %s", got.Kind)
	}
	if got.Raw.Name.Type.Repr == "" {
		t.Error("generic fields must preserve the raw node")
	}
}

func TestMergeCanonical(t *testing.T) {
	prov := TimelineEntry{
		EntryType:     1,
		EntryTypeName: "procedure",
		VisitDate:     "2025-01-01",
		Status:        "submitted",
		BlobID:        "prov-blob",
	}
	canonical := json.RawMessage(`{"entry_type": 4, "status": "approved"}`)
	got, err := MergeCanonical(prov, canonical)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if got.EntryType != 4 || got.EntryTypeName != "diagnosis" {
		t.Errorf("canonical entry type must win: %+v", got)
	}
	if got.Status != "approved" {
		t.Errorf("canonical status must win, got %s", got.Status)
	}
	if got.VisitDate != "2025-01-01" || got.BlobID != "prov-blob" {
		t.Errorf("absent canonical fields must keep provisional values: %+v", got)
	}
}
